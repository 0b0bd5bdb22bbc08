/* Copyright 2025 Bookworm Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package app

import (
	"time"

	"github.com/bookwormfood/bookworm/pkg/clock"
	"github.com/bookwormfood/bookworm/pkg/server/token"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var (
	// ErrEmptyDB is an error for missing database connection in the app configuration
	ErrEmptyDB = errors.New("No database connection was provided")
	// ErrEmptyClock is an error for missing clock in the app configuration
	ErrEmptyClock = errors.New("No clock was provided")
	// ErrEmptyPublicURL is an error for missing PublicURL content in the app configuration
	ErrEmptyPublicURL = errors.New("No PublicURL was provided")
	// ErrEmptyPhotoDir is an error for missing PhotoDir in the app configuration
	ErrEmptyPhotoDir = errors.New("No PhotoDir was provided")
	// ErrEmptySecret is an error for a missing signing secret in the app configuration
	ErrEmptySecret = errors.New("No signing secret was provided")
)

var (
	// ErrNotFound is an error for a record that does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidSignature is an error for an upload URL whose signature does not match
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrUploadExpired is an error for an upload URL used after its expiry
	ErrUploadExpired = errors.New("upload URL expired")
	// ErrEmptyPhoto is an error for an upload without any bytes
	ErrEmptyPhoto = errors.New("empty photo")
)

// App is an application context
type App struct {
	DB    *gorm.DB
	Clock clock.Clock
	// Verifier verifies the ID tokens of the requests
	Verifier token.Verifier
	// PublicURL is the URL at which the server is reachable by devices
	PublicURL string
	PhotoDir  string
	// UploadSecret signs the upload URLs
	UploadSecret []byte
	UploadTTL    time.Duration
}

// Validate validates the app configuration
func (a *App) Validate() error {
	if a.PublicURL == "" {
		return ErrEmptyPublicURL
	}
	if a.Clock == nil {
		return ErrEmptyClock
	}
	if a.DB == nil {
		return ErrEmptyDB
	}
	if a.PhotoDir == "" {
		return ErrEmptyPhotoDir
	}
	if len(a.UploadSecret) == 0 || len(a.Verifier.Secret) == 0 {
		return ErrEmptySecret
	}

	return nil
}
