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

// Package context defines bookworm context
package context

import (
	"net/http"
	"time"

	"github.com/bookwormfood/bookworm/pkg/cli/bus"
	"github.com/bookwormfood/bookworm/pkg/cli/database"
	"github.com/bookwormfood/bookworm/pkg/cli/engine"
	"github.com/bookwormfood/bookworm/pkg/clock"
)

// Paths contain directory definitions
type Paths struct {
	Home   string
	Config string
	Data   string
	Cache  string
}

// BookwormCtx is a context holding the information of the current runtime
type BookwormCtx struct {
	Paths            Paths
	Version          string
	DB               *database.DB
	Clock            clock.Clock
	HTTPClient       *http.Client
	APIEndpoint      string
	MetadataEndpoint string
	PhotosBaseURL    string
	IDToken          string
	ListenAddr       string
	InboxDir         string
	ResolverCooldown time.Duration

	Engine     *engine.Engine
	Dispatcher *bus.Dispatcher
}

// Close stops the background work and closes the database
func (c BookwormCtx) Close() error {
	if c.Dispatcher != nil {
		c.Dispatcher.Close()
	}
	if c.Engine != nil {
		c.Engine.Close()
	}
	if c.DB != nil {
		return c.DB.Close()
	}

	return nil
}

// Redact replaces private information from the context with a set of
// placeholder values.
func Redact(ctx BookwormCtx) BookwormCtx {
	var idToken string
	if ctx.IDToken != "" {
		idToken = "1"
	} else {
		idToken = "0"
	}
	ctx.IDToken = idToken

	return ctx
}
