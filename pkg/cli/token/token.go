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

// Package token reads the claims of the ID token a device presents to the
// cloud. The token is verified by the cloud only.
package token

import (
	"strings"

	"github.com/bookwormfood/bookworm/pkg/book"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// ErrInvalidToken is an error for a value that is not a JWT
var ErrInvalidToken = errors.New("invalid ID token")

// Claims are the claims of an ID token the app relies on
type Claims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	jwt.RegisteredClaims
}

// Parse decodes the claims of the token without checking its signature
func Parse(raw string) (Claims, error) {
	var ret Claims

	raw = strings.TrimSpace(strings.TrimPrefix(raw, "Bearer "))
	if raw == "" {
		return ret, errors.Wrap(ErrInvalidToken, "empty")
	}

	if _, _, err := jwt.NewParser().ParseUnverified(raw, &ret); err != nil {
		return ret, errors.Wrap(ErrInvalidToken, err.Error())
	}

	return ret, nil
}

// OwnerID returns the key under which the photos of the token's user are
// stored. It falls back to the subject if the token has no email.
func (c Claims) OwnerID() string {
	if c.Email != "" {
		return book.OwnerID(c.Email)
	}

	return c.Subject
}
