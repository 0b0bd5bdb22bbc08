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

// Package token verifies and mints the ID tokens devices present to the server
package token

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

var (
	// ErrInvalidToken is an error for a token that fails verification
	ErrInvalidToken = errors.New("invalid ID token")
	// ErrMissingEmail is an error for a verified token without an email claim
	ErrMissingEmail = errors.New("ID token has no email")
)

// Claims are the claims of an ID token
type Claims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	jwt.RegisteredClaims
}

// UserKey returns the key identifying the owner of the token
func (c Claims) UserKey() string {
	return strings.ToLower(strings.TrimSpace(c.Email))
}

// Verifier verifies HS256 ID tokens
type Verifier struct {
	Secret []byte
	// Audience is checked only if it is set
	Audience string
	// Now overrides the time used for checking expiry
	Now func() time.Time
}

// Verify parses the raw token, checks its signature and expiry, and returns
// its claims
func (v Verifier) Verify(raw string) (Claims, error) {
	var claims Claims

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.Audience))
	}
	if v.Now != nil {
		opts = append(opts, jwt.WithTimeFunc(v.Now))
	}

	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return v.Secret, nil
	}, opts...)
	if err != nil {
		return Claims{}, errors.Wrap(ErrInvalidToken, err.Error())
	}

	if claims.UserKey() == "" {
		return Claims{}, ErrMissingEmail
	}

	return claims, nil
}

// Mint signs a token for the given email that expires after ttl
func Mint(secret []byte, email, audience string, now time.Time, ttl time.Duration) (string, error) {
	claims := Claims{
		Email:         email,
		EmailVerified: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strings.ToLower(email),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if audience != "" {
		claims.Audience = jwt.ClaimStrings{audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}

	return signed, nil
}
