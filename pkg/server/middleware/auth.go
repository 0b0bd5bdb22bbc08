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

package middleware

import (
	"net/http"
	"strings"

	"github.com/bookwormfood/bookworm/pkg/server/context"
	"github.com/bookwormfood/bookworm/pkg/server/log"
	"github.com/bookwormfood/bookworm/pkg/server/token"
	"github.com/pkg/errors"
)

// ErrMalformedAuthorization is an error for an Authorization header that is
// not a bearer token
var ErrMalformedAuthorization = errors.New("malformed Authorization header")

// GetCredential extracts the bearer token from the Authorization header. It
// returns an empty string if the request has no credential.
func GetCredential(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", nil
	}

	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrMalformedAuthorization
	}

	return strings.TrimSpace(parts[1]), nil
}

// Auth is an authentication middleware. It verifies the ID token of the
// request and puts its claims into the request context.
func Auth(v token.Verifier, next http.HandlerFunc) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := GetCredential(r)
		if err != nil || raw == "" {
			RespondUnauthorized(w)
			return
		}

		claims, err := v.Verify(raw)
		if err != nil {
			log.WithFields(log.Fields{
				"requestId": context.RequestID(r.Context()),
			}).Debug(err.Error())

			RespondUnauthorized(w)
			return
		}

		ctx := context.WithUser(r.Context(), claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
