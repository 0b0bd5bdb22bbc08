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
	"time"

	"github.com/bookwormfood/bookworm/pkg/server/context"
	"github.com/bookwormfood/bookworm/pkg/server/helpers"
	"github.com/bookwormfood/bookworm/pkg/server/log"
)

// RequestIDHeader carries the id of a request in both directions
const RequestIDHeader = "X-Request-ID"

// Middleware wraps a route handler
type Middleware func(h http.HandlerFunc, rateLimit bool) http.Handler

// APIMw is the middleware of the API routes
func APIMw(h http.HandlerFunc, rateLimit bool) http.Handler {
	return ApplyLimit(h, rateLimit)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Global is the middleware for every request. It assigns a request id and
// logs the request once it is served.
func Global(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if !helpers.ValidateUUID(id) {
			var err error
			if id, err = helpers.GenUUID(); err != nil {
				DoError(w, "generating request id", err, http.StatusInternalServerError)
				return
			}
		}
		w.Header().Set(RequestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r.WithContext(context.WithRequestID(r.Context(), id)))

		log.WithFields(log.Fields{
			"requestId":  id,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"durationMs": time.Since(start).Milliseconds(),
			"userAgent":  r.UserAgent(),
			"clientVer":  r.Header.Get("Bookworm-Version"),
		}).Info("Request served.")
	})
}
