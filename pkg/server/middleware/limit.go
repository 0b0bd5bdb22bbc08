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
	"os"

	"github.com/bookwormfood/bookworm/pkg/ratelimit"
	"github.com/bookwormfood/bookworm/pkg/server/log"
)

const (
	// serverRateLimitPerSecond is the max requests per second the server will accept per IP
	serverRateLimitPerSecond = 50
	// serverRateLimitBurst is the burst capacity for rate limiting
	serverRateLimitBurst = 100
)

// NewRateLimiter creates a rate limiter that logs the rejected requests
func NewRateLimiter() *ratelimit.RateLimiter {
	rl := ratelimit.New(serverRateLimitPerSecond, serverRateLimitBurst)
	rl.OnLimit = func(identifier string) {
		log.WithFields(log.Fields{
			"ip": identifier,
		}).Warn("Too many requests")
	}

	return rl
}

var defaultLimiter = NewRateLimiter()

// ApplyLimit applies rate limit conditionally using the global limiter
func ApplyLimit(h http.HandlerFunc, rateLimit bool) http.Handler {
	ret := h

	if rateLimit && os.Getenv("APP_ENV") != "TEST" {
		ret = defaultLimiter.Limit(ret)
	}

	return ret
}
