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
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/bookwormfood/bookworm/pkg/server/log"
)

func TestLimit(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	limiter := NewRateLimiter()
	defer limiter.Stop()
	middleware := limiter.Limit(handler)

	// Make burst + 5 requests from same IP
	numRequests := serverRateLimitBurst + 5
	blockedCount := 0

	for range numRequests {
		req := httptest.NewRequest("GET", "/test", nil)
		req.RemoteAddr = "192.168.1.1:1234"
		w := httptest.NewRecorder()

		middleware.ServeHTTP(w, req)

		if w.Code == http.StatusTooManyRequests {
			blockedCount++
		}
	}

	// At least some requests after burst should be blocked
	if blockedCount == 0 {
		t.Error("Expected some requests to be rate limited after burst")
	}
	if !strings.Contains(buf.String(), "Too many requests") {
		t.Errorf("Expected the rejected requests to be logged, got %q", buf.String())
	}
}

func TestApplyLimit_Test(t *testing.T) {
	t.Setenv("APP_ENV", "TEST")

	calls := 0
	h := ApplyLimit(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}, true)

	for range serverRateLimitBurst + 5 {
		req := httptest.NewRequest("GET", "/test", nil)
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	if calls != serverRateLimitBurst+5 {
		t.Errorf("Expected no limit in the test environment, got %d calls", calls)
	}
}
