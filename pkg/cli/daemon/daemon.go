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

// Package daemon serves the message channel over HTTP. Requests are posted
// as JSON and the responses are streamed as server-sent events.
package daemon

import (
	"context"
	"net/http"
	"time"

	"github.com/bookwormfood/bookworm/pkg/cli/bus"
	"github.com/bookwormfood/bookworm/pkg/cli/log"
	"github.com/bookwormfood/bookworm/pkg/ratelimit"
	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	"github.com/pkg/errors"
)

const (
	// daemonRateLimitPerSecond is the max requests per second the daemon will accept per IP
	daemonRateLimitPerSecond = 20
	// daemonRateLimitBurst is the burst capacity for rate limiting
	daemonRateLimitBurst = 40

	// maxRequestSize bounds the body of a posted request, photos included
	maxRequestSize = 32 << 20
)

// Route represents a single route
type Route struct {
	Method    string
	Pattern   string
	Handler   http.HandlerFunc
	RateLimit bool
}

// Server is the HTTP surface of a dispatcher
type Server struct {
	dispatcher *bus.Dispatcher
	limiter    *ratelimit.RateLimiter
	decoder    *schema.Decoder
	router     *mux.Router
}

// New returns a server for the dispatcher
func New(d *bus.Dispatcher) *Server {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	s := &Server{
		dispatcher: d,
		limiter:    ratelimit.New(daemonRateLimitPerSecond, daemonRateLimitBurst),
		decoder:    decoder,
		router:     mux.NewRouter().StrictSlash(true),
	}
	s.limiter.OnLimit = func(identifier string) {
		log.Warnf("too many requests from %s\n", identifier)
	}

	for _, route := range s.routes() {
		var h http.Handler = route.Handler
		if route.RateLimit {
			h = s.limiter.Limit(h)
		}

		s.router.Handle(route.Pattern, h).Methods(route.Method)
	}

	return s
}

func (s *Server) routes() []Route {
	return []Route{
		{"POST", "/requests", s.createRequest, true},
		{"GET", "/events", s.events, true},
		{"GET", "/health", s.health, false},
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases the resources of the server
func (s *Server) Close() {
	s.limiter.Stop()
}

// ListenAndServe serves on the address until the context is done, then
// shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "listening")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutting down")
	}

	return nil
}
