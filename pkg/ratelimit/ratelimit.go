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

// Package ratelimit limits the requests of each client of an HTTP handler
package ratelimit

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter holds the rate limiting state for visitors
type RateLimiter struct {
	perSecond int
	burst     int

	// OnLimit is called with the identifier of a visitor whose request was
	// rejected
	OnLimit func(identifier string)

	visitors map[string]*visitor
	mtx      sync.RWMutex
	stop     chan struct{}
	once     sync.Once
}

// New creates a rate limiter allowing perSecond requests per second to each
// visitor, with the given burst capacity
func New(perSecond, burst int) *RateLimiter {
	rl := &RateLimiter{
		perSecond: perSecond,
		burst:     burst,
		visitors:  make(map[string]*visitor),
		stop:      make(chan struct{}),
	}
	go rl.cleanupVisitors()
	return rl
}

// Stop ends the cleanup of idle visitors
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() {
		close(rl.stop)
	})
}

// addVisitor adds a new visitor to the map and returns a limiter for the visitor
func (rl *RateLimiter) addVisitor(identifier string) *rate.Limiter {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()

	// another request may have added it meanwhile
	if v, ok := rl.visitors[identifier]; ok {
		return v.limiter
	}

	interval := time.Second / time.Duration(rl.perSecond)
	limiter := rate.NewLimiter(rate.Every(interval), rl.burst)
	rl.visitors[identifier] = &visitor{
		limiter:  limiter,
		lastSeen: time.Now(),
	}

	return limiter
}

// getVisitor returns a limiter for a visitor with the given identifier. It
// adds the visitor to the map if not seen before.
func (rl *RateLimiter) getVisitor(identifier string) *rate.Limiter {
	rl.mtx.RLock()
	v, exists := rl.visitors[identifier]
	rl.mtx.RUnlock()

	if !exists {
		return rl.addVisitor(identifier)
	}

	rl.mtx.Lock()
	v.lastSeen = time.Now()
	rl.mtx.Unlock()

	return v.limiter
}

// cleanupVisitors deletes visitors that has not been seen in a while from the
// map of visitors
func (rl *RateLimiter) cleanupVisitors() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
		}

		rl.mtx.Lock()
		for identifier, v := range rl.visitors {
			if time.Since(v.lastSeen) > 3*time.Minute {
				delete(rl.visitors, identifier)
			}
		}
		rl.mtx.Unlock()
	}
}

// LookupIP returns the request's IP
func LookupIP(r *http.Request) string {
	realIP := r.Header.Get("X-Real-IP")
	forwardedFor := r.Header.Get("X-Forwarded-For")

	if forwardedFor != "" {
		parts := strings.Split(forwardedFor, ",")
		return strings.TrimSpace(parts[0])
	}

	if realIP != "" {
		return realIP
	}

	return r.RemoteAddr
}

// Allow reports whether the visitor may make a request now
func (rl *RateLimiter) Allow(identifier string) bool {
	return rl.getVisitor(identifier).Allow()
}

// Limit is a middleware to rate limit the handler
func (rl *RateLimiter) Limit(next http.Handler) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identifier := LookupIP(r)

		if !rl.Allow(identifier) {
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			if rl.OnLimit != nil {
				rl.OnLimit(identifier)
			}
			return
		}

		next.ServeHTTP(w, r)
	})
}
