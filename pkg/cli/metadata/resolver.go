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

// Package metadata resolves an ISBN into book details using the Google Books
// volume search
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bookwormfood/bookworm/pkg/book"
	"github.com/bookwormfood/bookworm/pkg/cli/log"
	"github.com/bookwormfood/bookworm/pkg/clock"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

const (
	// DefaultEndpoint is the Google Books volume search endpoint
	DefaultEndpoint = "https://www.googleapis.com/books/v1/volumes"
	// DefaultCooldown is how long a lookup that found nothing is trusted
	DefaultCooldown = 24 * time.Hour
	// DefaultMaxAttempts is how many times a transient failure is tried
	DefaultMaxAttempts = 3
	// DefaultBackoff is the wait before the first retry. It doubles on
	// each retry.
	DefaultBackoff = 500 * time.Millisecond
	// DefaultCoverWidth is the preferred cover width in pixels
	DefaultCoverWidth = 300

	resolverRateLimitPerSecond = 5
	resolverRateLimitBurst     = 5
)

// ErrNotFound is an error for an ISBN the provider does not know
var ErrNotFound = errors.New("no metadata found")

// NotFoundError is returned for an ISBN the provider does not know. The
// provider is not asked again about it before RetryAfter.
type NotFoundError struct {
	ISBN       string
	RetryAfter time.Time
	// Cached is set if the provider was not asked this time
	Cached bool
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no metadata found for %s, retry after %s", e.ISBN, e.RetryAfter.Format(time.RFC3339))
}

// Is makes errors.Is(err, ErrNotFound) hold for a NotFoundError
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// TransientError is returned when the provider could not be reached after
// every attempt
type TransientError struct {
	Attempts int
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("metadata provider unavailable after %d attempts: %v", e.Attempts, e.Err)
}

// Unwrap returns the last failure
func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient checks if the error chain contains a TransientError
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// Cache remembers lookups that found nothing
type Cache interface {
	Get(isbn string) (time.Time, bool, error)
	Put(isbn string, at time.Time) error
	Delete(isbn string) error
}

// Resolver looks up book details by ISBN
type Resolver struct {
	Endpoint    string
	HTTPClient  *http.Client
	Cache       Cache
	Clock       clock.Clock
	Cooldown    time.Duration
	MaxAttempts int
	Backoff     time.Duration
	CoverWidth  int

	limiter *rate.Limiter
}

// New returns a resolver with the default policy. An empty endpoint selects
// Google Books.
func New(endpoint string, cache Cache, c clock.Clock) *Resolver {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if c == nil {
		c = clock.New()
	}

	return &Resolver{
		Endpoint:    endpoint,
		HTTPClient:  &http.Client{Timeout: 15 * time.Second},
		Cache:       cache,
		Clock:       c,
		Cooldown:    DefaultCooldown,
		MaxAttempts: DefaultMaxAttempts,
		Backoff:     DefaultBackoff,
		CoverWidth:  DefaultCoverWidth,
		limiter:     rate.NewLimiter(rate.Every(time.Second/resolverRateLimitPerSecond), resolverRateLimitBurst),
	}
}

// retryableError marks a failure worth another attempt
type retryableError struct {
	err error
}

func (e retryableError) Error() string {
	return e.err.Error()
}

// Resolve returns the details of the book with the given ISBN.
//
// A NotFoundError is cached. Until the cooldown passes it is returned
// without asking the provider; after that the provider is asked once, and
// another miss starts a new cooldown. Transient failures are retried with a
// doubling backoff and then returned as a TransientError.
func (r *Resolver) Resolve(ctx context.Context, isbn string) (book.Details, error) {
	if err := book.ValidateISBN(isbn); err != nil {
		return book.Details{}, err
	}

	if r.Cache != nil {
		failedAt, ok, err := r.Cache.Get(isbn)
		if err != nil {
			return book.Details{}, errors.Wrap(err, "reading the lookup cache")
		}
		if ok {
			retryAfter := failedAt.Add(r.Cooldown)
			if r.Clock.Now().Before(retryAfter) {
				log.Debug("metadata for %s cached as missing until %s\n", isbn, retryAfter)
				return book.Details{}, &NotFoundError{ISBN: isbn, RetryAfter: retryAfter, Cached: true}
			}
		}
	}

	vols, err := r.search(ctx, isbn)
	if err != nil {
		return book.Details{}, err
	}

	if len(vols.Items) == 0 {
		now := r.Clock.Now()
		if r.Cache != nil {
			if err := r.Cache.Put(isbn, now); err != nil {
				return book.Details{}, errors.Wrap(err, "caching the missing lookup")
			}
		}

		return book.Details{}, &NotFoundError{ISBN: isbn, RetryAfter: now.Add(r.Cooldown)}
	}

	if r.Cache != nil {
		if err := r.Cache.Delete(isbn); err != nil {
			log.Debug("clearing lookup cache for %s: %s\n", isbn, err)
		}
	}

	return vols.Items[0].VolumeInfo.Details(r.CoverWidth), nil
}

func (r *Resolver) search(ctx context.Context, isbn string) (Volumes, error) {
	var ret Volumes

	maxAttempts := r.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := r.Backoff * time.Duration(1<<uint(attempt-1))
			log.Debug("retrying metadata lookup for %s in %s\n", isbn, backoff)

			if err := r.Clock.Sleep(ctx, backoff); err != nil {
				return ret, errors.Wrap(err, "waiting to retry")
			}
		}

		vols, err := r.do(ctx, isbn)
		if err == nil {
			return vols, nil
		}

		var re retryableError
		if !errors.As(err, &re) {
			return ret, err
		}

		lastErr = re.err
	}

	return ret, &TransientError{Attempts: maxAttempts, Err: lastErr}
}

func (r *Resolver) do(ctx context.Context, isbn string) (Volumes, error) {
	var ret Volumes

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return ret, errors.Wrap(err, "waiting for the rate limiter")
		}
	}

	q := url.Values{}
	q.Set("q", "isbn:"+isbn)
	endpoint := fmt.Sprintf("%s?%s", r.Endpoint, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ret, errors.Wrap(err, "constructing http request")
	}

	log.Debug("HTTP GET %s\n", endpoint)

	res, err := r.HTTPClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ret, errors.Wrap(err, "making http request")
		}
		return ret, retryableError{errors.Wrap(err, "making http request")}
	}
	defer res.Body.Close()

	log.Debug("HTTP %d %s\n", res.StatusCode, res.Status)

	if res.StatusCode == http.StatusNotFound {
		return ret, nil
	}
	if res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= 500 {
		return ret, retryableError{errors.Errorf("provider responded with %d", res.StatusCode)}
	}
	if res.StatusCode >= 400 {
		body, _ := io.ReadAll(res.Body)
		return ret, errors.Errorf("provider responded with %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(res.Body).Decode(&ret); err != nil {
		return ret, errors.Wrap(err, "decoding the response")
	}

	return ret, nil
}
