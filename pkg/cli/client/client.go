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

// Package client provides interfaces for interacting with the cloud sync
// endpoint and the data structures for responses
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bookwormfood/bookworm/pkg/book"
	"github.com/bookwormfood/bookworm/pkg/cli/log"
	"github.com/bookwormfood/bookworm/pkg/clock"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// ErrNoToken is an error for a cloud call made without an ID token
var ErrNoToken = errors.New("no ID token")

// ErrContentTypeMismatch is an error for a response of an unexpected type
var ErrContentTypeMismatch = errors.New("content type mismatch")

// HTTPError represents an HTTP error response from the server
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf(`response %d "%s"`, e.StatusCode, e.Message)
}

// IsUnauthorized returns true if the server rejected the token
func (e *HTTPError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// UploadError is an error for a photo transfer that did not succeed. A
// Status of 0 means that no response was received.
type UploadError struct {
	Status int
	Err    error
}

func (e *UploadError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("upload failed with status 0: %v", e.Err)
	}

	return fmt.Sprintf("upload failed with status %d", e.Status)
}

// Unwrap returns the transport error, if any
func (e *UploadError) Unwrap() error {
	return e.Err
}

// IsTransient checks if the error is a network failure or a server side
// failure that may go away if the call is retried
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= 500 || httpErr.StatusCode == http.StatusTooManyRequests
	}

	var uploadErr *UploadError
	if errors.As(err, &uploadErr) {
		return uploadErr.Status == 0 || uploadErr.Status >= 500
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error

	return errors.As(err, &netErr)
}

var contentTypeApplicationJSON = "application/json"

const (
	// clientRateLimitPerSecond is the max requests per second the client will make
	clientRateLimitPerSecond = 50
	// clientRateLimitBurst is the burst capacity for rate limiting
	clientRateLimitBurst = 100

	// DefaultMaxAttempts is how many times an idempotent call is tried
	DefaultMaxAttempts = 3
	// DefaultBackoff is the wait before the first retry
	DefaultBackoff = 500 * time.Millisecond
)

// rateLimitedTransport wraps an http.RoundTripper with rate limiting
type rateLimitedTransport struct {
	transport http.RoundTripper
	limiter   *rate.Limiter
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Wait for rate limiter to allow the request
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.transport.RoundTrip(req)
}

// NewRateLimitedHTTPClient creates an HTTP client with rate limiting
func NewRateLimitedHTTPClient() *http.Client {
	// Calculate interval from rate: 1 second / requests per second
	interval := time.Second / time.Duration(clientRateLimitPerSecond)

	transport := &rateLimitedTransport{
		transport: http.DefaultTransport,
		limiter:   rate.NewLimiter(rate.Every(interval), clientRateLimitBurst),
	}
	return &http.Client{
		Transport: transport,
		Timeout:   30 * time.Second,
	}
}

// Client makes calls to the cloud sync endpoint. Every call that reads or
// writes a user's records needs an ID token.
type Client struct {
	// Endpoint is the base URL of the API, e.g. https://example.com/api
	Endpoint    string
	Version     string
	HTTPClient  *http.Client
	Clock       clock.Clock
	MaxAttempts int
	Backoff     time.Duration
}

// New returns a client for the given API endpoint
func New(endpoint, version string) *Client {
	return &Client{
		Endpoint:    strings.TrimRight(endpoint, "/"),
		Version:     version,
		HTTPClient:  NewRateLimitedHTTPClient(),
		Clock:       clock.New(),
		MaxAttempts: DefaultMaxAttempts,
		Backoff:     DefaultBackoff,
	}
}

func (c *Client) getReq(ctx context.Context, method, path, token string, body []byte) (*http.Request, error) {
	endpoint := fmt.Sprintf("%s%s", c.Endpoint, path)
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "constructing http request")
	}

	req.Header.Set("Bookworm-Version", c.Version)
	if body != nil {
		req.Header.Set("Content-Type", contentTypeApplicationJSON)
	}

	if token != "" {
		credential := fmt.Sprintf("Bearer %s", token)
		req.Header.Set("Authorization", credential)
	}

	return req, nil
}

// checkRespErr checks if the given http response indicates an error and
// returns an HTTPError carrying the response body if so
func checkRespErr(res *http.Response) error {
	if res.StatusCode < 400 {
		return nil
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.Wrapf(err, "server responded with %d but client could not read the response body", res.StatusCode)
	}

	bodyStr := string(body)
	return &HTTPError{
		StatusCode: res.StatusCode,
		Message:    strings.TrimRight(bodyStr, "\n"),
	}
}

func checkContentType(res *http.Response) error {
	got := res.Header.Get("Content-Type")
	if !strings.HasPrefix(got, contentTypeApplicationJSON) {
		return errors.Wrapf(ErrContentTypeMismatch, "got: '%s' want: '%s'. Did you configure your endpoint correctly?", got, contentTypeApplicationJSON)
	}

	return nil
}

// isIdempotent reports whether a call with the method may be repeated. A
// PUT to the sync endpoint reserves a new upload slot each time.
func isIdempotent(method string) bool {
	return method != http.MethodPut
}

// doReq does a http request to the given path in the api endpoint and
// retries transient failures. The caller must close the response body.
func (c *Client) doReq(ctx context.Context, method, path, token string, body []byte) (*http.Response, error) {
	maxAttempts := c.MaxAttempts
	if maxAttempts < 1 || !isIdempotent(method) {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := c.Backoff * time.Duration(1<<uint(attempt-1))
			log.Debug("retrying %s %s in %s\n", method, path, backoff)

			if err := c.Clock.Sleep(ctx, backoff); err != nil {
				return nil, errors.Wrap(err, "waiting to retry")
			}
		}

		res, err := c.do(ctx, method, path, token, body)
		if err == nil {
			return res, nil
		}
		if !IsTransient(err) || ctx.Err() != nil {
			return nil, err
		}

		lastErr = err
	}

	return nil, lastErr
}

func (c *Client) do(ctx context.Context, method, path, token string, body []byte) (*http.Response, error) {
	req, err := c.getReq(ctx, method, path, token, body)
	if err != nil {
		return nil, errors.Wrap(err, "getting request")
	}

	log.Debug("HTTP %s %s\n", method, path)

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "making http request")
	}

	log.Debug("HTTP %d %s\n", res.StatusCode, res.Status)

	if err = checkRespErr(res); err != nil {
		res.Body.Close()
		return nil, errors.Wrap(err, "server responded with an error")
	}

	if err = checkContentType(res); err != nil {
		res.Body.Close()
		return nil, errors.Wrap(err, "unexpected Content-Type")
	}

	return res, nil
}

// doAuthorizedReq does a http request to the given path in the api endpoint
// as a user. The given path should include the preceding slash.
func (c *Client) doAuthorizedReq(ctx context.Context, method, path, token string, body []byte) (*http.Response, error) {
	if token == "" {
		return nil, ErrNoToken
	}

	return c.doReq(ctx, method, path, token, body)
}

func decodeJSON(res *http.Response, v interface{}) error {
	defer res.Body.Close()

	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return errors.Wrap(err, "decoding the response")
	}

	return nil
}

// SyncResp is the response from the sync endpoint
type SyncResp struct {
	Books []book.Book `json:"books"`
}

// FetchAll returns every record of the user in the cloud
func (c *Client) FetchAll(ctx context.Context, token string) ([]book.Book, error) {
	res, err := c.doAuthorizedReq(ctx, http.MethodGet, "/sync", token, nil)
	if err != nil {
		return nil, errors.Wrap(err, "fetching books")
	}

	var resp SyncResp
	if err := decodeJSON(res, &resp); err != nil {
		return nil, err
	}

	return resp.Books, nil
}

// FetchOne returns the record of the user with the given ISBN, and whether
// the cloud has it
func (c *Client) FetchOne(ctx context.Context, token, isbn string) (book.Book, bool, error) {
	v := url.Values{}
	v.Set("isbn", isbn)

	path := fmt.Sprintf("/sync?%s", v.Encode())
	res, err := c.doAuthorizedReq(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return book.Book{}, false, errors.Wrapf(err, "fetching book %s", isbn)
	}

	var resp SyncResp
	if err := decodeJSON(res, &resp); err != nil {
		return book.Book{}, false, err
	}

	for _, b := range resp.Books {
		if b.ISBN == isbn {
			return b, true, nil
		}
	}

	return book.Book{}, false, nil
}

// Push writes the status and details of the record to the cloud
func (c *Client) Push(ctx context.Context, token string, b book.Book) error {
	payload := b.WithoutSync()
	// photos are attached through uploads only
	payload.Photos = nil
	payload.ShareID = 0

	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "marshaling payload")
	}

	res, err := c.doAuthorizedReq(ctx, http.MethodPost, "/sync", token, body)
	if err != nil {
		return errors.Wrapf(err, "pushing book %s", b.ISBN)
	}
	res.Body.Close()

	return nil
}

// Delete deletes the record of the user with the given ISBN from the cloud.
// It succeeds if the cloud does not have the record.
func (c *Client) Delete(ctx context.Context, token, isbn string) error {
	v := url.Values{}
	v.Set("isbn", isbn)

	path := fmt.Sprintf("/sync?%s", v.Encode())
	res, err := c.doAuthorizedReq(ctx, http.MethodDelete, path, token, nil)
	if err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return nil
		}

		return errors.Wrapf(err, "deleting book %s", isbn)
	}
	res.Body.Close()

	return nil
}

// UploadPhoto uploads a photo of the book in two phases. A signed upload URL
// is requested from the sync endpoint, and the bytes are then sent to that
// URL without the token. It returns the id of the new photo.
func (c *Client) UploadPhoto(ctx context.Context, token, isbn string, data []byte) (string, error) {
	body, err := json.Marshal(book.Book{ISBN: isbn})
	if err != nil {
		return "", errors.Wrap(err, "marshaling payload")
	}

	res, err := c.doAuthorizedReq(ctx, http.MethodPut, "/sync", token, body)
	if err != nil {
		return "", errors.Wrap(err, "requesting an upload URL")
	}

	var uploadURL string
	if err := decodeJSON(res, &uploadURL); err != nil {
		return "", err
	}

	photoID, err := book.PhotoIDFromURL(uploadURL)
	if err != nil {
		return "", errors.Wrap(err, "reading the upload URL")
	}

	if err := c.put(ctx, uploadURL, data); err != nil {
		return "", err
	}

	return photoID, nil
}

func (c *Client) put(ctx context.Context, uploadURL string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return errors.Wrap(err, "constructing http request")
	}
	req.Header.Set("Content-Type", "image/jpeg")

	log.Debug("HTTP PUT upload of %d bytes\n", len(data))

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return &UploadError{Err: err}
	}
	defer res.Body.Close()

	log.Debug("HTTP %d %s\n", res.StatusCode, res.Status)

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return &UploadError{Status: res.StatusCode}
	}

	return nil
}

// ShareResp is the response from the share endpoint
type ShareResp struct {
	Photos []string `json:"photos"`
}

// SharedPhotos returns the photo URLs another reader shared for the book
// under the given share id. It does not need a token.
func (c *Client) SharedPhotos(ctx context.Context, shareID uint64, isbn string) ([]string, error) {
	v := url.Values{}
	v.Set("share_id", strconv.FormatUint(shareID, 10))
	v.Set("isbn", isbn)

	path := fmt.Sprintf("/share?%s", v.Encode())
	res, err := c.doReq(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return nil, errors.Wrap(err, "fetching shared photos")
	}

	var resp ShareResp
	if err := decodeJSON(res, &resp); err != nil {
		return nil, err
	}

	return resp.Photos, nil
}
