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

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bookwormfood/bookworm/pkg/assert"
	"github.com/bookwormfood/bookworm/pkg/book"
	"github.com/bookwormfood/bookworm/pkg/clock"
	"github.com/pkg/errors"
)

var t0 = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := New(server.URL+"/api", "test")
	c.Clock = clock.NewMock()

	return c, server
}

func respondJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func TestFetchAll(t *testing.T) {
	var authHeader string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, r.Method, http.MethodGet, "method mismatch")
		assert.Equal(t, r.URL.Path, "/api/sync", "path mismatch")
		authHeader = r.Header.Get("Authorization")

		respondJSON(w, SyncResp{Books: []book.Book{
			{ISBN: "9780062457714", ReadStatus: book.StatusRead, TimestampUpdate: t0},
		}})
	}))

	books, err := c.FetchAll(context.Background(), "token-1")
	if err != nil {
		t.Fatal(errors.Wrap(err, "fetching"))
	}

	assert.Equal(t, authHeader, "Bearer token-1", "authorization header mismatch")
	assert.Equal(t, len(books), 1, "book count mismatch")
	assert.Equal(t, books[0].ReadStatus, book.StatusRead, "status mismatch")
}

func TestNoToken(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))

	ctx := context.Background()

	_, err := c.FetchAll(ctx, "")
	assert.ErrorIs(t, err, ErrNoToken, "fetch all")
	_, _, err = c.FetchOne(ctx, "", "9780062457714")
	assert.ErrorIs(t, err, ErrNoToken, "fetch one")
	err = c.Push(ctx, "", book.Book{ISBN: "9780062457714"})
	assert.ErrorIs(t, err, ErrNoToken, "push")
	err = c.Delete(ctx, "", "9780062457714")
	assert.ErrorIs(t, err, ErrNoToken, "delete")
	_, err = c.UploadPhoto(ctx, "", "9780062457714", []byte("jpeg"))
	assert.ErrorIs(t, err, ErrNoToken, "upload")

	assert.Equal(t, atomic.LoadInt32(&calls), int32(0), "server should not be called")
}

func TestFetchOne(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("isbn") == "9780062457714" {
			respondJSON(w, SyncResp{Books: []book.Book{{ISBN: "9780062457714", Title: "The Subtle Art"}}})
			return
		}

		respondJSON(w, SyncResp{Books: []book.Book{}})
	}))

	b, ok, err := c.FetchOne(context.Background(), "token", "9780062457714")
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, ok, true, "found mismatch")
	assert.Equal(t, b.Title, "The Subtle Art", "title mismatch")

	_, ok, err = c.FetchOne(context.Background(), "token", "9780000000001")
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, ok, false, "found mismatch")
}

func TestPush(t *testing.T) {
	var got book.Book
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, r.Method, http.MethodPost, "method mismatch")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Error(err)
		}

		respondJSON(w, got)
	}))

	synced := t0
	b := book.Book{
		ISBN:            "9780062457714",
		ReadStatus:      book.StatusLiked,
		TimestampUpdate: t0,
		TimestampSync:   &synced,
		Photos:          []string{"1700000000"},
		ShareID:         1700000000,
	}
	if err := c.Push(context.Background(), "token", b); err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, got.ReadStatus, book.StatusLiked, "status mismatch")
	assert.Equal(t, got.TimestampUpdate.Equal(t0), true, "timestamp mismatch")
	assert.Equal(t, got.TimestampSync == nil, true, "sync timestamp should not be sent")
	assert.Equal(t, len(got.Photos), 0, "photos should not be sent")
}

func TestRetry(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		var calls int32
		c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) < 3 {
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}

			respondJSON(w, SyncResp{})
		}))

		if _, err := c.FetchAll(context.Background(), "token"); err != nil {
			t.Fatal(err)
		}
		assert.Equal(t, atomic.LoadInt32(&calls), int32(3), "call count mismatch")
		assert.DeepEqual(t, c.Clock.(*clock.Mock).Slept(), []time.Duration{DefaultBackoff, 2 * DefaultBackoff}, "backoff mismatch")
	})

	t.Run("gives up", func(t *testing.T) {
		var calls int32
		c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			http.Error(w, "unavailable", http.StatusBadGateway)
		}))

		_, err := c.FetchAll(context.Background(), "token")
		assert.Equal(t, IsTransient(err), true, "error should be transient")
		assert.Equal(t, atomic.LoadInt32(&calls), int32(DefaultMaxAttempts), "call count mismatch")
	})

	t.Run("unauthorized", func(t *testing.T) {
		var calls int32
		c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		}))

		_, err := c.FetchAll(context.Background(), "token")
		assert.Equal(t, IsTransient(err), false, "error should not be transient")

		var httpErr *HTTPError
		if !errors.As(err, &httpErr) {
			t.Fatalf("expected an HTTPError, got %v", err)
		}
		assert.Equal(t, httpErr.IsUnauthorized(), true, "status mismatch")
		assert.Equal(t, httpErr.Message, "unauthorized", "message mismatch")
		assert.Equal(t, atomic.LoadInt32(&calls), int32(1), "call count mismatch")
	})
}

func TestContentTypeMismatch(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html></html>"))
	}))

	_, err := c.FetchAll(context.Background(), "token")
	assert.ErrorIs(t, err, ErrContentTypeMismatch, "error mismatch")
}

func TestDelete(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		var isbn string
		c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, r.Method, http.MethodDelete, "method mismatch")
			isbn = r.URL.Query().Get("isbn")
			respondJSON(w, map[string]string{"isbn": isbn})
		}))

		if err := c.Delete(context.Background(), "token", "9780062457714"); err != nil {
			t.Fatal(err)
		}
		assert.Equal(t, isbn, "9780062457714", "isbn mismatch")
	})

	t.Run("already gone", func(t *testing.T) {
		c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "not found", http.StatusNotFound)
		}))

		err := c.Delete(context.Background(), "token", "9780062457714")
		assert.Equal(t, err, nil, "missing record should not be an error")
	})
}

func newUploadServer(t *testing.T, putStatus int) (*Client, *[]byte) {
	var uploaded []byte
	mux := http.NewServeMux()
	var serverURL string

	mux.HandleFunc("/api/sync", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, r.Method, http.MethodPut, "method mismatch")
		assert.Equal(t, r.Header.Get("Authorization"), "Bearer token", "authorization mismatch")
		respondJSON(w, fmt.Sprintf("%s/uploads/photos/abc-9780062457714-1700000000.jpg?expires=1&sig=x", serverURL))
	})
	mux.HandleFunc("/uploads/photos/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, r.Header.Get("Authorization"), "", "upload should not carry the token")
		data, err := io.ReadAll(r.Body)
		if err != nil {
			t.Error(err)
		}
		uploaded = data
		w.WriteHeader(putStatus)
	})

	c, server := newTestClient(t, mux)
	serverURL = server.URL

	return c, &uploaded
}

func TestUploadPhoto(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		c, uploaded := newUploadServer(t, http.StatusOK)

		id, err := c.UploadPhoto(context.Background(), "token", "9780062457714", []byte("jpeg bytes"))
		if err != nil {
			t.Fatal(err)
		}

		assert.Equal(t, id, "1700000000", "photo id mismatch")
		assert.Equal(t, string(*uploaded), "jpeg bytes", "uploaded bytes mismatch")
	})

	t.Run("server error", func(t *testing.T) {
		c, _ := newUploadServer(t, http.StatusInternalServerError)

		_, err := c.UploadPhoto(context.Background(), "token", "9780062457714", []byte("jpeg bytes"))

		var uploadErr *UploadError
		if !errors.As(err, &uploadErr) {
			t.Fatalf("expected an UploadError, got %v", err)
		}
		assert.Equal(t, uploadErr.Status, http.StatusInternalServerError, "status mismatch")
	})

	t.Run("upload URL not retried", func(t *testing.T) {
		var calls int32
		c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
		}))

		_, err := c.UploadPhoto(context.Background(), "token", "9780062457714", []byte("jpeg bytes"))
		assert.Equal(t, IsTransient(err), true, "error should be transient")
		assert.Equal(t, atomic.LoadInt32(&calls), int32(1), "call count mismatch")
		assert.Equal(t, len(c.Clock.(*clock.Mock).Slept()), 0, "no backoff expected")
	})

	t.Run("no response", func(t *testing.T) {
		c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, "http://127.0.0.1:1/uploads/photos/abc-9780062457714-1700000000.jpg?sig=x")
		}))

		_, err := c.UploadPhoto(context.Background(), "token", "9780062457714", []byte("jpeg bytes"))

		var uploadErr *UploadError
		if !errors.As(err, &uploadErr) {
			t.Fatalf("expected an UploadError, got %v", err)
		}
		assert.Equal(t, uploadErr.Status, 0, "status mismatch")
	})
}

func TestSharedPhotos(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, r.URL.Path, "/api/share", "path mismatch")
		assert.Equal(t, r.Header.Get("Authorization"), "", "share should not carry a token")
		assert.Equal(t, r.URL.Query().Get("share_id"), "1700000000", "share id mismatch")
		assert.Equal(t, r.URL.Query().Get("isbn"), "9780062457714", "isbn mismatch")

		respondJSON(w, ShareResp{Photos: []string{"http://example.com/photos/x.jpg"}})
	}))

	photos, err := c.SharedPhotos(context.Background(), 1700000000, "9780062457714")
	if err != nil {
		t.Fatal(err)
	}
	assert.DeepEqual(t, photos, []string{"http://example.com/photos/x.jpg"}, "photos mismatch")
}
