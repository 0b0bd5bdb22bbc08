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

package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bookwormfood/bookworm/pkg/book"
	"github.com/bookwormfood/bookworm/pkg/cli/database"
	"github.com/bookwormfood/bookworm/pkg/cli/metadata"
	"github.com/bookwormfood/bookworm/pkg/cli/token"
	"github.com/bookwormfood/bookworm/pkg/clock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

const (
	isbnSubtleArt = "9780062457714"
	isbnDune      = "9780441172719"
	isbnHobbit    = "9780547928227"

	titleSubtleArt = "The Subtle Art of Not Giving a F*ck"
	photosBaseURL  = "https://bookworm.example.com"
	testEmail      = "reader@example.com"
)

var t0 = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

type fakeResolver struct {
	mu      sync.Mutex
	details map[string]book.Details
	err     error
	calls   int

	// entered receives a value when Resolve is called, if set. Resolve then
	// blocks until release is closed.
	entered chan struct{}
	release chan struct{}
}

func (r *fakeResolver) Resolve(ctx context.Context, isbn string) (book.Details, error) {
	r.mu.Lock()
	r.calls++
	entered, release := r.entered, r.release
	r.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
		select {
		case <-release:
		case <-ctx.Done():
			return book.Details{}, ctx.Err()
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return book.Details{}, r.err
	}

	d, ok := r.details[isbn]
	if !ok {
		return book.Details{}, &metadata.NotFoundError{ISBN: isbn, RetryAfter: t0.Add(metadata.DefaultCooldown)}
	}

	return d, nil
}

func (r *fakeResolver) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.calls
}

type fakeCloud struct {
	mu    sync.Mutex
	books map[string]book.Book

	fetchErr  error
	pushErr   error
	deleteErr error
	uploadErr error

	photoID string
	shared  []string

	pushes    int
	deletes   int
	fetchOnes int
}

func newFakeCloud() *fakeCloud {
	return &fakeCloud{books: map[string]book.Book{}, photoID: "1700000000"}
}

func (c *fakeCloud) put(b book.Book) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.books[b.ISBN] = b.Clone()
}

func (c *fakeCloud) get(isbn string) (book.Book, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.books[isbn]
	return b.Clone(), ok
}

func (c *fakeCloud) setErr(target *error, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	*target = err
}

func (c *fakeCloud) FetchAll(ctx context.Context, tok string) ([]book.Book, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fetchErr != nil {
		return nil, c.fetchErr
	}

	ret := []book.Book{}
	for _, b := range c.books {
		ret = append(ret, b.Clone())
	}

	return ret, nil
}

func (c *fakeCloud) FetchOne(ctx context.Context, tok, isbn string) (book.Book, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.fetchOnes++

	if c.fetchErr != nil {
		return book.Book{}, false, c.fetchErr
	}

	b, ok := c.books[isbn]
	return b.Clone(), ok, nil
}

func (c *fakeCloud) Push(ctx context.Context, tok string, b book.Book) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pushErr != nil {
		return c.pushErr
	}

	c.pushes++
	cur := c.books[b.ISBN]
	cur.ISBN = b.ISBN
	cur.Title = b.Title
	cur.Authors = b.Authors
	cur.ReadStatus = b.ReadStatus
	cur.TimestampUpdate = b.TimestampUpdate
	c.books[b.ISBN] = cur

	return nil
}

func (c *fakeCloud) Delete(ctx context.Context, tok, isbn string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.deleteErr != nil {
		return c.deleteErr
	}

	c.deletes++
	delete(c.books, isbn)

	return nil
}

func (c *fakeCloud) UploadPhoto(ctx context.Context, tok, isbn string, data []byte) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.uploadErr != nil {
		return "", c.uploadErr
	}

	cur := c.books[isbn]
	cur.ISBN = isbn
	c.books[isbn] = cur.WithNewPhoto(c.photoID)

	return c.photoID, nil
}

func (c *fakeCloud) SharedPhotos(ctx context.Context, shareID uint64, isbn string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]string(nil), c.shared...), nil
}

func (c *fakeCloud) FetchOnes() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.fetchOnes
}

type testEnv struct {
	engine   *Engine
	db       *database.DB
	resolver *fakeResolver
	cloud    *fakeCloud
	clock    *clock.Mock
}

func newTestEnv(t *testing.T) testEnv {
	db := database.InitTestMemoryDB(t)
	c := clock.NewMock()
	c.SetNow(t0)

	r := &fakeResolver{details: map[string]book.Details{
		isbnSubtleArt: {Title: titleSubtleArt, Authors: []string{"Mark Manson"}, Cover: "https://books.google.com/s"},
		isbnDune:      {Title: "Dune", Authors: []string{"Frank Herbert"}},
	}}
	cloud := newFakeCloud()

	e, err := New(Params{
		DB:            db,
		Resolver:      r,
		Cloud:         cloud,
		Clock:         c,
		PhotosBaseURL: photosBaseURL,
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "initializing engine"))
	}
	t.Cleanup(e.Close)

	return testEnv{engine: e, db: db, resolver: r, cloud: cloud, clock: c}
}

func mustMintToken(t *testing.T, email string) string {
	claims := token.Claims{
		Email:            email,
		EmailVerified:    true,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	}

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatal(errors.Wrap(err, "minting token"))
	}

	return tok
}

func mustWait(t *testing.T, ack *Ack) book.Book {
	t.Helper()

	if ack == nil {
		t.Fatal("expected a cloud acknowledgement")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	b, err := ack.Wait(ctx)
	if err != nil {
		t.Fatal(errors.Wrap(err, "waiting for the cloud"))
	}

	return b
}
