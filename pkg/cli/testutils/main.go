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

// Package testutils provides utilities used in tests of the engine and the
// surfaces built on it
package testutils

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/bookwormfood/bookworm/pkg/book"
	"github.com/bookwormfood/bookworm/pkg/cli/database"
	"github.com/bookwormfood/bookworm/pkg/cli/engine"
	"github.com/bookwormfood/bookworm/pkg/cli/metadata"
	"github.com/bookwormfood/bookworm/pkg/cli/token"
	"github.com/bookwormfood/bookworm/pkg/clock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

const (
	// ISBNSubtleArt is known to the Resolver
	ISBNSubtleArt = "9780062457714"
	// ISBNDune is known to the Resolver
	ISBNDune = "9780441172719"
	// ISBNUnknown is unknown to the Resolver
	ISBNUnknown = "9780547928227"

	// TitleSubtleArt is the title of ISBNSubtleArt
	TitleSubtleArt = "The Subtle Art of Not Giving a F*ck"
	// PhotosBaseURL is the photo host of test engines
	PhotosBaseURL = "https://bookworm.example.com"
	// Email is the email in tokens minted by MustMintToken
	Email = "reader@example.com"
	// PhotoID is the id the Cloud gives every uploaded photo
	PhotoID = "1700000000"
)

// T0 is the time a test engine starts at
var T0 = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// Resolver knows the details of ISBNSubtleArt and ISBNDune
type Resolver struct {
	mu    sync.Mutex
	calls int
}

// Resolve returns the details of known books and a NotFoundError otherwise
func (r *Resolver) Resolve(ctx context.Context, isbn string) (book.Details, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()

	switch isbn {
	case ISBNSubtleArt:
		return book.Details{Title: TitleSubtleArt, Authors: []string{"Mark Manson"}}, nil
	case ISBNDune:
		return book.Details{Title: "Dune", Authors: []string{"Frank Herbert"}}, nil
	}

	return book.Details{}, &metadata.NotFoundError{ISBN: isbn, RetryAfter: T0.Add(metadata.DefaultCooldown)}
}

// Calls returns how many times Resolve was called
func (r *Resolver) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.calls
}

// Cloud is an in-memory cloud endpoint
type Cloud struct {
	mu      sync.Mutex
	books   map[string]book.Book
	shared  []string
	uploads [][]byte

	DeleteErr error
	UploadErr error
}

// NewCloud returns an empty cloud
func NewCloud() *Cloud {
	return &Cloud{books: map[string]book.Book{}}
}

// Put stores a cloud copy
func (c *Cloud) Put(b book.Book) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.books[b.ISBN] = b
}

// Get returns the cloud copy of a book
func (c *Cloud) Get(isbn string) (book.Book, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.books[isbn]
	return b, ok
}

// Share sets the photo URLs every share lookup returns
func (c *Cloud) Share(urls []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.shared = urls
}

// Uploads returns the content of every accepted photo
func (c *Cloud) Uploads() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([][]byte{}, c.uploads...)
}

// FetchAll returns every cloud copy
func (c *Cloud) FetchAll(ctx context.Context, tok string) ([]book.Book, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ret := []book.Book{}
	for _, b := range c.books {
		ret = append(ret, b)
	}
	return ret, nil
}

// FetchOne returns the cloud copy of a book
func (c *Cloud) FetchOne(ctx context.Context, tok, isbn string) (book.Book, bool, error) {
	b, ok := c.Get(isbn)
	return b, ok, nil
}

// Push stores a record without its local sync mark
func (c *Cloud) Push(ctx context.Context, tok string, b book.Book) error {
	c.Put(b.WithoutSync())
	return nil
}

// Delete removes the cloud copy of a book
func (c *Cloud) Delete(ctx context.Context, tok, isbn string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.DeleteErr != nil {
		return c.DeleteErr
	}
	delete(c.books, isbn)
	return nil
}

// UploadPhoto accepts a photo and returns PhotoID
func (c *Cloud) UploadPhoto(ctx context.Context, tok, isbn string, data []byte) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.UploadErr != nil {
		return "", c.UploadErr
	}
	c.uploads = append(c.uploads, data)
	return PhotoID, nil
}

// SharedPhotos returns the URLs set by Share
func (c *Cloud) SharedPhotos(ctx context.Context, shareID uint64, isbn string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.shared, nil
}

// Env is an engine on an in-memory store, with fake services
type Env struct {
	Engine   *engine.Engine
	DB       *database.DB
	Resolver *Resolver
	Cloud    *Cloud
	Clock    *clock.Mock
}

// NewEnv returns an engine whose clock is set to T0. It is closed when the
// test ends.
func NewEnv(t *testing.T) Env {
	db := database.InitTestMemoryDB(t)
	c := clock.NewMock()
	c.SetNow(T0)

	env := Env{DB: db, Resolver: &Resolver{}, Cloud: NewCloud(), Clock: c}

	e, err := engine.New(engine.Params{
		DB:            db,
		Resolver:      env.Resolver,
		Cloud:         env.Cloud,
		Clock:         c,
		PhotosBaseURL: PhotosBaseURL,
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "initializing engine"))
	}
	t.Cleanup(e.Close)

	env.Engine = e
	return env
}

// MustMintToken returns an ID token for Email. The signature is not checked
// on the device.
func MustMintToken(t *testing.T) string {
	claims := token.Claims{Email: Email}
	claims.Subject = "user-1"

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatal(errors.Wrap(err, "signing token"))
	}

	return tok
}

// MustMarshalJSON marshalls the given interface into JSON.
// If there is any error, it fails the test.
func MustMarshalJSON(t *testing.T, v interface{}) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("%s: marshalling data: %s", t.Name(), err.Error())
	}

	return b
}

// MustUnmarshalJSON unmarshalls the given JSON into the interface.
// If there is any error, it fails the test.
func MustUnmarshalJSON(t *testing.T, data []byte, v interface{}) {
	err := json.Unmarshal(data, v)
	if err != nil {
		t.Fatalf("%s: unmarshalling data: %s", t.Name(), err.Error())
	}
}
