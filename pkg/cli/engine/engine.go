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

// Package engine keeps the local book store, the metadata provider and the
// cloud copy of the user's records in agreement
package engine

import (
	"context"
	"sync"

	"github.com/bookwormfood/bookworm/pkg/book"
	"github.com/bookwormfood/bookworm/pkg/cli/client"
	"github.com/bookwormfood/bookworm/pkg/cli/database"
	"github.com/bookwormfood/bookworm/pkg/cli/log"
	"github.com/bookwormfood/bookworm/pkg/clock"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
)

// ErrNoToken is returned by operations that need the cloud when the session
// has no ID token
var ErrNoToken = client.ErrNoToken

// Resolver looks up book details by ISBN
type Resolver interface {
	Resolve(ctx context.Context, isbn string) (book.Details, error)
}

// Cloud is the user's private copy of the records
type Cloud interface {
	FetchAll(ctx context.Context, token string) ([]book.Book, error)
	FetchOne(ctx context.Context, token, isbn string) (book.Book, bool, error)
	Push(ctx context.Context, token string, b book.Book) error
	Delete(ctx context.Context, token, isbn string) error
	UploadPhoto(ctx context.Context, token, isbn string, data []byte) (string, error)
	SharedPhotos(ctx context.Context, shareID uint64, isbn string) ([]string, error)
}

// Params are the dependencies of an engine
type Params struct {
	DB       *database.DB
	Resolver Resolver
	Cloud    Cloud
	Clock    clock.Clock
	// PhotosBaseURL is the origin photo IDs are resolved against
	PhotosBaseURL string
}

// Engine serves the operations of the app. Operations on different ISBNs
// run concurrently; operations on one ISBN are serialized.
type Engine struct {
	db            *database.DB
	resolver      Resolver
	cloud         Cloud
	clock         clock.Clock
	photosBaseURL string

	group singleflight.Group
	locks *keyLock

	// cloud calls are chained per ISBN so that they reach the cloud in the
	// order of the local writes they mirror
	chainMu sync.Mutex
	chains  map[string]chan struct{}
	pending map[string]int

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// New returns an engine
func New(p Params) (*Engine, error) {
	if p.DB == nil {
		return nil, errors.New("no database")
	}
	if p.Resolver == nil {
		return nil, errors.New("no metadata resolver")
	}
	if p.Cloud == nil {
		return nil, errors.New("no cloud client")
	}
	if p.Clock == nil {
		p.Clock = clock.New()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Engine{
		db:            p.DB,
		resolver:      p.Resolver,
		cloud:         p.Cloud,
		clock:         p.Clock,
		photosBaseURL: p.PhotosBaseURL,
		locks:         newKeyLock(),
		chains:        map[string]chan struct{}{},
		pending:       map[string]int{},
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

// Wait blocks until every scheduled cloud call has finished
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Close cancels the cloud calls in flight and waits for them to return
func (e *Engine) Close() {
	e.cancel()
	e.wg.Wait()
}

// Hydrate prepares a record for the user of the session
func (e *Engine) Hydrate(sess *Session, b book.Book) book.Book {
	return b.Hydrate(e.photosBaseURL, sess.OwnerID())
}

func (e *Engine) hydrateAll(sess *Session, books []book.Book) []book.Book {
	ret := make([]book.Book, 0, len(books))
	for _, b := range books {
		ret = append(ret, e.Hydrate(sess, b))
	}

	return ret
}

// hasPending reports whether a cloud call for the ISBN is queued or running
func (e *Engine) hasPending(isbn string) bool {
	e.chainMu.Lock()
	defer e.chainMu.Unlock()

	return e.pending[isbn] > 0
}

// schedule runs fn in the background after every cloud call scheduled
// earlier for the same ISBN
func (e *Engine) schedule(isbn string, fn func(ctx context.Context) (book.Book, error)) *Ack {
	ack := newAck()

	e.chainMu.Lock()
	prev := e.chains[isbn]
	e.chains[isbn] = ack.done
	e.pending[isbn]++
	e.chainMu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		if prev != nil {
			<-prev
		}

		b, err := fn(e.ctx)

		e.chainMu.Lock()
		e.pending[isbn]--
		if e.pending[isbn] == 0 {
			delete(e.pending, isbn)
		}
		if e.chains[isbn] == ack.done {
			delete(e.chains, isbn)
		}
		e.chainMu.Unlock()

		ack.resolve(b, err)
	}()

	return ack
}

// flushTombstone deletes the cloud copy of a record deleted locally, and
// forgets the deletion once the cloud has acknowledged it
func (e *Engine) flushTombstone(ctx context.Context, token, isbn string) error {
	ok, err := database.HasTombstone(e.db, isbn)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	if err := e.cloud.Delete(ctx, token, isbn); err != nil {
		return errors.Wrapf(err, "deleting %s from the cloud", isbn)
	}

	if err := database.ClearTombstone(e.db, isbn); err != nil {
		return err
	}

	log.Debug("deletion of %s acknowledged by the cloud\n", isbn)
	return nil
}

// schedulePush mirrors the record to the cloud in the background
func (e *Engine) schedulePush(sess *Session, isbn string) *Ack {
	tok := sess.Token

	return e.schedule(isbn, func(ctx context.Context) (book.Book, error) {
		return e.push(ctx, tok, isbn)
	})
}

// push writes the stored record to the cloud if it carries unacknowledged
// changes and marks it synced on success
func (e *Engine) push(ctx context.Context, tok, isbn string) (book.Book, error) {
	if err := e.flushTombstone(ctx, tok, isbn); err != nil {
		return book.Book{}, err
	}

	b, err := database.GetBook(e.db, isbn)
	if err != nil {
		return b, err
	}
	if !b.IsDirty() {
		return b, nil
	}

	if err := e.cloud.Push(ctx, tok, b); err != nil {
		log.Debug("pushing %s: %s\n", isbn, err)
		return b, errors.Wrapf(err, "pushing %s", isbn)
	}

	now := e.clock.Now()
	ret, _, err := database.UpdateBook(e.db, isbn, func(cur book.Book, found bool) (book.Book, error) {
		// a later write is left dirty for its own push
		if !found || cur.TimestampUpdate.After(b.TimestampUpdate) || !book.CloudEqual(cur, b) {
			return cur, database.ErrSkip
		}

		return cur.WithSync(now), nil
	})
	if err != nil {
		return ret, err
	}

	log.Debug("%s synced with the cloud\n", isbn)
	return ret, nil
}

// merge combines the stored record with its cloud copy and marks the result
// synced if the cloud already holds everything the device writes to it
func (e *Engine) merge(local, remote book.Book) book.Book {
	keepLocal := e.hasPending(local.ISBN) ||
		(local.IsDirty() && local.TimestampUpdate.After(remote.TimestampUpdate))

	merged := book.MergeFromCloud(local, remote, keepLocal)

	if log.DebugEnabled() {
		if report := book.DescribeMerge(local, merged); report != "" {
			log.Debug("cloud merge of %s:\n%s", local.ISBN, report)
		}
	}

	if book.CloudEqual(merged, remote) {
		return merged.WithSync(e.clock.Now())
	}

	return merged.WithoutSync()
}
