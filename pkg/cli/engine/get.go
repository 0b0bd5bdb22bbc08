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

	"github.com/bookwormfood/bookworm/pkg/book"
	"github.com/bookwormfood/bookworm/pkg/cli/database"
	"github.com/bookwormfood/bookworm/pkg/cli/log"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
)

type getResult struct {
	book book.Book
	ack  *Ack
}

// GetBook returns the record of the book with the given ISBN.
//
// The stored record is merged with its cloud copy if the session has a
// token, and completed by the metadata provider if the device has never
// seen the book, if refresh is set, or if it lacks a title or authors. A
// record is returned as long as any of the sources knows the book; the
// error is returned only if none does. Concurrent calls for the same ISBN
// share one lookup.
//
// If the resulting record carries changes the cloud has not acknowledged,
// they are pushed in the background and the returned Ack reports the
// outcome. The Ack is nil if nothing is pushed.
func (e *Engine) GetBook(ctx context.Context, sess *Session, isbn string, refresh bool) (book.Book, *Ack, error) {
	if err := book.ValidateISBN(isbn); err != nil {
		return book.Book{}, nil, err
	}

	key := isbn + "\x00" + sess.Token
	if refresh {
		key += "\x00refresh"
	}

	// the shared lookup outlives any one caller: a caller that stops
	// waiting leaves it to finish for the others and for the store
	ch := e.group.DoChan(key, func() (interface{}, error) {
		b, ack, err := e.getBook(e.ctx, sess, isbn, refresh)
		return getResult{book: b, ack: ack}, err
	})

	var ret singleflight.Result
	select {
	case ret = <-ch:
	case <-ctx.Done():
		return book.Book{}, nil, errors.Wrapf(ctx.Err(), "waiting for the lookup of %s", isbn)
	}
	if ret.Shared {
		log.Debug("lookup of %s shared with a concurrent request\n", isbn)
	}
	if ret.Err != nil {
		return book.Book{}, nil, ret.Err
	}

	res := ret.Val.(getResult)
	return e.Hydrate(sess, res.book), res.ack, nil
}

func (e *Engine) getBook(ctx context.Context, sess *Session, isbn string, refresh bool) (book.Book, *Ack, error) {
	unlock := e.locks.Lock(isbn)
	defer unlock()

	local, err := database.GetBook(e.db, isbn)
	found := err == nil
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return book.Book{}, nil, err
	}

	var remote book.Book
	var remoteFound, remoteAnswered bool
	if sess.HasToken() {
		remote, remoteFound, remoteAnswered = e.fetchRemote(ctx, sess, isbn)
	}

	candidate := local
	if !found {
		candidate = book.New(isbn, e.clock.Now())
	}
	if remoteFound {
		candidate = book.MergeFromCloud(candidate, remote, found)
	}

	var resolveErr error
	if refresh || !found || candidate.NeedsMetadata() {
		details, err := e.resolver.Resolve(ctx, isbn)
		if err != nil {
			log.Debug("resolving %s: %s\n", isbn, err)
			resolveErr = err
		} else {
			candidate = candidate.WithDetails(details, refresh)
		}
	}

	if !found && !remoteFound && resolveErr != nil {
		return book.Book{}, nil, resolveErr
	}

	ret, _, err := database.UpdateBook(e.db, isbn, func(cur book.Book, ok bool) (book.Book, error) {
		if !ok {
			cur = book.New(isbn, candidate.TimestampUpdate)
		}

		if remoteFound {
			cur = e.merge(cur, remote)
		} else if remoteAnswered && cur.IsSynced() {
			// the cloud lost its copy, write it again
			cur = cur.WithoutSync()
		}

		return cur.WithDetails(book.Details{
			Title:       candidate.Title,
			Authors:     candidate.Authors,
			Cover:       candidate.Cover,
			Description: candidate.Description,
		}, refresh && resolveErr == nil), nil
	})
	if err != nil {
		return book.Book{}, nil, err
	}

	var ack *Ack
	if sess.HasToken() && ret.IsDirty() {
		ack = e.schedulePush(sess, isbn)
	}

	return ret, ack, nil
}

// fetchRemote returns the cloud copy of the record, whether the cloud has
// one, and whether the cloud answered at all. A failure is logged and
// treated as no answer.
func (e *Engine) fetchRemote(ctx context.Context, sess *Session, isbn string) (book.Book, bool, bool) {
	// a record deleted on this device is not read back from the cloud
	// before the cloud has deleted it too
	if err := e.flushTombstone(ctx, sess.Token, isbn); err != nil {
		log.Debug("skipping the cloud copy of %s: %s\n", isbn, err)
		return book.Book{}, false, false
	}

	remote, ok, err := e.cloud.FetchOne(ctx, sess.Token, isbn)
	if err != nil {
		log.Debug("fetching the cloud copy of %s: %s\n", isbn, err)
		return book.Book{}, false, false
	}

	return remote, ok, true
}

// SharedPhotos returns the record with the photos another reader shared
// under the share ID appended. It reports false if there were none.
func (e *Engine) SharedPhotos(ctx context.Context, shareID uint64, b book.Book) (book.Book, bool, error) {
	urls, err := e.cloud.SharedPhotos(ctx, shareID, b.ISBN)
	if err != nil {
		return b, false, err
	}
	if len(urls) == 0 {
		return b, false, nil
	}

	return b.WithExtraPhotos(urls), true, nil
}
