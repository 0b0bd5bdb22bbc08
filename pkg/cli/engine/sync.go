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
)

// ErrAlreadySynced is returned by SyncAll if the session has synced before
var ErrAlreadySynced = errors.New("already synced in this session")

// ListBooks returns every stored record, most recently modified first
func (e *Engine) ListBooks(sess *Session) ([]book.Book, error) {
	books, err := database.GetBooks(e.db)
	if err != nil {
		return nil, err
	}

	return e.hydrateAll(sess, books), nil
}

// NeedsSync reports whether SyncAll would talk to the cloud
func (e *Engine) NeedsSync(sess *Session) bool {
	return sess.HasToken() && !sess.HasSynced()
}

// SyncAll reconciles the store with the cloud and returns the updated list.
//
// Deletions made on this device are sent first. Every cloud record is then
// merged into the store, except for the ones deleted here whose deletion
// the cloud has not acknowledged. A record synced before that the cloud no
// longer has was deleted on another device and is removed. Records with
// unacknowledged changes are pushed.
//
// The sync runs once per session; ErrAlreadySynced is returned afterwards.
// A failed sync may be retried.
func (e *Engine) SyncAll(ctx context.Context, sess *Session) ([]book.Book, error) {
	if !sess.HasToken() {
		return nil, errors.Wrap(ErrNoToken, "syncing")
	}

	sess.syncMu.Lock()
	defer sess.syncMu.Unlock()

	if sess.HasSynced() {
		return nil, ErrAlreadySynced
	}

	tombstoned, err := e.flushTombstones(ctx, sess.Token)
	if err != nil {
		return nil, err
	}

	remote, err := e.cloud.FetchAll(ctx, sess.Token)
	if err != nil {
		return nil, errors.Wrap(err, "fetching the cloud records")
	}

	log.Debug("cloud records: %d\n", len(remote))

	inCloud := map[string]bool{}
	for _, r := range remote {
		if !book.IsValidISBN(r.ISBN) {
			log.Debug("skipping cloud record with invalid ISBN '%s'\n", r.ISBN)
			continue
		}

		inCloud[r.ISBN] = true
		if tombstoned[r.ISBN] {
			continue
		}

		if err := e.mergeRemote(r); err != nil {
			return nil, err
		}
	}

	local, err := database.GetBooks(e.db)
	if err != nil {
		return nil, err
	}

	acks := []*Ack{}
	for _, b := range local {
		if !inCloud[b.ISBN] && !b.IsDirty() && !e.hasPending(b.ISBN) {
			if err := e.removeDeletedElsewhere(b.ISBN); err != nil {
				return nil, err
			}
			continue
		}

		if b.IsDirty() {
			acks = append(acks, e.schedulePush(sess, b.ISBN))
		}
	}

	for _, ack := range acks {
		if _, err := ack.Wait(ctx); err != nil {
			log.Debug("push during sync: %s\n", err)
		}
	}

	sess.hasSynced.Store(true)

	return e.ListBooks(sess)
}

// flushTombstones sends the deletions made on this device to the cloud and
// returns the ISBNs whose deletion the cloud has not acknowledged
func (e *Engine) flushTombstones(ctx context.Context, tok string) (map[string]bool, error) {
	isbns, err := database.GetTombstones(e.db)
	if err != nil {
		return nil, err
	}

	ret := map[string]bool{}
	for _, isbn := range isbns {
		unlock := e.locks.Lock(isbn)
		err := e.flushTombstone(ctx, tok, isbn)
		unlock()

		if err != nil {
			if database.IsStorageError(err) {
				return nil, err
			}

			log.Debug("deletion of %s not acknowledged: %s\n", isbn, err)
			ret[isbn] = true
		}
	}

	return ret, nil
}

func (e *Engine) mergeRemote(r book.Book) error {
	unlock := e.locks.Lock(r.ISBN)
	defer unlock()

	_, _, err := database.UpdateBook(e.db, r.ISBN, func(cur book.Book, found bool) (book.Book, error) {
		if !found {
			return r.Clone().WithSync(e.clock.Now()), nil
		}

		return e.merge(cur, r), nil
	})

	return err
}

func (e *Engine) removeDeletedElsewhere(isbn string) error {
	unlock := e.locks.Lock(isbn)
	defer unlock()

	cur, err := database.GetBook(e.db, isbn)
	if errors.Is(err, database.ErrNotFound) {
		return nil
	} else if err != nil {
		return err
	}

	if !cur.IsSynced() || cur.IsDirty() || e.hasPending(isbn) {
		return nil
	}

	if _, err := database.DeleteBook(e.db, isbn); err != nil {
		return err
	}

	log.Debug("%s was deleted on another device\n", isbn)
	return nil
}
