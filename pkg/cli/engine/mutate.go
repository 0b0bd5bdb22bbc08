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

// ErrEmptyPhoto is an error for an upload without content
var ErrEmptyPhoto = errors.New("empty photo")

// UpdateStatus sets the reading status of the book, creating the record if
// the device has none. Setting the status a record already has is a no-op.
//
// The write is local. If the session has a token the change is pushed in
// the background and the returned Ack reports the outcome.
func (e *Engine) UpdateStatus(ctx context.Context, sess *Session, isbn string, status book.ReadStatus) (book.Book, *Ack, error) {
	if err := book.ValidateISBN(isbn); err != nil {
		return book.Book{}, nil, err
	}

	unlock := e.locks.Lock(isbn)
	defer unlock()

	now := e.clock.Now()
	changed := false

	ret, _, err := database.UpdateBook(e.db, isbn, func(cur book.Book, found bool) (book.Book, error) {
		if found && cur.ReadStatus == status {
			return cur, database.ErrSkip
		}
		if !found {
			cur = book.New(isbn, now)
		}

		cur.ReadStatus = status
		if now.After(cur.TimestampUpdate) {
			cur.TimestampUpdate = now
		}
		changed = true

		// the mark comes back when the cloud acknowledges the change
		return cur.WithoutSync(), nil
	})
	if err != nil {
		return book.Book{}, nil, err
	}

	var ack *Ack
	if sess.HasToken() && (changed || (ret.IsDirty() && !e.hasPending(isbn))) {
		ack = e.schedulePush(sess, isbn)
	}

	if changed {
		log.Debug("status of %s set to %s\n", isbn, status)
	}

	return e.Hydrate(sess, ret), ack, nil
}

// Delete removes the record of the book from the device. It reports
// whether there was a record. The deletion is remembered until the cloud
// acknowledges it, so that no later sync brings the record back. If the
// session has a token the cloud copy is deleted in the background and the
// returned Ack reports the outcome.
func (e *Engine) Delete(ctx context.Context, sess *Session, isbn string) (bool, *Ack, error) {
	if err := book.ValidateISBN(isbn); err != nil {
		return false, nil, err
	}

	unlock := e.locks.Lock(isbn)
	existed, err := database.RemoveBook(e.db, isbn, e.clock.Now())
	unlock()
	if err != nil {
		return false, nil, err
	}

	if !sess.HasToken() {
		return existed, nil, nil
	}

	tok := sess.Token
	ack := e.schedule(isbn, func(ctx context.Context) (book.Book, error) {
		unlock := e.locks.Lock(isbn)
		defer unlock()

		return book.Book{ISBN: isbn}, e.flushTombstone(ctx, tok, isbn)
	})

	return existed, ack, nil
}

// UploadPhoto uploads a photo of a book the device has a record of and adds
// it to the record. It returns the updated record and the URL of the photo.
// The record is left unchanged if the upload fails.
func (e *Engine) UploadPhoto(ctx context.Context, sess *Session, isbn string, data []byte) (book.Book, string, error) {
	if err := book.ValidateISBN(isbn); err != nil {
		return book.Book{}, "", err
	}
	if !sess.HasToken() {
		return book.Book{}, "", errors.Wrap(ErrNoToken, "uploading a photo")
	}
	if len(data) == 0 {
		return book.Book{}, "", ErrEmptyPhoto
	}

	unlock := e.locks.Lock(isbn)
	defer unlock()

	if _, err := database.GetBook(e.db, isbn); err != nil {
		return book.Book{}, "", err
	}

	photoID, err := e.cloud.UploadPhoto(ctx, sess.Token, isbn, data)
	if err != nil {
		return book.Book{}, "", errors.Wrapf(err, "uploading a photo of %s", isbn)
	}

	ret, found, err := database.UpdateBook(e.db, isbn, func(cur book.Book, found bool) (book.Book, error) {
		if !found {
			return cur, database.ErrSkip
		}

		return cur.WithNewPhoto(photoID), nil
	})
	if err != nil {
		return book.Book{}, "", err
	}
	if !found {
		return book.Book{}, "", errors.Wrapf(database.ErrNotFound, "isbn %s", isbn)
	}

	photoURL := photoID
	if owner := sess.OwnerID(); owner != "" {
		photoURL = book.PhotoURL(e.photosBaseURL, owner, isbn, photoID)
	}

	log.Debug("photo %s added to %s\n", photoID, isbn)
	return e.Hydrate(sess, ret), photoURL, nil
}
