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

package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/bookwormfood/bookworm/pkg/book"
	"github.com/bookwormfood/bookworm/pkg/server/app"
	"github.com/bookwormfood/bookworm/pkg/server/context"
	mw "github.com/bookwormfood/bookworm/pkg/server/middleware"
	"github.com/pkg/errors"
)

// NewSync creates a new Sync controller
func NewSync(app *app.App) *Sync {
	return &Sync{
		app: app,
	}
}

// Sync is a controller for the book records of a user
type Sync struct {
	app *app.App
}

// SyncResp is the response of listing books
type SyncResp struct {
	Books []book.Book `json:"books"`
}

// DeleteResp is the response of deleting a book
type DeleteResp struct {
	ISBN string `json:"isbn"`
}

type syncParams struct {
	ISBN string `schema:"isbn"`
}

type uploadPayload struct {
	ISBN string `json:"isbn"`
}

func userKey(r *http.Request) (string, bool) {
	claims, ok := context.User(r.Context())
	if !ok {
		return "", false
	}

	return claims.UserKey(), true
}

func decodePayload(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxPayloadSize)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.Wrap(err, "decoding payload")
	}

	return nil
}

// Index lists the books of the user, optionally filtered by ISBN
func (s *Sync) Index(w http.ResponseWriter, r *http.Request) {
	key, ok := userKey(r)
	if !ok {
		mw.RespondUnauthorized(w)
		return
	}

	var p syncParams
	if err := parseQuery(r, &p); err != nil {
		mw.DoError(w, "parsing params", err, http.StatusBadRequest)
		return
	}

	books, err := s.app.ListBooks(key, p.ISBN)
	if err != nil {
		handleAppError(w, err, "listing books")
		return
	}

	mw.RespondJSON(w, http.StatusOK, SyncResp{Books: books})
}

// Create writes the status and details of a book of the user
func (s *Sync) Create(w http.ResponseWriter, r *http.Request) {
	key, ok := userKey(r)
	if !ok {
		mw.RespondUnauthorized(w)
		return
	}

	var b book.Book
	if err := decodePayload(w, r, &b); err != nil {
		mw.DoError(w, "invalid payload", err, http.StatusBadRequest)
		return
	}

	ret, err := s.app.UpsertBook(key, b)
	if err != nil {
		handleAppError(w, err, "saving book")
		return
	}

	mw.RespondJSON(w, http.StatusOK, ret)
}

// Delete deletes a book of the user
func (s *Sync) Delete(w http.ResponseWriter, r *http.Request) {
	key, ok := userKey(r)
	if !ok {
		mw.RespondUnauthorized(w)
		return
	}

	var p syncParams
	if err := parseQuery(r, &p); err != nil {
		mw.DoError(w, "parsing params", err, http.StatusBadRequest)
		return
	}
	if p.ISBN == "" {
		mw.RespondInvalidRequest(w, "isbn is required")
		return
	}

	if err := s.app.DeleteBook(key, p.ISBN); err != nil {
		handleAppError(w, err, "deleting book")
		return
	}

	mw.RespondJSON(w, http.StatusOK, DeleteResp{ISBN: p.ISBN})
}

// SignUpload responds with a signed URL to which a photo of the book can be
// uploaded
func (s *Sync) SignUpload(w http.ResponseWriter, r *http.Request) {
	key, ok := userKey(r)
	if !ok {
		mw.RespondUnauthorized(w)
		return
	}

	var p uploadPayload
	if err := decodePayload(w, r, &p); err != nil {
		mw.DoError(w, "invalid payload", err, http.StatusBadRequest)
		return
	}

	u, err := s.app.SignUpload(key, p.ISBN)
	if err != nil {
		handleAppError(w, err, "signing upload")
		return
	}

	mw.RespondJSON(w, http.StatusOK, u)
}
