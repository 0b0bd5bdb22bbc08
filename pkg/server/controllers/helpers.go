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
	"net/http"

	"github.com/bookwormfood/bookworm/pkg/book"
	"github.com/bookwormfood/bookworm/pkg/server/app"
	mw "github.com/bookwormfood/bookworm/pkg/server/middleware"
	"github.com/gorilla/schema"
	"github.com/pkg/errors"
)

// maxPayloadSize is the max size of a JSON request body
const maxPayloadSize = 1 << 20

var queryDecoder = newQueryDecoder()

func newQueryDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)

	return d
}

// parseQuery decodes the query parameters of the request into dst
func parseQuery(r *http.Request, dst interface{}) error {
	if err := queryDecoder.Decode(dst, r.URL.Query()); err != nil {
		return errors.Wrap(err, "decoding query")
	}

	return nil
}

// handleAppError responds to an error returned by the app with the matching
// status code
func handleAppError(w http.ResponseWriter, err error, msg string) {
	switch errors.Cause(err) {
	case book.ErrInvalidISBN, book.ErrInvalidStatus, book.ErrInvalidPhotoURL, app.ErrEmptyPhoto:
		mw.DoError(w, msg, err, http.StatusBadRequest)
	case app.ErrNotFound:
		mw.DoError(w, msg, err, http.StatusNotFound)
	case app.ErrInvalidSignature, app.ErrUploadExpired:
		mw.DoError(w, msg, err, http.StatusForbidden)
	default:
		mw.DoError(w, msg, err, http.StatusInternalServerError)
	}
}
