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
	"io"
	"net/http"
	"os"

	"github.com/bookwormfood/bookworm/pkg/server/app"
	mw "github.com/bookwormfood/bookworm/pkg/server/middleware"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

// maxPhotoSize is the max size of an uploaded photo
const maxPhotoSize = 10 << 20

// NewUploads creates a new Uploads controller
func NewUploads(app *app.App) *Uploads {
	return &Uploads{
		app: app,
	}
}

// Uploads is a controller for the photos of books
type Uploads struct {
	app *app.App
}

// UploadResp is the response of a photo upload
type UploadResp struct {
	ISBN    string `json:"isbn"`
	Photos  int    `json:"photos"`
	ShareID uint64 `json:"shareId"`
}

// Put stores the photo sent to a signed upload URL
func (u *Uploads) Put(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	q := r.URL.Query()

	if err := u.app.VerifyUpload(name, q.Get("expires"), q.Get("sig")); err != nil {
		handleAppError(w, err, "verifying upload")
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPhotoSize))
	if err != nil {
		mw.DoError(w, "reading photo", err, http.StatusRequestEntityTooLarge)
		return
	}

	b, err := u.app.CommitUpload(name, data)
	if err != nil {
		handleAppError(w, err, "storing photo")
		return
	}

	mw.RespondJSON(w, http.StatusOK, UploadResp{
		ISBN:    b.ISBN,
		Photos:  len(b.Photos),
		ShareID: b.ShareID,
	})
}

// Photo serves a stored photo
func (u *Uploads) Photo(w http.ResponseWriter, r *http.Request) {
	path, err := u.app.PhotoPath(mux.Vars(r)["name"])
	if err != nil {
		mw.RespondNotFound(w)
		return
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		mw.RespondNotFound(w)
		return
	} else if err != nil {
		mw.DoError(w, "opening photo", err, http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		mw.DoError(w, "reading photo", err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
