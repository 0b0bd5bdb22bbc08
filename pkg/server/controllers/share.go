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

	"github.com/bookwormfood/bookworm/pkg/server/app"
	mw "github.com/bookwormfood/bookworm/pkg/server/middleware"
)

// NewShare creates a new Share controller
func NewShare(app *app.App) *Share {
	return &Share{
		app: app,
	}
}

// Share is a controller for the photos readers share
type Share struct {
	app *app.App
}

// ShareResp is the response of looking up shared photos
type ShareResp struct {
	Photos []string `json:"photos"`
}

type shareParams struct {
	ShareID uint64 `schema:"share_id,required"`
	ISBN    string `schema:"isbn,required"`
}

// Index lists the photo URLs shared under a share id
func (s *Share) Index(w http.ResponseWriter, r *http.Request) {
	var p shareParams
	if err := parseQuery(r, &p); err != nil {
		mw.DoError(w, "parsing params", err, http.StatusBadRequest)
		return
	}

	photos, err := s.app.SharedPhotos(p.ShareID, p.ISBN)
	if err != nil {
		handleAppError(w, err, "finding shared photos")
		return
	}

	mw.RespondJSON(w, http.StatusOK, ShareResp{Photos: photos})
}
