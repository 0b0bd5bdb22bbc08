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

package app

import (
	"github.com/bookwormfood/bookworm/pkg/book"
	"github.com/bookwormfood/bookworm/pkg/server/database"
	"github.com/pkg/errors"
)

// SharedPhotos returns the photo URLs of the book shared under the given
// share id. The list is empty unless exactly one record matches.
func (a *App) SharedPhotos(shareID uint64, isbn string) ([]string, error) {
	ret := []string{}
	if shareID == 0 {
		return ret, nil
	}

	var records []database.UserBook
	if err := a.DB.Where("share_id = ? AND isbn = ?", shareID, isbn).Limit(2).Find(&records).Error; err != nil {
		return nil, errors.Wrap(err, "finding shared books")
	}
	if len(records) != 1 {
		return ret, nil
	}

	r := records[0]
	owner := book.OwnerID(r.UserKey)
	for _, id := range r.Photos {
		ret = append(ret, book.PhotoURL(a.PublicURL, owner, r.ISBN, id))
	}

	return ret, nil
}
