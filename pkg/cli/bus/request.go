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

package bus

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Op names an operation of the engine
type Op string

const (
	// OpGetBookData returns the record of one book
	OpGetBookData Op = "get_book_data"
	// OpGetScannedBooks returns every record
	OpGetScannedBooks Op = "get_scanned_books"
	// OpUpdateBookStatus sets the reading status of a book
	OpUpdateBookStatus Op = "update_book_status"
	// OpDeleteBook deletes the record of a book
	OpDeleteBook Op = "delete_book"
	// OpUploadPic uploads photos of a book
	OpUploadPic Op = "upload_pic"
)

var ops = map[Op]bool{
	OpGetBookData:      true,
	OpGetScannedBooks:  true,
	OpUpdateBookStatus: true,
	OpDeleteBook:       true,
	OpUploadPic:        true,
}

// ErrInvalidRequest is an error for a request that cannot be served
var ErrInvalidRequest = errors.New("invalid request")

// Request asks the engine to perform an operation. Fields that the
// operation does not use are ignored.
type Request struct {
	ID      string `json:"id,omitempty"`
	Op      Op     `json:"op"`
	ISBN    string `json:"isbn,omitempty"`
	IDToken string `json:"idToken,omitempty"`
	// ShareID asks get_book_data for the photos another reader shared
	ShareID string `json:"shareId,omitempty"`
	// Status is the new reading status. An empty status clears it.
	Status        string `json:"status,omitempty"`
	WithCloudSync bool   `json:"withCloudSync,omitempty"`
	// Refresh makes get_book_data ask the metadata provider again
	Refresh bool `json:"refresh,omitempty"`
	// Files are the photos for upload_pic
	Files [][]byte `json:"files,omitempty"`
}

// Validate checks that the request names a known operation and carries what
// the operation needs
func (r Request) Validate() error {
	if !ops[r.Op] {
		return errors.Wrapf(ErrInvalidRequest, "unknown operation '%s'", r.Op)
	}
	if r.Op != OpGetScannedBooks && r.ISBN == "" {
		return errors.Wrapf(ErrInvalidRequest, "%s needs an ISBN", r.Op)
	}
	if r.Op == OpUploadPic && len(r.Files) == 0 {
		return errors.Wrapf(ErrInvalidRequest, "%s needs at least one file", r.Op)
	}

	return nil
}

// DecodeRequest parses the JSON text of a request
func DecodeRequest(data []byte) (Request, error) {
	var ret Request
	if err := json.Unmarshal(data, &ret); err != nil {
		return ret, errors.Wrap(ErrInvalidRequest, err.Error())
	}

	return ret, ret.Validate()
}
