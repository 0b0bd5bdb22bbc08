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

// Package book defines the book record shared by the device and the cloud,
// along with the rules for combining two copies of the same record.
package book

import (
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ErrInvalidISBN is an error for an ISBN that is not a 10 or 13 digit number
var ErrInvalidISBN = errors.New("invalid ISBN")

// ErrInvalidStatus is an error for an unknown reading status
var ErrInvalidStatus = errors.New("invalid read status")

// ReadStatus is where the reader is with the book. The zero value means
// no status was recorded.
type ReadStatus string

const (
	// StatusNone is the absence of a reading status
	StatusNone ReadStatus = ""
	// StatusToRead marks a book the reader intends to read
	StatusToRead ReadStatus = "ToRead"
	// StatusRead marks a finished book
	StatusRead ReadStatus = "Read"
	// StatusLiked marks a finished book the reader liked
	StatusLiked ReadStatus = "Liked"
)

// ParseReadStatus parses the textual form of a status. "None" and the
// empty string both clear the status.
func ParseReadStatus(s string) (ReadStatus, error) {
	switch s {
	case "", "None":
		return StatusNone, nil
	case string(StatusToRead):
		return StatusToRead, nil
	case string(StatusRead):
		return StatusRead, nil
	case string(StatusLiked):
		return StatusLiked, nil
	}

	return StatusNone, errors.Wrapf(ErrInvalidStatus, "'%s'", s)
}

// String returns the status name, using "None" for an absent status
func (s ReadStatus) String() string {
	if s == StatusNone {
		return "None"
	}

	return string(s)
}

// Book is a book record keyed by ISBN. It is stored on the device and in
// the cloud with the same shape.
type Book struct {
	ISBN string `json:"isbn"`
	// TimestampUpdate is when the record was last modified
	TimestampUpdate time.Time `json:"timestampUpdate"`
	// TimestampSync is when the record was last written to the cloud
	TimestampSync *time.Time `json:"timestampSync,omitempty"`
	ReadStatus    ReadStatus `json:"readStatus,omitempty"`
	Title         string     `json:"title,omitempty"`
	Authors       []string   `json:"authors,omitempty"`
	Cover         string     `json:"cover,omitempty"`
	Description   string     `json:"description,omitempty"`
	// Photos holds photo IDs in chronological order. Presented records
	// carry photo URLs instead.
	Photos []string `json:"photos,omitempty"`
	// ShareID is set from the first uploaded photo and never changes
	ShareID uint64 `json:"shareId,omitempty"`
}

// New returns an empty record for the given ISBN, modified at the given time
func New(isbn string, now time.Time) Book {
	return Book{
		ISBN:            isbn,
		TimestampUpdate: now,
	}
}

var regexISBN = regexp.MustCompile(`^(97\d{11}|\d{10})$`)

// NormalizeISBN strips separators people commonly type into an ISBN
func NormalizeISBN(s string) string {
	r := strings.NewReplacer("-", "", " ", "")
	return r.Replace(strings.TrimSpace(s))
}

// IsValidISBN checks if the given string is a 13 digit number with a 97
// prefix or a 10 digit number
func IsValidISBN(isbn string) bool {
	return regexISBN.MatchString(isbn)
}

// ValidateISBN returns ErrInvalidISBN if the given ISBN is malformed
func ValidateISBN(isbn string) error {
	if !IsValidISBN(isbn) {
		return errors.Wrapf(ErrInvalidISBN, "'%s'", isbn)
	}

	return nil
}

// IsDirty reports whether the record carries changes the cloud has not
// acknowledged
func (b Book) IsDirty() bool {
	if b.TimestampSync == nil {
		return true
	}

	return b.TimestampSync.Before(b.TimestampUpdate)
}

// IsSynced reports whether the record was ever written to the cloud
func (b Book) IsSynced() bool {
	return b.TimestampSync != nil
}

// NeedsMetadata reports whether the record lacks the details a metadata
// lookup provides
func (b Book) NeedsMetadata() bool {
	return b.Title == "" || len(b.Authors) == 0
}

// WithSync returns a copy of the record marked as written to the cloud at
// the given time
func (b Book) WithSync(at time.Time) Book {
	if at.Before(b.TimestampUpdate) {
		at = b.TimestampUpdate
	}
	b.TimestampSync = &at

	return b
}

// WithoutSync returns a copy of the record marked as never synced
func (b Book) WithoutSync() Book {
	b.TimestampSync = nil
	return b
}

// Clone returns a deep copy of the record
func (b Book) Clone() Book {
	ret := b
	if b.TimestampSync != nil {
		ts := *b.TimestampSync
		ret.TimestampSync = &ts
	}
	if b.Authors != nil {
		ret.Authors = append([]string(nil), b.Authors...)
	}
	if b.Photos != nil {
		ret.Photos = append([]string(nil), b.Photos...)
	}

	return ret
}

// Overlay returns base with every non-empty field of patch written over it.
// Fields absent from the patch keep their value in base.
func Overlay(base, patch Book) Book {
	ret := base.Clone()

	if patch.ISBN != "" {
		ret.ISBN = patch.ISBN
	}
	if !patch.TimestampUpdate.IsZero() {
		ret.TimestampUpdate = patch.TimestampUpdate
	}
	if patch.TimestampSync != nil {
		ts := *patch.TimestampSync
		ret.TimestampSync = &ts
	}
	if patch.ReadStatus != StatusNone {
		ret.ReadStatus = patch.ReadStatus
	}
	if patch.Title != "" {
		ret.Title = patch.Title
	}
	if len(patch.Authors) > 0 {
		ret.Authors = append([]string(nil), patch.Authors...)
	}
	if patch.Cover != "" {
		ret.Cover = patch.Cover
	}
	if patch.Description != "" {
		ret.Description = patch.Description
	}
	if len(patch.Photos) > 0 {
		ret.Photos = append([]string(nil), patch.Photos...)
	}
	if patch.ShareID != 0 {
		ret.ShareID = patch.ShareID
	}

	return ret
}
