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

	"github.com/bookwormfood/bookworm/pkg/book"
	"github.com/pkg/errors"
)

// ErrMalformed is an error for a message that cannot be understood
var ErrMalformed = errors.New("malformed message")

// Tag names the kind of payload a message carries
type Tag string

const (
	// TagLocalBook is for a single record
	TagLocalBook Tag = "localBook"
	// TagLocalBooks is for the list of records
	TagLocalBooks Tag = "localBooks"
	// TagDeleted is for the ISBN of a deleted record
	TagDeleted Tag = "deleted"
	// TagUploaded is for a photo upload
	TagUploaded Tag = "uploaded"
)

// Phase tells which step of a request a message reports on
type Phase string

const (
	// PhaseLocal is for the outcome of the local write or read
	PhaseLocal Phase = "local"
	// PhaseCloud is for the outcome of the cloud call that follows it
	PhaseCloud Phase = "cloud"
	// PhaseShare is for a record completed with another reader's photos
	PhaseShare Phase = "share"
)

// ErrorKind classifies a failure for the listener
type ErrorKind string

const (
	// KindNotFound means nobody knows the book. It will not change soon.
	KindNotFound ErrorKind = "NotFound"
	// KindTransientNetwork means a service could not be reached
	KindTransientNetwork ErrorKind = "TransientNetwork"
	// KindAuthRequired means the operation needs a valid ID token
	KindAuthRequired ErrorKind = "AuthRequired"
	// KindStorageError means the device could not read or write its store
	KindStorageError ErrorKind = "StorageError"
	// KindInvalid means the request itself is wrong
	KindInvalid ErrorKind = "Invalid"
	// KindUpload means the photo was not accepted
	KindUpload ErrorKind = "Upload"
	// KindInternal is for anything else
	KindInternal ErrorKind = "Internal"
)

// Error is the failure variant of a result
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// Result wraps either a payload or an error
type Result[T any] struct {
	Ok  *T     `json:"Ok,omitempty"`
	Err *Error `json:"Err,omitempty"`
}

// Ok returns a successful result
func Ok[T any](v T) *Result[T] {
	return &Result[T]{Ok: &v}
}

// Fail returns a failed result
func Fail[T any](e *Error) *Result[T] {
	return &Result[T]{Err: e}
}

func (r *Result[T]) valid() bool {
	return r != nil && (r.Ok == nil) != (r.Err == nil)
}

// BookList is the payload of a localBooks message
type BookList struct {
	Books []book.Book `json:"books"`
}

// UploadRef is the payload of an uploaded message
type UploadRef struct {
	ISBN    string `json:"isbn"`
	PhotoID string `json:"photoId"`
	URL     string `json:"url"`
}

// Message is a response to a request. Exactly one of the tagged fields is
// set. A request may be answered by several messages.
type Message struct {
	RequestID string `json:"requestId"`
	ISBN      string `json:"isbn,omitempty"`
	Phase     Phase  `json:"phase"`

	LocalBook  *Result[book.Book] `json:"localBook,omitempty"`
	LocalBooks *Result[BookList]  `json:"localBooks,omitempty"`
	Deleted    *Result[string]    `json:"deleted,omitempty"`
	Uploaded   *Result[UploadRef] `json:"uploaded,omitempty"`
}

// tags returns the tags of the fields that are set
func (m Message) tags() []Tag {
	ret := []Tag{}
	if m.LocalBook != nil {
		ret = append(ret, TagLocalBook)
	}
	if m.LocalBooks != nil {
		ret = append(ret, TagLocalBooks)
	}
	if m.Deleted != nil {
		ret = append(ret, TagDeleted)
	}
	if m.Uploaded != nil {
		ret = append(ret, TagUploaded)
	}

	return ret
}

// Tag returns the tag of the message
func (m Message) Tag() Tag {
	tags := m.tags()
	if len(tags) != 1 {
		return ""
	}

	return tags[0]
}

// Err returns the error the message carries, if any
func (m Message) Err() *Error {
	switch m.Tag() {
	case TagLocalBook:
		return m.LocalBook.Err
	case TagLocalBooks:
		return m.LocalBooks.Err
	case TagDeleted:
		return m.Deleted.Err
	case TagUploaded:
		return m.Uploaded.Err
	}

	return nil
}

func (m Message) validate() error {
	tags := m.tags()
	if len(tags) != 1 {
		return errors.Wrapf(ErrMalformed, "%d tags", len(tags))
	}

	var ok bool
	switch tags[0] {
	case TagLocalBook:
		ok = m.LocalBook.valid()
	case TagLocalBooks:
		ok = m.LocalBooks.valid()
	case TagDeleted:
		ok = m.Deleted.valid()
	case TagUploaded:
		ok = m.Uploaded.valid()
	}
	if !ok {
		return errors.Wrapf(ErrMalformed, "%s needs exactly one of Ok and Err", tags[0])
	}

	return nil
}

// Encode returns the JSON text of the message
func (m Message) Encode() ([]byte, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}

	b, err := json.Marshal(m)
	if err != nil {
		return nil, errors.Wrap(err, "marshalling message")
	}

	return b, nil
}

// Decode parses the JSON text of a message
func Decode(data []byte) (Message, error) {
	var ret Message
	if err := json.Unmarshal(data, &ret); err != nil {
		return ret, errors.Wrap(ErrMalformed, err.Error())
	}
	if err := ret.validate(); err != nil {
		return ret, err
	}

	return ret, nil
}
