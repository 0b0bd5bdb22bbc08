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
	"github.com/bookwormfood/bookworm/pkg/book"
	"github.com/bookwormfood/bookworm/pkg/cli/client"
	"github.com/bookwormfood/bookworm/pkg/cli/database"
	"github.com/bookwormfood/bookworm/pkg/cli/engine"
	"github.com/bookwormfood/bookworm/pkg/cli/metadata"
	"github.com/pkg/errors"
)

// classify maps an error of the engine to the error a listener receives
func classify(err error) *Error {
	ret := &Error{Kind: KindInternal, Message: err.Error()}

	var httpErr *client.HTTPError
	var uploadErr *client.UploadError

	switch {
	case errors.Is(err, book.ErrInvalidISBN),
		errors.Is(err, book.ErrInvalidStatus),
		errors.Is(err, engine.ErrEmptyPhoto),
		errors.Is(err, ErrInvalidRequest):
		ret.Kind = KindInvalid
	case errors.Is(err, metadata.ErrNotFound), errors.Is(err, database.ErrNotFound):
		ret.Kind = KindNotFound
	case errors.Is(err, client.ErrNoToken):
		ret.Kind = KindAuthRequired
	case errors.As(err, &httpErr) && httpErr.IsUnauthorized():
		ret.Kind = KindAuthRequired
	case errors.As(err, &uploadErr):
		ret.Kind = KindUpload
	case database.IsStorageError(err):
		ret.Kind = KindStorageError
	case client.IsTransient(err), metadata.IsTransient(err):
		ret.Kind = KindTransientNetwork
	}

	return ret
}
