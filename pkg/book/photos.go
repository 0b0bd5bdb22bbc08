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

package book

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	// PhotosPrefix is the path under which photos are served
	PhotosPrefix = "/photos/"
	// PhotoExt is the extension of every stored photo
	PhotoExt = ".jpg"
)

// ErrInvalidPhotoURL is an error for a URL that does not name a photo
var ErrInvalidPhotoURL = errors.New("invalid photo URL")

// OwnerID returns the opaque identifier of a user as it appears in photo
// names. It is the hex encoded SHA-256 of the lower-cased email.
func OwnerID(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])
}

// PhotoName returns the file name of a photo,
// e.g. 8cbf...f737-9780143107712-1727129470.jpg
func PhotoName(owner, isbn, photoID string) string {
	return fmt.Sprintf("%s-%s-%s%s", owner, isbn, photoID, PhotoExt)
}

// ParsePhotoName splits a photo file name into its owner, ISBN and photo ID
func ParsePhotoName(name string) (owner, isbn, photoID string, err error) {
	if !strings.HasSuffix(name, PhotoExt) {
		return "", "", "", errors.Wrapf(ErrInvalidPhotoURL, "missing %s in '%s'", PhotoExt, name)
	}

	parts := strings.Split(strings.TrimSuffix(name, PhotoExt), "-")
	if len(parts) != 3 || parts[0] == "" || parts[2] == "" {
		return "", "", "", errors.Wrapf(ErrInvalidPhotoURL, "malformed name '%s'", name)
	}
	if !IsValidISBN(parts[1]) {
		return "", "", "", errors.Wrapf(ErrInvalidPhotoURL, "malformed ISBN in '%s'", name)
	}

	return parts[0], parts[1], parts[2], nil
}

// PhotoIDFromURL extracts the photo ID from a photo or signed upload URL.
// The ID is the last dash separated part before the extension.
func PhotoIDFromURL(u string) (string, error) {
	end := strings.Index(u, PhotoExt+"?")
	if end < 0 {
		if !strings.HasSuffix(u, PhotoExt) {
			return "", errors.Wrapf(ErrInvalidPhotoURL, "missing %s", PhotoExt)
		}
		end = len(u) - len(PhotoExt)
	}

	start := strings.LastIndex(u[:end], "-")
	if start < 0 || start+1 == end {
		return "", errors.Wrap(ErrInvalidPhotoURL, "missing photo ID")
	}

	return u[start+1 : end], nil
}

// PhotoURL returns the public URL of a photo
func PhotoURL(baseURL, owner, isbn, photoID string) string {
	return strings.TrimRight(baseURL, "/") + PhotosPrefix + PhotoName(owner, isbn, photoID)
}

// lessPhotoID orders numeric IDs by value and falls back to a byte order
func lessPhotoID(a, b string) bool {
	if len(a) != len(b) {
		_, errA := strconv.ParseUint(a, 10, 64)
		_, errB := strconv.ParseUint(b, 10, 64)
		if errA == nil && errB == nil {
			return len(a) < len(b)
		}
	}

	return a < b
}

// WithNewPhoto returns a copy of the record with the photo added in
// chronological order. The share ID is taken from the photo ID if the
// record has none yet.
func (b Book) WithNewPhoto(photoID string) Book {
	ret := b.Clone()

	for _, p := range ret.Photos {
		if p == photoID {
			return ret
		}
	}

	ret.Photos = append(ret.Photos, photoID)
	sort.SliceStable(ret.Photos, func(i, j int) bool {
		return lessPhotoID(ret.Photos[i], ret.Photos[j])
	})

	if ret.ShareID == 0 {
		if n, err := strconv.ParseUint(photoID, 10, 64); err == nil {
			ret.ShareID = n
		}
	}

	return ret
}

// Hydrate returns a copy of the record with photo IDs turned into URLs for
// the given owner. Values that already are URLs are kept as they are.
func (b Book) Hydrate(baseURL, owner string) Book {
	ret := b.Clone()
	if len(ret.Photos) == 0 || owner == "" {
		return ret
	}

	for i, p := range ret.Photos {
		if strings.Contains(p, "://") {
			continue
		}
		ret.Photos[i] = PhotoURL(baseURL, owner, ret.ISBN, p)
	}

	return ret
}

// WithExtraPhotos returns a copy of the record with the given photo URLs
// appended, skipping the ones already present
func (b Book) WithExtraPhotos(urls []string) Book {
	ret := b.Clone()

	seen := map[string]bool{}
	for _, p := range ret.Photos {
		seen[p] = true
	}
	for _, u := range urls {
		if seen[u] {
			continue
		}
		seen[u] = true
		ret.Photos = append(ret.Photos, u)
	}

	return ret
}
