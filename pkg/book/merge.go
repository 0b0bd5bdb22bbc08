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

// Details holds the descriptive part of a record that comes from a
// metadata provider
type Details struct {
	Title       string
	Authors     []string
	Cover       string
	Description string
}

// WithDetails returns a copy of the record with the given details applied.
// When overwrite is false only missing fields are filled.
func (b Book) WithDetails(d Details, overwrite bool) Book {
	ret := b.Clone()

	if d.Title != "" && (overwrite || ret.Title == "") {
		ret.Title = d.Title
	}
	if len(d.Authors) > 0 && (overwrite || len(ret.Authors) == 0) {
		ret.Authors = append([]string(nil), d.Authors...)
	}
	if d.Cover != "" && (overwrite || ret.Cover == "") {
		ret.Cover = d.Cover
	}
	if d.Description != "" && (overwrite || ret.Description == "") {
		ret.Description = d.Description
	}

	return ret
}

// MergeFromCloud combines the local record with its cloud copy.
//
// The cloud copy decides the reading status, the share ID and the photos.
// Descriptive fields keep their local value and are filled from the cloud
// where the local record has none. The later of the two update timestamps
// wins. If keepLocalStatus is set the local reading status survives; this
// is used while a local write has not been acknowledged by the cloud.
func MergeFromCloud(local, cloud Book, keepLocalStatus bool) Book {
	ret := local.Clone()

	if cloud.TimestampUpdate.After(ret.TimestampUpdate) {
		ret.TimestampUpdate = cloud.TimestampUpdate
	}

	ret = ret.WithDetails(Details{
		Title:       cloud.Title,
		Authors:     cloud.Authors,
		Cover:       cloud.Cover,
		Description: cloud.Description,
	}, false)

	if !keepLocalStatus {
		ret.ReadStatus = cloud.ReadStatus
	}

	ret.Photos = append([]string(nil), cloud.Photos...)
	ret.ShareID = cloud.ShareID

	return ret
}

// CloudEqual reports whether two records agree on every field the client
// writes to the cloud
func CloudEqual(a, b Book) bool {
	if a.ReadStatus != b.ReadStatus || a.Title != b.Title {
		return false
	}
	if len(a.Authors) != len(b.Authors) {
		return false
	}
	for i := range a.Authors {
		if a.Authors[i] != b.Authors[i] {
			return false
		}
	}

	return true
}
