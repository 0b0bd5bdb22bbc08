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
	"fmt"
	"testing"
	"time"

	"github.com/bookwormfood/bookworm/pkg/assert"
)

func TestMergeFromCloud(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)

	testCases := []struct {
		name     string
		local    Book
		cloud    Book
		keep     bool
		expected Book
	}{
		{
			name: "cloud status wins and local title survives",
			local: Book{
				ISBN:            "9780062457714",
				TimestampUpdate: t0,
				ReadStatus:      StatusRead,
				Title:           "The Subtle Art of Not Giving a F*ck",
			},
			cloud: Book{
				ISBN:            "9780062457714",
				TimestampUpdate: t0,
				ReadStatus:      StatusLiked,
			},
			expected: Book{
				ISBN:            "9780062457714",
				TimestampUpdate: t0,
				ReadStatus:      StatusLiked,
				Title:           "The Subtle Art of Not Giving a F*ck",
			},
		},
		{
			name: "cloud fills missing details and photos",
			local: Book{
				ISBN:            "9780062457714",
				TimestampUpdate: t1,
			},
			cloud: Book{
				ISBN:            "9780062457714",
				TimestampUpdate: t0,
				Title:           "Cloud title",
				Authors:         []string{"Mark Manson"},
				Photos:          []string{"1", "2"},
				ShareID:         1,
			},
			expected: Book{
				ISBN:            "9780062457714",
				TimestampUpdate: t1,
				Title:           "Cloud title",
				Authors:         []string{"Mark Manson"},
				Photos:          []string{"1", "2"},
				ShareID:         1,
			},
		},
		{
			name: "local status kept while a local write is pending",
			local: Book{
				ISBN:            "9780062457714",
				TimestampUpdate: t1,
				ReadStatus:      StatusToRead,
				Title:           "Local",
			},
			cloud: Book{
				ISBN:            "9780062457714",
				TimestampUpdate: t0,
				ReadStatus:      StatusLiked,
				Title:           "Cloud",
			},
			keep: true,
			expected: Book{
				ISBN:            "9780062457714",
				TimestampUpdate: t1,
				ReadStatus:      StatusToRead,
				Title:           "Local",
			},
		},
		{
			name: "cloud clears the status",
			local: Book{
				ISBN:            "9780062457714",
				TimestampUpdate: t0,
				ReadStatus:      StatusRead,
				Photos:          []string{"1"},
			},
			cloud: Book{
				ISBN:            "9780062457714",
				TimestampUpdate: t1,
			},
			expected: Book{
				ISBN:            "9780062457714",
				TimestampUpdate: t1,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := MergeFromCloud(tc.local, tc.cloud, tc.keep)
			assert.DeepEqual(t, got, tc.expected, "result mismatch")
		})
	}
}

func TestWithDetails(t *testing.T) {
	b := Book{ISBN: "9780062457714", Title: "Local"}
	d := Details{Title: "Remote", Authors: []string{"A"}, Cover: "c", Description: "d"}

	filled := b.WithDetails(d, false)
	assert.Equal(t, filled.Title, "Local", "fill should keep title")
	assert.DeepEqual(t, filled.Authors, []string{"A"}, "fill should add authors")
	assert.Equal(t, filled.Cover, "c", "fill should add cover")

	overwritten := b.WithDetails(d, true)
	assert.Equal(t, overwritten.Title, "Remote", "overwrite should replace title")
}

func TestCloudEqual(t *testing.T) {
	a := Book{ReadStatus: StatusRead, Title: "T", Authors: []string{"A", "B"}, Cover: "x"}

	testCases := []struct {
		b        Book
		expected bool
	}{
		{Book{ReadStatus: StatusRead, Title: "T", Authors: []string{"A", "B"}}, true},
		{Book{ReadStatus: StatusLiked, Title: "T", Authors: []string{"A", "B"}}, false},
		{Book{ReadStatus: StatusRead, Title: "U", Authors: []string{"A", "B"}}, false},
		{Book{ReadStatus: StatusRead, Title: "T", Authors: []string{"B", "A"}}, false},
		{Book{ReadStatus: StatusRead, Title: "T"}, false},
	}

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("test case %d", idx), func(t *testing.T) {
			assert.Equal(t, CloudEqual(a, tc.b), tc.expected, "result mismatch")
		})
	}
}
