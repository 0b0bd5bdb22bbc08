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

	"github.com/bookwormfood/bookworm/pkg/assert"
)

func TestReportConflict(t *testing.T) {
	testCases := []struct {
		local    string
		cloud    string
		expected string
	}{
		{
			local:    "",
			cloud:    "",
			expected: "",
		},
		{
			local:    "foo\nbar",
			cloud:    "foo\nbar",
			expected: "foo\nbar",
		},
		{
			local: "\n",
			cloud: "foo\n",
			expected: `<<<<<<< Local

=======
foo
>>>>>>> Cloud
`,
		},
		{
			local: "foo\n\nquz\nbaz\n",
			cloud: "foo\n\nbar\nbaz\n",
			expected: `foo

<<<<<<< Local
quz
=======
bar
>>>>>>> Cloud
baz
`,
		},
	}

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("test case %d", idx), func(t *testing.T) {
			result := ReportConflict(tc.local, tc.cloud)
			assert.DeepEqual(t, result, tc.expected, "result mismatch")
		})
	}
}

func TestDescribeMerge(t *testing.T) {
	local := Book{ISBN: "9780062457714", Title: "T", ReadStatus: StatusRead}

	assert.Equal(t, DescribeMerge(local, local), "", "identical records")

	cloud := local
	cloud.ReadStatus = StatusLiked

	expected := "title: T\nauthors: \n" +
		"<<<<<<< Local\nstatus: Read\n=======\nstatus: Liked\n>>>>>>> Cloud\n" +
		"photos: 0\nshare: 0\n"
	assert.Equal(t, DescribeMerge(local, cloud), expected, "report mismatch")
}
