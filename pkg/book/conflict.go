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
	"strings"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// lineDiff computes line-by-line diff between two strings
func lineDiff(s1, s2 string) []diffmatchpatch.Diff {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = time.Second

	s1Chars, s2Chars, arr := dmp.DiffLinesToRunes(s1, s2)
	diffs := dmp.DiffMainRunes(s1Chars, s2Chars, false)

	return dmp.DiffCharsToLines(diffs, arr)
}

func withNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}

	return s + "\n"
}

// ReportConflict returns the local text annotated with conflict markers
// wherever the cloud text differs
func ReportConflict(local, cloud string) string {
	var ret, localBuf, cloudBuf strings.Builder
	pending := false

	flush := func() {
		if !pending {
			return
		}

		ret.WriteString("<<<<<<< Local\n")
		ret.WriteString(withNewline(localBuf.String()))
		ret.WriteString("=======\n")
		ret.WriteString(withNewline(cloudBuf.String()))
		ret.WriteString(">>>>>>> Cloud\n")

		localBuf.Reset()
		cloudBuf.Reset()
		pending = false
	}

	for _, d := range lineDiff(local, cloud) {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			flush()
			ret.WriteString(d.Text)
		case diffmatchpatch.DiffDelete:
			pending = true
			localBuf.WriteString(d.Text)
		case diffmatchpatch.DiffInsert:
			pending = true
			cloudBuf.WriteString(d.Text)
		}
	}
	flush()

	return ret.String()
}

// Summary renders the fields of the record that take part in a merge, one
// per line
func (b Book) Summary() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "title: %s\n", b.Title)
	fmt.Fprintf(&sb, "authors: %s\n", strings.Join(b.Authors, ", "))
	fmt.Fprintf(&sb, "status: %s\n", b.ReadStatus)
	fmt.Fprintf(&sb, "photos: %d\n", len(b.Photos))
	fmt.Fprintf(&sb, "share: %d\n", b.ShareID)

	return sb.String()
}

// DescribeMerge reports how the cloud copy differs from the local record.
// It returns an empty string if both render the same.
func DescribeMerge(local, cloud Book) string {
	l, c := local.Summary(), cloud.Summary()
	if l == c {
		return ""
	}

	return ReportConflict(l, c)
}
