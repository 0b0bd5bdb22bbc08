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

package output

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/bookwormfood/bookworm/pkg/assert"
	"github.com/bookwormfood/bookworm/pkg/book"
	"github.com/bookwormfood/bookworm/pkg/cli/bus"
	"github.com/bookwormfood/bookworm/pkg/cli/log"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	var buf bytes.Buffer
	log.SetPlainOutput(&buf)
	t.Cleanup(func() {
		log.SetPlainOutput(os.Stdout)
	})

	return &buf
}

func TestMessages(t *testing.T) {
	buf := captureOutput(t)

	b := book.Book{ISBN: "9780062457714", Title: "The Subtle Art of Not Giving a F*ck", ReadStatus: book.StatusRead}
	msgs := []bus.Message{
		{RequestID: "1", ISBN: b.ISBN, Phase: bus.PhaseLocal, LocalBook: bus.Ok(b)},
		{RequestID: "1", ISBN: b.ISBN, Phase: bus.PhaseCloud, LocalBook: bus.Fail[book.Book](&bus.Error{Kind: bus.KindTransientNetwork, Message: "unreachable"})},
	}

	err := Messages(msgs)
	assert.Equal(t, err, nil, "a cloud failure should not fail the command")
	assert.Equal(t, strings.Contains(buf.String(), "isbn: 9780062457714"), true, "record should be printed")
}

func TestMessages_LocalFailure(t *testing.T) {
	captureOutput(t)

	e := &bus.Error{Kind: bus.KindNotFound, Message: "no metadata found"}
	msgs := []bus.Message{
		{RequestID: "1", ISBN: "9780547928227", Phase: bus.PhaseLocal, LocalBook: bus.Fail[book.Book](e)},
	}

	err := Messages(msgs)
	if err == nil {
		t.Fatal("expected an error")
	}
	assert.Equal(t, err.Error(), e.Error(), "error mismatch")
}

func TestBookList(t *testing.T) {
	buf := captureOutput(t)

	BookList([]book.Book{
		{ISBN: "9780441172719", Title: "Dune", ReadStatus: book.StatusLiked},
		{ISBN: "9780062457714", Title: "The Subtle Art of Not Giving a F*ck"},
	})

	assert.Equal(t, buf.String(), "  (9780441172719) Dune [Liked]\n  (9780062457714) The Subtle Art of Not Giving a F*ck\n", "output mismatch")
}
