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

// Package output provides functions to print informations on the terminal
// in a consistent manner
package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/bookwormfood/bookworm/pkg/book"
	"github.com/bookwormfood/bookworm/pkg/cli/bus"
	"github.com/bookwormfood/bookworm/pkg/cli/log"
)

const timeFormat = "Jan 2, 2006 3:04pm (MST)"

// BookInfo prints the record of a book
func BookInfo(b book.Book) {
	title := b.Title
	if title == "" {
		title = "(unknown title)"
	}

	log.Infof("%s\n", title)
	if len(b.Authors) > 0 {
		log.Plainf("  by %s\n", strings.Join(b.Authors, ", "))
	}
	log.Plainf("  isbn: %s\n", b.ISBN)
	if b.ReadStatus != book.StatusNone {
		log.Plainf("  status: %s\n", b.ReadStatus)
	}
	if !b.TimestampUpdate.IsZero() {
		log.Plainf("  updated at: %s\n", b.TimestampUpdate.Local().Format(timeFormat))
	}
	if b.IsDirty() {
		log.Plainf("  not synced\n")
	}
	for _, p := range b.Photos {
		log.Plainf("  photo: %s\n", p)
	}
}

// BookList prints a line for each record
func BookList(books []book.Book) {
	if len(books) == 0 {
		log.Plain("no books\n")
		return
	}

	for _, b := range books {
		status := ""
		if b.ReadStatus != book.StatusNone {
			status = fmt.Sprintf(" [%s]", b.ReadStatus)
		}

		log.Plainf("(%s) %s%s\n", b.ISBN, b.Title, status)
	}
}

func failure(m bus.Message, e *bus.Error) {
	subject := m.ISBN
	if subject == "" {
		subject = string(m.Tag())
	}

	if m.Phase == bus.PhaseLocal {
		log.Errorf("%s: %s (%s)\n", subject, e.Message, e.Kind)
	} else {
		log.Warnf("%s: %s failed: %s (%s)\n", subject, m.Phase, e.Message, e.Kind)
	}
}

// Message prints a response
func Message(m bus.Message) {
	if e := m.Err(); e != nil {
		failure(m, e)
		return
	}

	switch m.Tag() {
	case bus.TagLocalBook:
		if m.Phase == bus.PhaseCloud {
			log.Successf("synced %s\n", m.ISBN)
			return
		}
		BookInfo(*m.LocalBook.Ok)
	case bus.TagLocalBooks:
		if m.Phase == bus.PhaseCloud {
			log.Successf("synced at %s\n", time.Now().Format(timeFormat))
		}
		BookList(m.LocalBooks.Ok.Books)
	case bus.TagDeleted:
		if m.Phase == bus.PhaseCloud {
			log.Successf("deleted %s from the cloud\n", *m.Deleted.Ok)
			return
		}
		log.Successf("removed %s\n", *m.Deleted.Ok)
	case bus.TagUploaded:
		log.Successf("uploaded %s\n", m.Uploaded.Ok.URL)
	}
}

// Messages prints the responses to a request. It returns the error of the
// first response that failed locally; cloud failures are only reported.
func Messages(msgs []bus.Message) error {
	var ret error

	for _, m := range msgs {
		Message(m)

		if e := m.Err(); e != nil && ret == nil && (m.Phase == bus.PhaseLocal || m.Tag() == bus.TagUploaded) {
			ret = e
		}
	}

	return ret
}
