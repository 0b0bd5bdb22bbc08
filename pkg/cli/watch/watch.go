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

// Package watch uploads the photos that appear in an inbox directory. A
// photo is named after the book it shows: 9780062457714.jpg, or
// 9780062457714-2.jpg for more photos of the same book.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/bookwormfood/bookworm/pkg/book"
	"github.com/bookwormfood/bookworm/pkg/cli/bus"
	"github.com/bookwormfood/bookworm/pkg/cli/log"
	"github.com/pkg/errors"
	"github.com/radovskyb/watcher"
)

// DefaultInterval is how often the inbox is polled
const DefaultInterval = time.Second

var photoName = regexp.MustCompile(`(?i)^([0-9]{10}|[0-9]{13})(-[0-9]+)?\.jpe?g$`)

// ParseName returns the ISBN a photo file is named after
func ParseName(name string) (string, bool) {
	m := photoName.FindStringSubmatch(filepath.Base(name))
	if m == nil || !book.IsValidISBN(m[1]) {
		return "", false
	}

	return m[1], true
}

// Submitter serves requests in the background
type Submitter interface {
	Submit(req bus.Request) string
}

// Inbox submits an upload request for every photo added to a directory.
// Photos present when it starts are left alone.
type Inbox struct {
	Dir      string
	IDToken  string
	Interval time.Duration

	submitter Submitter
}

// New returns an inbox for the directory
func New(dir, idToken string, s Submitter) *Inbox {
	return &Inbox{
		Dir:       dir,
		IDToken:   idToken,
		Interval:  DefaultInterval,
		submitter: s,
	}
}

// Submit reads the photo at the path and submits its upload. It returns
// the id of the request.
func (in *Inbox) Submit(path string) (string, error) {
	isbn, ok := ParseName(path)
	if !ok {
		return "", errors.Errorf("'%s' is not named after an ISBN", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "reading %s", path)
	}

	id := in.submitter.Submit(bus.Request{
		Op:      bus.OpUploadPic,
		ISBN:    isbn,
		IDToken: in.IDToken,
		Files:   [][]byte{data},
	})

	return id, nil
}

// Run watches the inbox until the context is done
func (in *Inbox) Run(ctx context.Context) error {
	if err := os.MkdirAll(in.Dir, 0755); err != nil {
		return errors.Wrapf(err, "creating %s", in.Dir)
	}

	w := watcher.New()
	w.FilterOps(watcher.Create, watcher.Rename, watcher.Move)
	w.AddFilterHook(watcher.RegexFilterHook(photoName, false))

	if err := w.Add(in.Dir); err != nil {
		return errors.Wrapf(err, "watching %s", in.Dir)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- w.Start(in.Interval)
	}()
	defer w.Close()

	log.Debug("watching %s\n", in.Dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			return errors.Wrap(err, "polling")
		case err := <-w.Error:
			log.Warnf("watching %s: %s\n", in.Dir, err)
		case <-w.Closed:
			return nil
		case event := <-w.Event:
			if event.IsDir() {
				continue
			}

			id, err := in.Submit(event.Path)
			if err != nil {
				log.Warnf("%s\n", err)
				continue
			}

			log.Debug("submitted %s as %s\n", event.Path, id)
		}
	}
}
