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
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/bookwormfood/bookworm/pkg/book"
	"github.com/bookwormfood/bookworm/pkg/cli/engine"
	"github.com/bookwormfood/bookworm/pkg/cli/log"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Dispatcher serves requests with the engine and publishes the responses on
// the bus. Every request is answered by at least one message. Requests
// carrying the same ID token share a session.
type Dispatcher struct {
	engine *engine.Engine
	bus    *Bus

	mu       sync.Mutex
	sessions map[string]*engine.Session

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewDispatcher returns a dispatcher
func NewDispatcher(e *engine.Engine, b *Bus) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())

	return &Dispatcher{
		engine:   e,
		bus:      b,
		sessions: map[string]*engine.Session{},
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Bus returns the bus the responses are published on
func (d *Dispatcher) Bus() *Bus {
	return d.bus
}

func (d *Dispatcher) session(idToken string) *engine.Session {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.sessions[idToken]
	if !ok {
		s = engine.NewSession(idToken)
		d.sessions[idToken] = s
	}

	return s
}

func withID(req Request) Request {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	return req
}

// Submit serves the request in the background and returns its ID. The
// responses are only published on the bus; a caller that wants them must
// subscribe before submitting, or pick an ID itself.
func (d *Dispatcher) Submit(req Request) string {
	req = withID(req)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.handle(d.ctx, req, d.publish)
	}()

	return req.ID
}

// Do serves the request and returns every response once the request is
// complete, including the outcome of the cloud calls it caused. The
// responses are published on the bus as well.
func (d *Dispatcher) Do(ctx context.Context, req Request) []Message {
	req = withID(req)

	var mu sync.Mutex
	ret := []Message{}

	d.handle(ctx, req, func(m Message) {
		d.publish(m)

		mu.Lock()
		ret = append(ret, m)
		mu.Unlock()
	})

	return ret
}

// Wait blocks until every submitted request is complete
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Close cancels the submitted requests and waits for them to return
func (d *Dispatcher) Close() {
	d.cancel()
	d.wg.Wait()
}

func (d *Dispatcher) publish(m Message) {
	if err := d.bus.Publish(m); err != nil {
		log.Debug("publishing a response to %s: %s\n", m.RequestID, err)
	}
}

type emitFunc func(m Message)

func (d *Dispatcher) handle(ctx context.Context, req Request, emit emitFunc) {
	req.ISBN = book.NormalizeISBN(req.ISBN)

	log.Debug("request %s: %s %s\n", req.ID, req.Op, req.ISBN)

	if err := req.Validate(); err != nil {
		d.reject(req, err, emit)
		return
	}

	sess := d.session(strings.TrimSpace(req.IDToken))

	switch req.Op {
	case OpGetBookData:
		d.getBookData(ctx, sess, req, emit)
	case OpGetScannedBooks:
		d.getScannedBooks(ctx, sess, req, emit)
	case OpUpdateBookStatus:
		d.updateBookStatus(ctx, sess, req, emit)
	case OpDeleteBook:
		d.deleteBook(ctx, sess, req, emit)
	case OpUploadPic:
		d.uploadPic(ctx, sess, req, emit)
	}
}

// reject answers a request that cannot be served with an error under the
// tag its operation normally answers with
func (d *Dispatcher) reject(req Request, err error, emit emitFunc) {
	m := Message{RequestID: req.ID, ISBN: req.ISBN, Phase: PhaseLocal}
	e := classify(err)

	switch req.Op {
	case OpGetScannedBooks:
		m.LocalBooks = Fail[BookList](e)
	case OpDeleteBook:
		m.Deleted = Fail[string](e)
	case OpUploadPic:
		m.Uploaded = Fail[UploadRef](e)
	default:
		m.LocalBook = Fail[book.Book](e)
	}

	emit(m)
}

func bookMessage(req Request, phase Phase, b book.Book, err error) Message {
	m := Message{RequestID: req.ID, ISBN: req.ISBN, Phase: phase}
	if err != nil {
		m.LocalBook = Fail[book.Book](classify(err))
	} else {
		m.LocalBook = Ok(b)
	}

	return m
}

// waitCloud reports the outcome of the cloud call that mirrors a local
// write. The caller may have stopped listening by then; the call completes
// regardless.
func (d *Dispatcher) waitCloud(ctx context.Context, sess *engine.Session, req Request, ack *engine.Ack, emit emitFunc) {
	if ack == nil {
		return
	}

	b, err := ack.Wait(ctx)
	if err != nil {
		emit(bookMessage(req, PhaseCloud, book.Book{}, err))
		return
	}

	emit(bookMessage(req, PhaseCloud, d.engine.Hydrate(sess, b), nil))
}

func (d *Dispatcher) getBookData(ctx context.Context, sess *engine.Session, req Request, emit emitFunc) {
	b, ack, err := d.engine.GetBook(ctx, sess, req.ISBN, req.Refresh)
	emit(bookMessage(req, PhaseLocal, b, err))
	if err != nil {
		return
	}

	if req.ShareID != "" {
		shareID, err := strconv.ParseUint(req.ShareID, 10, 64)
		if err != nil {
			log.Debug("ignoring share ID '%s': %s\n", req.ShareID, err)
		} else if shared, ok, err := d.engine.SharedPhotos(ctx, shareID, b); err != nil {
			log.Debug("getting shared photos of %s: %s\n", req.ISBN, err)
		} else if ok {
			emit(bookMessage(req, PhaseShare, shared, nil))
		}
	}

	d.waitCloud(ctx, sess, req, ack, emit)
}

func (d *Dispatcher) getScannedBooks(ctx context.Context, sess *engine.Session, req Request, emit emitFunc) {
	books, err := d.engine.ListBooks(sess)

	if err != nil {
		log.Warnf("listing the stored books: %s\n", err)
		books = []book.Book{}
	}
	emit(Message{RequestID: req.ID, Phase: PhaseLocal, LocalBooks: Ok(BookList{Books: books})})

	var m Message

	if !req.WithCloudSync || !d.engine.NeedsSync(sess) {
		return
	}

	synced, err := d.engine.SyncAll(ctx, sess)
	if errors.Is(err, engine.ErrAlreadySynced) {
		return
	}

	m = Message{RequestID: req.ID, Phase: PhaseCloud}
	if err != nil {
		m.LocalBooks = Fail[BookList](classify(err))
	} else {
		m.LocalBooks = Ok(BookList{Books: synced})
	}
	emit(m)
}

func (d *Dispatcher) updateBookStatus(ctx context.Context, sess *engine.Session, req Request, emit emitFunc) {
	status, err := book.ParseReadStatus(req.Status)
	if err != nil {
		emit(bookMessage(req, PhaseLocal, book.Book{}, err))
		return
	}

	b, ack, err := d.engine.UpdateStatus(ctx, sess, req.ISBN, status)
	emit(bookMessage(req, PhaseLocal, b, err))
	if err != nil {
		return
	}

	d.waitCloud(ctx, sess, req, ack, emit)
}

func (d *Dispatcher) deleteBook(ctx context.Context, sess *engine.Session, req Request, emit emitFunc) {
	_, ack, err := d.engine.Delete(ctx, sess, req.ISBN)

	m := Message{RequestID: req.ID, ISBN: req.ISBN, Phase: PhaseLocal}
	if err != nil {
		m.Deleted = Fail[string](classify(err))
		emit(m)
		return
	}
	m.Deleted = Ok(req.ISBN)
	emit(m)

	if ack == nil {
		return
	}

	m = Message{RequestID: req.ID, ISBN: req.ISBN, Phase: PhaseCloud}
	if _, err := ack.Wait(ctx); err != nil {
		m.Deleted = Fail[string](classify(err))
	} else {
		m.Deleted = Ok(req.ISBN)
	}
	emit(m)
}

func (d *Dispatcher) uploadPic(ctx context.Context, sess *engine.Session, req Request, emit emitFunc) {
	var last *book.Book

	for _, data := range req.Files {
		m := Message{RequestID: req.ID, ISBN: req.ISBN, Phase: PhaseCloud}

		b, photoURL, err := d.engine.UploadPhoto(ctx, sess, req.ISBN, data)
		if err != nil {
			m.Uploaded = Fail[UploadRef](classify(err))
			emit(m)
			continue
		}

		photoID := photoURL
		if id, err := book.PhotoIDFromURL(photoURL); err == nil {
			photoID = id
		}

		m.Uploaded = Ok(UploadRef{ISBN: req.ISBN, PhotoID: photoID, URL: photoURL})
		emit(m)

		last = &b
	}

	if last != nil {
		emit(bookMessage(req, PhaseCloud, *last, nil))
	}
}
