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

// Package bus carries requests to the engine and broadcasts the responses
// as tagged JSON messages to every listener
package bus

import (
	"sync"

	"github.com/bookwormfood/bookworm/pkg/cli/log"
)

// Filter selects the messages a subscription receives
type Filter func(m Message) bool

// ByRequest selects the messages answering the request with the given ID
func ByRequest(id string) Filter {
	return func(m Message) bool {
		return m.RequestID == id
	}
}

// ByISBN selects the messages about the given book
func ByISBN(isbn string) Filter {
	return func(m Message) bool {
		return m.ISBN == isbn
	}
}

// ByTag selects the messages with one of the given tags
func ByTag(tags ...Tag) Filter {
	return func(m Message) bool {
		t := m.Tag()
		for _, tag := range tags {
			if t == tag {
				return true
			}
		}

		return false
	}
}

// Bus broadcasts raw message text to every subscription. Posting never
// blocks: each subscription queues what its listener has not received yet.
type Bus struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

// New returns a bus
func New() *Bus {
	return &Bus{
		subs: map[*Subscription]struct{}{},
	}
}

// Post sends the text to every subscription
func (b *Bus) Post(raw []byte) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for s := range b.subs {
		s.push(raw)
	}
}

// Publish encodes the message and posts it
func (b *Bus) Publish(m Message) error {
	raw, err := m.Encode()
	if err != nil {
		return err
	}

	b.Post(raw)
	return nil
}

// Subscribe returns a subscription to the messages that pass every filter.
// Text that is not a valid message is dropped.
func (b *Bus) Subscribe(filters ...Filter) *Subscription {
	c := make(chan Message)
	s := &Subscription{
		C:       c,
		c:       c,
		done:    make(chan struct{}),
		bus:     b,
		filters: filters,
	}
	s.cond = sync.NewCond(&s.mu)

	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()

	go s.run()

	return s
}

// Subscription receives messages from a bus on C. C is closed after Close.
type Subscription struct {
	C <-chan Message

	c    chan Message
	done chan struct{}
	once sync.Once

	mu     sync.Mutex
	cond   *sync.Cond
	queue  [][]byte
	closed bool

	bus     *Bus
	filters []Filter
}

func (s *Subscription) push(raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.queue = append(s.queue, raw)
	s.cond.Signal()
}

// next blocks until there is queued text. It reports false once the
// subscription is closed.
func (s *Subscription) next() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.queue) == 0 && !s.closed {
		s.cond.Wait()
	}
	if s.closed {
		return nil, false
	}

	raw := s.queue[0]
	s.queue[0] = nil
	s.queue = s.queue[1:]

	return raw, true
}

func (s *Subscription) run() {
	defer close(s.c)

	for {
		raw, ok := s.next()
		if !ok {
			return
		}

		m, err := Decode(raw)
		if err != nil {
			log.Debug("dropping message: %s\n", err)
			continue
		}
		if !s.match(m) {
			continue
		}

		select {
		case s.c <- m:
		case <-s.done:
			return
		}
	}
}

func (s *Subscription) match(m Message) bool {
	for _, f := range s.filters {
		if !f(m) {
			return false
		}
	}

	return true
}

// Close stops the subscription. Queued messages are discarded.
func (s *Subscription) Close() {
	s.once.Do(func() {
		close(s.done)

		s.bus.mu.Lock()
		delete(s.bus.subs, s)
		s.bus.mu.Unlock()

		s.mu.Lock()
		s.closed = true
		s.queue = nil
		s.cond.Broadcast()
		s.mu.Unlock()
	})
}
