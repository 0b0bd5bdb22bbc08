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
	"strconv"
	"testing"
	"time"

	"github.com/bookwormfood/bookworm/pkg/assert"
)

func receive(t *testing.T, s *Subscription) Message {
	t.Helper()

	select {
	case m, ok := <-s.C:
		if !ok {
			t.Fatal("subscription closed")
		}
		return m
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a message")
	}

	return Message{}
}

func expectNone(t *testing.T, s *Subscription) {
	t.Helper()

	select {
	case m := <-s.C:
		t.Fatalf("unexpected message %+v", m)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBusBroadcast(t *testing.T) {
	b := New()
	s1 := b.Subscribe()
	defer s1.Close()
	s2 := b.Subscribe()
	defer s2.Close()

	if err := b.Publish(Message{RequestID: "1", Phase: PhaseLocal, Deleted: Ok("9780062457714")}); err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, receive(t, s1).RequestID, "1", "first listener")
	assert.Equal(t, receive(t, s2).RequestID, "1", "second listener")
}

func TestBusDropsMalformed(t *testing.T) {
	b := New()
	s := b.Subscribe()
	defer s.Close()

	b.Post([]byte("not json"))
	b.Post([]byte(`{"requestId":"1"}`))
	b.Post([]byte(`{"requestId":"2","phase":"local","deleted":{"Ok":"9780062457714"}}`))

	assert.Equal(t, receive(t, s).RequestID, "2", "only the valid message should arrive")
}

func TestBusFilters(t *testing.T) {
	b := New()
	byReq := b.Subscribe(ByRequest("2"))
	defer byReq.Close()
	byISBN := b.Subscribe(ByISBN("9780441172719"))
	defer byISBN.Close()
	byTag := b.Subscribe(ByTag(TagUploaded))
	defer byTag.Close()

	msgs := []Message{
		{RequestID: "1", ISBN: "9780062457714", Phase: PhaseLocal, Deleted: Ok("9780062457714")},
		{RequestID: "2", ISBN: "9780441172719", Phase: PhaseLocal, Deleted: Ok("9780441172719")},
		{RequestID: "3", ISBN: "9780062457714", Phase: PhaseCloud, Uploaded: Ok(UploadRef{ISBN: "9780062457714"})},
	}
	for _, m := range msgs {
		if err := b.Publish(m); err != nil {
			t.Fatal(err)
		}
	}

	assert.Equal(t, receive(t, byReq).RequestID, "2", "request filter")
	assert.Equal(t, receive(t, byISBN).RequestID, "2", "isbn filter")
	assert.Equal(t, receive(t, byTag).RequestID, "3", "tag filter")

	expectNone(t, byReq)
	expectNone(t, byISBN)
	expectNone(t, byTag)
}

func TestBusSlowListener(t *testing.T) {
	b := New()
	s := b.Subscribe()
	defer s.Close()

	n := 500
	for i := 0; i < n; i++ {
		if err := b.Publish(Message{RequestID: strconv.Itoa(i), Phase: PhaseLocal, Deleted: Ok("9780062457714")}); err != nil {
			t.Fatal(err)
		}
	}

	for i := 0; i < n; i++ {
		assert.Equal(t, receive(t, s).RequestID, strconv.Itoa(i), "message order mismatch")
	}
	expectNone(t, s)
}

func TestSubscriptionClose(t *testing.T) {
	b := New()
	s := b.Subscribe()
	s.Close()
	s.Close()

	// posting after close must not panic
	b.Post([]byte(`{"requestId":"1","phase":"local","deleted":{"Ok":"9780062457714"}}`))

	select {
	case _, ok := <-s.C:
		assert.Equal(t, ok, false, "channel should be closed")
	case <-time.After(5 * time.Second):
		t.Fatal("channel was not closed")
	}
}
