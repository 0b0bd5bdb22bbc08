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

package engine

import (
	"context"

	"github.com/bookwormfood/bookworm/pkg/book"
)

// Ack is the outcome of a cloud call that runs after the local write it
// mirrors has been reported
type Ack struct {
	done chan struct{}
	book book.Book
	err  error
}

func newAck() *Ack {
	return &Ack{done: make(chan struct{})}
}

func (a *Ack) resolve(b book.Book, err error) {
	a.book = b
	a.err = err
	close(a.done)
}

// Done is closed when the cloud call has finished
func (a *Ack) Done() <-chan struct{} {
	return a.done
}

// Wait blocks until the cloud call has finished and returns the record as
// stored afterwards
func (a *Ack) Wait(ctx context.Context) (book.Book, error) {
	select {
	case <-a.done:
		return a.book, a.err
	case <-ctx.Done():
		return book.Book{}, ctx.Err()
	}
}
