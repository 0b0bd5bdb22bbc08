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

package daemon

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/bookwormfood/bookworm/pkg/book"
	"github.com/bookwormfood/bookworm/pkg/cli/bus"
	"github.com/bookwormfood/bookworm/pkg/cli/log"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// CreateRequestResp is the response of POST /requests
type CreateRequestResp struct {
	RequestID string        `json:"requestId"`
	Messages  []bus.Message `json:"messages,omitempty"`
}

type createRequestQuery struct {
	Wait bool `schema:"wait"`
}

type eventsQuery struct {
	RequestID string   `schema:"requestId"`
	ISBN      string   `schema:"isbn"`
	Tags      []string `schema:"tag"`
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug("encoding the response: %s\n", err)
	}
}

func doError(w http.ResponseWriter, msg string, err error, status int) {
	log.Debug("%s: %s\n", msg, err)
	http.Error(w, fmt.Sprintf("%s: %s", msg, err), status)
}

// createRequest handles POST /requests. The request is served in the
// background and its id returned, unless wait is set, in which case every
// response is returned once the request is complete.
func (s *Server) createRequest(w http.ResponseWriter, r *http.Request) {
	var q createRequestQuery
	if err := s.decoder.Decode(&q, r.URL.Query()); err != nil {
		doError(w, "parsing the query", err, http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestSize))
	if err != nil {
		doError(w, "reading the body", err, http.StatusRequestEntityTooLarge)
		return
	}

	// a request the engine cannot serve is still accepted so that the
	// listener receives the error message
	var req bus.Request
	if err := json.Unmarshal(body, &req); err != nil {
		doError(w, "decoding the request", err, http.StatusBadRequest)
		return
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	if q.Wait {
		msgs := s.dispatcher.Do(r.Context(), req)
		respondJSON(w, http.StatusOK, CreateRequestResp{RequestID: req.ID, Messages: msgs})
		return
	}

	id := s.dispatcher.Submit(req)
	respondJSON(w, http.StatusAccepted, CreateRequestResp{RequestID: id})
}

func (q eventsQuery) filters() []bus.Filter {
	ret := []bus.Filter{}
	if q.RequestID != "" {
		ret = append(ret, bus.ByRequest(q.RequestID))
	}
	if q.ISBN != "" {
		ret = append(ret, bus.ByISBN(book.NormalizeISBN(q.ISBN)))
	}
	if len(q.Tags) > 0 {
		tags := make([]bus.Tag, 0, len(q.Tags))
		for _, t := range q.Tags {
			tags = append(tags, bus.Tag(t))
		}
		ret = append(ret, bus.ByTag(tags...))
	}

	return ret
}

// events handles GET /events. Each message is sent as an event named after
// its tag. A comment is sent first so that a client knows it is subscribed
// before it posts a request.
func (s *Server) events(w http.ResponseWriter, r *http.Request) {
	var q eventsQuery
	if err := s.decoder.Decode(&q, r.URL.Query()); err != nil {
		doError(w, "parsing the query", err, http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		doError(w, "streaming", errors.New("streaming is not supported"), http.StatusInternalServerError)
		return
	}

	sub := s.dispatcher.Bus().Subscribe(q.filters()...)
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	fmt.Fprint(w, ": subscribed\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case m, ok := <-sub.C:
			if !ok {
				return
			}

			data, err := m.Encode()
			if err != nil {
				log.Debug("encoding event: %s\n", err)
				continue
			}

			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", m.Tag(), data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// health handles GET /health
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
