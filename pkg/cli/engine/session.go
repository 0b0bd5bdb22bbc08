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
	"sync"
	"sync/atomic"

	"github.com/bookwormfood/bookworm/pkg/cli/log"
	"github.com/bookwormfood/bookworm/pkg/cli/token"
)

// Session is the state of one signed in (or anonymous) user of the app. A
// full cloud sync runs at most once per session unless it fails.
type Session struct {
	Token string

	owner     string
	hasSynced atomic.Bool
	syncMu    sync.Mutex
}

// NewSession returns a session for the given ID token. An empty token makes
// an anonymous session that never talks to the cloud.
func NewSession(idToken string) *Session {
	s := &Session{Token: idToken}

	if idToken != "" {
		claims, err := token.Parse(idToken)
		if err != nil {
			log.Debug("reading the ID token claims: %s\n", err)
		} else {
			s.owner = claims.OwnerID()
		}
	}

	return s
}

// HasToken reports whether cloud calls can be made
func (s *Session) HasToken() bool {
	return s != nil && s.Token != ""
}

// HasSynced reports whether a full cloud sync succeeded in this session
func (s *Session) HasSynced() bool {
	return s.hasSynced.Load()
}

// OwnerID returns the key under which the user's photos are stored, or an
// empty string if it is unknown
func (s *Session) OwnerID() string {
	if s == nil {
		return ""
	}

	return s.owner
}
