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

package app

import (
	"time"

	"github.com/bookwormfood/bookworm/pkg/clock"
	"github.com/bookwormfood/bookworm/pkg/server/testutils"
	"github.com/bookwormfood/bookworm/pkg/server/token"
)

// NewTest returns an app for a testing environment
func NewTest() App {
	c := clock.NewMock()

	return App{
		Clock: c,
		Verifier: token.Verifier{
			Secret: []byte(testutils.TokenSecret),
			Now:    c.Now,
		},
		PublicURL:    "http://127.0.0.1",
		PhotoDir:     "photos",
		UploadSecret: []byte(testutils.TokenSecret),
		UploadTTL:    5 * time.Minute,
	}
}
