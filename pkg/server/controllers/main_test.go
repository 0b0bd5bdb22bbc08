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

package controllers

import (
	"os"
	"testing"
	"time"

	"github.com/bookwormfood/bookworm/pkg/clock"
	"github.com/bookwormfood/bookworm/pkg/server/app"
	"github.com/bookwormfood/bookworm/pkg/server/testutils"
)

const (
	isbnSubtleArt = "9780062457714"
	isbnDune      = "9780441172719"
)

var t0 = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	os.Setenv("APP_ENV", "TEST")

	os.Exit(m.Run())
}

type testEnv struct {
	URL   string
	App   *app.App
	Clock *clock.Mock
}

// newTestEnv starts a server whose public URL is its own address so that
// the upload URLs it signs can be used
func newTestEnv(t *testing.T) testEnv {
	c := clock.NewMock()
	c.SetNow(t0)

	a := app.NewTest()
	a.DB = testutils.InitMemoryDB(t)
	a.Clock = c
	a.PhotoDir = t.TempDir()

	server := MustNewServer(t, &a)
	t.Cleanup(server.Close)
	a.PublicURL = server.URL

	return testEnv{URL: server.URL, App: &a, Clock: c}
}
