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

package context

import (
	"testing"

	"github.com/bookwormfood/bookworm/pkg/cli/bus"
	"github.com/bookwormfood/bookworm/pkg/cli/testutils"
	"github.com/pkg/errors"
)

// InitTestCtx initializes a test context with an in-memory database, fake
// services and a temporary directory for all paths
func InitTestCtx(t *testing.T) BookwormCtx {
	tmpDir := t.TempDir()
	paths := Paths{
		Home:   tmpDir,
		Cache:  tmpDir,
		Config: tmpDir,
		Data:   tmpDir,
	}

	if err := InitDirs(paths); err != nil {
		t.Fatal(errors.Wrap(err, "creating test directories"))
	}

	env := testutils.NewEnv(t)
	d := bus.NewDispatcher(env.Engine, bus.New())
	t.Cleanup(d.Close)

	return BookwormCtx{
		Paths:         paths,
		Version:       "test",
		DB:            env.DB,
		Clock:         env.Clock,
		PhotosBaseURL: testutils.PhotosBaseURL,
		Engine:        env.Engine,
		Dispatcher:    d,
	}
}
