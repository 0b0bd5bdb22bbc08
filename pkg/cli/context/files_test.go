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
	"os"
	"path/filepath"
	"testing"

	"github.com/bookwormfood/bookworm/pkg/assert"
	"github.com/bookwormfood/bookworm/pkg/dirs"
)

func assertDirsExist(t *testing.T, paths Paths) {
	for _, base := range []string{paths.Config, paths.Data, paths.Cache} {
		info, err := os.Stat(dirs.App(base))
		assert.Equal(t, err, nil, "dir should exist")
		assert.Equal(t, info.IsDir(), true, "should be a directory")
	}
}

func TestInitDirs(t *testing.T) {
	tmpDir := t.TempDir()

	paths := Paths{
		Config: filepath.Join(tmpDir, "config"),
		Data:   filepath.Join(tmpDir, "data"),
		Cache:  filepath.Join(tmpDir, "cache"),
	}

	err := InitDirs(paths)
	assert.Equal(t, err, nil, "InitDirs should succeed")
	assertDirsExist(t, paths)

	// Call again - should be idempotent
	err = InitDirs(paths)
	assert.Equal(t, err, nil, "InitDirs should succeed when dirs already exist")
	assertDirsExist(t, paths)
}

func TestRedact(t *testing.T) {
	ctx := Redact(BookwormCtx{IDToken: "eyJhbGciOi"})
	assert.Equal(t, ctx.IDToken, "1", "token should be redacted")

	ctx = Redact(BookwormCtx{})
	assert.Equal(t, ctx.IDToken, "0", "missing token mismatch")
}
