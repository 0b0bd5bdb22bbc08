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

package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bookwormfood/bookworm/pkg/assert"
	"github.com/bookwormfood/bookworm/pkg/server/database"
	"github.com/bookwormfood/bookworm/pkg/server/testutils"
	"github.com/bookwormfood/bookworm/pkg/server/token"
	"github.com/pkg/errors"
)

func TestTokenCmd(t *testing.T) {
	t.Setenv("TOKEN_SECRET", testutils.TokenSecret)

	var buf bytes.Buffer
	tokenCmd([]string{"--email", "Reader@Example.com", "--envFile", writeEnvFile(t, "")}, &buf)

	v := token.Verifier{Secret: []byte(testutils.TokenSecret)}
	claims, err := v.Verify(strings.TrimSpace(buf.String()))
	if err != nil {
		t.Fatal(errors.Wrap(err, "verifying minted token"))
	}
	assert.Equal(t, claims.UserKey(), "reader@example.com", "user key mismatch")
}

func TestPurgeCmd(t *testing.T) {
	tmpDB := filepath.Join(t.TempDir(), "test.db")

	db := testutils.InitDB(t, tmpDB)
	expired := database.PendingUpload{
		Name:      "expired.jpg",
		UserKey:   testutils.Email,
		ISBN:      "9780441172719",
		PhotoID:   "1",
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	pending := database.PendingUpload{
		Name:      "pending.jpg",
		UserKey:   testutils.Email,
		ISBN:      "9780441172719",
		PhotoID:   "2",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	testutils.MustExec(t, db.Create(&expired), "preparing expired upload")
	testutils.MustExec(t, db.Create(&pending), "preparing pending upload")
	database.Close(db)

	env := writeEnvFile(t, "TOKEN_SECRET="+testutils.TokenSecret+"\n")

	var buf bytes.Buffer
	purgeCmd([]string{"--dbPath", tmpDB, "--envFile", env}, &buf)

	assert.Equal(t, buf.String(), "Deleted 1 expired uploads\n", "output mismatch")

	db2 := testutils.InitDB(t, tmpDB)
	defer database.Close(db2)

	var count int64
	testutils.MustExec(t, db2.Model(&database.PendingUpload{}).Count(&count), "counting uploads")
	assert.Equal(t, count, int64(1), "should have 1 pending upload")
}

func TestScheduleJobs(t *testing.T) {
	_, err := scheduleJobs(nil, "not a schedule")
	if err == nil {
		t.Error("expected an error for an invalid schedule")
	}

	c, err := scheduleJobs(nil, "@every 10m")
	if err != nil {
		t.Fatal(errors.Wrap(err, "scheduling"))
	}
	assert.Equal(t, len(c.Entries()), 1, "entry count mismatch")
}

func TestLoadEnvFile(t *testing.T) {
	os.Unsetenv("BOOKWORM_TEST_VALUE")
	t.Cleanup(func() { os.Unsetenv("BOOKWORM_TEST_VALUE") })

	path := writeEnvFile(t, "BOOKWORM_TEST_VALUE=from-file\n")
	if err := loadEnvFile(path); err != nil {
		t.Fatal(errors.Wrap(err, "loading"))
	}
	assert.Equal(t, os.Getenv("BOOKWORM_TEST_VALUE"), "from-file", "value mismatch")

	err := loadEnvFile(filepath.Join(t.TempDir(), "missing.env"))
	if err == nil {
		t.Error("expected an error for an explicit missing file")
	}
}

func writeEnvFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(errors.Wrap(err, "writing env file"))
	}

	return path
}
