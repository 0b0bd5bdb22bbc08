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

// Package testutils provides utilities used in tests
package testutils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/bookwormfood/bookworm/pkg/server/database"
	"github.com/bookwormfood/bookworm/pkg/server/helpers"
	"github.com/bookwormfood/bookworm/pkg/server/token"
	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	// TokenSecret is the secret the test tokens are signed with
	TokenSecret = "test-token-secret"
	// Email is the email of the default test user
	Email = "reader@example.com"
)

// InitDB opens a database at the given path and initializes the schema
func InitDB(t *testing.T, dbPath string) *gorm.DB {
	db, err := database.Open(database.Params{DBPath: dbPath})
	if err != nil {
		t.Fatal(errors.Wrap(err, "opening database"))
	}
	initSchema(t, db)

	return db
}

// InitMemoryDB creates an in-memory SQLite database with the schema initialized
func InitMemoryDB(t *testing.T) *gorm.DB {
	// Use file-based in-memory database with unique UUID per test to avoid sharing
	uuid, err := helpers.GenUUID()
	if err != nil {
		t.Fatalf("failed to generate UUID for test database: %v", err)
	}
	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid)
	db, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}

	initSchema(t, db)
	t.Cleanup(func() {
		database.Close(db)
	})

	return db
}

func initSchema(t *testing.T, db *gorm.DB) {
	if err := database.InitSchema(db); err != nil {
		t.Fatal(errors.Wrap(err, "initializing schema"))
	}
	if err := database.Migrate(db); err != nil {
		t.Fatal(errors.Wrap(err, "migrating"))
	}
}

// MustExec fails the test if the given database query has error
func MustExec(t *testing.T, db *gorm.DB, message string) {
	if err := db.Error; err != nil {
		t.Fatalf("%s: %s", message, err.Error())
	}
}

// MustMintToken returns an ID token for the given email signed with TokenSecret
func MustMintToken(t *testing.T, email string) string {
	tok, err := token.Mint([]byte(TokenSecret), email, "", time.Now(), 24*time.Hour)
	if err != nil {
		t.Fatal(errors.Wrap(err, "minting token"))
	}

	return tok
}

// HTTPDo makes an HTTP request and returns a response
func HTTPDo(t *testing.T, req *http.Request) *http.Response {
	hc := http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	res, err := hc.Do(req)
	if err != nil {
		t.Fatal(errors.Wrap(err, "performing http request"))
	}

	return res
}

// SetReqAuthHeader sets the authorization header in the given request for
// the user with the given email
func SetReqAuthHeader(t *testing.T, req *http.Request, email string) {
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", MustMintToken(t, email)))
}

// HTTPAuthDo makes an HTTP request with an appropriate authorization header for the user with the given email
func HTTPAuthDo(t *testing.T, req *http.Request, email string) *http.Response {
	SetReqAuthHeader(t, req, email)

	return HTTPDo(t, req)
}

// MakeReq makes an HTTP request and returns a response
func MakeReq(endpoint string, method, path, data string) *http.Request {
	u := fmt.Sprintf("%s%s", endpoint, path)

	req, err := http.NewRequest(method, u, strings.NewReader(data))

	if err != nil {
		panic(errors.Wrap(err, "constructing http request"))
	}

	return req
}

// MustMarshalJSON marshals the given value and fails the test on error
func MustMarshalJSON(t *testing.T, v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(errors.Wrap(err, "marshalling JSON"))
	}

	return string(b)
}

// MustDecodeJSON decodes the body of the response and closes it
func MustDecodeJSON(t *testing.T, res *http.Response, v interface{}) {
	defer res.Body.Close()

	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		t.Fatal(errors.Wrap(err, "decoding the response"))
	}
}
