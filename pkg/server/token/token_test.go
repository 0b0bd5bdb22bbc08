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

package token

import (
	"testing"
	"time"

	"github.com/bookwormfood/bookworm/pkg/assert"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

var (
	testSecret = []byte("test-secret")
	testNow    = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
)

func fixedNow() time.Time {
	return testNow
}

func TestVerify(t *testing.T) {
	valid, err := Mint(testSecret, "Reader@Example.com", "bookworm", testNow, time.Hour)
	if err != nil {
		t.Fatal(errors.Wrap(err, "minting"))
	}

	v := Verifier{Secret: testSecret, Audience: "bookworm", Now: fixedNow}
	claims, err := v.Verify(valid)
	if err != nil {
		t.Fatal(errors.Wrap(err, "executing"))
	}

	assert.Equal(t, claims.Email, "Reader@Example.com", "Email mismatch")
	assert.Equal(t, claims.UserKey(), "reader@example.com", "UserKey mismatch")
}

func TestVerify_Rejected(t *testing.T) {
	expired, err := Mint(testSecret, "reader@example.com", "", testNow.Add(-2*time.Hour), time.Hour)
	if err != nil {
		t.Fatal(errors.Wrap(err, "minting expired"))
	}
	otherSecret, err := Mint([]byte("other"), "reader@example.com", "", testNow, time.Hour)
	if err != nil {
		t.Fatal(errors.Wrap(err, "minting with other secret"))
	}
	wrongAudience, err := Mint(testSecret, "reader@example.com", "someone-else", testNow, time.Hour)
	if err != nil {
		t.Fatal(errors.Wrap(err, "minting with other audience"))
	}
	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Email: "reader@example.com"}).SignedString(testSecret)
	if err != nil {
		t.Fatal(errors.Wrap(err, "minting without expiry"))
	}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Email:            "reader@example.com",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(testNow.Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(errors.Wrap(err, "minting unsigned"))
	}

	testCases := []struct {
		name string
		raw  string
	}{
		{"expired", expired},
		{"other secret", otherSecret},
		{"wrong audience", wrongAudience},
		{"no expiry", noExpiry},
		{"unsigned", none},
		{"garbage", "not-a-token"},
		{"empty", ""},
	}

	v := Verifier{Secret: testSecret, Audience: "bookworm", Now: fixedNow}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := v.Verify(tc.raw)
			assert.Equal(t, errors.Cause(err), ErrInvalidToken, "error mismatch")
		})
	}
}

func TestVerify_MissingEmail(t *testing.T) {
	raw, err := Mint(testSecret, "", "", testNow, time.Hour)
	if err != nil {
		t.Fatal(errors.Wrap(err, "minting"))
	}

	v := Verifier{Secret: testSecret, Now: fixedNow}
	_, err = v.Verify(raw)
	assert.Equal(t, err, ErrMissingEmail, "error mismatch")
}

func TestVerify_AudienceOptional(t *testing.T) {
	raw, err := Mint(testSecret, "reader@example.com", "anything", testNow, time.Hour)
	if err != nil {
		t.Fatal(errors.Wrap(err, "minting"))
	}

	v := Verifier{Secret: testSecret, Now: fixedNow}
	if _, err := v.Verify(raw); err != nil {
		t.Fatal(errors.Wrap(err, "executing"))
	}
}
