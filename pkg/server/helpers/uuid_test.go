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

package helpers

import (
	"testing"

	"github.com/bookwormfood/bookworm/pkg/assert"
)

func TestGenUUID(t *testing.T) {
	id, err := GenUUID()
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, ValidateUUID(id), true, "generated id should be valid")
	assert.Equal(t, ValidateUUID("not-a-uuid"), false, "garbage should be invalid")
}
