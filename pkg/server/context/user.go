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
	"context"

	"github.com/bookwormfood/bookworm/pkg/server/token"
)

const (
	userKey      privateKey = "user"
	requestIDKey privateKey = "request_id"
)

type privateKey string

// WithUser creates a new context with the claims of the authenticated user
func WithUser(ctx context.Context, claims token.Claims) context.Context {
	return context.WithValue(ctx, userKey, claims)
}

// User retrieves the claims of the authenticated user from the given
// context. The second return value is false if the context has none.
func User(ctx context.Context) (token.Claims, bool) {
	if temp := ctx.Value(userKey); temp != nil {
		if claims, ok := temp.(token.Claims); ok {
			return claims, true
		}
	}

	return token.Claims{}, false
}

// WithRequestID creates a new context with the given request id
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID retrieves the request id from the given context
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}

	return ""
}
