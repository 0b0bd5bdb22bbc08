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
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bookwormfood/bookworm/pkg/server/config"
	"github.com/bookwormfood/bookworm/pkg/server/log"
	"github.com/bookwormfood/bookworm/pkg/server/token"
)

func tokenCmd(args []string, w io.Writer) {
	fs := setupFlagSet("token", "bookworm-server token")

	email := fs.String("email", "", "Email of the user (required)")
	ttl := fs.Duration("ttl", 24*time.Hour, "Lifetime of the token")
	tokenSecret := fs.String("tokenSecret", "", "Secret the ID tokens are signed with (env: TOKEN_SECRET)")
	tokenAudience := fs.String("tokenAudience", "", "Audience of the token (env: TOKEN_AUDIENCE)")
	envFile := fs.String("envFile", "", "Path to a .env file (default: .env if present)")

	fs.Parse(args)

	requireString(fs, *email, "email")

	cfg := mustConfig(fs, *envFile, config.Params{
		TokenSecret:   *tokenSecret,
		TokenAudience: *tokenAudience,
	})

	tok, err := token.Mint([]byte(cfg.TokenSecret), *email, cfg.TokenAudience, time.Now(), *ttl)
	if err != nil {
		log.ErrorWrap(err, "minting token")
		os.Exit(1)
	}

	fmt.Fprintln(w, tok)
}
