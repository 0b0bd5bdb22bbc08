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

package serve

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/bookwormfood/bookworm/pkg/cli/context"
	"github.com/bookwormfood/bookworm/pkg/cli/daemon"
	"github.com/bookwormfood/bookworm/pkg/cli/infra"
	"github.com/bookwormfood/bookworm/pkg/cli/log"
	"github.com/spf13/cobra"
)

var example = `
 * Serve the message channel on the configured address
 bookworm serve

 * Post a request and follow its responses
 curl -N "http://127.0.0.1:3010/events?isbn=9780062457714" &
 curl -d '{"op":"get_book_data","isbn":"9780062457714"}' http://127.0.0.1:3010/requests`

var addrFlag string

// NewCmd returns a new serve command
func NewCmd(ctx context.BookwormCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Serve the message channel over HTTP",
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVar(&addrFlag, "addr", "", "Address to listen on (defaults to value in config)")

	return cmd
}

func newRun(ctx context.BookwormCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		addr := addrFlag
		if addr == "" {
			addr = ctx.ListenAddr
		}

		c, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		s := daemon.New(ctx.Dispatcher)
		defer s.Close()

		log.Infof("listening on %s\n", addr)

		return s.ListenAndServe(c, addr)
	}
}
