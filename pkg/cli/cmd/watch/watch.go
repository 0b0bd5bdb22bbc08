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

package watch

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/bookwormfood/bookworm/pkg/cli/bus"
	"github.com/bookwormfood/bookworm/pkg/cli/context"
	"github.com/bookwormfood/bookworm/pkg/cli/infra"
	"github.com/bookwormfood/bookworm/pkg/cli/log"
	"github.com/bookwormfood/bookworm/pkg/cli/output"
	inbox "github.com/bookwormfood/bookworm/pkg/cli/watch"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
 * Upload every photo dropped in the configured inbox
 bookworm watch

 * Watch another directory
 bookworm watch --dir ~/Pictures/books`

var dirFlag string

// NewCmd returns a new watch command
func NewCmd(ctx context.BookwormCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "watch",
		Short:   "Upload the photos added to the inbox",
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVar(&dirFlag, "dir", "", "Directory to watch (defaults to value in config)")

	return cmd
}

func newRun(ctx context.BookwormCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if ctx.IDToken == "" {
			return errors.New("an ID token is required to upload photos")
		}

		dir := dirFlag
		if dir == "" {
			dir = ctx.InboxDir
		}

		c, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sub := ctx.Dispatcher.Bus().Subscribe(bus.ByTag(bus.TagUploaded))
		defer sub.Close()
		go func() {
			for m := range sub.C {
				output.Message(m)
			}
		}()

		log.Infof("watching %s\n", dir)

		return inbox.New(dir, ctx.IDToken, ctx.Dispatcher).Run(c)
	}
}
