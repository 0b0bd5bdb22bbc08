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

package ls

import (
	"github.com/bookwormfood/bookworm/pkg/cli/bus"
	"github.com/bookwormfood/bookworm/pkg/cli/context"
	"github.com/bookwormfood/bookworm/pkg/cli/infra"
	"github.com/bookwormfood/bookworm/pkg/cli/output"
	"github.com/spf13/cobra"
)

var example = `
 * List the books on this device
 bookworm ls

 * Sync with the cloud first
 bookworm ls --sync`

var syncFlag bool

// NewCmd returns a new ls command
func NewCmd(ctx context.BookwormCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ls",
		Short:   "List the scanned books",
		Aliases: []string{"l"},
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.BoolVarP(&syncFlag, "sync", "s", false, "Sync with the cloud and list again")

	return cmd
}

func newRun(ctx context.BookwormCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		msgs := ctx.Dispatcher.Do(cmd.Context(), bus.Request{
			Op:            bus.OpGetScannedBooks,
			IDToken:       ctx.IDToken,
			WithCloudSync: syncFlag,
		})

		return output.Messages(msgs)
	}
}
