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

package scan

import (
	"github.com/bookwormfood/bookworm/pkg/cli/bus"
	"github.com/bookwormfood/bookworm/pkg/cli/context"
	"github.com/bookwormfood/bookworm/pkg/cli/infra"
	"github.com/bookwormfood/bookworm/pkg/cli/output"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
 * Look up a book and keep its record
 bookworm scan 9780062457714

 * Ask the metadata provider again
 bookworm scan 9780062457714 --refresh

 * Include the photos another reader shared
 bookworm scan 9780062457714 --share 1700000000`

var refreshFlag bool
var shareFlag string

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errors.New("Incorrect number of argument")
	}

	return nil
}

// NewCmd returns a new scan command
func NewCmd(ctx context.BookwormCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "scan <isbn>",
		Short:   "Look up a book by its ISBN",
		Aliases: []string{"s", "get"},
		Example: example,
		PreRunE: preRun,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.BoolVarP(&refreshFlag, "refresh", "r", false, "Ask the metadata provider again")
	f.StringVar(&shareFlag, "share", "", "Share id of another reader's photos")

	return cmd
}

func newRun(ctx context.BookwormCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		msgs := ctx.Dispatcher.Do(cmd.Context(), bus.Request{
			Op:      bus.OpGetBookData,
			ISBN:    args[0],
			IDToken: ctx.IDToken,
			ShareID: shareFlag,
			Refresh: refreshFlag,
		})

		return output.Messages(msgs)
	}
}
