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

package status

import (
	"github.com/bookwormfood/bookworm/pkg/cli/bus"
	"github.com/bookwormfood/bookworm/pkg/cli/context"
	"github.com/bookwormfood/bookworm/pkg/cli/infra"
	"github.com/bookwormfood/bookworm/pkg/cli/output"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
 * Mark a book as read
 bookworm status 9780062457714 Read

 * Clear the status
 bookworm status 9780062457714 None`

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) != 2 {
		return errors.New("Incorrect number of argument")
	}

	return nil
}

// NewCmd returns a new status command
func NewCmd(ctx context.BookwormCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "status <isbn> <ToRead|Read|Liked|None>",
		Short:   "Set the reading status of a book",
		Example: example,
		PreRunE: preRun,
		RunE:    newRun(ctx),
	}

	return cmd
}

func newRun(ctx context.BookwormCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		msgs := ctx.Dispatcher.Do(cmd.Context(), bus.Request{
			Op:      bus.OpUpdateBookStatus,
			ISBN:    args[0],
			Status:  args[1],
			IDToken: ctx.IDToken,
		})

		return output.Messages(msgs)
	}
}
