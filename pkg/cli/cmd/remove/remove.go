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

package remove

import (
	"github.com/bookwormfood/bookworm/pkg/cli/bus"
	"github.com/bookwormfood/bookworm/pkg/cli/context"
	"github.com/bookwormfood/bookworm/pkg/cli/infra"
	"github.com/bookwormfood/bookworm/pkg/cli/output"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
 * Remove a book
 bookworm remove 9780062457714`

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errors.New("Incorrect number of argument")
	}

	return nil
}

// NewCmd returns a new remove command
func NewCmd(ctx context.BookwormCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remove <isbn>",
		Short:   "Remove a book",
		Aliases: []string{"rm", "d"},
		Example: example,
		PreRunE: preRun,
		RunE:    newRun(ctx),
	}

	return cmd
}

func newRun(ctx context.BookwormCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		msgs := ctx.Dispatcher.Do(cmd.Context(), bus.Request{
			Op:      bus.OpDeleteBook,
			ISBN:    args[0],
			IDToken: ctx.IDToken,
		})

		return output.Messages(msgs)
	}
}
