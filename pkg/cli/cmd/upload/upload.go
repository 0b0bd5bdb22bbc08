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

package upload

import (
	"os"

	"github.com/bookwormfood/bookworm/pkg/cli/bus"
	"github.com/bookwormfood/bookworm/pkg/cli/context"
	"github.com/bookwormfood/bookworm/pkg/cli/infra"
	"github.com/bookwormfood/bookworm/pkg/cli/output"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
 * Upload photos of a book
 bookworm upload 9780062457714 front.jpg back.jpg`

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) < 2 {
		return errors.New("Incorrect number of argument")
	}

	return nil
}

// NewCmd returns a new upload command
func NewCmd(ctx context.BookwormCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "upload <isbn> <file>...",
		Short:   "Upload photos of a book",
		Aliases: []string{"up"},
		Example: example,
		PreRunE: preRun,
		RunE:    newRun(ctx),
	}

	return cmd
}

func readFiles(paths []string) ([][]byte, error) {
	ret := make([][]byte, 0, len(paths))

	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", p)
		}

		ret = append(ret, data)
	}

	return ret, nil
}

func newRun(ctx context.BookwormCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		files, err := readFiles(args[1:])
		if err != nil {
			return err
		}

		msgs := ctx.Dispatcher.Do(cmd.Context(), bus.Request{
			Op:      bus.OpUploadPic,
			ISBN:    args[0],
			IDToken: ctx.IDToken,
			Files:   files,
		})

		return output.Messages(msgs)
	}
}
