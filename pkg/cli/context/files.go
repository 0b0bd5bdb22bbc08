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
	"github.com/bookwormfood/bookworm/pkg/cli/utils"
	"github.com/bookwormfood/bookworm/pkg/dirs"
	"github.com/pkg/errors"
)

// InitDirs creates the bookworm directories if they don't already exist.
func InitDirs(paths Paths) error {
	if paths.Config != "" {
		if err := utils.EnsureDir(dirs.App(paths.Config)); err != nil {
			return errors.Wrap(err, "initializing config dir")
		}
	}
	if paths.Data != "" {
		if err := utils.EnsureDir(dirs.App(paths.Data)); err != nil {
			return errors.Wrap(err, "initializing data dir")
		}
	}
	if paths.Cache != "" {
		if err := utils.EnsureDir(dirs.App(paths.Cache)); err != nil {
			return errors.Wrap(err, "initializing cache dir")
		}
	}

	return nil
}
