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

// Package consts provides definitions of constants
package consts

var (
	// DBFileName is a filename for the bookworm SQLite database
	DBFileName = "bookworm.db"
	// ConfigFilename is the name of the config file
	ConfigFilename = "bookwormrc"
	// InboxDirName is the name of the photo inbox under the data directory
	InboxDirName = "inbox"

	// EnvIDToken is the environment variable that overrides the configured ID token
	EnvIDToken = "BOOKWORM_ID_TOKEN"

	// DefaultListenAddr is the address the message channel daemon listens on
	DefaultListenAddr = "127.0.0.1:3010"
)
