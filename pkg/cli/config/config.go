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

// Package config reads and writes the bookworm configuration file
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/bookwormfood/bookworm/pkg/cli/consts"
	"github.com/bookwormfood/bookworm/pkg/cli/context"
	"github.com/bookwormfood/bookworm/pkg/dirs"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Config holds bookworm configuration
type Config struct {
	APIEndpoint      string `yaml:"apiEndpoint"`
	MetadataEndpoint string `yaml:"metadataEndpoint,omitempty"`
	PhotosBaseURL    string `yaml:"photosBaseURL"`
	IDToken          string `yaml:"idToken,omitempty"`
	ListenAddr       string `yaml:"listenAddr,omitempty"`
	InboxDir         string `yaml:"inboxDir,omitempty"`
	// ResolverCooldown is a duration such as 24h
	ResolverCooldown string `yaml:"resolverCooldown,omitempty"`
}

// Cooldown returns the configured resolver cooldown, or zero if unset
func (c Config) Cooldown() (time.Duration, error) {
	if c.ResolverCooldown == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(c.ResolverCooldown)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing resolverCooldown '%s'", c.ResolverCooldown)
	}
	if d < 0 {
		return 0, errors.Errorf("resolverCooldown '%s' is negative", c.ResolverCooldown)
	}

	return d, nil
}

// GetPath returns the path to the bookworm config file
func GetPath(ctx context.BookwormCtx) string {
	return filepath.Join(dirs.App(ctx.Paths.Config), consts.ConfigFilename)
}

// Read reads the config file
func Read(ctx context.BookwormCtx) (Config, error) {
	var ret Config

	configPath := GetPath(ctx)
	b, err := os.ReadFile(configPath)
	if err != nil {
		return ret, errors.Wrap(err, "reading config file")
	}

	err = yaml.Unmarshal(b, &ret)
	if err != nil {
		return ret, errors.Wrap(err, "unmarshalling config")
	}

	return ret, nil
}

// Write writes the config to the config file
func Write(ctx context.BookwormCtx, cf Config) error {
	path := GetPath(ctx)

	b, err := yaml.Marshal(cf)
	if err != nil {
		return errors.Wrap(err, "marshalling config into YAML")
	}

	// the file may hold an ID token
	err = os.WriteFile(path, b, 0600)
	if err != nil {
		return errors.Wrap(err, "writing the config file")
	}

	return nil
}
