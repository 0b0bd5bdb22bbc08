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

// Package infra provides operations and definitions for the
// local infrastructure for bookworm
package infra

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bookwormfood/bookworm/pkg/cli/bus"
	"github.com/bookwormfood/bookworm/pkg/cli/client"
	"github.com/bookwormfood/bookworm/pkg/cli/config"
	"github.com/bookwormfood/bookworm/pkg/cli/consts"
	"github.com/bookwormfood/bookworm/pkg/cli/context"
	"github.com/bookwormfood/bookworm/pkg/cli/database"
	"github.com/bookwormfood/bookworm/pkg/cli/engine"
	"github.com/bookwormfood/bookworm/pkg/cli/log"
	"github.com/bookwormfood/bookworm/pkg/cli/metadata"
	"github.com/bookwormfood/bookworm/pkg/cli/utils"
	"github.com/bookwormfood/bookworm/pkg/clock"
	"github.com/bookwormfood/bookworm/pkg/dirs"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const (
	// DefaultAPIEndpoint is the default API endpoint used when none is configured
	DefaultAPIEndpoint = "http://localhost:3001/api"
	// DefaultPhotosBaseURL is the default host of uploaded photos
	DefaultPhotosBaseURL = "http://localhost:3001"
)

// RunEFunc is a function type of bookworm commands
type RunEFunc func(*cobra.Command, []string) error

func getDBPath(paths context.Paths, customPath string) string {
	if customPath != "" {
		return customPath
	}

	return filepath.Join(dirs.App(paths.Data), consts.DBFileName)
}

// newBaseCtx creates a minimal context with paths and database connection.
// This base context is used for file and database initialization before
// being enriched with config values by setupCtx.
func newBaseCtx(versionTag, customDBPath string) (context.BookwormCtx, error) {
	dirs.Reload()

	paths := context.Paths{
		Home:   dirs.Home,
		Config: dirs.ConfigHome,
		Data:   dirs.DataHome,
		Cache:  dirs.CacheHome,
	}

	db, err := database.Open(getDBPath(paths, customDBPath))
	if err != nil {
		return context.BookwormCtx{}, errors.Wrap(err, "connecting to db")
	}

	ctx := context.BookwormCtx{
		Paths:   paths,
		Version: versionTag,
		DB:      db,
	}

	return ctx, nil
}

// Init initializes the bookworm environment and returns a new context.
// apiEndpoint is used when creating a new config file and, if set,
// overrides the configured endpoint.
func Init(versionTag, apiEndpoint, dbPath string) (*context.BookwormCtx, error) {
	ctx, err := newBaseCtx(versionTag, dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "initializing a context")
	}

	if err := initFiles(ctx, apiEndpoint); err != nil {
		ctx.DB.Close()
		return nil, errors.Wrap(err, "initializing files")
	}

	if err := database.Migrate(ctx.DB); err != nil {
		ctx.DB.Close()
		return nil, errors.Wrap(err, "running migration")
	}

	ctx, err = setupCtx(ctx, apiEndpoint)
	if err != nil {
		ctx.DB.Close()
		return nil, errors.Wrap(err, "setting up the context")
	}

	log.Debug("context: %+v\n", context.Redact(ctx))

	return &ctx, nil
}

// setupCtx enriches the base context with values from the config file and
// the environment, and builds the engine
func setupCtx(ctx context.BookwormCtx, apiEndpoint string) (context.BookwormCtx, error) {
	cf, err := config.Read(ctx)
	if err != nil {
		return ctx, errors.Wrap(err, "reading config")
	}

	cooldown, err := cf.Cooldown()
	if err != nil {
		return ctx, errors.Wrap(err, "reading config")
	}

	ret := ctx
	ret.Clock = clock.New()
	ret.HTTPClient = client.NewRateLimitedHTTPClient()
	ret.APIEndpoint = cf.APIEndpoint
	ret.MetadataEndpoint = cf.MetadataEndpoint
	ret.PhotosBaseURL = cf.PhotosBaseURL
	ret.IDToken = cf.IDToken
	ret.ListenAddr = cf.ListenAddr
	ret.InboxDir = cf.InboxDir
	ret.ResolverCooldown = cooldown

	if apiEndpoint != "" {
		ret.APIEndpoint = apiEndpoint
	}
	if tok := strings.TrimSpace(os.Getenv(consts.EnvIDToken)); tok != "" {
		ret.IDToken = tok
	}
	if ret.ListenAddr == "" {
		ret.ListenAddr = consts.DefaultListenAddr
	}
	if ret.InboxDir == "" {
		ret.InboxDir = filepath.Join(dirs.App(ret.Paths.Data), consts.InboxDirName)
	}

	resolver := metadata.New(ret.MetadataEndpoint, database.NewLookupCache(ret.DB), ret.Clock)
	if ret.ResolverCooldown > 0 {
		resolver.Cooldown = ret.ResolverCooldown
	}

	cloud := client.New(ret.APIEndpoint, ret.Version)
	cloud.HTTPClient = ret.HTTPClient
	cloud.Clock = ret.Clock

	e, err := engine.New(engine.Params{
		DB:            ret.DB,
		Resolver:      resolver,
		Cloud:         cloud,
		Clock:         ret.Clock,
		PhotosBaseURL: ret.PhotosBaseURL,
	})
	if err != nil {
		return ctx, errors.Wrap(err, "initializing the engine")
	}

	ret.Engine = e
	ret.Dispatcher = bus.NewDispatcher(e, bus.New())

	return ret, nil
}

// initConfigFile populates a new config file if it does not exist yet
func initConfigFile(ctx context.BookwormCtx, apiEndpoint string) error {
	path := config.GetPath(ctx)
	ok, err := utils.FileExists(path)
	if err != nil {
		return errors.Wrap(err, "checking if config exists")
	}
	if ok {
		return nil
	}

	endpoint := apiEndpoint
	if endpoint == "" {
		endpoint = DefaultAPIEndpoint
	}

	cf := config.Config{
		APIEndpoint:   endpoint,
		PhotosBaseURL: DefaultPhotosBaseURL,
		ListenAddr:    consts.DefaultListenAddr,
	}

	if err := config.Write(ctx, cf); err != nil {
		return errors.Wrap(err, "writing config")
	}

	return nil
}

// initFiles creates, if necessary, the bookworm directories and files inside
func initFiles(ctx context.BookwormCtx, apiEndpoint string) error {
	if err := context.InitDirs(ctx.Paths); err != nil {
		return errors.Wrap(err, "creating the bookworm dirs")
	}
	if err := initConfigFile(ctx, apiEndpoint); err != nil {
		return errors.Wrap(err, "generating the config file")
	}

	return nil
}
