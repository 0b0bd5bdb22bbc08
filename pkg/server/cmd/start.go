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

package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bookwormfood/bookworm/pkg/server/buildinfo"
	"github.com/bookwormfood/bookworm/pkg/server/config"
	"github.com/bookwormfood/bookworm/pkg/server/controllers"
	"github.com/bookwormfood/bookworm/pkg/server/log"
	"github.com/pkg/errors"
)

// shutdownTimeout is how long in-flight requests may take after a shutdown signal
const shutdownTimeout = 10 * time.Second

func startCmd(args []string) {
	fs := setupFlagSet("start", "bookworm-server start")

	port := fs.String("port", "", "Server port (env: PORT, default: 3001)")
	publicURL := fs.String("publicUrl", "", "Full URL to server without trailing slash (env: PublicURL, default: http://localhost:3001)")
	dbPath := fs.String("dbPath", "", "Path to SQLite database file (env: DBPath, default: $XDG_DATA_HOME/bookworm/server.db)")
	dbURL := fs.String("dbUrl", "", "Postgres connection URL. Takes precedence over dbPath (env: DBURL)")
	photoDir := fs.String("photoDir", "", "Directory of uploaded photos (env: PhotoDir, default: $XDG_DATA_HOME/bookworm/photos)")
	tokenSecret := fs.String("tokenSecret", "", "Secret the ID tokens are signed with (env: TOKEN_SECRET)")
	tokenAudience := fs.String("tokenAudience", "", "Expected audience of the ID tokens (env: TOKEN_AUDIENCE)")
	uploadTTL := fs.String("uploadTtl", "", "Lifetime of a signed upload URL (env: UPLOAD_TTL, default: 5m)")
	purgeSchedule := fs.String("purgeSchedule", "", "Cron schedule of the expired upload purge (env: PURGE_SCHEDULE, default: @every 10m)")
	logLevel := fs.String("logLevel", "", "Log level: debug, info, warn, or error (env: LOG_LEVEL, default: info)")
	envFile := fs.String("envFile", "", "Path to a .env file (default: .env if present)")

	fs.Parse(args)

	cfg := mustConfig(fs, *envFile, config.Params{
		Port:          *port,
		PublicURL:     *publicURL,
		DBPath:        *dbPath,
		DBURL:         *dbURL,
		PhotoDir:      *photoDir,
		TokenSecret:   *tokenSecret,
		TokenAudience: *tokenAudience,
		UploadTTL:     *uploadTTL,
		PurgeSchedule: *purgeSchedule,
		LogLevel:      *logLevel,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg); err != nil {
		log.ErrorWrap(err, "server failed")
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	a, cleanup, err := setupApp(cfg)
	if err != nil {
		return errors.Wrap(err, "initializing app")
	}
	defer cleanup()

	jobs, err := scheduleJobs(a, cfg.PurgeSchedule)
	if err != nil {
		return err
	}
	jobs.Start()
	defer jobs.Stop()

	ctl := controllers.New(a)
	rc := controllers.RouteConfig{
		WebRoutes:   controllers.NewWebRoutes(a, ctl),
		APIRoutes:   controllers.NewAPIRoutes(a, ctl),
		Controllers: ctl,
	}

	r, err := controllers.NewRouter(a, rc)
	if err != nil {
		return errors.Wrap(err, "initializing router")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.WithFields(log.Fields{
		"version":  buildinfo.Version,
		"port":     cfg.Port,
		"postgres": cfg.UsesPostgres(),
	}).Info("Bookworm server starting")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutting down")
	}

	return nil
}
