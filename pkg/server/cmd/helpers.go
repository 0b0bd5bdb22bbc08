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
	"flag"
	"fmt"
	"os"

	"github.com/bookwormfood/bookworm/pkg/clock"
	"github.com/bookwormfood/bookworm/pkg/server/app"
	"github.com/bookwormfood/bookworm/pkg/server/config"
	"github.com/bookwormfood/bookworm/pkg/server/database"
	"github.com/bookwormfood/bookworm/pkg/server/log"
	"github.com/bookwormfood/bookworm/pkg/server/token"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// loadEnvFile loads the variables of the given .env file into the
// environment. Variables already set are kept. A missing default file is
// not an error.
func loadEnvFile(path string) error {
	if path == "" {
		path = ".env"
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil
		}
	}

	if err := godotenv.Load(path); err != nil {
		return errors.Wrapf(err, "loading %s", path)
	}

	log.WithFields(log.Fields{
		"path": path,
	}).Debug("Loaded environment file.")

	return nil
}

func initDB(cfg config.Config) (*gorm.DB, error) {
	db, err := database.Open(database.Params{
		DBPath:   cfg.DBPath,
		DBURL:    cfg.DBURL,
		LogLevel: cfg.LogLevel,
	})
	if err != nil {
		return nil, err
	}

	if err := database.InitSchema(db); err != nil {
		return nil, errors.Wrap(err, "initializing schema")
	}
	if err := database.Migrate(db); err != nil {
		return nil, errors.Wrap(err, "running migrations")
	}

	return db, nil
}

func initApp(cfg config.Config) (app.App, error) {
	db, err := initDB(cfg)
	if err != nil {
		return app.App{}, err
	}

	c := clock.New()

	return app.App{
		DB:    db,
		Clock: c,
		Verifier: token.Verifier{
			Secret:   []byte(cfg.TokenSecret),
			Audience: cfg.TokenAudience,
		},
		PublicURL:    cfg.PublicURL,
		PhotoDir:     cfg.PhotoDir,
		UploadSecret: []byte(cfg.TokenSecret),
		UploadTTL:    cfg.UploadTTL,
	}, nil
}

// printFlags prints flags with -- prefix for consistency with CLI
func printFlags(fs *flag.FlagSet) {
	fs.VisitAll(func(f *flag.Flag) {
		fmt.Printf("  --%s", f.Name)

		// Print type hint for non-boolean flags
		name, usage := flag.UnquoteUsage(f)
		if name != "" {
			fmt.Printf(" %s", name)
		}
		fmt.Println()

		if usage != "" {
			fmt.Printf("    \t%s", usage)
			if f.DefValue != "" && f.DefValue != "false" {
				fmt.Printf(" (default: %s)", f.DefValue)
			}
			fmt.Println()
		}
	})
}

// setupFlagSet creates a FlagSet with standard usage format
func setupFlagSet(name, usageCmd string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Printf(`Usage:
  %s [flags]

Flags:
`, usageCmd)
		printFlags(fs)
	}
	return fs
}

// requireString validates that a required string flag is not empty
func requireString(fs *flag.FlagSet, value, fieldName string) {
	if value == "" {
		fmt.Printf("Error: %s is required\n", fieldName)
		fs.Usage()
		os.Exit(1)
	}
}

// mustConfig builds the config from the params or exits with the usage
func mustConfig(fs *flag.FlagSet, envFile string, p config.Params) config.Config {
	if err := loadEnvFile(envFile); err != nil {
		fmt.Printf("Error: %s\n\n", err)
		os.Exit(1)
	}

	cfg, err := config.New(p)
	if err != nil {
		fmt.Printf("Error: %s\n\n", err)
		fs.Usage()
		os.Exit(1)
	}

	log.SetLevel(cfg.LogLevel)

	return cfg
}

// setupApp initializes the app and returns a cleanup function
func setupApp(cfg config.Config) (*app.App, func(), error) {
	a, err := initApp(cfg)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if err := database.Close(a.DB); err != nil {
			log.ErrorWrap(err, "closing database")
		}
	}

	return &a, cleanup, nil
}
