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

// Package config holds the configuration of the bookworm server
package config

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bookwormfood/bookworm/pkg/dirs"
	"github.com/pkg/errors"
)

const (
	// AppEnvProduction represents an app environment for production.
	AppEnvProduction string = "PRODUCTION"
	// DefaultDBFilename is the default database filename
	DefaultDBFilename = "server.db"
	// DefaultPhotoDirName is the default name of the directory holding uploaded photos
	DefaultPhotoDirName = "photos"
	// DefaultUploadTTL is how long a signed upload URL stays valid
	DefaultUploadTTL = 5 * time.Minute
	// DefaultPurgeSchedule is the cron schedule of the expired upload purge
	DefaultPurgeSchedule = "@every 10m"
)

var (
	// DefaultDBPath is the default path to the database file
	DefaultDBPath = filepath.Join(dirs.App(dirs.DataHome), DefaultDBFilename)
	// DefaultPhotoDir is the default directory of uploaded photos
	DefaultPhotoDir = filepath.Join(dirs.App(dirs.DataHome), DefaultPhotoDirName)
)

var (
	// ErrDBMissingPath is an error for an incomplete configuration missing the database path
	ErrDBMissingPath = errors.New("DB Path is empty")
	// ErrPublicURLInvalid is an error for an incomplete configuration with invalid public url
	ErrPublicURLInvalid = errors.New("Invalid PublicURL")
	// ErrPortInvalid is an error for an incomplete configuration with invalid port
	ErrPortInvalid = errors.New("Invalid Port")
	// ErrTokenSecretMissing is an error for a configuration without a token signing secret
	ErrTokenSecretMissing = errors.New("TokenSecret is empty")
	// ErrUploadTTLInvalid is an error for a non-positive upload URL lifetime
	ErrUploadTTLInvalid = errors.New("Invalid UploadTTL")
)

// getOrEnv returns value if non-empty, otherwise env var, otherwise default
func getOrEnv(value, envKey, defaultVal string) string {
	if value != "" {
		return value
	}
	if env := os.Getenv(envKey); env != "" {
		return env
	}
	return defaultVal
}

// Config is an application configuration
type Config struct {
	AppEnv        string
	PublicURL     string
	Port          string
	DBPath        string
	DBURL         string
	LogLevel      string
	TokenSecret   string
	TokenAudience string
	PhotoDir      string
	UploadTTL     time.Duration
	PurgeSchedule string
}

// Params are the configuration parameters for creating a new Config
type Params struct {
	AppEnv        string
	Port          string
	PublicURL     string
	DBPath        string
	DBURL         string
	LogLevel      string
	TokenSecret   string
	TokenAudience string
	PhotoDir      string
	UploadTTL     string
	PurgeSchedule string
}

// New constructs and returns a new validated config.
// Empty string params will fall back to environment variables and defaults.
func New(p Params) (Config, error) {
	ttlStr := getOrEnv(p.UploadTTL, "UPLOAD_TTL", DefaultUploadTTL.String())
	ttl, err := time.ParseDuration(ttlStr)
	if err != nil {
		return Config{}, errors.Wrapf(ErrUploadTTLInvalid, "'%s'", ttlStr)
	}

	c := Config{
		AppEnv:        getOrEnv(p.AppEnv, "APP_ENV", AppEnvProduction),
		Port:          getOrEnv(p.Port, "PORT", "3001"),
		PublicURL:     strings.TrimRight(getOrEnv(p.PublicURL, "PublicURL", "http://localhost:3001"), "/"),
		DBPath:        getOrEnv(p.DBPath, "DBPath", DefaultDBPath),
		DBURL:         getOrEnv(p.DBURL, "DBURL", ""),
		LogLevel:      getOrEnv(p.LogLevel, "LOG_LEVEL", "info"),
		TokenSecret:   getOrEnv(p.TokenSecret, "TOKEN_SECRET", ""),
		TokenAudience: getOrEnv(p.TokenAudience, "TOKEN_AUDIENCE", ""),
		PhotoDir:      getOrEnv(p.PhotoDir, "PhotoDir", DefaultPhotoDir),
		UploadTTL:     ttl,
		PurgeSchedule: getOrEnv(p.PurgeSchedule, "PURGE_SCHEDULE", DefaultPurgeSchedule),
	}

	if err := validate(c); err != nil {
		return Config{}, err
	}

	return c, nil
}

// IsProd checks if the app environment is configured to be production.
func (c Config) IsProd() bool {
	return c.AppEnv == AppEnvProduction
}

// UsesPostgres reports whether the configured database is a postgres server
func (c Config) UsesPostgres() bool {
	return strings.HasPrefix(c.DBURL, "postgres://") || strings.HasPrefix(c.DBURL, "postgresql://")
}

func validate(c Config) error {
	if _, err := url.ParseRequestURI(c.PublicURL); err != nil {
		return errors.Wrapf(ErrPublicURLInvalid, "'%s'", c.PublicURL)
	}
	if c.Port == "" {
		return ErrPortInvalid
	}
	if c.DBPath == "" && c.DBURL == "" {
		return ErrDBMissingPath
	}
	if c.TokenSecret == "" {
		return ErrTokenSecretMissing
	}
	if c.UploadTTL <= 0 {
		return errors.Wrapf(ErrUploadTTLInvalid, "'%s'", c.UploadTTL)
	}

	return nil
}
