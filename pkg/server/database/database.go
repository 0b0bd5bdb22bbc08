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

package database

import (
	"os"
	"path/filepath"

	"github.com/bookwormfood/bookworm/pkg/server/log"
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Params are the parameters for opening a database connection
type Params struct {
	// DBPath is the path to a sqlite database file
	DBPath string
	// DBURL is a postgres connection URL. It takes precedence over DBPath.
	DBURL    string
	LogLevel string
}

// InitSchema migrates database schema to reflect the latest model definition
func InitSchema(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&UserBook{},
		&PendingUpload{},
	); err != nil {
		return errors.Wrap(err, "auto migrating")
	}

	return nil
}

// getDBLogLevel maps the server log level to the level of the gorm logger.
// SQL statements are only logged in debug.
func getDBLogLevel(level string) logger.LogLevel {
	switch level {
	case log.LevelDebug:
		return logger.Info
	case log.LevelWarn:
		return logger.Warn
	case log.LevelError:
		return logger.Error
	default:
		return logger.Silent
	}
}

// Open initializes the database connection
func Open(p Params) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger: logger.Default.LogMode(getDBLogLevel(p.LogLevel)),
	}

	if p.DBURL != "" {
		db, err := gorm.Open(postgres.Open(p.DBURL), cfg)
		if err != nil {
			return nil, errors.Wrap(err, "opening postgres connection")
		}

		return db, nil
	}

	dir := filepath.Dir(p.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "creating database directory at %s", dir)
	}

	db, err := gorm.Open(sqlite.Open(p.DBPath), cfg)
	if err != nil {
		return nil, errors.Wrap(err, "opening database conection")
	}

	return db, nil
}

// Close closes the underlying connection of the given database
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "getting the underlying connection")
	}

	return sqlDB.Close()
}
