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

package app

import (
	"github.com/bookwormfood/bookworm/pkg/book"
	"github.com/bookwormfood/bookworm/pkg/server/database"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

func toBook(r database.UserBook) book.Book {
	return book.Book{
		ISBN:            r.ISBN,
		TimestampUpdate: r.TimestampUpdate.UTC(),
		ReadStatus:      book.ReadStatus(r.ReadStatus),
		Title:           r.Title,
		Authors:         []string(r.Authors),
		Photos:          []string(r.Photos),
		ShareID:         r.ShareID,
	}
}

func findBook(db *gorm.DB, userKey, isbn string) (database.UserBook, bool, error) {
	var ret database.UserBook

	err := db.Where("user_key = ? AND isbn = ?", userKey, isbn).First(&ret).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ret, false, nil
	} else if err != nil {
		return ret, false, errors.Wrapf(err, "finding book %s", isbn)
	}

	return ret, true, nil
}

// ListBooks returns the records of the user. If isbn is not empty, only the
// record with that ISBN is returned.
func (a *App) ListBooks(userKey, isbn string) ([]book.Book, error) {
	conn := a.DB.Where("user_key = ?", userKey)
	if isbn != "" {
		conn = conn.Where("isbn = ?", isbn)
	}

	var records []database.UserBook
	if err := conn.Order("id ASC").Find(&records).Error; err != nil {
		return nil, errors.Wrap(err, "finding books")
	}

	ret := []book.Book{}
	for _, r := range records {
		ret = append(ret, toBook(r))
	}

	return ret, nil
}

// UpsertBook writes the status and details of the given record for the
// user. Photos and share id are only changed by uploads. Empty details do
// not erase the stored ones.
func (a *App) UpsertBook(userKey string, b book.Book) (book.Book, error) {
	if err := book.ValidateISBN(b.ISBN); err != nil {
		return book.Book{}, err
	}
	status, err := book.ParseReadStatus(string(b.ReadStatus))
	if err != nil {
		return book.Book{}, err
	}

	var ret database.UserBook
	err = a.DB.Transaction(func(tx *gorm.DB) error {
		rec, ok, err := findBook(tx, userKey, b.ISBN)
		if err != nil {
			return err
		}
		if !ok {
			rec = database.UserBook{UserKey: userKey, ISBN: b.ISBN}
		}

		rec.ReadStatus = string(status)
		rec.TimestampUpdate = b.TimestampUpdate
		if rec.TimestampUpdate.IsZero() {
			rec.TimestampUpdate = a.Clock.Now()
		}
		if b.Title != "" {
			rec.Title = b.Title
		}
		if len(b.Authors) > 0 {
			rec.Authors = database.StringList(b.Authors)
		}

		if err := tx.Save(&rec).Error; err != nil {
			return errors.Wrapf(err, "saving book %s", b.ISBN)
		}

		ret = rec
		return nil
	})
	if err != nil {
		return book.Book{}, err
	}

	return toBook(ret), nil
}

// DeleteBook deletes the record of the user with the given ISBN. It returns
// ErrNotFound if the user has no such record.
func (a *App) DeleteBook(userKey, isbn string) error {
	conn := a.DB.Where("user_key = ? AND isbn = ?", userKey, isbn).Delete(&database.UserBook{})
	if err := conn.Error; err != nil {
		return errors.Wrapf(err, "deleting book %s", isbn)
	}
	if conn.RowsAffected == 0 {
		return errors.Wrapf(ErrNotFound, "book %s", isbn)
	}

	return nil
}
