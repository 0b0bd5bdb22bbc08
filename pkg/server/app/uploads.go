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
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/bookwormfood/bookworm/pkg/book"
	"github.com/bookwormfood/bookworm/pkg/server/database"
	"github.com/bookwormfood/bookworm/pkg/server/helpers"
	"github.com/bookwormfood/bookworm/pkg/server/log"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// UploadsPrefix is the path under which signed uploads are received
const UploadsPrefix = "/uploads/photos/"

func (a *App) sign(name string, expires int64) string {
	mac := hmac.New(sha256.New, a.UploadSecret)
	fmt.Fprintf(mac, "%s\n%d", name, expires)

	return hex.EncodeToString(mac.Sum(nil))
}

// nextPhotoID returns an id based on the current time that is not yet used
// for the book of the user
func (a *App) nextPhotoID(tx *gorm.DB, userKey, isbn string) (string, error) {
	used := map[string]bool{}

	rec, ok, err := findBook(tx, userKey, isbn)
	if err != nil {
		return "", err
	}
	if ok {
		for _, p := range rec.Photos {
			used[p] = true
		}
	}

	var pending []database.PendingUpload
	if err := tx.Where("user_key = ? AND isbn = ?", userKey, isbn).Find(&pending).Error; err != nil {
		return "", errors.Wrap(err, "finding pending uploads")
	}
	for _, p := range pending {
		used[p.PhotoID] = true
	}

	id := a.Clock.Now().Unix()
	for used[strconv.FormatInt(id, 10)] {
		id++
	}

	return strconv.FormatInt(id, 10), nil
}

// SignUpload reserves a photo id for the book of the user and returns a URL
// the photo can be uploaded to without a token until it expires
func (a *App) SignUpload(userKey, isbn string) (string, error) {
	if err := book.ValidateISBN(isbn); err != nil {
		return "", err
	}

	var p database.PendingUpload
	err := a.DB.Transaction(func(tx *gorm.DB) error {
		photoID, err := a.nextPhotoID(tx, userKey, isbn)
		if err != nil {
			return errors.Wrap(err, "choosing a photo id")
		}

		p = database.PendingUpload{
			Name:      book.PhotoName(book.OwnerID(userKey), isbn, photoID),
			UserKey:   userKey,
			ISBN:      isbn,
			PhotoID:   photoID,
			ExpiresAt: a.Clock.Now().Add(a.UploadTTL),
		}
		if err := tx.Create(&p).Error; err != nil {
			return errors.Wrap(err, "saving pending upload")
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	expires := p.ExpiresAt.Unix()
	q := url.Values{}
	q.Set("expires", strconv.FormatInt(expires, 10))
	q.Set("sig", a.sign(p.Name, expires))

	return a.PublicURL + helpers.GetPath(UploadsPrefix+p.Name, &q), nil
}

// VerifyUpload checks the signature and expiry of an upload URL
func (a *App) VerifyUpload(name, expiresStr, sig string) error {
	expires, err := strconv.ParseInt(expiresStr, 10, 64)
	if err != nil {
		return errors.Wrapf(ErrInvalidSignature, "malformed expiry '%s'", expiresStr)
	}

	want := a.sign(name, expires)
	if !hmac.Equal([]byte(want), []byte(sig)) {
		return ErrInvalidSignature
	}

	if a.Clock.Now().After(time.Unix(expires, 0)) {
		return ErrUploadExpired
	}

	return nil
}

// PhotoPath returns the path of the stored photo with the given name
func (a *App) PhotoPath(name string) (string, error) {
	if _, _, _, err := book.ParsePhotoName(name); err != nil {
		return "", err
	}

	return filepath.Join(a.PhotoDir, name), nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "creating photo directory")
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrap(err, "writing photo")
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrap(err, "moving photo into place")
	}

	return nil
}

// CommitUpload stores the photo of a signed upload and attaches it to the
// book of the user who requested the URL. The book is created if the user
// has none yet.
func (a *App) CommitUpload(name string, data []byte) (book.Book, error) {
	if len(data) == 0 {
		return book.Book{}, ErrEmptyPhoto
	}

	var p database.PendingUpload
	err := a.DB.Where("name = ?", name).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return book.Book{}, errors.Wrapf(ErrNotFound, "pending upload %s", name)
	} else if err != nil {
		return book.Book{}, errors.Wrap(err, "finding pending upload")
	}
	if a.Clock.Now().After(p.ExpiresAt) {
		return book.Book{}, ErrUploadExpired
	}

	path, err := a.PhotoPath(name)
	if err != nil {
		return book.Book{}, err
	}
	if err := writeFile(path, data); err != nil {
		return book.Book{}, err
	}

	var ret database.UserBook
	err = a.DB.Transaction(func(tx *gorm.DB) error {
		rec, ok, err := findBook(tx, p.UserKey, p.ISBN)
		if err != nil {
			return err
		}
		if !ok {
			rec = database.UserBook{
				UserKey:         p.UserKey,
				ISBN:            p.ISBN,
				TimestampUpdate: a.Clock.Now(),
			}
		}

		updated := toBook(rec).WithNewPhoto(p.PhotoID)
		rec.Photos = database.StringList(updated.Photos)
		rec.ShareID = updated.ShareID

		if err := tx.Save(&rec).Error; err != nil {
			return errors.Wrap(err, "saving book")
		}
		if err := tx.Delete(&p).Error; err != nil {
			return errors.Wrap(err, "deleting pending upload")
		}

		ret = rec
		return nil
	})
	if err != nil {
		return book.Book{}, err
	}

	log.WithFields(log.Fields{
		"isbn":     p.ISBN,
		"photo_id": p.PhotoID,
		"size":     len(data),
	}).Info("Photo uploaded.")

	return toBook(ret), nil
}

// PurgeExpiredUploads deletes the pending uploads that can no longer be used
// and returns how many were deleted
func (a *App) PurgeExpiredUploads() (int64, error) {
	conn := a.DB.Where("expires_at < ?", a.Clock.Now()).Delete(&database.PendingUpload{})
	if err := conn.Error; err != nil {
		return 0, errors.Wrap(err, "deleting expired uploads")
	}

	return conn.RowsAffected, nil
}
