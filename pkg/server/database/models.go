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
	"time"
)

// Model is the base model definition
type Model struct {
	ID        int       `gorm:"primaryKey" json:"-"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// UserBook is a book record in the collection of a user.
// A user has at most one record per ISBN.
type UserBook struct {
	Model
	UserKey         string     `gorm:"index;not null"`
	ISBN            string     `gorm:"index;not null"`
	ReadStatus      string     `gorm:"default:''"`
	Title           string
	Authors         StringList `gorm:"type:text"`
	Photos          StringList `gorm:"type:text"`
	ShareID         uint64     `gorm:"index;default:0"`
	TimestampUpdate time.Time
}

// PendingUpload is a signed photo upload URL that has been handed out and
// not yet used
type PendingUpload struct {
	Model
	Name      string    `gorm:"not null"`
	UserKey   string    `gorm:"index;not null"`
	ISBN      string    `gorm:"not null"`
	PhotoID   string    `gorm:"not null"`
	ExpiresAt time.Time `gorm:"index"`
}
