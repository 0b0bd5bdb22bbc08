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

package metadata

import (
	"strings"

	"github.com/bookwormfood/bookworm/pkg/book"
)

// Volumes is the root of a Google Books volume search response
type Volumes struct {
	Kind       string   `json:"kind"`
	TotalItems int      `json:"totalItems"`
	Items      []Volume `json:"items"`
}

// Volume is a single search result
type Volume struct {
	ID         string     `json:"id"`
	SelfLink   string     `json:"selfLink"`
	VolumeInfo VolumeInfo `json:"volumeInfo"`
}

// VolumeInfo holds the details of a volume
type VolumeInfo struct {
	Title       string      `json:"title"`
	Authors     []string    `json:"authors"`
	Description string      `json:"description"`
	PageCount   int         `json:"pageCount"`
	ImageLinks  *ImageLinks `json:"imageLinks"`
}

// ImageLinks are cover images of a volume in increasing sizes
type ImageLinks struct {
	// ~80 pixels wide
	SmallThumbnail string `json:"smallThumbnail"`
	// ~128 pixels wide
	Thumbnail string `json:"thumbnail"`
	// ~300 pixels wide
	Small string `json:"small"`
	// ~575 pixels wide
	Medium string `json:"medium"`
	// ~800 pixels wide
	Large string `json:"large"`
	// ~1280 pixels wide
	ExtraLarge string `json:"extraLarge"`
}

type sizedLink struct {
	width int
	url   string
}

// sized returns the available links from the smallest to the largest
func (l ImageLinks) sized() []sizedLink {
	all := []sizedLink{
		{80, l.SmallThumbnail},
		{128, l.Thumbnail},
		{300, l.Small},
		{575, l.Medium},
		{800, l.Large},
		{1280, l.ExtraLarge},
	}

	ret := []sizedLink{}
	for _, s := range all {
		if s.url != "" {
			ret = append(ret, s)
		}
	}

	return ret
}

// Thumbnail returns the smallest cover at least maxWidth wide, falling back
// to the largest available one. A maxWidth of 0 selects the largest cover.
func (v VolumeInfo) Thumbnail(maxWidth int) string {
	if v.ImageLinks == nil {
		return ""
	}

	links := v.ImageLinks.sized()
	if len(links) == 0 {
		return ""
	}

	largest := links[len(links)-1].url
	if maxWidth <= 0 {
		return largest
	}

	for _, l := range links {
		if l.width >= maxWidth {
			return l.url
		}
	}

	return largest
}

// httpsURL upgrades the plain http links the provider returns
func httpsURL(u string) string {
	if strings.HasPrefix(u, "http://") {
		return "https://" + strings.TrimPrefix(u, "http://")
	}

	return u
}

// Details returns the record details carried by the volume
func (v VolumeInfo) Details(maxWidth int) book.Details {
	return book.Details{
		Title:       v.Title,
		Authors:     v.Authors,
		Cover:       httpsURL(v.Thumbnail(maxWidth)),
		Description: v.Description,
	}
}
