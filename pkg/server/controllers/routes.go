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

package controllers

import (
	"net/http"

	"github.com/bookwormfood/bookworm/pkg/server/app"
	mw "github.com/bookwormfood/bookworm/pkg/server/middleware"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

// Route represents a single route
type Route struct {
	Method    string
	Pattern   string
	Handler   http.HandlerFunc
	RateLimit bool
}

// RouteConfig is the configuration for routes
type RouteConfig struct {
	Controllers *Controllers
	WebRoutes   []Route
	APIRoutes   []Route
}

// NewWebRoutes returns the routes outside the api prefix
func NewWebRoutes(a *app.App, c *Controllers) []Route {
	return []Route{
		{"GET", "/health", c.Health.Index, false},
		{"PUT", app.UploadsPrefix + "{name}", c.Uploads.Put, true},
		{"GET", "/photos/{name}", c.Uploads.Photo, true},
	}
}

// NewAPIRoutes returns a new api routes
func NewAPIRoutes(a *app.App, c *Controllers) []Route {
	return []Route{
		{"GET", "/sync", mw.Auth(a.Verifier, c.Sync.Index), true},
		{"POST", "/sync", mw.Auth(a.Verifier, c.Sync.Create), true},
		{"DELETE", "/sync", mw.Auth(a.Verifier, c.Sync.Delete), true},
		{"PUT", "/sync", mw.Auth(a.Verifier, c.Sync.SignUpload), true},
		{"GET", "/share", c.Share.Index, true},
	}
}

func registerRoutes(router *mux.Router, wrapper mw.Middleware, routes []Route) {
	for _, route := range routes {
		wrappedHandler := wrapper(route.Handler, route.RateLimit)

		router.
			Handle(route.Pattern, wrappedHandler).
			Methods(route.Method)
	}
}

// notFound responds to the requests no route matches
func notFound(w http.ResponseWriter, r *http.Request) {
	mw.RespondNotFound(w)
}

// NewRouter creates and returns a new router
func NewRouter(app *app.App, rc RouteConfig) (http.Handler, error) {
	if err := app.Validate(); err != nil {
		return nil, errors.Wrap(err, "validating the app parameters")
	}

	router := mux.NewRouter().StrictSlash(true)

	apiRouter := router.PathPrefix("/api").Subrouter()
	registerRoutes(apiRouter, mw.APIMw, rc.APIRoutes)
	registerRoutes(router, mw.APIMw, rc.WebRoutes)

	router.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("User-agent: *\nDisallow: /"))
	})

	router.NotFoundHandler = http.HandlerFunc(notFound)

	return mw.Global(router), nil
}
