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

package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/bookwormfood/bookworm/pkg/server/log"
)

// ErrorResp is the body of an error response
type ErrorResp struct {
	Error string `json:"error"`
}

func respondError(w http.ResponseWriter, msg string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(ErrorResp{Error: msg}); err != nil {
		log.ErrorWrap(err, "encoding error response")
	}
}

// DoError logs the error and responds with the given status code. Server
// errors are reported with a generic message.
func DoError(w http.ResponseWriter, msg string, err error, statusCode int) {
	var message string
	if err == nil {
		message = msg
	} else {
		message = msg + ": " + err.Error()
	}

	if statusCode >= http.StatusInternalServerError {
		log.WithFields(log.Fields{
			"statusCode": statusCode,
		}).Error(message)

		respondError(w, http.StatusText(statusCode), statusCode)
		return
	}

	log.WithFields(log.Fields{
		"statusCode": statusCode,
	}).Debug(message)

	respondError(w, message, statusCode)
}

// RespondJSON encodes the given payload into a JSON response
func RespondJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.ErrorWrap(err, "encoding response")
	}
}

// RespondUnauthorized responds with unauthorized
func RespondUnauthorized(w http.ResponseWriter) {
	w.Header().Add("WWW-Authenticate", `Bearer realm="bookworm"`)
	respondError(w, "unauthorized", http.StatusUnauthorized)
}

// RespondNotFound responds with not found
func RespondNotFound(w http.ResponseWriter) {
	respondError(w, "not found", http.StatusNotFound)
}

// RespondInvalidRequest responds with a bad request carrying the given message
func RespondInvalidRequest(w http.ResponseWriter, msg string) {
	respondError(w, msg, http.StatusBadRequest)
}
