// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// envelope is the shape of every response body.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// respondWithJSON writes a successful envelope around payload.
func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	respondWithMessage(w, code, "", payload)
}

func respondWithMessage(w http.ResponseWriter, code int, message string, payload any) {
	writeEnvelope(w, code, envelope{Success: true, Message: message, Data: payload})
}

// respondWithError writes a failed envelope. Server errors are logged.
func respondWithError(w http.ResponseWriter, logger *slog.Logger, code int, message string, err error) {
	if err != nil && code >= http.StatusInternalServerError {
		logger.Error("request failed", "code", code, "message", message, "err", err)
	}
	writeEnvelope(w, code, envelope{Success: false, Message: message})
}

func writeEnvelope(w http.ResponseWriter, code int, body envelope) {
	response, err := json.Marshal(body)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Failed to marshal response"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
