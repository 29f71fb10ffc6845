package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"artisanverse/internal/clock"
	"artisanverse/internal/query"
	"artisanverse/internal/record"
	"artisanverse/internal/recordstore"
)

// envelope is the body of every API response.
type envelope struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message"`
	Data       any               `json:"data"`
	Pagination *query.Pagination `json:"pagination,omitempty"`
	Timestamp  string            `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		logger.Debug("writing response failed", "err", err)
	}
}

func writeOK(w http.ResponseWriter, status int, msg string, data any) {
	writeJSON(w, status, envelope{
		Success:   true,
		Message:   msg,
		Data:      data,
		Timestamp: clock.Format(time.Now()),
	})
}

func writePage[T any](w http.ResponseWriter, msg string, page query.Page[T]) {
	writeJSON(w, http.StatusOK, envelope{
		Success:    true,
		Message:    msg,
		Data:       page.Items,
		Pagination: &page.Pagination,
		Timestamp:  clock.Format(time.Now()),
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{
		Message:   msg,
		Timestamp: clock.Format(time.Now()),
	})
}

// writeStoreError maps a record store error onto an HTTP status.
func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, recordstore.ErrCollectionNotFound), errors.Is(err, recordstore.ErrRecordNotFound):
		status = http.StatusNotFound
	case errors.Is(err, recordstore.ErrDuplicateID):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		requestLogger(r).Error("request failed", "err", err)
	}
	writeError(w, status, err.Error())
}

// errBodyTooLarge is returned by readRecord when the body exceeds the cap.
var errBodyTooLarge = errors.New("request body too large")

// readRecord decodes the request body as a single JSON object.
func readRecord(r *http.Request) (record.Record, error) {
	defer r.Body.Close()
	var rec record.Record
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&rec); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errBodyTooLarge
		}
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	if rec == nil {
		return nil, errors.New("body must be a JSON object")
	}
	if dec.More() {
		return nil, errors.New("body must hold a single JSON object")
	}
	return rec, nil
}

func writeBodyError(w http.ResponseWriter, err error) {
	if errors.Is(err, errBodyTooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}
