package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/fortuna/frisbee/internal/api/auth"
	"github.com/fortuna/frisbee/internal/fantasy"
	"github.com/fortuna/frisbee/internal/importer"
	"github.com/fortuna/frisbee/internal/service"
)

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}

// errorStatus maps domain errors to HTTP status codes.
var errorStatus = []struct {
	err    error
	status int
}{
	{auth.ErrUnauthenticated, http.StatusUnauthorized},
	{auth.ErrForbidden, http.StatusForbidden},
	{service.ErrInvalidLeague, http.StatusBadRequest},
	{importer.ErrUnknownFormat, http.StatusBadRequest},
	{service.ErrLeagueNotFound, http.StatusNotFound},
	{service.ErrPlayerNotFound, http.StatusNotFound},
	{service.ErrNotMember, http.StatusForbidden},
	{service.ErrOwnerCannotLeave, http.StatusForbidden},
	{service.ErrAlreadyMember, http.StatusConflict},
	{service.ErrPlayerTaken, http.StatusConflict},
	{service.ErrPlayerOnRoster, http.StatusConflict},
	{service.ErrInvalidRoster, http.StatusUnprocessableEntity},
	{fantasy.ErrUnknownPosition, http.StatusUnprocessableEntity},
}

// respondServiceError maps known errors to their status and hides the rest
// behind a generic 500.
func respondServiceError(w http.ResponseWriter, r *http.Request, message string, err error) {
	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			respondError(w, m.status, message, err)
			return
		}
	}

	zerolog.Ctx(r.Context()).Error().Err(err).Msg(message)
	respondError(w, http.StatusInternalServerError, message, nil)
}
