package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	sharedvalidator "github.com/linnoak/teamboard-api/shared/validator"
)

var errMalformedBody = errors.New("malformed request body")

// decodeAndValidate parses a JSON body into dst and runs struct validation.
// Unknown fields and trailing garbage are rejected so malformed bodies never
// reach business logic.
func decodeAndValidate(r *http.Request, v *sharedvalidator.Validator, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return errMalformedBody
	}
	if decoder.More() {
		return errMalformedBody
	}

	return v.Struct(dst)
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
