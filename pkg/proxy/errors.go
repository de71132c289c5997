// Package proxy provides response writers and error mapping for the HTTP
// boundary of the key proxy.
package proxy

import (
	"errors"
	"net/http"

	"keybridge-hq/keybridge/pkg/keystore"
	"keybridge-hq/keybridge/pkg/providers"
	"keybridge-hq/keybridge/pkg/proxy/types"
)

// HandleError maps an internal error to the external JSON error shape and
// its HTTP status code.
//
// Mapping:
//   - missing field / bad key format / validation failure -> 400
//   - unknown provider -> 400
//   - no stored credential -> 401
//   - upstream provider failure -> 500, raw provider body in details
//   - everything else -> 500
func HandleError(err error) (*types.ErrorResponse, int) {
	var missingErr *keystore.MissingFieldError
	if errors.As(err, &missingErr) {
		return types.NewErrorResponse(missingErr.Error()), http.StatusBadRequest
	}

	var formatErr *keystore.InvalidFormatError
	if errors.As(err, &formatErr) {
		return types.NewErrorResponse(formatErr.Error()), http.StatusBadRequest
	}

	var validationErr *providers.ValidationError
	if errors.As(err, &validationErr) {
		return types.NewErrorResponse(validationErr.Error()), http.StatusBadRequest
	}

	var unknownErr *providers.UnknownProviderError
	if errors.As(err, &unknownErr) {
		return types.NewErrorResponse(unknownErr.Error()), http.StatusBadRequest
	}

	if errors.Is(err, keystore.ErrNotFound) {
		return types.NewErrorResponse(err.Error()), http.StatusUnauthorized
	}

	var upstreamErr *providers.UpstreamError
	if errors.As(err, &upstreamErr) {
		return types.NewUpstreamErrorResponse(upstreamErr.Error(), upstreamErr.Body),
			http.StatusInternalServerError
	}

	var transportErr *providers.TransportError
	if errors.As(err, &transportErr) {
		return types.NewErrorResponse(transportErr.Error()), http.StatusInternalServerError
	}

	var parseErr *providers.ParseError
	if errors.As(err, &parseErr) {
		return types.NewErrorResponse(parseErr.Error()), http.StatusInternalServerError
	}

	return types.NewErrorResponse("internal server error"), http.StatusInternalServerError
}
