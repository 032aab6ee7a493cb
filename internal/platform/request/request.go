// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package requestutil provides utilities for extracting data from HTTP requests.

It abstracts away common body decoding patterns and access to values placed in
the request context by the middleware chain, ensuring consistent error handling.
*/
package requestutil

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/taibuivan/vehicles/internal/platform/apperr"
	"github.com/taibuivan/vehicles/internal/platform/ctxutil"
	"github.com/taibuivan/vehicles/internal/platform/validate"
)

// maxBodyBytes bounds JSON request bodies; every payload here is a handful of fields.
const maxBodyBytes = 64 << 10

/*
DecodeJSON reads the request body and decodes it into the target structure.

Parameters:
  - request: *http.Request
  - target: any (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target any) error {
	if request.Body == nil {
		return validate.ErrInvalidJSON
	}

	decoder := json.NewDecoder(io.LimitReader(request.Body, maxBodyBytes))
	if err := decoder.Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
RequiredSession returns the session token verified by the authorization middleware.

Returns:
  - string: Session token
  - error: apperr.Forbidden if the route was reached without passing the middleware
*/
func RequiredSession(request *http.Request) (string, error) {
	token := ctxutil.GetSession(request.Context())
	if token == "" {
		return "", apperr.Forbidden("Session required")
	}
	return token, nil
}
