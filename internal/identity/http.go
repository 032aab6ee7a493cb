// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/vehicles/internal/platform/apperr"
	requestutil "github.com/taibuivan/vehicles/internal/platform/request"
	"github.com/taibuivan/vehicles/internal/platform/respond"
	"github.com/taibuivan/vehicles/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements the unauthenticated platform endpoints.
type Handler struct {
	identityService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{identityService: service}
}

// Routes returns a [chi.Router] with the bootstrap routes.
//
// # Endpoints
//   - POST /dev/login    : Issues a session to an existing account.
//   - POST /dev/register : Issues a session, creating the account if needed.
//   - GET  /publickey    : Returns the PEM key session parameters are encrypted with.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/dev/login", handler.login)
	router.Post("/dev/register", handler.register)
	router.Get("/publickey", handler.publicKey)

	return router
}

// # Request & Response Payloads

type credentialsRequest struct {
	Account  string `json:"account"`
	Password string `json:"password"`
}

type grantResponse struct {
	Code       apperr.Code `json:"code"`
	Session    string      `json:"session"`
	PublicKey  string      `json:"publicKey"`
	ServerTime int64       `json:"serverTime"`
}

/*
Login handles POST /platform/dev/login.

Response:
  - 200: grantResponse
  - 400: Missing account or password
  - 404: Unknown account or wrong password
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	input, err := decodeCredentials(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	grant, err := handler.identityService.Login(request.Context(), input.Account, input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	writeGrant(writer, grant)
}

/*
Register handles POST /platform/dev/register.

Response:
  - 200: grantResponse
  - 400: Missing account or password
  - 409: Account registered with another password
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	input, err := decodeCredentials(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	grant, err := handler.identityService.Register(request.Context(), input.Account, input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	writeGrant(writer, grant)
}

// publicKey handles GET /platform/publickey.
func (handler *Handler) publicKey(writer http.ResponseWriter, _ *http.Request) {
	respond.OK(writer, handler.identityService.keys.PublicKeyPEM())
}

// # Helpers

func decodeCredentials(request *http.Request) (credentialsRequest, error) {
	var input credentialsRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		return input, err
	}

	validator := &validate.Validator{}
	validator.Required(FieldAccount, input.Account).
		MaxLen(FieldAccount, input.Account, MaxAccountLength).
		NoControl(FieldAccount, input.Account).
		Required(FieldPassword, input.Password).
		MaxLen(FieldPassword, input.Password, MaxPasswordLength)

	return input, validator.Err()
}

func writeGrant(writer http.ResponseWriter, grant *Grant) {
	respond.JSON(writer, http.StatusOK, grantResponse{
		Code:       apperr.CodeSuccess,
		Session:    grant.Session,
		PublicKey:  grant.PublicKey,
		ServerTime: grant.ServerTime,
	})
}
