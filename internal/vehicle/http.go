// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vehicle

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/vehicles/internal/platform/request"
	"github.com/taibuivan/vehicles/internal/platform/respond"
	"github.com/taibuivan/vehicles/internal/platform/validate"
	"github.com/taibuivan/vehicles/pkg/pagination"
	"github.com/taibuivan/vehicles/pkg/pointer"
	"github.com/taibuivan/vehicles/pkg/slice"
)

// Handler implements the session-protected vehicle endpoints.
//
// Every route expects the session authorization middleware in front of it.
type Handler struct {
	vehicleService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{vehicleService: service}
}

// Routes returns a [chi.Router] with the vehicle routes.
//
// # Endpoints
//   - GET  /status : Current vehicle state.
//   - POST /record : Append an action.
//   - GET  /record : Page through recorded actions (offset, amount).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/status", handler.status)
	router.Post("/record", handler.record)
	router.Get("/record", handler.queryRecords)

	return router
}

// # Request & Response Payloads

type recordRequest struct {
	Action *int   `json:"action"`
	Remark string `json:"remark"`
}

type recordResponse struct {
	ID         string `json:"_id"`
	Action     int    `json:"action"`
	Remark     string `json:"remark,omitempty"`
	CreateTime string `json:"createTime"`
	Operator   string `json:"operator"`
}

// status handles GET /vehicles/status.
func (handler *Handler) status(writer http.ResponseWriter, request *http.Request) {
	token, err := requestutil.RequiredSession(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	state, err := handler.vehicleService.Status(request.Context(), token)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, state)
}

/*
Record handles POST /vehicles/record.

Request:
  - Body: {"action": int, "remark": string?}

Response:
  - 200: {code, msg}
  - 400: Missing action or oversized remark
  - 404: The session no longer matches a user
*/
func (handler *Handler) record(writer http.ResponseWriter, request *http.Request) {
	token, err := requestutil.RequiredSession(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input recordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Custom(FieldAction, input.Action == nil, "This field is required").
		MaxLen(FieldRemark, input.Remark, MaxRemarkLength)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.vehicleService.RecordAction(request.Context(), token, pointer.Val(input.Action), input.Remark); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, "SUCCESS")
}

// queryRecords handles GET /vehicles/record?offset=&amount=.
func (handler *Handler) queryRecords(writer http.ResponseWriter, request *http.Request) {
	token, err := requestutil.RequiredSession(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	page, err := handler.vehicleService.QueryRecords(request.Context(), token, pagination.FromRequest(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.List(writer, slice.Map(page.Records, toRecordResponse), page.Amount)
}

func toRecordResponse(record Record) recordResponse {
	return recordResponse{
		ID:         record.ID.Hex(),
		Action:     record.Action,
		Remark:     record.Remark,
		CreateTime: record.CreateTime,
		Operator:   record.Operator.Hex(),
	}
}
