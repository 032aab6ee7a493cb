// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vehicle

import (
	"context"
	"log/slog"
	"time"

	"github.com/taibuivan/vehicles/internal/identity"
	"github.com/taibuivan/vehicles/internal/platform/constants"
	"github.com/taibuivan/vehicles/internal/platform/ctxutil"
	"github.com/taibuivan/vehicles/pkg/pagination"
)

// # Contracts

// Identities resolves session tokens to users and stores current vehicle state.
type Identities interface {
	FindBySession(ctx context.Context, token string) (*identity.User, error)
	UpdateVehicleStatus(ctx context.Context, token string, action int, remark string) error
}

// Service implements the vehicle use cases for an authorized session.
type Service struct {
	identities Identities
	records    RecordRepository
	now        func() time.Time
}

// NewService constructs a new [Service].
func NewService(identities Identities, records RecordRepository) *Service {
	return &Service{identities: identities, records: records, now: time.Now}
}

// Status returns the current vehicle state of the session's user. It is nil
// when no action was ever recorded.
func (service *Service) Status(ctx context.Context, token string) (*identity.Vehicle, error) {
	user, err := service.identities.FindBySession(ctx, token)
	if err != nil {
		return nil, err
	}
	return user.Vehicle, nil
}

/*
RecordAction appends an action to the log and makes it the current state.

Description: Resolves the operator, inserts the record, then updates the
user's vehicle state. A blank remark is not stored on the record and keeps
the previous remark on the current state.

Returns:
  - err: NotFound for an unknown session, or storage errors
*/
func (service *Service) RecordAction(ctx context.Context, token string, action int, remark string) error {
	user, err := service.identities.FindBySession(ctx, token)
	if err != nil {
		return err
	}

	record := &Record{
		Action:     action,
		Remark:     remark,
		CreateTime: service.now().Format(constants.TimestampLayout),
		Operator:   user.ID,
	}

	id, err := service.records.Insert(ctx, record)
	if err != nil {
		return err
	}

	ctxutil.GetLogger(ctx).DebugContext(ctx, "vehicle_record_inserted",
		slog.String("record_id", id.Hex()),
		slog.Int("action", action),
	)

	return service.identities.UpdateVehicleStatus(ctx, token, action, remark)
}

// QueryRecords returns one page of the session user's records, newest first,
// and the total number of records.
func (service *Service) QueryRecords(ctx context.Context, token string, page pagination.Params) (*RecordPage, error) {
	user, err := service.identities.FindBySession(ctx, token)
	if err != nil {
		return nil, err
	}

	return service.records.Query(ctx, user.ID, int64(page.Skip()), int64(page.Take()))
}
