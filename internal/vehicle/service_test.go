// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vehicle_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/vehicles/internal/identity"
	"github.com/taibuivan/vehicles/internal/platform/apperr"
	"github.com/taibuivan/vehicles/internal/platform/constants"
	"github.com/taibuivan/vehicles/internal/platform/docstore"
	"github.com/taibuivan/vehicles/internal/platform/docstore/docstoretest"
	"github.com/taibuivan/vehicles/internal/vehicle"
	"github.com/taibuivan/vehicles/pkg/pagination"
)

const (
	identityDatabase = "identity"
	vehiclesDatabase = "vehicles"
)

type staticKey string

func (key staticKey) PublicKeyPEM() string { return string(key) }

type fixture struct {
	identities *identity.Service
	service    *vehicle.Service
	dialer     *docstoretest.Dialer
	token      string
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	dialer := docstoretest.NewDialer()
	store := docstore.NewStore(dialer)

	identities := identity.NewService(identity.NewMongoUserRepository(store, identityDatabase), staticKey("pem"), "pepper")
	service := vehicle.NewService(identities, vehicle.NewMongoRecordRepository(store, vehiclesDatabase))

	grant, err := identities.Register(context.Background(), "driver01", "secret")
	require.NoError(t, err)

	return fixture{identities: identities, service: service, dialer: dialer, token: grant.Session}
}

/*
TestService_RecordAction verifies the log entry and the current state are both written.
*/
func TestService_RecordAction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	state, err := f.service.Status(ctx, f.token)
	require.NoError(t, err)
	assert.Nil(t, state)

	require.NoError(t, f.service.RecordAction(ctx, f.token, 3, "door opened"))

	state, err = f.service.Status(ctx, f.token)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, identity.Vehicle{Action: 3, Remark: "door opened"}, *state)

	page, err := f.service.QueryRecords(ctx, f.token, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Records, 1)

	user, err := f.identities.FindBySession(ctx, f.token)
	require.NoError(t, err)

	record := page.Records[0]
	assert.Equal(t, 3, record.Action)
	assert.Equal(t, "door opened", record.Remark)
	assert.Equal(t, user.ID, record.Operator)
	assert.Len(t, record.CreateTime, len(constants.TimestampLayout))
	assert.Zero(t, f.dialer.OpenConns())
}

/*
TestService_QueryRecords_Window verifies offset and amount over ten records.
*/
func TestService_QueryRecords_Window(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for action := 1; action <= 10; action++ {
		require.NoError(t, f.service.RecordAction(ctx, f.token, action, ""))
	}

	tests := []struct {
		name        string
		params      pagination.Params
		wantActions []int
	}{
		{"window", pagination.Params{Offset: 2, Amount: 3}, []int{8, 7, 6}},
		{"first_page", pagination.Params{Offset: 0, Amount: 2}, []int{10, 9}},
		{"no_limit", pagination.Params{Offset: 7}, []int{3, 2, 1}},
		{"beyond_end", pagination.Params{Offset: 10, Amount: 5}, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := f.service.QueryRecords(ctx, f.token, tt.params)
			require.NoError(t, err)

			assert.Equal(t, int64(10), page.Amount)

			actions := make([]int, 0, len(page.Records))
			for _, record := range page.Records {
				actions = append(actions, record.Action)
			}
			assert.Equal(t, tt.wantActions, actions)
		})
	}
}

/*
TestService_QueryRecords_PerOperator verifies operators only see their own records.
*/
func TestService_QueryRecords_PerOperator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other, err := f.identities.Register(ctx, "driver02", "secret")
	require.NoError(t, err)

	require.NoError(t, f.service.RecordAction(ctx, f.token, 1, ""))
	require.NoError(t, f.service.RecordAction(ctx, other.Session, 2, ""))
	require.NoError(t, f.service.RecordAction(ctx, other.Session, 3, ""))

	page, err := f.service.QueryRecords(ctx, f.token, pagination.Params{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Amount)
	require.Len(t, page.Records, 1)
	assert.Equal(t, 1, page.Records[0].Action)
}

/*
TestService_UnknownSession verifies every operation rejects an unknown token.
*/
func TestService_UnknownSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Status(ctx, "unknown")
	assert.True(t, apperr.IsNotFound(err))

	err = f.service.RecordAction(ctx, "unknown", 1, "")
	assert.True(t, apperr.IsNotFound(err))

	_, err = f.service.QueryRecords(ctx, "unknown", pagination.Params{})
	assert.True(t, apperr.IsNotFound(err))
}

/*
TestService_RecordAction_PartialFailure verifies the log is not rolled back when the state update fails.
*/
func TestService_RecordAction_PartialFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.dialer.Database(identityDatabase).Fail(constants.CollectionUser, docstoretest.OpFindOneAndUpdate, errors.New("not primary"))

	err := f.service.RecordAction(ctx, f.token, 5, "")
	require.Error(t, err)

	records := f.dialer.Database(vehiclesDatabase).Documents(constants.CollectionRecord)
	assert.Len(t, records, 1)

	state, err := f.service.Status(ctx, f.token)
	require.NoError(t, err)
	assert.Nil(t, state)
}

/*
TestService_RecordAction_InsertFailure verifies the state is untouched when the log write fails.
*/
func TestService_RecordAction_InsertFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.dialer.Database(vehiclesDatabase).Fail(constants.CollectionRecord, docstoretest.OpInsertOne, errors.New("disk full"))

	err := f.service.RecordAction(ctx, f.token, 5, "")
	require.Error(t, err)

	state, err := f.service.Status(ctx, f.token)
	require.NoError(t, err)
	assert.Nil(t, state)
}
