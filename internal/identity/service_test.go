// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/taibuivan/vehicles/internal/identity"
	"github.com/taibuivan/vehicles/internal/platform/apperr"
	"github.com/taibuivan/vehicles/internal/platform/constants"
	"github.com/taibuivan/vehicles/internal/platform/docstore"
	"github.com/taibuivan/vehicles/internal/platform/docstore/docstoretest"
)

const (
	testDatabase = "identity"
	testPepper   = "pepper"
	testPEM      = "-----BEGIN PUBLIC KEY-----\ntest\n-----END PUBLIC KEY-----\n"
)

type staticKey string

func (key staticKey) PublicKeyPEM() string { return string(key) }

type fixture struct {
	service  *identity.Service
	dialer   *docstoretest.Dialer
	database *docstoretest.Database
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	dialer := docstoretest.NewDialer()
	database := dialer.Database(testDatabase)
	database.Unique(constants.CollectionUser, identity.FieldAccount)

	repository := identity.NewMongoUserRepository(docstore.NewStore(dialer), testDatabase)

	return fixture{
		service:  identity.NewService(repository, staticKey(testPEM), testPepper),
		dialer:   dialer,
		database: database,
	}
}

func (f fixture) users(t *testing.T) []identity.User {
	t.Helper()

	var users []identity.User
	for _, raw := range f.database.Documents(constants.CollectionUser) {
		var user identity.User
		require.NoError(t, bson.Unmarshal(raw, &user))
		users = append(users, user)
	}
	return users
}

/*
TestService_LoginRequiresRegistration verifies login only works for existing accounts.
*/
func TestService_LoginRequiresRegistration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// 1. Unknown account
	_, err := f.service.Login(ctx, "driver01", "secret")
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
	assert.Empty(t, f.users(t))

	// 2. Register creates the account
	grant, err := f.service.Register(ctx, "driver01", "secret")
	require.NoError(t, err)
	assert.Len(t, grant.Session, constants.SessionTokenLength)
	assert.Equal(t, testPEM, grant.PublicKey)
	assert.Positive(t, grant.ServerTime)

	users := f.users(t)
	require.Len(t, users, 1)
	assert.Equal(t, "driver01", users[0].Account)
	assert.Equal(t, grant.Session, users[0].Session)
	assert.NotEmpty(t, users[0].LastLogin)

	// 3. Login now succeeds, a wrong password does not
	_, err = f.service.Login(ctx, "driver01", "secret")
	require.NoError(t, err)

	_, err = f.service.Login(ctx, "driver01", "wrong")
	assert.True(t, apperr.IsNotFound(err))
}

/*
TestService_PasswordNotStoredInClear verifies only a digest is persisted.
*/
func TestService_PasswordNotStoredInClear(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Register(context.Background(), "driver01", "secret")
	require.NoError(t, err)

	users := f.users(t)
	require.Len(t, users, 1)
	assert.NotEqual(t, "secret", users[0].Password)
	assert.Len(t, users[0].Password, 64)
}

/*
TestService_SessionRotation verifies a new login invalidates the previous token.
*/
func TestService_SessionRotation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.service.Register(ctx, "driver01", "secret")
	require.NoError(t, err)
	require.NoError(t, f.service.CheckIdentity(ctx, first.Session))

	second, err := f.service.Login(ctx, "driver01", "secret")
	require.NoError(t, err)
	assert.NotEqual(t, first.Session, second.Session)

	err = f.service.CheckIdentity(ctx, first.Session)
	assert.True(t, apperr.IsNotFound(err))
	assert.NoError(t, f.service.CheckIdentity(ctx, second.Session))

	_, err = f.service.FindBySession(ctx, first.Session)
	assert.True(t, apperr.IsNotFound(err))
}

/*
TestService_RegisterRepeated covers re-registration with the same and a different password.
*/
func TestService_RegisterRepeated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Register(ctx, "driver01", "secret")
	require.NoError(t, err)

	again, err := f.service.Register(ctx, "driver01", "secret")
	require.NoError(t, err)
	assert.NoError(t, f.service.CheckIdentity(ctx, again.Session))

	_, err = f.service.Register(ctx, "driver01", "other")
	require.Error(t, err)
	assert.Same(t, identity.ErrAccountClaimed, err)
	assert.Len(t, f.users(t), 1)
}

/*
TestService_AccountNormalization verifies visually identical accounts select the same user.
*/
func TestService_AccountNormalization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Register(ctx, "ｄｒｉｖｅｒ01", "secret")
	require.NoError(t, err)

	_, err = f.service.Login(ctx, "  driver01 ", "secret")
	require.NoError(t, err)
	assert.Equal(t, "driver01", f.users(t)[0].Account)
}

/*
TestService_CheckIdentity covers missing, duplicated and failing lookups.
*/
func TestService_CheckIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.database.Seed(constants.CollectionUser,
		bson.M{"account": "a", "session": "dup"},
		bson.M{"account": "b", "session": "dup"},
	)
	require.NoError(t, err)

	assert.True(t, apperr.IsNotFound(f.service.CheckIdentity(ctx, "")))
	assert.True(t, apperr.IsNotFound(f.service.CheckIdentity(ctx, "missing")))
	assert.True(t, apperr.IsNotFound(f.service.CheckIdentity(ctx, "dup")))

	f.database.Fail(constants.CollectionUser, docstoretest.OpCount, errors.New("connection reset"))
	err = f.service.CheckIdentity(ctx, "dup")
	require.Error(t, err)
	assert.False(t, apperr.IsNotFound(err))
	assert.Zero(t, f.dialer.OpenConns())
}

/*
TestService_UpdateVehicleStatus verifies remark handling and unknown sessions.
*/
func TestService_UpdateVehicleStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	grant, err := f.service.Register(ctx, "driver01", "secret")
	require.NoError(t, err)

	tests := []struct {
		name       string
		action     int
		remark     string
		wantRemark string
	}{
		{"with_remark", 1, "engine started", "engine started"},
		{"blank_remark_keeps_previous", 2, "", "engine started"},
		{"whitespace_remark_keeps_previous", 3, "   \t", "engine started"},
		{"new_remark", 4, "parked", "parked"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, f.service.UpdateVehicleStatus(ctx, grant.Session, tt.action, tt.remark))

			user, err := f.service.FindBySession(ctx, grant.Session)
			require.NoError(t, err)
			require.NotNil(t, user.Vehicle)
			assert.Equal(t, tt.action, user.Vehicle.Action)
			assert.Equal(t, tt.wantRemark, user.Vehicle.Remark)
		})
	}

	err = f.service.UpdateVehicleStatus(ctx, "unknown", 1, "")
	assert.True(t, apperr.IsNotFound(err))
}
