// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import "context"

// # User Data Access

// Credentials select a user by account and password digest.
type Credentials struct {
	Account string
	Digest  string
}

// SessionStamp is written on every login.
type SessionStamp struct {
	Session   string
	LastLogin string
}

// StampResult reports the outcome of [UserRepository.Stamp].
type StampResult struct {
	// User is the document after the update, nil when nothing was written.
	User *User
	// UpdatedExisting is true only when an existing user matched.
	UpdatedExisting bool
}

// UserRepository defines the data access contract for operator accounts.
type UserRepository interface {

	/*
		Stamp writes a new session onto the user matching credentials.

		With create set, a missing user is inserted from the credentials;
		otherwise nothing is written and the result carries no user.

		Returns:
		  - StampResult: The updated document and whether it existed
		  - error: Persistence failures, Conflict on a duplicate account
	*/
	Stamp(ctx context.Context, credentials Credentials, stamp SessionStamp, create bool) (StampResult, error)

	/*
		FindBySession returns the user holding token.

		Returns:
		  - *User: Hydrated entity
		  - error: NotFound when no user holds token
	*/
	FindBySession(ctx context.Context, token string) (*User, error)

	/*
		CountBySession counts users holding token.
	*/
	CountBySession(ctx context.Context, token string) (int64, error)

	/*
		SetVehicle overwrites the current vehicle state of the user holding
		token. A nil remark leaves the stored remark unchanged.

		Returns:
		  - bool: Whether a user matched
		  - error: Persistence failures
	*/
	SetVehicle(ctx context.Context, token string, action int, remark *string) (bool, error)
}
