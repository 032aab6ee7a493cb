// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package identity implements accounts and sessions for vehicle operators.

A user logs in (or registers) with an account and password and receives a
random session token together with the server's public key. Every protected
request then carries that token, encrypted with the public key, and is
verified against the `user` collection.

# Architecture

  - Service: login, register, session lookup and current vehicle state.
  - Repository: [UserRepository], implemented on the document store.
  - Handler: the unauthenticated bootstrap endpoints under /platform.

Only one session is active per user: a new login overwrites the token.
*/
package identity

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// # Domain Entities

// User is an operator account in the `user` collection.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Account   string             `bson:"account" json:"account"`
	Password  string             `bson:"password" json:"-"`
	Session   string             `bson:"session,omitempty" json:"-"`
	LastLogin string             `bson:"lastLogin,omitempty" json:"lastLogin,omitempty"`
	Vehicle   *Vehicle           `bson:"vehicle,omitempty" json:"vehicle,omitempty"`
}

// Vehicle is the current state of the user's vehicle.
//
// Action is an application-defined code and is stored as sent.
type Vehicle struct {
	Action int    `bson:"action" json:"action"`
	Remark string `bson:"remark,omitempty" json:"remark,omitempty"`
}

// Grant is handed to a client after login or registration.
type Grant struct {
	Session    string
	PublicKey  string
	ServerTime int64
}

// # Field Identifiers

// Document fields of the `user` collection.
const (
	FieldAccount       = "account"
	FieldPassword      = "password"
	FieldSession       = "session"
	FieldLastLogin     = "lastLogin"
	FieldVehicleAction = "vehicle.action"
	FieldVehicleRemark = "vehicle.remark"
)

// Input limits.
const (
	MaxAccountLength  = 64
	MaxPasswordLength = 128
)
