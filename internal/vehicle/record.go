// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package vehicle implements vehicle state and the action audit trail.

Every action an operator reports is appended to the `record` collection and
then becomes the current state on the operator's user document. The two
writes are independent: a failure after the append leaves the log one entry
ahead of the current state.
*/
package vehicle

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// # Domain Entities

// Record is one entry of the action log.
type Record struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Action     int                `bson:"action"`
	Remark     string             `bson:"remark,omitempty"`
	CreateTime string             `bson:"createTime"`
	Operator   primitive.ObjectID `bson:"operator"`
}

// RecordPage is one window of an operator's records, newest first.
type RecordPage struct {
	Records []Record
	Amount  int64
}

// # Field Identifiers

const (
	FieldOperator = "operator"
	FieldAction   = "action"
	FieldRemark   = "remark"

	// Stage names of the paged query pipeline.
	StageAmount  = "amount"
	StageRecords = "records"
)

// MaxRemarkLength bounds the free-text remark.
const MaxRemarkLength = 512
