// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vehicle

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RecordRepository defines the data access contract for the action log.
type RecordRepository interface {

	/*
		Insert appends record and returns its generated ID.
	*/
	Insert(ctx context.Context, record *Record) (primitive.ObjectID, error)

	/*
		Query returns the operator's records, newest first, after skipping
		skip and taking at most take (zero takes all), together with the
		operator's total record count.
	*/
	Query(ctx context.Context, operator primitive.ObjectID, skip, take int64) (*RecordPage, error)
}
