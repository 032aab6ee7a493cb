// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vehicle

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/taibuivan/vehicles/internal/platform/apperr"
	"github.com/taibuivan/vehicles/internal/platform/constants"
	"github.com/taibuivan/vehicles/internal/platform/docstore"
)

// newestFirst orders records by descending ObjectID, which follows insertion time.
var newestFirst = bson.D{{Key: "_id", Value: -1}}

// MongoRecordRepository implements [RecordRepository] on the document store.
type MongoRecordRepository struct {
	store    *docstore.Store
	database string
}

// NewMongoRecordRepository binds the repository to database.
func NewMongoRecordRepository(store *docstore.Store, database string) *MongoRecordRepository {
	return &MongoRecordRepository{store: store, database: database}
}

// Insert implements [RecordRepository].
func (repository *MongoRecordRepository) Insert(ctx context.Context, record *Record) (primitive.ObjectID, error) {
	envelope, err := repository.store.Run(ctx, repository.database, constants.CollectionRecord, docstore.InsertOne(record))
	if err != nil {
		return primitive.NilObjectID, err
	}

	id, ok := envelope.Result().(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, apperr.Internal(fmt.Errorf("vehicle: inserted id is %T", envelope.Result()))
	}
	return id, nil
}

// Query implements [RecordRepository]. The count and the page are read in
// one pipeline over a single connection.
func (repository *MongoRecordRepository) Query(ctx context.Context, operator primitive.ObjectID, skip, take int64) (*RecordPage, error) {
	filter := bson.D{{Key: FieldOperator, Value: operator}}

	envelope, err := repository.store.Run(ctx, repository.database, constants.CollectionRecord,
		docstore.OneByOne(
			docstore.Stage{
				Name:   StageAmount,
				Params: docstore.Params{FieldOperator: operator},
				Step:   docstore.Count(filter),
			},
			docstore.Stage{
				Name: StageRecords,
				Step: docstore.Limit(filter, newestFirst, skip, take),
			},
		),
	)
	if err != nil {
		return nil, err
	}

	amount, err := docstore.OutputAs[int64](envelope, StageAmount)
	if err != nil {
		return nil, err
	}

	records, err := docstore.DecodeAll[Record](envelope)
	if err != nil {
		return nil, err
	}

	return &RecordPage{Records: records, Amount: amount}, nil
}
