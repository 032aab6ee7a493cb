// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/taibuivan/vehicles/internal/platform/constants"
	"github.com/taibuivan/vehicles/internal/platform/dberr"
	"github.com/taibuivan/vehicles/internal/platform/docstore"
)

// MongoUserRepository implements [UserRepository] on the document store.
type MongoUserRepository struct {
	store    *docstore.Store
	database string
}

// NewMongoUserRepository binds the repository to database.
func NewMongoUserRepository(store *docstore.Store, database string) *MongoUserRepository {
	return &MongoUserRepository{store: store, database: database}
}

// Stamp implements [UserRepository].
func (repository *MongoUserRepository) Stamp(ctx context.Context, credentials Credentials, stamp SessionStamp, create bool) (StampResult, error) {
	filter := bson.D{
		{Key: FieldAccount, Value: credentials.Account},
		{Key: FieldPassword, Value: credentials.Digest},
	}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: FieldLastLogin, Value: stamp.LastLogin},
		{Key: FieldSession, Value: stamp.Session},
	}}}

	envelope, err := repository.run(ctx, docstore.FindOneAndUpdate(filter, update, docstore.UpdateOptions{
		Upsert:        create,
		ReturnUpdated: true,
	}))
	if err != nil {
		return StampResult{}, err
	}

	outcome, err := docstore.ResultAs[docstore.UpdateOutcome](envelope)
	if err != nil {
		return StampResult{}, err
	}

	user, err := docstore.Decode[User](outcome.Document)
	if err != nil {
		return StampResult{}, err
	}

	return StampResult{User: user, UpdatedExisting: outcome.UpdatedExisting}, nil
}

// FindBySession implements [UserRepository].
func (repository *MongoUserRepository) FindBySession(ctx context.Context, token string) (*User, error) {
	envelope, err := repository.run(ctx, docstore.FindOne(bson.D{{Key: FieldSession, Value: token}}, nil))
	if err != nil {
		return nil, err
	}

	user, err := docstore.DecodeOne[User](envelope)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, dberr.ErrNotFound
	}
	return user, nil
}

// CountBySession implements [UserRepository].
func (repository *MongoUserRepository) CountBySession(ctx context.Context, token string) (int64, error) {
	envelope, err := repository.run(ctx, docstore.Count(bson.D{{Key: FieldSession, Value: token}}))
	if err != nil {
		return 0, err
	}
	return docstore.ResultAs[int64](envelope)
}

// SetVehicle implements [UserRepository].
func (repository *MongoUserRepository) SetVehicle(ctx context.Context, token string, action int, remark *string) (bool, error) {
	fields := bson.D{{Key: FieldVehicleAction, Value: action}}
	if remark != nil {
		fields = append(fields, bson.E{Key: FieldVehicleRemark, Value: *remark})
	}

	envelope, err := repository.run(ctx, docstore.FindOneAndUpdate(
		bson.D{{Key: FieldSession, Value: token}},
		bson.D{{Key: "$set", Value: fields}},
		docstore.UpdateOptions{ReturnUpdated: true},
	))
	if err != nil {
		return false, err
	}

	outcome, err := docstore.ResultAs[docstore.UpdateOutcome](envelope)
	if err != nil {
		return false, err
	}
	return outcome.Document != nil && outcome.UpdatedExisting, nil
}

func (repository *MongoUserRepository) run(ctx context.Context, steps ...docstore.Step) (docstore.Envelope, error) {
	return repository.store.Run(ctx, repository.database, constants.CollectionUser, steps...)
}
