// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package docstore

import (
	"context"
	"fmt"
	"slices"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taibuivan/vehicles/internal/platform/apperr"
)

// # Dialer

// MongoDialer hands out sessions from a pooled [mongo.Client].
type MongoDialer struct {
	client *mongo.Client
}

// NewMongoDialer creates a [MongoDialer].
func NewMongoDialer(client *mongo.Client) *MongoDialer {
	return &MongoDialer{client: client}
}

// Dial starts a causally consistent session scoped to database.
func (dialer *MongoDialer) Dial(_ context.Context, database string) (*Conn, error) {
	session, err := dialer.client.StartSession(options.Session().SetCausalConsistency(true))
	if err != nil {
		return nil, apperr.DatabaseUnavailable(fmt.Errorf("docstore: start session: %w", err))
	}

	return &Conn{
		database: database,
		backend:  mongoBackend{database: dialer.client.Database(database)},
		session:  session,
	}, nil
}

// # Backend

type mongoBackend struct {
	database *mongo.Database
}

func (backend mongoBackend) Collection(name string) Collection {
	return mongoCollection{collection: backend.database.Collection(name)}
}

type mongoCollection struct {
	collection *mongo.Collection
}

func (c mongoCollection) FindOne(ctx context.Context, filter, projection any) (bson.Raw, error) {
	opts := options.FindOne()
	if projection != nil {
		opts.SetProjection(projection)
	}
	return c.collection.FindOne(ctx, filter, opts).Raw()
}

func (c mongoCollection) Find(ctx context.Context, filter any, opts *options.FindOptions) ([]bson.Raw, error) {
	cursor, err := c.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	documents := make([]bson.Raw, 0)
	for cursor.Next(ctx) {
		// Current is reused by the cursor between batches.
		documents = append(documents, slices.Clone(cursor.Current))
	}

	return documents, cursor.Err()
}

func (c mongoCollection) CountDocuments(ctx context.Context, filter any) (int64, error) {
	return c.collection.CountDocuments(ctx, filter)
}

func (c mongoCollection) InsertOne(ctx context.Context, document any) (any, error) {
	result, err := c.collection.InsertOne(ctx, document)
	if err != nil {
		return nil, err
	}
	return result.InsertedID, nil
}

func (c mongoCollection) UpdateOne(ctx context.Context, filter, update any) (*mongo.UpdateResult, error) {
	return c.collection.UpdateOne(ctx, filter, update)
}

func (c mongoCollection) UpdateMany(ctx context.Context, filter, update any) (*mongo.UpdateResult, error) {
	return c.collection.UpdateMany(ctx, filter, update)
}

func (c mongoCollection) DeleteOne(ctx context.Context, filter any) (*mongo.DeleteResult, error) {
	return c.collection.DeleteOne(ctx, filter)
}

func (c mongoCollection) DeleteMany(ctx context.Context, filter any) (*mongo.DeleteResult, error) {
	return c.collection.DeleteMany(ctx, filter)
}

// findAndModifyReply is the part of the findAndModify reply the adapter reads.
type findAndModifyReply struct {
	Value           bson.RawValue `bson:"value"`
	LastErrorObject struct {
		N               int64         `bson:"n"`
		UpdatedExisting bool          `bson:"updatedExisting"`
		Upserted        bson.RawValue `bson:"upserted"`
	} `bson:"lastErrorObject"`
}

// FindOneAndUpdate issues findAndModify as a raw command. The typed driver
// helper drops lastErrorObject, which callers need to tell "updated" from
// "inserted".
func (c mongoCollection) FindOneAndUpdate(ctx context.Context, filter, update any, opts UpdateOptions) (UpdateOutcome, error) {
	command := bson.D{
		{Key: "findAndModify", Value: c.collection.Name()},
		{Key: "query", Value: filter},
		{Key: "update", Value: update},
		{Key: "new", Value: opts.ReturnUpdated},
		{Key: "upsert", Value: opts.Upsert},
	}
	if opts.Projection != nil {
		command = append(command, bson.E{Key: "fields", Value: opts.Projection})
	}

	var reply findAndModifyReply
	if err := c.collection.Database().RunCommand(ctx, command).Decode(&reply); err != nil {
		return UpdateOutcome{}, err
	}

	outcome := UpdateOutcome{UpdatedExisting: reply.LastErrorObject.UpdatedExisting}
	if reply.Value.Type == bsontype.EmbeddedDocument {
		outcome.Document = reply.Value.Document()
	}
	if upserted := reply.LastErrorObject.Upserted; upserted.Type != 0 && upserted.Type != bsontype.Null {
		if id, ok := upserted.ObjectIDOK(); ok {
			outcome.UpsertedID = id
		} else {
			outcome.UpsertedID = upserted
		}
	}

	return outcome, nil
}
