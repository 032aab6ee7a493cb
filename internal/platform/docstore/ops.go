// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package docstore

import (
	"context"
	"errors"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taibuivan/vehicles/internal/platform/apperr"
	"github.com/taibuivan/vehicles/internal/platform/ctxutil"
	"github.com/taibuivan/vehicles/internal/platform/dberr"
)

// # Option Types

// FindOptions shapes a multi-document read. Zero Skip and Limit mean "none".
type FindOptions struct {
	Projection any
	Sort       any
	Skip       int64
	Limit      int64
}

// UpdateOptions shapes a find-and-modify call.
type UpdateOptions struct {
	Upsert        bool
	ReturnUpdated bool
	Projection    any
}

// UpdateOutcome is the result of [FindOneAndUpdate].
//
// UpdatedExisting mirrors the server's lastErrorObject.updatedExisting: it is
// true only when an existing document matched and was updated.
type UpdateOutcome struct {
	Document        bson.Raw
	UpdatedExisting bool
	UpsertedID      any
}

// WriteOutcome is the result of the update and delete steps.
type WriteOutcome struct {
	Matched  int64
	Modified int64
	Deleted  int64
	Upserted any
}

// # Steps

// Close releases the connection. [Store.Run] already does this; the step
// exists for pipelines built on [Store.Connect].
func Close(ctx context.Context, envelope Envelope) (Envelope, error) {
	if envelope.conn != nil {
		envelope.conn.Close(ctx)
	}
	return envelope, nil
}

// FindOne reads one document. The result is a [bson.Raw], nil when absent.
func FindOne(filter, projection any) Step {
	return func(ctx context.Context, envelope Envelope) (Envelope, error) {
		collection, ctx, err := envelope.target(ctx, "findOne")
		if err != nil {
			return envelope, err
		}

		raw, err := collection.FindOne(ctx, orEmpty(filter), projection)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return envelope.WithResult(bson.Raw(nil)), nil
		}
		if err != nil {
			return envelope, dberr.Wrap(err, "docstore: findOne")
		}

		return envelope.WithResult(raw), nil
	}
}

// Find reads documents in server order. The result is a []bson.Raw.
func Find(filter any, findOptions FindOptions) Step {
	return func(ctx context.Context, envelope Envelope) (Envelope, error) {
		collection, ctx, err := envelope.target(ctx, "find")
		if err != nil {
			return envelope, err
		}

		opts := options.Find()
		if findOptions.Projection != nil {
			opts.SetProjection(findOptions.Projection)
		}
		if findOptions.Sort != nil {
			opts.SetSort(findOptions.Sort)
		}
		if findOptions.Skip > 0 {
			opts.SetSkip(findOptions.Skip)
		}
		if findOptions.Limit > 0 {
			opts.SetLimit(findOptions.Limit)
		}

		documents, err := collection.Find(ctx, orEmpty(filter), opts)
		if err != nil {
			return envelope, dberr.Wrap(err, "docstore: find")
		}
		if documents == nil {
			documents = []bson.Raw{}
		}

		return envelope.WithResult(documents), nil
	}
}

// Limit is the paging read: sort, then skip, then take. A take of zero means
// no limit.
func Limit(filter, sort any, skip, take int64) Step {
	return Find(filter, FindOptions{Sort: sort, Skip: skip, Limit: take})
}

// Count counts matching documents. The result is an int64.
func Count(filter any) Step {
	return func(ctx context.Context, envelope Envelope) (Envelope, error) {
		collection, ctx, err := envelope.target(ctx, "count")
		if err != nil {
			return envelope, err
		}

		count, err := collection.CountDocuments(ctx, orEmpty(filter))
		if err != nil {
			return envelope, dberr.Wrap(err, "docstore: count")
		}

		return envelope.WithResult(count), nil
	}
}

// InsertOne inserts a document. The result is the generated id.
func InsertOne(document any) Step {
	return func(ctx context.Context, envelope Envelope) (Envelope, error) {
		collection, ctx, err := envelope.target(ctx, "insertOne")
		if err != nil {
			return envelope, err
		}

		id, err := collection.InsertOne(ctx, document)
		if err != nil {
			return envelope, dberr.Wrap(err, "docstore: insertOne")
		}

		return envelope.WithResult(id), nil
	}
}

// FindOneAndUpdate atomically updates the first matching document. The
// result is an [UpdateOutcome].
//
// # Upsert Policy
//
// The same primitive serves "must exist" (Upsert false) and "may create"
// (Upsert true) callers; inspect UpdatedExisting to tell them apart.
func FindOneAndUpdate(filter, update any, updateOptions UpdateOptions) Step {
	return func(ctx context.Context, envelope Envelope) (Envelope, error) {
		collection, ctx, err := envelope.target(ctx, "findOneAndUpdate")
		if err != nil {
			return envelope, err
		}

		outcome, err := collection.FindOneAndUpdate(ctx, orEmpty(filter), update, updateOptions)
		if err != nil {
			return envelope, dberr.Wrap(err, "docstore: findOneAndUpdate")
		}

		return envelope.WithResult(outcome), nil
	}
}

// UpdateOne updates the first matching document. The result is a [WriteOutcome].
func UpdateOne(filter, update any) Step {
	return updateStep("updateOne", filter, update, Collection.UpdateOne)
}

// UpdateMany updates every matching document. The result is a [WriteOutcome].
func UpdateMany(filter, update any) Step {
	return updateStep("updateMany", filter, update, Collection.UpdateMany)
}

// DeleteOne deletes the first matching document. The result is a [WriteOutcome].
func DeleteOne(filter any) Step {
	return deleteStep("deleteOne", filter, Collection.DeleteOne)
}

// DeleteMany deletes every matching document. The result is a [WriteOutcome].
func DeleteMany(filter any) Step {
	return deleteStep("deleteMany", filter, Collection.DeleteMany)
}

type updateFunc func(Collection, context.Context, any, any) (*mongo.UpdateResult, error)

type deleteFunc func(Collection, context.Context, any) (*mongo.DeleteResult, error)

func updateStep(operation string, filter, document any, call updateFunc) Step {
	return func(ctx context.Context, envelope Envelope) (Envelope, error) {
		collection, ctx, err := envelope.target(ctx, operation)
		if err != nil {
			return envelope, err
		}

		result, err := call(collection, ctx, orEmpty(filter), document)
		if err != nil {
			return envelope, dberr.Wrap(err, "docstore: "+operation)
		}

		return envelope.WithResult(WriteOutcome{
			Matched:  result.MatchedCount,
			Modified: result.ModifiedCount,
			Upserted: result.UpsertedID,
		}), nil
	}
}

func deleteStep(operation string, filter any, call deleteFunc) Step {
	return func(ctx context.Context, envelope Envelope) (Envelope, error) {
		collection, ctx, err := envelope.target(ctx, operation)
		if err != nil {
			return envelope, err
		}

		result, err := call(collection, ctx, orEmpty(filter))
		if err != nil {
			return envelope, dberr.Wrap(err, "docstore: "+operation)
		}

		return envelope.WithResult(WriteOutcome{Deleted: result.DeletedCount}), nil
	}
}

// # Helpers

// target resolves the collection for a step and binds the connection session.
func (envelope Envelope) target(ctx context.Context, operation string) (Collection, context.Context, error) {
	if envelope.conn == nil || envelope.conn.Closed() {
		return nil, ctx, apperr.Internal(ErrClosed)
	}

	ctxutil.GetLogger(ctx).DebugContext(ctx, "docstore_step",
		slog.String("op", operation),
		slog.String("database", envelope.conn.database),
		slog.String("collection", envelope.collection),
	)

	return envelope.conn.backend.Collection(envelope.collection), envelope.conn.bind(ctx), nil
}

func orEmpty(filter any) any {
	if filter == nil {
		return bson.D{}
	}
	return filter
}
