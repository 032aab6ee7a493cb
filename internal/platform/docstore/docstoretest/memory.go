// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package docstoretest provides an in-memory document store for tests.

It implements the docstore driver contracts with the subset of MongoDB
semantics the repositories rely on:

  - filters: equality on top-level or dotted fields
  - updates: $set with top-level or dotted fields
  - reads: sort, skip and limit
  - unique single-field indexes (duplicate key errors use code 11000)

Failures can be injected per collection and operation to exercise error paths.
*/
package docstoretest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taibuivan/vehicles/internal/platform/docstore"
)

// Operation names accepted by [Database.Fail].
const (
	OpFindOne          = "findOne"
	OpFind             = "find"
	OpCount            = "count"
	OpInsertOne        = "insertOne"
	OpUpdate           = "update"
	OpDelete           = "delete"
	OpFindOneAndUpdate = "findOneAndUpdate"
)

// # Dialer

// Dialer implements [docstore.Dialer] over in-memory databases and keeps
// track of every connection it hands out.
type Dialer struct {
	mu        sync.Mutex
	databases map[string]*Database
	conns     []*docstore.Conn
	dialErr   error
}

// NewDialer creates an empty in-memory server.
func NewDialer() *Dialer {
	return &Dialer{databases: make(map[string]*Database)}
}

// Dial implements [docstore.Dialer].
func (dialer *Dialer) Dial(_ context.Context, database string) (*docstore.Conn, error) {
	dialer.mu.Lock()
	defer dialer.mu.Unlock()

	if dialer.dialErr != nil {
		return nil, dialer.dialErr
	}

	conn := docstore.NewConn(database, dialer.database(database))
	dialer.conns = append(dialer.conns, conn)
	return conn, nil
}

// FailDial makes every following Dial return err. A nil err restores dialing.
func (dialer *Dialer) FailDial(err error) {
	dialer.mu.Lock()
	defer dialer.mu.Unlock()
	dialer.dialErr = err
}

// Database returns the named database, creating it on first use.
func (dialer *Dialer) Database(name string) *Database {
	dialer.mu.Lock()
	defer dialer.mu.Unlock()
	return dialer.database(name)
}

func (dialer *Dialer) database(name string) *Database {
	db, ok := dialer.databases[name]
	if !ok {
		db = &Database{
			collections: make(map[string][]bson.Raw),
			unique:      make(map[string][]string),
			failures:    make(map[string]error),
		}
		dialer.databases[name] = db
	}
	return db
}

// Dials returns how many connections were handed out.
func (dialer *Dialer) Dials() int {
	dialer.mu.Lock()
	defer dialer.mu.Unlock()
	return len(dialer.conns)
}

// OpenConns returns how many handed-out connections were never closed.
func (dialer *Dialer) OpenConns() int {
	dialer.mu.Lock()
	defer dialer.mu.Unlock()

	open := 0
	for _, conn := range dialer.conns {
		if !conn.Closed() {
			open++
		}
	}
	return open
}

// # Database

// Database is one in-memory database. It implements [docstore.Backend].
type Database struct {
	mu          sync.Mutex
	collections map[string][]bson.Raw
	unique      map[string][]string
	failures    map[string]error
}

// Collection implements [docstore.Backend].
func (db *Database) Collection(name string) docstore.Collection {
	return &collection{db: db, name: name}
}

// Unique declares a unique index on a top-level or dotted field.
func (db *Database) Unique(collection, field string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.unique[collection] = append(db.unique[collection], field)
}

// Fail makes operation on collection return err until cleared with a nil err.
func (db *Database) Fail(collection, operation string, err error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	key := collection + "." + operation
	if err == nil {
		delete(db.failures, key)
		return
	}
	db.failures[key] = err
}

// Documents returns a snapshot of a collection in insertion order.
func (db *Database) Documents(collection string) []bson.Raw {
	db.mu.Lock()
	defer db.mu.Unlock()

	snapshot := make([]bson.Raw, 0, len(db.collections[collection]))
	for _, document := range db.collections[collection] {
		snapshot = append(snapshot, slices.Clone(document))
	}
	return snapshot
}

// Seed inserts documents directly, bypassing failure injection.
func (db *Database) Seed(collection string, documents ...any) ([]any, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	ids := make([]any, 0, len(documents))
	for _, document := range documents {
		id, err := db.insert(collection, document)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (db *Database) failure(collection, operation string) error {
	return db.failures[collection+"."+operation]
}

func (db *Database) insert(collection string, document any) (any, error) {
	fields, err := toD(document)
	if err != nil {
		return nil, err
	}

	var id any
	for _, field := range fields {
		if field.Key == "_id" {
			id = field.Value
		}
	}
	if id == nil {
		id = primitive.NewObjectID()
		fields = append(bson.D{{Key: "_id", Value: id}}, fields...)
	}

	raw, err := bson.Marshal(fields)
	if err != nil {
		return nil, err
	}

	if err := db.checkUnique(collection, raw, -1); err != nil {
		return nil, err
	}

	db.collections[collection] = append(db.collections[collection], raw)
	return id, nil
}

// checkUnique rejects raw when it collides with another document on a unique
// field. skip is the index of the document being replaced, or -1.
func (db *Database) checkUnique(collection string, raw bson.Raw, skip int) error {
	for _, field := range db.unique[collection] {
		value, err := raw.LookupErr(strings.Split(field, ".")...)
		if err != nil {
			continue
		}

		for index, existing := range db.collections[collection] {
			if index == skip {
				continue
			}
			other, err := existing.LookupErr(strings.Split(field, ".")...)
			if err == nil && equalValues(value, other) {
				return mongo.CommandError{
					Code:    11000,
					Name:    "DuplicateKey",
					Message: fmt.Sprintf("E11000 duplicate key error collection: %s index: %s_1", collection, field),
				}
			}
		}
	}
	return nil
}

// matching returns the indexes of the documents matching filter, in insertion order.
func (db *Database) matching(collection string, filter any) ([]int, error) {
	conditions, err := toRaw(filter)
	if err != nil {
		return nil, err
	}

	elements, err := conditions.Elements()
	if err != nil {
		return nil, err
	}

	for _, element := range elements {
		if strings.HasPrefix(element.Key(), "$") {
			return nil, fmt.Errorf("docstoretest: unsupported filter operator %s", element.Key())
		}
	}

	var indexes []int
	for index, document := range db.collections[collection] {
		if matches(document, elements) {
			indexes = append(indexes, index)
		}
	}
	return indexes, nil
}

func matches(document bson.Raw, conditions []bson.RawElement) bool {
	for _, condition := range conditions {
		value, err := document.LookupErr(strings.Split(condition.Key(), ".")...)
		if err != nil || !equalValues(value, condition.Value()) {
			return false
		}
	}
	return true
}

// # Collection

type collection struct {
	db   *Database
	name string
}

func (c *collection) FindOne(_ context.Context, filter, _ any) (bson.Raw, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	if err := c.db.failure(c.name, OpFindOne); err != nil {
		return nil, err
	}

	indexes, err := c.db.matching(c.name, filter)
	if err != nil {
		return nil, err
	}
	if len(indexes) == 0 {
		return nil, mongo.ErrNoDocuments
	}
	return slices.Clone(c.db.collections[c.name][indexes[0]]), nil
}

func (c *collection) Find(_ context.Context, filter any, opts *options.FindOptions) ([]bson.Raw, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	if err := c.db.failure(c.name, OpFind); err != nil {
		return nil, err
	}

	indexes, err := c.db.matching(c.name, filter)
	if err != nil {
		return nil, err
	}

	documents := make([]bson.Raw, 0, len(indexes))
	for _, index := range indexes {
		documents = append(documents, slices.Clone(c.db.collections[c.name][index]))
	}

	if opts == nil {
		return documents, nil
	}

	if opts.Sort != nil {
		if err := sortDocuments(documents, opts.Sort); err != nil {
			return nil, err
		}
	}

	if opts.Skip != nil && *opts.Skip > 0 {
		skip := min(int(*opts.Skip), len(documents))
		documents = documents[skip:]
	}

	if opts.Limit != nil && *opts.Limit > 0 {
		limit := min(int(*opts.Limit), len(documents))
		documents = documents[:limit]
	}

	return documents, nil
}

func (c *collection) CountDocuments(_ context.Context, filter any) (int64, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	if err := c.db.failure(c.name, OpCount); err != nil {
		return 0, err
	}

	indexes, err := c.db.matching(c.name, filter)
	return int64(len(indexes)), err
}

func (c *collection) InsertOne(_ context.Context, document any) (any, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	if err := c.db.failure(c.name, OpInsertOne); err != nil {
		return nil, err
	}
	return c.db.insert(c.name, document)
}

func (c *collection) UpdateOne(_ context.Context, filter, update any) (*mongo.UpdateResult, error) {
	return c.update(filter, update, false)
}

func (c *collection) UpdateMany(_ context.Context, filter, update any) (*mongo.UpdateResult, error) {
	return c.update(filter, update, true)
}

func (c *collection) update(filter, update any, many bool) (*mongo.UpdateResult, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	if err := c.db.failure(c.name, OpUpdate); err != nil {
		return nil, err
	}

	indexes, err := c.db.matching(c.name, filter)
	if err != nil {
		return nil, err
	}
	if !many && len(indexes) > 1 {
		indexes = indexes[:1]
	}

	result := &mongo.UpdateResult{MatchedCount: int64(len(indexes))}
	for _, index := range indexes {
		modified, changed, err := c.apply(index, update)
		if err != nil {
			return nil, err
		}
		if changed {
			c.db.collections[c.name][index] = modified
			result.ModifiedCount++
		}
	}
	return result, nil
}

func (c *collection) DeleteOne(_ context.Context, filter any) (*mongo.DeleteResult, error) {
	return c.delete(filter, false)
}

func (c *collection) DeleteMany(_ context.Context, filter any) (*mongo.DeleteResult, error) {
	return c.delete(filter, true)
}

func (c *collection) delete(filter any, many bool) (*mongo.DeleteResult, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	if err := c.db.failure(c.name, OpDelete); err != nil {
		return nil, err
	}

	indexes, err := c.db.matching(c.name, filter)
	if err != nil {
		return nil, err
	}
	if !many && len(indexes) > 1 {
		indexes = indexes[:1]
	}

	documents := c.db.collections[c.name]
	for i := len(indexes) - 1; i >= 0; i-- {
		documents = slices.Delete(documents, indexes[i], indexes[i]+1)
	}
	c.db.collections[c.name] = documents

	return &mongo.DeleteResult{DeletedCount: int64(len(indexes))}, nil
}

func (c *collection) FindOneAndUpdate(_ context.Context, filter, update any, opts docstore.UpdateOptions) (docstore.UpdateOutcome, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	if err := c.db.failure(c.name, OpFindOneAndUpdate); err != nil {
		return docstore.UpdateOutcome{}, err
	}

	indexes, err := c.db.matching(c.name, filter)
	if err != nil {
		return docstore.UpdateOutcome{}, err
	}

	if len(indexes) > 0 {
		index := indexes[0]
		before := c.db.collections[c.name][index]

		after, _, err := c.apply(index, update)
		if err != nil {
			return docstore.UpdateOutcome{}, err
		}
		c.db.collections[c.name][index] = after

		outcome := docstore.UpdateOutcome{UpdatedExisting: true, Document: slices.Clone(before)}
		if opts.ReturnUpdated {
			outcome.Document = slices.Clone(after)
		}
		return outcome, nil
	}

	if !opts.Upsert {
		return docstore.UpdateOutcome{}, nil
	}

	// Upsert: seed the new document from the equality filter, then apply the update.
	seed, err := toD(filter)
	if err != nil {
		return docstore.UpdateOutcome{}, err
	}

	document := bson.D{}
	for _, field := range seed {
		document = setPath(document, strings.Split(field.Key, "."), field.Value)
	}
	document, err = applySet(document, update)
	if err != nil {
		return docstore.UpdateOutcome{}, err
	}

	id, err := c.db.insert(c.name, document)
	if err != nil {
		return docstore.UpdateOutcome{}, err
	}

	outcome := docstore.UpdateOutcome{UpsertedID: id}
	if opts.ReturnUpdated {
		documents := c.db.collections[c.name]
		outcome.Document = slices.Clone(documents[len(documents)-1])
	}
	return outcome, nil
}

// apply runs update against the document at index and reports whether it changed.
func (c *collection) apply(index int, update any) (bson.Raw, bool, error) {
	current := c.db.collections[c.name][index]

	var document bson.D
	if err := bson.Unmarshal(current, &document); err != nil {
		return nil, false, err
	}

	document, err := applySet(document, update)
	if err != nil {
		return nil, false, err
	}

	raw, err := bson.Marshal(document)
	if err != nil {
		return nil, false, err
	}

	if err := c.db.checkUnique(c.name, raw, index); err != nil {
		return nil, false, err
	}

	return raw, !bytes.Equal(raw, current), nil
}

// # Document Helpers

func applySet(document bson.D, update any) (bson.D, error) {
	operators, err := toRaw(update)
	if err != nil {
		return nil, err
	}

	elements, err := operators.Elements()
	if err != nil {
		return nil, err
	}

	for _, element := range elements {
		if element.Key() != "$set" {
			return nil, fmt.Errorf("docstoretest: unsupported update operator %q", element.Key())
		}

		fields, ok := element.Value().DocumentOK()
		if !ok {
			return nil, errors.New("docstoretest: $set expects a document")
		}

		values, err := fields.Elements()
		if err != nil {
			return nil, err
		}
		for _, value := range values {
			document = setPath(document, strings.Split(value.Key(), "."), value.Value())
		}
	}

	return document, nil
}

func setPath(document bson.D, path []string, value any) bson.D {
	for index, field := range document {
		if field.Key != path[0] {
			continue
		}
		if len(path) == 1 {
			document[index].Value = value
			return document
		}
		child, _ := field.Value.(bson.D)
		document[index].Value = setPath(child, path[1:], value)
		return document
	}

	if len(path) == 1 {
		return append(document, bson.E{Key: path[0], Value: value})
	}
	return append(document, bson.E{Key: path[0], Value: setPath(bson.D{}, path[1:], value)})
}

func sortDocuments(documents []bson.Raw, sort any) error {
	sortDoc, err := toRaw(sort)
	if err != nil {
		return err
	}

	keys, err := sortDoc.Elements()
	if err != nil {
		return err
	}

	slices.SortStableFunc(documents, func(a, b bson.Raw) int {
		for _, key := range keys {
			path := strings.Split(key.Key(), ".")
			left, _ := a.LookupErr(path...)
			right, _ := b.LookupErr(path...)

			if order := compareValues(left, right); order != 0 {
				if direction(key.Value()) < 0 {
					return -order
				}
				return order
			}
		}
		return 0
	})
	return nil
}

func direction(value bson.RawValue) float64 {
	if number, ok := numeric(value); ok {
		return number
	}
	return 1
}

func numeric(value bson.RawValue) (float64, bool) {
	switch value.Type {
	case bsontype.Int32:
		return float64(value.Int32()), true
	case bsontype.Int64:
		return float64(value.Int64()), true
	case bsontype.Double:
		return value.Double(), true
	}
	return 0, false
}

func equalValues(a, b bson.RawValue) bool {
	if x, ok := numeric(a); ok {
		if y, ok := numeric(b); ok {
			return x == y
		}
	}
	return a.Type == b.Type && bytes.Equal(a.Value, b.Value)
}

func compareValues(a, b bson.RawValue) int {
	if x, ok := numeric(a); ok {
		if y, ok := numeric(b); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	}

	if a.Type != b.Type {
		return int(a.Type) - int(b.Type)
	}

	switch a.Type {
	case bsontype.ObjectID:
		left, right := a.ObjectID(), b.ObjectID()
		return bytes.Compare(left[:], right[:])
	case bsontype.String:
		return strings.Compare(a.StringValue(), b.StringValue())
	case bsontype.DateTime:
		return int(a.DateTime() - b.DateTime())
	}
	return bytes.Compare(a.Value, b.Value)
}

func toRaw(value any) (bson.Raw, error) {
	if value == nil {
		return bson.Marshal(bson.D{})
	}
	if raw, ok := value.(bson.Raw); ok {
		return raw, nil
	}
	return bson.Marshal(value)
}

func toD(value any) (bson.D, error) {
	raw, err := toRaw(value)
	if err != nil {
		return nil, err
	}

	var document bson.D
	if err := bson.Unmarshal(raw, &document); err != nil {
		return nil, err
	}
	return document, nil
}
