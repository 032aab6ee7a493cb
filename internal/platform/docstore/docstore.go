// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package docstore is the document store adapter used by every repository.

A logical store call is a pipeline of [Step] values threaded through an
immutable [Envelope]:

	connect -> step -> step -> ... -> close

[Store.Run] acquires a scoped [Conn] for one database, runs the steps in
order and releases the connection on every exit path. Physical connections
come from the driver pool configured in [NewClient]; each logical call gets
its own causally consistent session, so later steps observe the writes of
earlier ones.

# Architecture

The driver is hidden behind [Backend] and [Collection]. Production code uses
the MongoDB implementation in mongo.go; tests use docstoretest.
*/
package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taibuivan/vehicles/internal/platform/apperr"
	"github.com/taibuivan/vehicles/internal/platform/ctxutil"
)

// ErrClosed is returned by a step that runs on a released connection.
var ErrClosed = errors.New("docstore: connection is closed")

// # Driver Contracts

// Collection is the set of collection-level operations the adapter needs.
//
// FindOne reports a missing document as [mongo.ErrNoDocuments].
type Collection interface {
	FindOne(ctx context.Context, filter, projection any) (bson.Raw, error)
	Find(ctx context.Context, filter any, opts *options.FindOptions) ([]bson.Raw, error)
	CountDocuments(ctx context.Context, filter any) (int64, error)
	InsertOne(ctx context.Context, document any) (any, error)
	UpdateOne(ctx context.Context, filter, update any) (*mongo.UpdateResult, error)
	UpdateMany(ctx context.Context, filter, update any) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter any) (*mongo.DeleteResult, error)
	DeleteMany(ctx context.Context, filter any) (*mongo.DeleteResult, error)
	FindOneAndUpdate(ctx context.Context, filter, update any, opts UpdateOptions) (UpdateOutcome, error)
}

// Backend resolves collections inside one database.
type Backend interface {
	Collection(name string) Collection
}

// Dialer acquires a scoped connection to one database.
type Dialer interface {
	Dial(ctx context.Context, database string) (*Conn, error)
}

// # Scoped Connection

// Conn is one logical connection: a database handle plus, for MongoDB, the
// session every step of the pipeline runs in.
//
// # Concurrency
//
// A Conn belongs to a single pipeline. Close is safe to call more than once.
type Conn struct {
	database string
	backend  Backend
	session  mongo.Session

	once   sync.Once
	closed atomic.Bool
}

// NewConn wraps a backend without a driver session.
func NewConn(database string, backend Backend) *Conn {
	return &Conn{database: database, backend: backend}
}

// Database returns the database this connection is scoped to.
func (conn *Conn) Database() string { return conn.database }

// Closed reports whether Close has run.
func (conn *Conn) Closed() bool { return conn.closed.Load() }

// Close releases the connection. Only the first call has an effect.
func (conn *Conn) Close(ctx context.Context) {
	conn.once.Do(func() {
		conn.closed.Store(true)
		if conn.session != nil {
			conn.session.EndSession(ctx)
		}
	})
}

// bind attaches the connection's session to ctx.
func (conn *Conn) bind(ctx context.Context) context.Context {
	if conn.session == nil {
		return ctx
	}
	return mongo.NewSessionContext(ctx, conn.session)
}

// # Store

// Store opens pipelines against the databases reachable through its dialer.
type Store struct {
	dialer Dialer
}

// NewStore creates a [Store].
func NewStore(dialer Dialer) *Store {
	return &Store{dialer: dialer}
}

// Connect acquires a connection and returns the initial envelope. The caller
// owns the connection and must close it; prefer [Store.Run].
func (store *Store) Connect(ctx context.Context, database, collection string) (Envelope, error) {
	conn, err := store.dialer.Dial(ctx, database)
	if err != nil {
		if apperr.As(err) == nil {
			err = apperr.DatabaseUnavailable(fmt.Errorf("docstore: connect %s: %w", database, err))
		}
		return Envelope{}, err
	}

	ctxutil.GetLogger(ctx).DebugContext(ctx, "docstore_connected",
		slog.String("database", database),
		slog.String("collection", collection),
	)

	return NewEnvelope(conn, collection), nil
}

// Run acquires a connection, runs the steps strictly in order and always
// releases the connection, whichever step fails.
func (store *Store) Run(ctx context.Context, database, collection string, steps ...Step) (Envelope, error) {
	envelope, err := store.Connect(ctx, database, collection)
	if err != nil {
		return Envelope{}, err
	}

	defer envelope.conn.Close(context.WithoutCancel(ctx))

	return Pipe(steps...)(ctx, envelope)
}
