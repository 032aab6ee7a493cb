// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package docstore

import (
	"fmt"
	"maps"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/taibuivan/vehicles/internal/platform/apperr"
)

// Params are named values carried through a pipeline.
type Params map[string]any

// Envelope is the value threaded through a pipeline: the connection, the
// target collection, accumulated parameters, the last step's result and the
// named outputs of completed stages.
//
// # Immutability
//
// Every With* method returns a modified copy; the receiver is never changed.
// A step may therefore keep or discard the envelope it was given.
type Envelope struct {
	conn       *Conn
	collection string
	params     Params
	result     any
	outputs    map[string]any
}

// NewEnvelope starts a pipeline on conn targeting collection.
func NewEnvelope(conn *Conn, collection string) Envelope {
	return Envelope{conn: conn, collection: collection}
}

// Conn returns the scoped connection.
func (envelope Envelope) Conn() *Conn { return envelope.conn }

// Collection returns the target collection name.
func (envelope Envelope) Collection() string { return envelope.collection }

// Result returns the result of the most recent step.
func (envelope Envelope) Result() any { return envelope.result }

// WithCollection retargets subsequent steps.
func (envelope Envelope) WithCollection(name string) Envelope {
	envelope.collection = name
	return envelope
}

// WithResult records a step result.
func (envelope Envelope) WithResult(result any) Envelope {
	envelope.result = result
	return envelope
}

// WithParams merges params over the existing ones.
func (envelope Envelope) WithParams(params Params) Envelope {
	if len(params) == 0 {
		return envelope
	}
	merged := make(Params, len(envelope.params)+len(params))
	maps.Copy(merged, envelope.params)
	maps.Copy(merged, params)
	envelope.params = merged
	return envelope
}

// Param looks up a parameter.
func (envelope Envelope) Param(key string) (any, bool) {
	value, ok := envelope.params[key]
	return value, ok
}

// Params returns a copy of all parameters.
func (envelope Envelope) Params() Params {
	return maps.Clone(envelope.params)
}

// WithOutput records the named output of a stage.
func (envelope Envelope) WithOutput(name string, value any) Envelope {
	outputs := make(map[string]any, len(envelope.outputs)+1)
	maps.Copy(outputs, envelope.outputs)
	outputs[name] = value
	envelope.outputs = outputs
	return envelope
}

// Output returns the named output of a completed stage.
func (envelope Envelope) Output(name string) (any, bool) {
	value, ok := envelope.outputs[name]
	return value, ok
}

// # Typed Access

// ResultAs returns the last result as T.
func ResultAs[T any](envelope Envelope) (T, error) {
	return as[T]("result", envelope.result)
}

// OutputAs returns the named stage output as T.
func OutputAs[T any](envelope Envelope, name string) (T, error) {
	value, ok := envelope.outputs[name]
	if !ok {
		var zero T
		return zero, apperr.Internal(fmt.Errorf("docstore: no output named %q", name))
	}
	return as[T]("output "+name, value)
}

// DecodeOne decodes a single-document result into T. A missing document
// yields (nil, nil).
func DecodeOne[T any](envelope Envelope) (*T, error) {
	raw, err := ResultAs[bson.Raw](envelope)
	if err != nil {
		return nil, err
	}
	return Decode[T](raw)
}

// DecodeAll decodes a multi-document result into a slice of T.
func DecodeAll[T any](envelope Envelope) ([]T, error) {
	raws, err := ResultAs[[]bson.Raw](envelope)
	if err != nil {
		return nil, err
	}

	items := make([]T, 0, len(raws))
	for _, raw := range raws {
		var item T
		if err := bson.Unmarshal(raw, &item); err != nil {
			return nil, apperr.Store(fmt.Errorf("docstore: decode: %w", err))
		}
		items = append(items, item)
	}
	return items, nil
}

// Decode unmarshals one raw document. A nil document yields (nil, nil).
func Decode[T any](raw bson.Raw) (*T, error) {
	if raw == nil {
		return nil, nil
	}

	var item T
	if err := bson.Unmarshal(raw, &item); err != nil {
		return nil, apperr.Store(fmt.Errorf("docstore: decode: %w", err))
	}
	return &item, nil
}

func as[T any](label string, value any) (T, error) {
	typed, ok := value.(T)
	if !ok {
		var zero T
		return zero, apperr.Internal(fmt.Errorf("docstore: %s is %T, want %T", label, value, zero))
	}
	return typed, nil
}
