// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package docstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taibuivan/vehicles/internal/platform/ctxutil"
)

// Step is one operation of a pipeline. It receives the envelope produced by
// the previous step and returns the envelope for the next one.
type Step func(ctx context.Context, envelope Envelope) (Envelope, error)

// Stage is a named step for [OneByOne].
type Stage struct {
	// Name keys the stage's result among the envelope outputs.
	Name string
	// Collection retargets the envelope before the step runs. Empty keeps the current one.
	Collection string
	// Params are merged into the envelope before the step runs.
	Params Params
	Step   Step
}

// Pipe composes steps left to right. The first failure stops the chain and
// is returned unchanged.
func Pipe(steps ...Step) Step {
	return func(ctx context.Context, envelope Envelope) (Envelope, error) {
		for _, step := range steps {
			next, err := step(ctx, envelope)
			if err != nil {
				return envelope, err
			}
			envelope = next
		}
		return envelope, nil
	}
}

// OneByOne runs stages strictly in order. Each stage sees the params and
// outputs of every stage before it. The first failing stage stops the run;
// nothing is rolled back and later stages never execute.
func OneByOne(stages ...Stage) Step {
	return func(ctx context.Context, envelope Envelope) (Envelope, error) {
		logger := ctxutil.GetLogger(ctx)

		for index, stage := range stages {
			if stage.Collection != "" {
				envelope = envelope.WithCollection(stage.Collection)
			}
			envelope = envelope.WithParams(stage.Params)

			next, err := stage.Step(ctx, envelope)
			if err != nil {
				logger.DebugContext(ctx, "docstore_stage_failed",
					slog.String("stage", stage.Name),
					slog.Int("index", index),
					slog.Any("error", err),
				)
				return envelope, fmt.Errorf("docstore: stage %q: %w", stage.Name, err)
			}

			envelope = next
			if stage.Name != "" {
				envelope = envelope.WithOutput(stage.Name, next.result)
			}
		}

		return envelope, nil
	}
}
