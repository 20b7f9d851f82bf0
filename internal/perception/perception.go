// Package perception turns camera frames into behavior triggers.
//
// Object detection is not implemented: [Stub] never fires and [Scripted]
// replays triggers for tests and manual runs.
package perception

import (
	"context"
	"image"

	"github.com/san-kum/auvctl/internal/behavior"
)

type Perceiver interface {
	Perceive(ctx context.Context, frame image.Image) (behavior.Percept, error)
}

type Stub struct{}

func (Stub) Perceive(ctx context.Context, frame image.Image) (behavior.Percept, error) {
	return behavior.Percept{Frame: frame}, nil
}

// Scripted fires queued triggers on the next Perceive call.
type Scripted struct {
	pending []behavior.Trigger
}

func (s *Scripted) Queue(t ...behavior.Trigger) {
	s.pending = append(s.pending, t...)
}

func (s *Scripted) Perceive(ctx context.Context, frame image.Image) (behavior.Percept, error) {
	p := behavior.Percept{Frame: frame, Triggers: s.pending}
	s.pending = nil
	return p, nil
}
