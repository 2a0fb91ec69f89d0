package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/statesynth/mealycache/pkg/incremental"
)

// State is a suspended cache. It holds a detached copy of the model and can be resumed by
// any Oracle with the same symbol types.
type State[I, O comparable] struct {
	snapshot *incremental.Snapshot[I, O]
}

// NewState wraps a snapshot, for example one read back from storage.
func NewState[I, O comparable](snap *incremental.Snapshot[I, O]) *State[I, O] {
	return &State[I, O]{snapshot: snap}
}

func (s *State[I, O]) Snapshot() *incremental.Snapshot[I, O] {
	return s.snapshot
}

// Suspend exports the current model. Later queries do not affect the returned State.
func (o *Oracle[I, O]) Suspend() *State[I, O] {
	return &State[I, O]{snapshot: o.model.Snapshot()}
}

// Resume replaces the model with the one stored in state. A state produced by a different
// model implementation is still used, in its own format, but a warning is logged since the
// cache then behaves differently from how it was configured.
func (o *Oracle[I, O]) Resume(state *State[I, O]) error {
	if state == nil || state.snapshot == nil {
		return ErrNilState
	}

	m, err := incremental.Restore(state.snapshot)
	if err != nil {
		return fmt.Errorf("resume cache: %w", err)
	}

	if current := o.model.Format(); current != m.Format() {
		o.logger.Warn("cache configured for a different model format than the resumed state, this may yield unexpected behavior",
			zap.String("configured", current),
			zap.String("state", m.Format()),
		)
	}

	o.model = m
	return nil
}
