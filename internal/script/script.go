// Package script defines the units the runner executes: versioned one-shot
// scripts with forward and backward entry points, discovered either from a
// directory of SQL files or from an in-process registry.
package script

import (
	"context"
	"fmt"

	"github.com/inside-track/post-deploy-scripts/internal/backend"
)

// Direction is the way a script runs: Up applies it, Down reverts it.
type Direction int

const (
	Up Direction = iota
	Down
)

func (d Direction) String() string {
	if d == Down {
		return "down"
	}
	return "up"
}

// Exec runs one side of a script against the backend.
type Exec func(ctx context.Context, ex backend.Execer) error

// ChangeExec runs a bidirectional script in the given direction.
type ChangeExec func(ctx context.Context, ex backend.Execer, dir Direction) error

// Body is the runnable unit behind a descriptor. Exactly one shape is
// expected: an Up/Down pair (either side may be nil) or a single Change.
// Up/Down take precedence over Change when both are present.
type Body struct {
	Up     Exec
	Down   Exec
	Change ChangeExec

	// NoTransaction opts the script out of transactional wrapping even on
	// backends that support it.
	NoTransaction bool
}

// Entry resolves the entry point for the requested direction.
func (b *Body) Entry(dir Direction) (Exec, error) {
	if dir == Up {
		if b.Up != nil {
			return b.Up, nil
		}
	} else {
		if b.Down != nil {
			return b.Down, nil
		}
	}
	if b.Change != nil {
		change := b.Change
		return func(ctx context.Context, ex backend.Execer) error {
			return change(ctx, ex, dir)
		}, nil
	}
	return nil, nil
}

func (b *Body) empty() bool {
	return b.Up == nil && b.Down == nil && b.Change == nil
}

// Descriptor identifies one runnable script in a catalog.
type Descriptor struct {
	Version int64
	Name    string

	// Path is the source file for directory-discovered scripts; empty for
	// registered in-process scripts.
	Path string

	load func() (*Body, error)
}

// Resolve loads the script's body. A unit that exposes no entry points at
// all resolves to a NotAScriptError.
func (d Descriptor) Resolve() (*Body, error) {
	if d.load == nil {
		return nil, &NotAScriptError{Version: d.Version, Name: d.Name}
	}
	body, err := d.load()
	if err != nil {
		return nil, err
	}
	if body == nil || body.empty() {
		return nil, &NotAScriptError{Version: d.Version, Name: d.Name}
	}
	return body, nil
}

// Source produces the ordered catalog of scripts available for execution.
// The catalog is rebuilt on every call so on-disk changes are picked up.
type Source interface {
	Catalog() ([]Descriptor, error)
}

// NotAScriptError indicates a resolved unit exposes none of up, down, or
// change.
type NotAScriptError struct {
	Version int64
	Name    string
}

func (e *NotAScriptError) Error() string {
	return fmt.Sprintf("script %d_%s is not a runnable script: it defines no up, down, or change entry point", e.Version, e.Name)
}

// RunError indicates a script exposes neither the requested direction's
// entry point nor a change entry point.
type RunError struct {
	Version   int64
	Name      string
	Direction Direction
}

func (e *RunError) Error() string {
	return fmt.Sprintf("script %d_%s does not implement %s or change", e.Version, e.Name, e.Direction)
}
