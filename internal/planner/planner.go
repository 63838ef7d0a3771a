// Package planner computes which scripts a run should execute: the pending
// subsequence for a direction, narrowed by a run strategy, validated for
// duplicate versions and names.
package planner

import (
	"errors"
	"fmt"

	"github.com/inside-track/post-deploy-scripts/internal/script"
)

// ErrNoStrategy is returned when a Strategy selects nothing. It is rejected
// before any backend interaction.
var ErrNoStrategy = errors.New("no run strategy selected: use All, Step, or To")

// Strategy selects how much of the pending sequence to run. Exactly one
// selector should be set; when several are, the first present wins in the
// order All, To, Step.
type Strategy struct {
	// All runs the entire pending sequence.
	All bool
	// To runs up to and including the given version. Zero means unset.
	To int64
	// Step runs the first n pending scripts. Zero means unset.
	Step int
}

type strategyKind int

const (
	strategyNone strategyKind = iota
	strategyAll
	strategyTo
	strategyStep
)

func (s Strategy) kind() strategyKind {
	switch {
	case s.All:
		return strategyAll
	case s.To > 0:
		return strategyTo
	case s.Step > 0:
		return strategyStep
	}
	return strategyNone
}

// DuplicateError reports two planned scripts sharing a version or a name.
// It aborts the run before any script executes.
type DuplicateError struct {
	Version int64
	Name    string
}

func (e *DuplicateError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("duplicate script name %q in plan", e.Name)
	}
	return fmt.Sprintf("duplicate script version %d in plan", e.Version)
}

// Plan computes the ordered list of scripts to execute. Up plans unapplied
// catalog entries in ascending version order; Down plans applied entries in
// descending order, most recently introduced first.
func Plan(applied map[int64]bool, catalog []script.Descriptor, dir script.Direction, strat Strategy) ([]script.Descriptor, error) {
	kind := strat.kind()
	if kind == strategyNone {
		return nil, ErrNoStrategy
	}

	pending := pendingInDirection(applied, catalog, dir)

	var planned []script.Descriptor
	switch kind {
	case strategyAll:
		planned = pending
	case strategyStep:
		n := strat.Step
		if n > len(pending) {
			n = len(pending)
		}
		planned = pending[:n]
	case strategyTo:
		for _, desc := range pending {
			if !withinTarget(desc.Version, strat.To, dir) {
				break
			}
			planned = append(planned, desc)
		}
	}

	if err := checkDuplicates(planned); err != nil {
		return nil, err
	}
	return planned, nil
}

func pendingInDirection(applied map[int64]bool, catalog []script.Descriptor, dir script.Direction) []script.Descriptor {
	var pending []script.Descriptor
	if dir == script.Up {
		for _, desc := range catalog {
			if !applied[desc.Version] {
				pending = append(pending, desc)
			}
		}
		return pending
	}
	for i := len(catalog) - 1; i >= 0; i-- {
		if applied[catalog[i].Version] {
			pending = append(pending, catalog[i])
		}
	}
	return pending
}

// withinTarget is inclusive on both sides, so the target version itself is
// always part of the plan when pending.
func withinTarget(version, target int64, dir script.Direction) bool {
	if dir == script.Up {
		return version <= target
	}
	return version >= target
}

func checkDuplicates(planned []script.Descriptor) error {
	versions := map[int64]bool{}
	names := map[string]bool{}
	for _, desc := range planned {
		if versions[desc.Version] {
			return &DuplicateError{Version: desc.Version}
		}
		if names[desc.Name] {
			return &DuplicateError{Name: desc.Name}
		}
		versions[desc.Version] = true
		names[desc.Name] = true
	}
	return nil
}
