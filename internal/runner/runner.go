// Package runner composes the planner, executor, and ledger into the public
// run/status operations. Scripts execute strictly sequentially; the first
// failure halts the remaining plan and leaves earlier results recorded.
package runner

import (
	"context"
	"sort"
	"time"

	"github.com/inside-track/post-deploy-scripts/internal/backend"
	"github.com/inside-track/post-deploy-scripts/internal/executor"
	"github.com/inside-track/post-deploy-scripts/internal/ledger"
	"github.com/inside-track/post-deploy-scripts/internal/planner"
	"github.com/inside-track/post-deploy-scripts/internal/script"
)

// Runner applies and reverts post-deploy scripts against one backend.
type Runner struct {
	backend *backend.Backend
	ledger  *ledger.Ledger
	source  script.Source
	logf    func(format string, args ...any)
}

// Option configures a Runner.
type Option func(*Runner)

// WithLedger overrides the default ledger (table name, schema prefix).
func WithLedger(l *ledger.Ledger) Option {
	return func(r *Runner) { r.ledger = l }
}

// WithLogf sets the progress logger. The default discards everything; the
// ledger layer stays quiet regardless.
func WithLogf(logf func(format string, args ...any)) Option {
	return func(r *Runner) { r.logf = logf }
}

// New returns a Runner over the given backend and script source.
func New(b *backend.Backend, source script.Source, options ...Option) *Runner {
	r := &Runner{
		backend: b,
		source:  source,
		logf:    func(string, ...any) {},
	}
	for _, option := range options {
		option(r)
	}
	if r.ledger == nil {
		r.ledger = ledger.New(b)
	}
	return r
}

// Result reports what a run did. NoOp runs carry a human-readable reason
// ("already up", "already down") instead of being errors.
type Result struct {
	// Versions lists the versions actually executed, in execution order.
	Versions []int64
	NoOp     bool
	Reason   string
}

// Run ensures the ledger, plans the pending scripts for the direction and
// strategy, and executes them one at a time, recording each before moving on.
func (r *Runner) Run(ctx context.Context, dir script.Direction, strat planner.Strategy) (Result, error) {
	if err := r.ledger.Ensure(ctx); err != nil {
		return Result{}, err
	}

	applied, err := r.ledger.Versions(ctx)
	if err != nil {
		return Result{}, err
	}

	catalog, err := r.source.Catalog()
	if err != nil {
		return Result{}, err
	}

	planned, err := planner.Plan(applied, catalog, dir, strat)
	if err != nil {
		return Result{}, err
	}

	if len(planned) == 0 {
		reason := "already up"
		if dir == script.Down {
			reason = "already down"
		}
		r.logf("Scripts %s", reason)
		return Result{NoOp: true, Reason: reason}, nil
	}

	var versions []int64
	for _, desc := range planned {
		start := time.Now()
		outcome, err := executor.Apply(ctx, r.backend, r.ledger, desc, dir)
		if err != nil {
			return Result{Versions: versions}, err
		}
		if !outcome.Executed() {
			r.logf("Script %d_%s %s, skipping", desc.Version, desc.Name, outcome)
			continue
		}
		r.logf("Script %d_%s %s in %s", desc.Version, desc.Name, outcome, time.Since(start).Round(time.Millisecond))
		versions = append(versions, desc.Version)
	}

	return Result{Versions: versions}, nil
}

// State classifies a script in a status report.
type State int

const (
	// StateUp means the version is recorded as applied.
	StateUp State = iota
	// StateDown means the version is known but not applied.
	StateDown
)

func (s State) String() string {
	if s == StateDown {
		return "down"
	}
	return "up"
}

// MissingName marks applied versions whose source file has disappeared from
// the catalog.
const MissingName = "** no source **"

// Entry is one row of a status report.
type Entry struct {
	State   State
	Version int64
	Name    string
}

// Status reports every known script ordered by version: applied versions
// (including ones whose file is gone) and unapplied catalog entries.
func (r *Runner) Status(ctx context.Context) ([]Entry, error) {
	if err := r.ledger.Ensure(ctx); err != nil {
		return nil, err
	}

	applied, err := r.ledger.Versions(ctx)
	if err != nil {
		return nil, err
	}

	catalog, err := r.source.Catalog()
	if err != nil {
		return nil, err
	}

	names := map[int64]string{}
	for _, desc := range catalog {
		names[desc.Version] = desc.Name
	}

	var entries []Entry
	for version := range applied {
		name, ok := names[version]
		if !ok {
			name = MissingName
		}
		entries = append(entries, Entry{State: StateUp, Version: version, Name: name})
	}
	for _, desc := range catalog {
		if !applied[desc.Version] {
			entries = append(entries, Entry{State: StateDown, Version: desc.Version, Name: desc.Name})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Version < entries[j].Version
	})
	return entries, nil
}
