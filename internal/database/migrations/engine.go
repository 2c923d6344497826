// Package migrations walks a persisted store forward through every schema
// version it missed.
//
// Versions are consecutive integers kept in SQLite's PRAGMA user_version.
// Steps is a table indexed by version: the step at index i moves the store
// from BaseVersion+i to BaseVersion+i+1. Opening a store at version v runs
// every step from v to CurrentVersion, in order, inside a single transaction.
// A failing step rolls the whole chain back and is fatal: a half-migrated
// store cannot be told apart from a fully migrated one by its version number.
// There is no downgrade path.
package migrations

import (
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"
)

// BaseVersion is the oldest schema version that can still be upgraded.
const BaseVersion = 1

var (
	// ErrUnversionedStore means the store has tables but no version marker.
	// Its schema cannot be identified, so nothing is guessed.
	ErrUnversionedStore = errors.New("store has tables but no schema version")

	// ErrFutureVersion means the store was written by a newer release.
	ErrFutureVersion = errors.New("store schema is newer than this build")
)

// StepFunc mutates schema and/or rows inside the migration transaction.
type StepFunc func(tx *gorm.DB) error

// Step moves the store from To-1 to To.
type Step struct {
	To    int
	Name  string
	Apply StepFunc
}

// StepError is the fatal error returned when a step fails. Nothing from the
// failed open is committed.
type StepError struct {
	From int
	To   int
	Name string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("migration %d -> %d (%s): %v", e.From, e.To, e.Name, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Result describes what an engine run did.
type Result struct {
	From    int      `json:"from"`
	To      int      `json:"to"`
	Fresh   bool     `json:"fresh"`
	Applied []string `json:"applied,omitempty"`
}

// Engine runs an ordered list of steps.
type Engine struct {
	steps  []Step
	create StepFunc
	target int
}

// NewEngine validates that steps form a gap-free chain starting at
// BaseVersion. create builds the current schema on an empty store.
func NewEngine(create StepFunc, steps []Step) (*Engine, error) {
	for i, step := range steps {
		if want := BaseVersion + i + 1; step.To != want {
			return nil, fmt.Errorf("step %d (%s) targets version %d, want %d", i, step.Name, step.To, want)
		}
		if step.Apply == nil {
			return nil, fmt.Errorf("step %d (%s) has no apply function", i, step.Name)
		}
	}
	return &Engine{
		steps:  steps,
		create: create,
		target: BaseVersion + len(steps),
	}, nil
}

// Default returns the engine for the schema history of this build.
func Default() *Engine {
	engine, err := NewEngine(CreateSchema, Steps)
	if err != nil {
		panic(err)
	}
	return engine
}

// Target is the version a successful run leaves the store at.
func (e *Engine) Target() int {
	return e.target
}

// Steps returns the step table.
func (e *Engine) Steps() []Step {
	return e.steps
}

// Version reads the persisted version marker.
func Version(db *gorm.DB) (int, error) {
	var version int
	if err := db.Raw("PRAGMA user_version").Scan(&version).Error; err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}

func setVersion(tx *gorm.DB, version int) error {
	// PRAGMA arguments cannot be bound parameters.
	if err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", version)).Error; err != nil {
		return fmt.Errorf("write schema version %d: %w", version, err)
	}
	return nil
}

// Run brings db to Target. Calling it again on a current store is a no-op.
func (e *Engine) Run(db *gorm.DB) (Result, error) {
	from, err := Version(db)
	if err != nil {
		return Result{}, err
	}
	result := Result{From: from, To: from}

	switch {
	case from > e.target:
		return result, fmt.Errorf("version %d, build supports %d: %w", from, e.target, ErrFutureVersion)
	case from == e.target:
		return result, nil
	case from == 0:
		return e.createFresh(db)
	case from < BaseVersion:
		return result, fmt.Errorf("version %d is older than %d", from, BaseVersion)
	}

	pending := e.steps[from-BaseVersion:]
	log.Printf("[MIGRATE] upgrading store from version %d to %d (%d steps)", from, e.target, len(pending))

	var applied []string
	err = db.Transaction(func(tx *gorm.DB) error {
		for _, step := range pending {
			log.Printf("[MIGRATE] %d -> %d: %s", step.To-1, step.To, step.Name)
			if err := step.Apply(tx); err != nil {
				return &StepError{From: step.To - 1, To: step.To, Name: step.Name, Err: err}
			}
			if err := setVersion(tx, step.To); err != nil {
				return &StepError{From: step.To - 1, To: step.To, Name: step.Name, Err: err}
			}
			applied = append(applied, step.Name)
		}
		return nil
	})
	if err != nil {
		log.Printf("[MIGRATE] upgrade aborted, store left at version %d: %v", from, err)
		return result, err
	}

	result.To = e.target
	result.Applied = applied
	log.Printf("[MIGRATE] store is at version %d", e.target)
	return result, nil
}

func (e *Engine) createFresh(db *gorm.DB) (Result, error) {
	if db.Migrator().HasTable("books") {
		return Result{}, ErrUnversionedStore
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := e.create(tx); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		return setVersion(tx, e.target)
	})
	if err != nil {
		return Result{}, err
	}
	log.Printf("[MIGRATE] created empty store at version %d", e.target)
	return Result{From: 0, To: e.target, Fresh: true}, nil
}
