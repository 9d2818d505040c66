package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/leengari/mini-optimizer/internal/catalog"
	"github.com/leengari/mini-optimizer/internal/domain/schema"
	"github.com/leengari/mini-optimizer/internal/parser/grammar"
	"github.com/leengari/mini-optimizer/internal/parser/lexer"
	"github.com/leengari/mini-optimizer/internal/planner"
	"github.com/leengari/mini-optimizer/internal/query/validation"
)

// Result is the outcome of explaining one statement.
type Result struct {
	RunID     string
	SQL       string
	Tokens    []string
	Tables    []*schema.Table
	Snapshots []planner.Snapshot
}

// Engine is the main entry point: it checks a statement against the
// grammar and the catalog, then runs the optimizer over it.
type Engine struct {
	catalog   *catalog.Catalog
	grammar   *grammar.RuleGraph
	options   []planner.Option
	logger    *slog.Logger
	observers []Observer // Observers for lifecycle events
}

// New creates an Engine over cat. opts are passed to every optimizer run.
func New(cat *catalog.Catalog, opts ...planner.Option) *Engine {
	return &Engine{
		catalog:   cat,
		grammar:   grammar.Query(),
		options:   opts,
		logger:    slog.Default(),
		observers: make([]Observer, 0),
	}
}

// SetLogger replaces the logger handed to the optimizer.
func (e *Engine) SetLogger(logger *slog.Logger) {
	e.logger = logger
}

func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Explain optimizes sql and returns one snapshot per optimizer stage.
// Observers must be registered before concurrent calls start.
func (e *Engine) Explain(sql string) (*Result, error) {
	runID := uuid.NewString()
	e.notify(Event{Type: EventExplainStart, RunID: runID, Data: sql})

	res, err := e.explain(runID, sql)
	if err != nil {
		e.notify(Event{Type: EventExplainFailed, RunID: runID, Data: err})
		return nil, err
	}
	e.notify(Event{Type: EventExplainEnd, RunID: runID, Data: len(res.Snapshots)})
	return res, nil
}

func (e *Engine) explain(runID, sql string) (*Result, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("no database loaded")
	}

	// 1. Tokenize
	e.notify(Event{Type: EventLexStart, RunID: runID, Data: sql})
	tokens, err := lexer.Split(sql)
	if err != nil {
		return nil, fmt.Errorf("lexer error: %w", err)
	}
	e.notify(Event{Type: EventLexEnd, RunID: runID, Data: len(tokens)})

	// 2. Syntax
	e.notify(Event{Type: EventParseStart, RunID: runID})
	if err := e.grammar.IsSyntacticallyCorrect(tokens); err != nil {
		return nil, fmt.Errorf("syntax error: %w", err)
	}
	e.notify(Event{Type: EventParseEnd, RunID: runID})

	// 3. Catalog checks
	e.notify(Event{Type: EventValidateStart, RunID: runID})
	tables, err := validation.ValidateQuery(e.grammar, tokens, e.catalog)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	e.notify(Event{Type: EventValidateEnd, RunID: runID, Data: len(tables)})

	// 4. Optimize
	e.notify(Event{Type: EventOptimizeStart, RunID: runID})
	opts := append([]planner.Option{planner.WithLogger(e.logger.With("run_id", runID))}, e.options...)
	opts = append(opts, planner.WithStageHook(func(ev planner.StageEvent) {
		e.notify(Event{Type: EventStage, RunID: runID, Data: ev})
	}))
	snapshots, err := planner.New(opts...).Optimize(tokens, tables)
	if err != nil {
		return nil, fmt.Errorf("optimizer error: %w", err)
	}
	e.notify(Event{Type: EventOptimizeEnd, RunID: runID, Data: len(snapshots)})

	return &Result{
		RunID:     runID,
		SQL:       sql,
		Tokens:    tokens,
		Tables:    tables,
		Snapshots: snapshots,
	}, nil
}

// ListTables returns the names of the tables in the loaded catalog.
func (e *Engine) ListTables() ([]string, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("no database loaded")
	}
	return e.catalog.Names(), nil
}

// AddObserver registers an observer to receive lifecycle events
func (e *Engine) AddObserver(observer Observer) {
	e.observers = append(e.observers, observer)
}

// RemoveObserver unregisters an observer
func (e *Engine) RemoveObserver(observer Observer) {
	for i, o := range e.observers {
		if o == observer {
			e.observers = append(e.observers[:i], e.observers[i+1:]...)
			return
		}
	}
}

// notify sends an event to all registered observers
func (e *Engine) notify(event Event) {
	event.Timestamp = time.Now()
	for _, observer := range e.observers {
		observer.OnEvent(event)
	}
}
