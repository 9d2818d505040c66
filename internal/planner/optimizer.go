package planner

import (
	"log/slog"
	"strings"
	"time"

	"github.com/leengari/mini-optimizer/internal/domain/errors"
	"github.com/leengari/mini-optimizer/internal/domain/schema"
	"github.com/leengari/mini-optimizer/internal/parser/grammar"
	"github.com/leengari/mini-optimizer/internal/querytree"
)

// Stage names one step of the optimizer pipeline.
type Stage string

const (
	StageBuild               Stage = "build"
	StageCascade             Stage = "cascade"
	StagePushDownSelections  Stage = "push-down selections"
	StageFormJoins           Stage = "form joins"
	StageRearrangeLeaves     Stage = "rearrange leaves"
	StagePushDownProjections Stage = "push-down projections"
	StagePipeline            Stage = "pipeline"
)

// Stages lists the pipeline stages in execution order.
func Stages() []Stage {
	return []Stage{
		StageBuild,
		StageCascade,
		StagePushDownSelections,
		StageFormJoins,
		StageRearrangeLeaves,
		StagePushDownProjections,
		StagePipeline,
	}
}

// StageEvent is handed to the stage hook when a stage finishes.
type StageEvent struct {
	Stage     Stage
	Duration  time.Duration
	Nodes     int
	Snapshots int
	Err       error
}

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithRearrangeLeaves turns the leaf reordering stage on or off. When off
// the stage still emits a snapshot identical to its predecessor.
func WithRearrangeLeaves(enabled bool) Option {
	return func(o *Optimizer) { o.rearrange = enabled }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Optimizer) { o.logger = logger }
}

// WithStageHook registers fn to be called after every stage, including a
// failing one.
func WithStageHook(fn func(StageEvent)) Option {
	return func(o *Optimizer) { o.hook = fn }
}

// Optimizer turns a validated statement into a sequence of snapshots, one
// per rewrite stage. An Optimizer holds no per-query state and may be used
// from several goroutines.
type Optimizer struct {
	grammar   *grammar.RuleGraph
	rearrange bool
	logger    *slog.Logger
	hook      func(StageEvent)
}

func New(opts ...Option) *Optimizer {
	o := &Optimizer{
		grammar:   grammar.Query(),
		rearrange: true,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// rewrite mutates a private copy of the previous stage's tree.
type rewrite struct {
	stage Stage
	apply func(r *run, tree *querytree.QueryTree) error
}

func (o *Optimizer) rewrites() []rewrite {
	rearrange := rearrangeLeaves
	if !o.rearrange {
		rearrange = func(*run, *querytree.QueryTree) error { return nil }
	}
	return []rewrite{
		{StageCascade, cascadeSelections},
		{StagePushDownSelections, pushDownSelections},
		{StageFormJoins, formJoins},
		{StageRearrangeLeaves, rearrange},
		{StagePushDownProjections, pushDownProjections},
	}
}

// Optimize runs every stage over the statement in tokens. tables holds the
// metadata of the tables the statement names. On failure no snapshots are
// returned and the error carries the failing stage.
func (o *Optimizer) Optimize(tokens []string, tables []*schema.Table) ([]Snapshot, error) {
	r := newRun(tables)
	var snapshots []Snapshot

	// 1. Build the naive tree
	start := time.Now()
	tree, err := r.build(o.grammar, tokens)
	if err == nil {
		err = tree.Validate()
	}
	if err == nil {
		snapshots, err = r.appendSnapshot(snapshots, StageBuild, tree, nil)
	}
	if err := o.finish(StageBuild, start, tree, 1, err); err != nil {
		return nil, err
	}

	// 2. Rewrite stages, each on its own copy
	for _, rw := range o.rewrites() {
		start = time.Now()
		next, err := tree.Clone()
		if err == nil {
			err = rw.apply(r, next)
		}
		if err == nil {
			err = next.Validate()
		}
		if err == nil {
			snapshots, err = r.appendSnapshot(snapshots, rw.stage, next, nil)
		}
		if err := o.finish(rw.stage, start, next, 1, err); err != nil {
			return nil, err
		}
		tree = next
	}

	// 3. One snapshot per pipeline
	start = time.Now()
	pipelines, err := partitionPipelines(tree)
	for _, p := range pipelines {
		if err != nil {
			break
		}
		snapshots, err = r.appendSnapshot(snapshots, StagePipeline, tree, p)
	}
	if err := o.finish(StagePipeline, start, tree, len(pipelines), err); err != nil {
		return nil, err
	}
	return snapshots, nil
}

func (o *Optimizer) finish(stage Stage, start time.Time, tree *querytree.QueryTree, snapshots int, err error) error {
	err = errors.InStage(string(stage), err)
	ev := StageEvent{Stage: stage, Duration: time.Since(start), Snapshots: snapshots, Err: err}
	if tree != nil {
		ev.Nodes = tree.Size()
	}
	if err != nil {
		ev.Snapshots = 0
		o.logger.Warn("optimizer stage failed", "stage", stage, "error", err)
	} else {
		o.logger.Debug("optimizer stage", "stage", stage, "nodes", ev.Nodes, "duration", ev.Duration)
	}
	if o.hook != nil {
		o.hook(ev)
	}
	return err
}

// run carries the metadata of one Optimize call.
type run struct {
	tables []*schema.Table
	byName map[string]*schema.Table
}

func newRun(tables []*schema.Table) *run {
	r := &run{byName: make(map[string]*schema.Table, len(tables))}
	for _, t := range tables {
		if t == nil {
			continue
		}
		r.tables = append(r.tables, t)
		r.byName[strings.ToLower(t.Name)] = t
	}
	return r
}

func (r *run) table(name string) (*schema.Table, bool) {
	t, ok := r.byName[strings.ToLower(name)]
	return t, ok
}
