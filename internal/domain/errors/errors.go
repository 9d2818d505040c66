package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Error kinds reported by the query tree and the optimizer pipeline.
// Match them with errors.Is.
var (
	ErrAddressResolution   = stderrors.New("address resolution failure")
	ErrStructuralViolation = stderrors.New("structural violation")
	ErrUnsupportedRewrite  = stderrors.New("unsupported rewrite")
)

// OptimizerError carries the diagnostic context of a failed tree operation
// or pipeline stage.
type OptimizerError struct {
	Kind     error  // one of the Err* sentinels above
	Stage    string // pipeline stage, empty for direct tree calls
	Path     string // rendered traversal path
	Operator string // operator kind at (or intended for) the path
	Reason   string
}

func (e *OptimizerError) Error() string {
	var parts []string

	parts = append(parts, e.Kind.Error())

	if e.Stage != "" {
		parts = append(parts, fmt.Sprintf("stage=%s", e.Stage))
	}

	if e.Path != "" {
		parts = append(parts, fmt.Sprintf("path=[%s]", e.Path))
	}

	if e.Operator != "" {
		parts = append(parts, fmt.Sprintf("operator=%s", e.Operator))
	}

	if e.Reason != "" {
		parts = append(parts, e.Reason)
	}

	return strings.Join(parts, " - ")
}

func (e *OptimizerError) Unwrap() error {
	return e.Kind
}

func NewAddressResolution(path, operator, reason string) *OptimizerError {
	return &OptimizerError{
		Kind:     ErrAddressResolution,
		Path:     path,
		Operator: operator,
		Reason:   reason,
	}
}

func NewStructuralViolation(path, operator, reason string) *OptimizerError {
	return &OptimizerError{
		Kind:     ErrStructuralViolation,
		Path:     path,
		Operator: operator,
		Reason:   reason,
	}
}

func NewUnsupportedRewrite(stage, path, operator, reason string) *OptimizerError {
	return &OptimizerError{
		Kind:     ErrUnsupportedRewrite,
		Stage:    stage,
		Path:     path,
		Operator: operator,
		Reason:   reason,
	}
}

// InStage stamps the stage name on err if it is an *OptimizerError without
// one. Other errors are wrapped as an unsupported rewrite of that stage.
func InStage(stage string, err error) error {
	if err == nil {
		return nil
	}
	var oe *OptimizerError
	if stderrors.As(err, &oe) {
		if oe.Stage == "" {
			cp := *oe
			cp.Stage = stage
			return &cp
		}
		return err
	}
	return &OptimizerError{
		Kind:   ErrUnsupportedRewrite,
		Stage:  stage,
		Reason: err.Error(),
	}
}

// QueryError reports a statement rejected by the grammar or the catalog
// checks before optimization starts.
type QueryError struct {
	Clause string // SELECT, FROM, WHERE, GROUP BY, HAVING, JOIN
	Token  string // offending token, if any
	Reason string
}

func (e *QueryError) Error() string {
	var parts []string

	parts = append(parts, "invalid query")

	if e.Clause != "" {
		parts = append(parts, fmt.Sprintf("(%s)", e.Clause))
	}

	if e.Token != "" {
		parts = append(parts, fmt.Sprintf("token=%q", e.Token))
	}

	if e.Reason != "" {
		parts = append(parts, e.Reason)
	}

	return strings.Join(parts, " - ")
}
