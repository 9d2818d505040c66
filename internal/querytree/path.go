package querytree

import (
	"fmt"
	"strings"
)

// Step is one move in a traversal path. As an attachment slot it names the
// side of the pointer node that an operation targets.
type Step int

const (
	None Step = iota
	Left
	Right
	Up
	Down
)

var stepNames = [...]string{
	None:  "NONE",
	Left:  "LEFT",
	Right: "RIGHT",
	Up:    "UP",
	Down:  "DOWN",
}

func (s Step) String() string {
	if s < 0 || int(s) >= len(stepNames) {
		return fmt.Sprintf("Step(%d)", int(s))
	}
	return stepNames[s]
}

// ParseStep is the inverse of Step.String, case-insensitive.
func ParseStep(s string) (Step, error) {
	for i, name := range stepNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return Step(i), nil
		}
	}
	return None, fmt.Errorf("unknown traversal step %q", s)
}

// Path addresses a node relative to the root.
type Path []Step

// Copy returns an independent copy of p.
func (p Path) Copy() Path {
	cp := make(Path, len(p))
	copy(cp, p)
	return cp
}

// Append returns a new path with steps added, leaving p untouched.
func (p Path) Append(steps ...Step) Path {
	cp := make(Path, len(p), len(p)+len(steps))
	copy(cp, p)
	return append(cp, steps...)
}

// Parent returns the path without its last step.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return Path{}
	}
	return p[:len(p)-1].Copy()
}

// Last returns the final step, or None for the root path.
func (p Path) Last() Step {
	if len(p) == 0 {
		return None
	}
	return p[len(p)-1]
}

// HasPrefix reports whether p starts with prefix.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i := range prefix {
		if p[i] != prefix[i] {
			return false
		}
	}
	return true
}

func (p Path) Equal(other Path) bool {
	return len(p) == len(other) && p.HasPrefix(other)
}

func (p Path) String() string {
	if len(p) == 0 {
		return "Root"
	}
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.String()
	}
	return strings.Join(parts, ", ")
}

// ParsePath reads the String form back ("Root" or "DOWN, LEFT").
func ParsePath(s string) (Path, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "Root") {
		return Path{}, nil
	}
	var p Path
	for _, part := range strings.Split(s, ",") {
		step, err := ParseStep(part)
		if err != nil {
			return nil, err
		}
		p = append(p, step)
	}
	return p, nil
}
