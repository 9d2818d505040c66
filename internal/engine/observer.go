package engine

import "time"

// EventType represents different lifecycle phases of an explain run
type EventType string

const (
	EventExplainStart  EventType = "explain_start"
	EventLexStart      EventType = "lex_start"
	EventLexEnd        EventType = "lex_end"
	EventParseStart    EventType = "parse_start"
	EventParseEnd      EventType = "parse_end"
	EventValidateStart EventType = "validate_start"
	EventValidateEnd   EventType = "validate_end"
	EventOptimizeStart EventType = "optimize_start"
	EventStage         EventType = "optimizer_stage" // Data is a planner.StageEvent
	EventOptimizeEnd   EventType = "optimize_end"
	EventExplainEnd    EventType = "explain_end"
	EventExplainFailed EventType = "explain_failed" // Data is the error
)

// Event represents a lifecycle event of an explain run
type Event struct {
	Type      EventType // Type of event
	RunID     string    // Explain run ID for tracing
	Timestamp time.Time // When the event occurred
	Data      any       // Phase-specific data (e.g., SQL, token count, stage result)
}

// Observer interface for event subscribers
// Observers receive events at major phases. Explain may run concurrently,
// so OnEvent must be safe for concurrent use.
type Observer interface {
	OnEvent(event Event)
}
