// Package events defines the typed progress and lifecycle events emitted by
// generation runs. Progress events feed streaming sinks; lifecycle events are
// additionally mirrored on the event bus for external observers.
package events

import "time"

type EventType string

// Event bus topic for lifecycle events.
const Topic = "storylab.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Progress events streamed to clients.
	StartEvent     EventType = "start"
	ProgressEvent  EventType = "progress"
	ThemeEvent     EventType = "theme"
	ImageEvent     EventType = "image"
	AnimationEvent EventType = "animation"
	NodeEvent      EventType = "node"
	CompleteEvent  EventType = "complete"
	ErrorEvent     EventType = "error"

	// Lifecycle events mirrored on the event bus.
	RunStartedEvent     EventType = "run.started"
	RunFinishedEvent    EventType = "run.finished"
	RunFailedEvent      EventType = "run.failed"
	StageCompletedEvent EventType = "stage.completed"
)

// Start opens a progress stream and announces the expected item count.
type Start struct {
	ProjectID string `json:"project_id,omitempty"`
	Stage     string `json:"stage,omitempty"`
	Total     int    `json:"total,omitempty"`
}

func (e Start) GetType() EventType {
	return StartEvent
}

// Progress reports how far along a stream is.
type Progress struct {
	Current int    `json:"current"`
	Total   int    `json:"total,omitempty"`
	Message string `json:"message,omitempty"`
}

func (e Progress) GetType() EventType {
	return ProgressEvent
}

// Theme carries one generated theme suggestion.
type Theme struct {
	Index int `json:"index"`
	Theme any `json:"theme"`
}

func (e Theme) GetType() EventType {
	return ThemeEvent
}

// Image carries one generated image.
type Image struct {
	Index   int    `json:"index"`
	Subject string `json:"subject,omitempty"`
	URL     string `json:"url"`
	Model   string `json:"model,omitempty"`
}

func (e Image) GetType() EventType {
	return ImageEvent
}

// Animation carries one generated animation.
type Animation struct {
	Index int    `json:"index"`
	URL   string `json:"url"`
	Model string `json:"model,omitempty"`
}

func (e Animation) GetType() EventType {
	return AnimationEvent
}

// Node reports one finished recipe node during a streamed run.
type Node struct {
	NodeID   string `json:"node_id"`
	NodeName string `json:"node_name,omitempty"`
	Success  bool   `json:"success"`
	Output   any    `json:"output,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (e Node) GetType() EventType {
	return NodeEvent
}

// Complete terminates a stream successfully.
type Complete struct {
	Count  int `json:"count,omitempty"`
	Result any `json:"result,omitempty"`
}

func (e Complete) GetType() EventType {
	return CompleteEvent
}

// Error reports a failure. Fatal errors terminate the stream; non-fatal ones
// describe a skipped item and the stream continues.
type Error struct {
	Message string `json:"message"`
	Fatal   bool   `json:"fatal"`
}

func (e Error) GetType() EventType {
	return ErrorEvent
}

// BaseEvent carries the envelope fields shared by lifecycle events.
type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	ProjectID string    `json:"project_id,omitempty"`
}
