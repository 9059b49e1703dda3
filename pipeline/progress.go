package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pterm/pterm"

	"github.com/teranos/slideinspo/sym"
)

// Emitter receives batch progress. Implementations include:
// - CLIEmitter: pretty terminal output using pterm
// - JSONEmitter: one JSON event per line for scripts
// - the server's websocket hub
//
// The orchestrator serializes calls, so implementations need no locking of
// their own for a single batch.
type Emitter interface {
	// EmitStage announces a phase of work ("storyline", "resolve", "markup")
	EmitStage(stage string, message string)
	// EmitItem reports one finished item; items may finish out of order
	EmitItem(item Item)
	// EmitComplete reports the final counts
	EmitComplete(summary Summary)
	// EmitError reports a failure that stopped the batch
	EmitError(stage string, err error)
}

// Event is the serialized form of an emitter call
type Event struct {
	Type      string                 `json:"type"` // "stage", "item", "complete", "error"
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// StageEvent builds a "stage" event
func StageEvent(stage, message string) Event {
	return Event{Type: "stage", Timestamp: time.Now(), Data: map[string]interface{}{
		"stage":   stage,
		"message": message,
	}}
}

// ItemEvent builds an "item" event
func ItemEvent(item Item) Event {
	return Event{Type: "item", Timestamp: time.Now(), Data: map[string]interface{}{
		"item": item,
	}}
}

// CompleteEvent builds a "complete" event
func CompleteEvent(summary Summary) Event {
	return Event{Type: "complete", Timestamp: time.Now(), Data: map[string]interface{}{
		"summary": summary,
	}}
}

// ErrorEvent builds an "error" event
func ErrorEvent(stage string, err error) Event {
	return Event{Type: "error", Timestamp: time.Now(), Data: map[string]interface{}{
		"stage": stage,
		"error": err.Error(),
	}}
}

// CLIEmitter prints progress to the terminal
type CLIEmitter struct {
	verbosity int
}

// NewCLIEmitter creates a CLI progress emitter
func NewCLIEmitter(verbosity int) *CLIEmitter {
	return &CLIEmitter{verbosity: verbosity}
}

// EmitStage prints a stage announcement
func (e *CLIEmitter) EmitStage(stage string, message string) {
	pterm.Printf("%s %s: %s\n", sym.StageSymbol(stage), pterm.LightCyan(stage), message)
}

// EmitItem prints one resolved item
func (e *CLIEmitter) EmitItem(item Item) {
	switch item.Status {
	case StatusOK:
		pterm.Printf("%s %s %s\n", pterm.Green(sym.Slide), item.Label, describe(item))
	case StatusFailed:
		pterm.Printf("%s %s %s\n", pterm.Red(sym.Missing), item.Label, pterm.Red(item.Error))
	default:
		pterm.Printf("%s %s %s\n", pterm.Yellow(sym.Missing), item.Label, pterm.Gray("no matching slide"))
	}
	if e.verbosity >= 2 {
		pterm.Printf("    %s\n", pterm.Gray(item.Storypoint))
	}
}

// EmitComplete prints the summary
func (e *CLIEmitter) EmitComplete(summary Summary) {
	pterm.Success.Printf("Resolved %d of %d slides\n", summary.OK, summary.Total)
	if e.verbosity >= 1 && (summary.NotFound > 0 || summary.Failed > 0) {
		pterm.Printf("  not found: %d, failed: %d\n", summary.NotFound, summary.Failed)
	}
}

// EmitError prints an error
func (e *CLIEmitter) EmitError(stage string, err error) {
	pterm.Error.Printf("Error in %s: %v\n", stage, err)
}

func describe(item Item) string {
	switch {
	case item.Artifact.Path != "":
		return item.Artifact.Path
	case item.Slide != nil:
		return item.Slide.String()
	default:
		return fmt.Sprintf("%d bytes of markup", len(item.Artifact.Markup))
	}
}

// JSONEmitter writes one JSON event per line
type JSONEmitter struct {
	mu      sync.Mutex
	encoder *json.Encoder
}

// NewJSONEmitter creates a JSON progress emitter writing to w
func NewJSONEmitter(w io.Writer) *JSONEmitter {
	return &JSONEmitter{encoder: json.NewEncoder(w)}
}

func (e *JSONEmitter) emit(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	_ = e.encoder.Encode(ev)
}

// EmitStage emits a stage event
func (e *JSONEmitter) EmitStage(stage string, message string) { e.emit(StageEvent(stage, message)) }

// EmitItem emits an item event
func (e *JSONEmitter) EmitItem(item Item) { e.emit(ItemEvent(item)) }

// EmitComplete emits a completion event
func (e *JSONEmitter) EmitComplete(summary Summary) { e.emit(CompleteEvent(summary)) }

// EmitError emits an error event
func (e *JSONEmitter) EmitError(stage string, err error) { e.emit(ErrorEvent(stage, err)) }

// NopEmitter discards progress
type NopEmitter struct{}

func (NopEmitter) EmitStage(string, string) {}
func (NopEmitter) EmitItem(Item)            {}
func (NopEmitter) EmitComplete(Summary)     {}
func (NopEmitter) EmitError(string, error)  {}
