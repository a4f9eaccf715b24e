package host

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Event types written by JSONHandler.
const (
	EventLine    = "line"
	EventOptions = "options"
	EventTimer   = "timer"
	EventPaused  = "paused"
	EventSystem  = "system"
	EventEnd     = "end"
)

// Event is one line of JSONHandler output.
type Event struct {
	Type    string   `json:"type"`
	Text    string   `json:"text,omitempty"`
	Options []Choice `json:"options,omitempty"`
	Ticks   int      `json:"ticks,omitempty"`
}

// Answer is the JSON form of a choice. A bare number is accepted too.
type Answer struct {
	Index int `json:"index"`
}

// JSONHandler implements IOHandler over newline-delimited JSON.
// Lines are not acknowledged; only choices and pauses read input.
type JSONHandler struct {
	Reader  *bufio.Reader
	Encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) emit(e Event) error {
	return h.Encoder.Encode(e)
}

func (h *JSONHandler) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, err := h.Reader.ReadString('\n')
	if err != nil && (err != io.EOF || text == "") {
		return "", err
	}
	return SanitizeInput(strings.TrimSpace(text))
}

func (h *JSONHandler) Line(ctx context.Context, text string) error {
	return h.emit(Event{Type: EventLine, Text: text})
}

// Choose reads either {"index": n} or a bare n. Indices are zero-based.
func (h *JSONHandler) Choose(ctx context.Context, choices []Choice) (int, error) {
	if err := h.emit(Event{Type: EventOptions, Options: choices}); err != nil {
		return -1, err
	}
	text, err := h.readLine(ctx)
	if err != nil {
		return -1, err
	}
	if n, err := strconv.Atoi(text); err == nil {
		return n, nil
	}
	var ans Answer
	if err := json.Unmarshal([]byte(text), &ans); err != nil {
		return -1, fmt.Errorf("failed to decode answer: %w", err)
	}
	return ans.Index, nil
}

func (h *JSONHandler) Wait(ctx context.Context, ticks int) error {
	return h.emit(Event{Type: EventTimer, Ticks: ticks})
}

func (h *JSONHandler) Paused(ctx context.Context) error {
	if err := h.emit(Event{Type: EventPaused}); err != nil {
		return err
	}
	_, err := h.readLine(ctx)
	return err
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.emit(Event{Type: EventSystem, Text: msg})
}

func (h *JSONHandler) End(ctx context.Context) error {
	return h.emit(Event{Type: EventEnd})
}
