package host

import (
	"context"
	"errors"

	"github.com/aretw0/threadbare/pkg/script"
)

// ErrInvalidChoice is reported to the player when an option index is out of
// range or names a disabled option.
var ErrInvalidChoice = errors.New("invalid choice")

// Choice is one option as presented to the player.
type Choice struct {
	Index   int    `json:"index"`
	Text    string `json:"text"`
	Enabled bool   `json:"enabled"`
}

// IOHandler defines the strategy for interacting with the player.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Line presents a line of dialogue and returns once it is acknowledged.
	Line(ctx context.Context, text string) error

	// Choose presents the choices and returns the index the player picked.
	// The loop validates the index and asks again on a bad one.
	Choose(ctx context.Context, choices []Choice) (int, error)

	// Wait announces a timer suspension of the given number of ticks.
	// It must not block; the loop does the pacing.
	Wait(ctx context.Context, ticks int) error

	// Paused blocks until the player (or an external trigger) resumes the story.
	Paused(ctx context.Context) error

	// SystemOutput presents a meta-message (errors, status) distinct from dialogue.
	SystemOutput(ctx context.Context, msg string) error

	// End is called once when the runner goes Off.
	End(ctx context.Context) error
}

// ContentRenderer transforms line text before it is written, e.g. markdown to ANSI.
type ContentRenderer func(string) (string, error)

// Choices lists the runner's current options.
func Choices(r *script.Runner) []Choice {
	opts := r.Options().All()
	out := make([]Choice, len(opts))
	for i := range opts {
		out[i] = Choice{Index: i, Text: opts[i].String(), Enabled: opts[i].Enabled()}
	}
	return out
}

// ValidChoice reports whether i names an enabled option.
func ValidChoice(choices []Choice, i int) bool {
	return i >= 0 && i < len(choices) && choices[i].Enabled
}
