package host

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
)

// TextHandler implements the standard text-based interface.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer

	// AckLines makes Line wait for Enter before the story continues.
	AckLines bool

	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithLineAck makes every line wait for Enter.
func WithLineAck(ack bool) TextHandlerOption {
	return func(h *TextHandler) {
		h.AckLines = ack
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader: bufio.NewReader(r),
		Writer: w,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// initPump starts the reader goroutine so reads can be abandoned on ctx cancel.
func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

func (h *TextHandler) pump() {
	for {
		text, err := h.Reader.ReadString('\n')
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}
		if err != nil {
			if err != io.EOF {
				h.inputChan <- inputResult{err: err}
			}
			close(h.inputChan)
			return
		}
	}
}

func (h *TextHandler) read(ctx context.Context, prompt string) (string, error) {
	h.initPump()
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
			fmt.Fprint(h.Writer, prompt)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res, ok := <-h.inputChan:
			if !ok {
				return "", io.EOF
			}
			if res.err != nil {
				return "", res.err
			}
			clean, err := SanitizeInput(strings.TrimSpace(res.text))
			if err != nil {
				fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
				continue
			}
			return clean, nil
		}
	}
}

func (h *TextHandler) Line(ctx context.Context, text string) error {
	output := text
	if h.Renderer != nil {
		if rendered, err := h.Renderer(text); err == nil {
			output = rendered
		}
	}
	fmt.Fprintln(h.Writer, strings.TrimSpace(output))
	if !h.AckLines {
		return nil
	}
	_, err := h.read(ctx, "")
	return err
}

// Choose lists choices numbered from 1; disabled ones are shown struck out.
func (h *TextHandler) Choose(ctx context.Context, choices []Choice) (int, error) {
	for _, c := range choices {
		if c.Enabled {
			fmt.Fprintf(h.Writer, "  %d) %s\n", c.Index+1, c.Text)
		} else {
			fmt.Fprintf(h.Writer, "  -) %s\n", c.Text)
		}
	}
	for {
		text, err := h.read(ctx, "> ")
		if err != nil {
			return -1, err
		}
		n, err := strconv.Atoi(text)
		if err != nil {
			fmt.Fprintf(h.Writer, "Please enter a number between 1 and %d.\n", len(choices))
			continue
		}
		return n - 1, nil
	}
}

func (h *TextHandler) Wait(ctx context.Context, ticks int) error {
	return nil
}

func (h *TextHandler) Paused(ctx context.Context) error {
	_, err := h.read(ctx, "[paused, press Enter] ")
	return err
}

func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	fmt.Fprintf(h.Writer, "[System] %s\n", msg)
	return nil
}

func (h *TextHandler) End(ctx context.Context) error {
	fmt.Fprintln(h.Writer, "[The End]")
	return nil
}
