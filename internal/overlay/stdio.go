package overlay

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
)

// JSONLineWriter writes one directive per line. Safe for concurrent use.
type JSONLineWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewJSONLineWriter(w io.Writer) *JSONLineWriter {
	return &JSONLineWriter{enc: json.NewEncoder(w)}
}

func (w *JSONLineWriter) Emit(d Directive) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(d)
}

// ReadMessage returns the next non-blank line from r, trimmed.
func ReadMessage(r *bufio.Reader) ([]byte, error) {
	for {
		line, err := r.ReadBytes('\n')
		trimmed := bytes.TrimSpace(line)
		if err != nil {
			if errors.Is(err, io.EOF) && len(trimmed) > 0 {
				return trimmed, nil
			}
			return nil, err
		}
		if len(trimmed) == 0 {
			continue
		}
		return trimmed, nil
	}
}

// Serve reads line-delimited JSON messages from r and hands each to the
// engine. Malformed lines are reported through out and skipped. Serve
// returns nil at end of input and ctx.Err() when cancelled.
func Serve(ctx context.Context, e *Engine, r io.Reader, out Emitter) error {
	type result struct {
		line []byte
		err  error
	}

	lines := make(chan result)
	go func() {
		defer close(lines)
		br := bufio.NewReader(r)
		for {
			line, err := ReadMessage(br)
			select {
			case lines <- result{line: line, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case res, ok := <-lines:
			if !ok {
				return ctx.Err()
			}
			if res.err != nil {
				if errors.Is(res.err, io.EOF) {
					return nil
				}
				return fmt.Errorf("failed to read message: %w", res.err)
			}

			var msg Message
			if err := json.Unmarshal(res.line, &msg); err != nil {
				if emitErr := out.Emit(ErrorDirective(fmt.Errorf("malformed message: %w", err))); emitErr != nil {
					return emitErr
				}
				continue
			}
			// failures are already reported to the renderer
			_ = e.Handle(ctx, msg)
		}
	}
}
