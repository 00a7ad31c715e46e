package overlay

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/mgpai22/suboverlay/internal/logging"
	"github.com/mgpai22/suboverlay/internal/playback"
	"github.com/mgpai22/suboverlay/internal/subtitle"
	"github.com/mgpai22/suboverlay/internal/timeline"
)

const runtimeBanner = "Playing back: '$' (Runtime: $ [$ms])..."

// Emitter delivers directives to the renderer. Emit may be called from the
// playback goroutine and must not block on the Engine.
type Emitter interface {
	Emit(d Directive) error
}

type EmitterFunc func(d Directive) error

func (f EmitterFunc) Emit(d Directive) error {
	return f(d)
}

type Option func(*Engine)

func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) { e.logger = l.OrNop() }
}

func WithAnchor(a playback.Anchor) Option {
	return func(e *Engine) { e.anchor = a }
}

// WithDefaultDimensions sets the surface size used when a message carries none.
func WithDefaultDimensions(d playback.Dimensions) Option {
	return func(e *Engine) {
		if d.Width > 0 && d.Height > 0 {
			e.dims = d
		}
	}
}

// WithClockOptions passes options through to the playback clock.
func WithClockOptions(opts ...playback.Option) Option {
	return func(e *Engine) { e.clockOpts = append(e.clockOpts, opts...) }
}

// Engine dispatches inbound messages to the timeline and the playback clock.
type Engine struct {
	store     *timeline.Store
	clock     *playback.Clock
	out       Emitter
	anchor    playback.Anchor
	logger    *logging.Logger
	clockOpts []playback.Option

	mu   sync.Mutex
	dims playback.Dimensions
}

func NewEngine(store *timeline.Store, out Emitter, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		out:    out,
		anchor: playback.DefaultAnchor(),
		logger: logging.Nop(),
		dims:   playback.Dimensions{Width: 640, Height: 340},
	}
	for _, opt := range opts {
		opt(e)
	}

	clockOpts := append([]playback.Option{
		playback.WithAnchor(e.anchor),
		playback.WithLogger(e.logger),
		playback.WithErrorHandler(e.reportError),
	}, e.clockOpts...)
	e.clock = playback.NewClock(store, sinkFor(e), clockOpts...)
	return e
}

func (e *Engine) Clock() *playback.Clock {
	return e.clock
}

// Handle runs one command. Failures are sent to the renderer as an error
// directive and also returned.
func (e *Engine) Handle(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var err error
	switch msg.Action {
	case ActionLoad:
		err = e.load(msg)
	case ActionPlay:
		err = e.play(msg)
	case ActionPause:
		e.clock.Pause()
	case ActionSeeking:
		err = e.seek(msg)
	case ActionClear:
		err = e.clock.Stop()
	case ActionInfo:
		err = e.info(msg)
	default:
		err = fmt.Errorf("unknown action %q", msg.Action)
	}

	if err != nil {
		e.logger.Warnw("Command failed", "action", msg.Action, "error", err)
		e.reportError(err)
		return err
	}
	e.logger.Debugw("Command handled", "action", msg.Action, "state", e.clock.State().String())
	return nil
}

// Close stops polling and keeps the cursor for a later session.
func (e *Engine) Close() {
	e.clock.Pause()
}

func (e *Engine) load(msg Message) error {
	// a rejected transcript leaves playback running
	entries, err := subtitle.ParseTranscript(msg.Lines)
	if err != nil {
		return err
	}

	// nothing may write the cursor while the timeline is replaced
	e.clock.Pause()
	if err := e.store.Replace(entries, msg.Filename); err != nil {
		return err
	}
	if err := e.clock.Stop(); err != nil {
		return err
	}

	e.logger.Infow("Loaded subtitles",
		"filename", msg.Filename,
		"entries", len(entries),
	)
	return nil
}

func (e *Engine) play(msg Message) error {
	dims := e.dimensions(msg.Info)

	if e.clock.State() == playback.Stopped {
		if err := e.announce(dims); err != nil {
			return err
		}
	}
	return e.clock.Start(dims)
}

// announce shows the runtime banner. Nothing is shown for an empty
// timeline; Start reports that case.
func (e *Engine) announce(dims playback.Dimensions) error {
	runtime, err := e.store.Runtime()
	if err != nil {
		return err
	}
	if runtime == 0 {
		return nil
	}
	name, err := e.store.Filename()
	if err != nil {
		return err
	}

	ms := runtime.Milliseconds()
	text := Substitute(runtimeBanner, []string{name, FormatClock(ms), strconv.FormatInt(ms, 10)})
	return e.emit(InfoDirective(e.place(text, dims)))
}

func (e *Engine) seek(msg Message) error {
	entry, err := e.clock.Seek(msg.Time)
	if err != nil {
		return err
	}
	e.logger.Debugw("Seek target", "time", msg.Time, "sequence", entry.Sequence)
	return nil
}

func (e *Engine) info(msg Message) error {
	text := Substitute(msg.Text, msg.Params)
	return e.emit(InfoDirective(e.place(text, e.dimensions(msg.Info))))
}

// dimensions returns the message's size, remembering it, or the last size seen.
func (e *Engine) dimensions(v *VideoInfo) playback.Dimensions {
	e.mu.Lock()
	defer e.mu.Unlock()
	if d, ok := v.dimensions(); ok {
		e.dims = d
	}
	return e.dims
}

func (e *Engine) place(text string, dims playback.Dimensions) Placement {
	x, y := e.anchor.Position(dims)
	return Placement{Text: text, X: x, Y: y}
}

func (e *Engine) emit(d Directive) error {
	if err := e.out.Emit(d); err != nil {
		return fmt.Errorf("failed to emit %s directive: %w", d.Type, err)
	}
	return nil
}

func (e *Engine) reportError(err error) {
	if emitErr := e.out.Emit(ErrorDirective(err)); emitErr != nil {
		e.logger.Errorw("Failed to report error", "error", err, "emit_error", emitErr)
	}
}

// sink turns clock events into directives
type sink struct {
	e *Engine
}

func sinkFor(e *Engine) playback.Sink {
	return sink{e: e}
}

func (s sink) Display(c playback.Caption) {
	err := s.e.out.Emit(SubtitleDirective(Placement{Text: c.Text, X: c.X, Y: c.Y}))
	if err != nil {
		s.e.logger.Warnw("Failed to emit subtitle", "sequence", c.Sequence, "error", err)
	}
}

func (s sink) Refresh() {
	if err := s.e.out.Emit(RefreshDirective()); err != nil {
		s.e.logger.Warnw("Failed to emit refresh", "error", err)
	}
}
