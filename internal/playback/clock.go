// Package playback drives caption display against wall-clock time.
//
// A Clock polls at a fixed interval while Playing. Each tick converts the
// elapsed time to whole seconds and compares it with the truncated start and
// end seconds of the entry at the cursor. Entries are processed strictly in
// index order, so when one entry ends in the same second the next begins,
// the refresh for the first is emitted before the display of the second.
package playback

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/mgpai22/suboverlay/internal/logging"
	"github.com/mgpai22/suboverlay/internal/subtitle"
	"github.com/mgpai22/suboverlay/internal/timeline"
)

var (
	ErrEmptyTimeline  = errors.New("no subtitles loaded")
	ErrSeekOutOfRange = errors.New("seek target is past the last subtitle")
)

const DefaultInterval = 50 * time.Millisecond

type State int

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// size of the surface captions are drawn on
type Dimensions struct {
	Width  int
	Height int
}

// caption position relative to the bottom centre of the surface
type Anchor struct {
	XOffset float64
	YOffset float64
}

func DefaultAnchor() Anchor {
	return Anchor{XOffset: 40, YOffset: 45}
}

func (a Anchor) Position(d Dimensions) (x, y float64) {
	return float64(d.Width)/2 - a.XOffset, float64(d.Height) - a.YOffset
}

// caption due for display
type Caption struct {
	Sequence int
	Text     string
	X        float64
	Y        float64
}

// receives display events; called with the clock lock held, so
// implementations must not call back into the Clock
type Sink interface {
	Display(c Caption)
	Refresh()
}

type Option func(*Clock)

func WithNow(now func() time.Time) Option {
	return func(c *Clock) { c.now = now }
}

func WithInterval(d time.Duration) Option {
	return func(c *Clock) {
		if d > 0 {
			c.interval = d
		}
	}
}

func WithAnchor(a Anchor) Option {
	return func(c *Clock) { c.anchor = a }
}

func WithLogger(l *logging.Logger) Option {
	return func(c *Clock) { c.logger = l.OrNop() }
}

// WithErrorHandler receives failures from the polling task, which pauses
// playback before reporting.
func WithErrorHandler(fn func(error)) Option {
	return func(c *Clock) { c.onError = fn }
}

type Clock struct {
	store    *timeline.Store
	sink     Sink
	now      func() time.Time
	interval time.Duration
	anchor   Anchor
	logger   *logging.Logger
	onError  func(error)

	mu     sync.Mutex
	state  State
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}

	entries []subtitle.Entry
	origin  time.Time
	index   int
	shown   bool
	dims    Dimensions
}

func NewClock(store *timeline.Store, sink Sink, opts ...Option) *Clock {
	c := &Clock{
		store:    store,
		sink:     sink,
		now:      time.Now,
		interval: DefaultInterval,
		anchor:   DefaultAnchor(),
		logger:   logging.Nop(),
		done:     closedChan(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Clock) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Done is closed when the current polling task exits, whether it finished,
// was paused or failed. It is already closed when nothing is playing.
func (c *Clock) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

// Start begins or resumes playback from the persisted cursor. Calling it
// while Playing restarts the polling task from the last persisted cursor.
func (c *Clock) Start(dims Dimensions) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Playing {
		c.stopPollingLocked()
		c.state = Paused
	}

	entries, err := c.store.LoadAll()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return ErrEmptyTimeline
	}

	cursor, _, err := c.store.Cursor()
	if err != nil {
		return err
	}
	if cursor.Index >= len(entries) {
		c.logger.Infow("Playback already complete",
			"index", cursor.Index,
			"entries", len(entries),
		)
		c.state = Stopped
		return nil
	}

	c.entries = entries
	c.index = cursor.Index
	c.shown = false
	c.dims = dims
	c.origin = c.now().Add(-time.Duration(cursor.ElapsedMs) * time.Millisecond)

	c.gen++
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})
	c.state = Playing

	c.logger.Debugw("Playback started",
		"resume_ms", cursor.ElapsedMs,
		"index", cursor.Index,
		"entries", len(entries),
	)

	go c.poll(ctx, c.gen, c.done)
	return nil
}

// Pause stops polling and keeps the persisted cursor. No-op unless Playing.
func (c *Clock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Playing {
		return
	}
	c.stopPollingLocked()
	c.state = Paused
	c.logger.Debugw("Playback paused", "index", c.index)
}

// Seek moves the cursor to the first entry starting at or after seconds.
// Playback, if running, is paused; the caller restarts it.
func (c *Clock) Seek(seconds float64) (subtitle.Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Playing {
		c.stopPollingLocked()
		c.state = Paused
	}
	c.sink.Refresh()

	entries, err := c.store.LoadAll()
	if err != nil {
		return subtitle.Entry{}, err
	}
	if len(entries) == 0 {
		return subtitle.Entry{}, ErrEmptyTimeline
	}

	target := int64(0)
	if !math.IsNaN(seconds) && seconds > 0 {
		// epsilon keeps products like 0.29*1000 from landing just under the millisecond
		target = int64(math.Floor(seconds*1000 + 1e-6))
	}

	for i, e := range entries {
		if e.StartMs < target {
			continue
		}
		if err := c.store.SetCursor(target, i); err != nil {
			return subtitle.Entry{}, err
		}
		c.logger.Debugw("Seeked",
			"target_ms", target,
			"index", i,
			"sequence", e.Sequence,
		)
		return e, nil
	}

	return subtitle.Entry{}, fmt.Errorf("%w: %.3fs", ErrSeekOutOfRange, seconds)
}

// Stop ends playback and forgets the cursor. The timeline stays loaded.
func (c *Clock) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopPollingLocked()
	c.state = Stopped
	c.entries = nil
	return c.store.ClearCursor()
}

// caller holds c.mu. Bumping gen makes any tick already waiting on the
// lock a no-op.
func (c *Clock) stopPollingLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.gen++
}

func (c *Clock) poll(ctx context.Context, gen uint64, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !c.tick(gen) {
				return
			}
		}
	}
}

// tick reports whether polling should continue.
func (c *Clock) tick(gen uint64) bool {
	c.mu.Lock()
	if c.gen != gen || c.state != Playing {
		c.mu.Unlock()
		return false
	}

	finished, err := c.stepLocked()
	if err != nil {
		c.stopPollingLocked()
		c.state = Paused
	} else if finished {
		c.stopPollingLocked()
		c.state = Stopped
		c.logger.Infow("Playback finished", "entries", len(c.entries))
	}
	onError := c.onError
	c.mu.Unlock()

	if err != nil {
		c.logger.Errorw("Playback stopped", "error", err)
		if onError != nil {
			onError(err)
		}
		return false
	}
	return !finished
}

// stepLocked advances the session to the current wall-clock time and
// persists the cursor. Caller holds c.mu.
func (c *Clock) stepLocked() (bool, error) {
	elapsed := c.now().Sub(c.origin).Milliseconds()
	if elapsed < 0 {
		elapsed = 0
	}
	second := elapsed / 1000

	for c.index < len(c.entries) {
		e := c.entries[c.index]
		startSec, endSec := e.StartMs/1000, e.EndMs/1000

		if second < startSec {
			break
		}
		// an entry whose end second already passed is skipped unseen
		if !c.shown && second <= endSec {
			x, y := c.anchor.Position(c.dims)
			c.sink.Display(Caption{Sequence: e.Sequence, Text: e.Text, X: x, Y: y})
			c.shown = true
		}
		if second < endSec {
			break
		}
		if c.shown {
			c.sink.Refresh()
		}
		c.index++
		c.shown = false
	}

	// a finished session leaves no cursor, so the next Start plays from the top
	if c.index >= len(c.entries) {
		return true, c.store.ClearCursor()
	}
	if err := c.store.SetCursor(elapsed, c.index); err != nil {
		return false, err
	}
	return false, nil
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
