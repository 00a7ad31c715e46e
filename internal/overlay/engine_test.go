package overlay

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/mgpai22/suboverlay/internal/kv"
	"github.com/mgpai22/suboverlay/internal/logging"
	"github.com/mgpai22/suboverlay/internal/playback"
	"github.com/mgpai22/suboverlay/internal/subtitle"
	"github.com/mgpai22/suboverlay/internal/timeline"
)

const twoCaptions = "1\n00:00:01,000 --> 00:00:02,500\nHello\n\n2\n00:00:03,000 --> 00:00:04,000\nWorld\n\n"

type recorder struct {
	mu         sync.Mutex
	directives []Directive
}

func (r *recorder) Emit(d Directive) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.directives = append(r.directives, d)
	return nil
}

func (r *recorder) take() []Directive {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.directives
	r.directives = nil
	return out
}

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *timeline.Store, *recorder) {
	t.Helper()

	store := timeline.NewStore(kv.NewMemoryStore())
	rec := &recorder{}
	base := []Option{
		WithLogger(logging.Wrap(zaptest.NewLogger(t))),
		WithClockOptions(playback.WithInterval(time.Hour)),
	}
	e := NewEngine(store, rec, append(base, opts...)...)
	t.Cleanup(e.Close)
	return e, store, rec
}

func loadMessage(transcript, filename string) Message {
	return Message{Action: ActionLoad, Lines: strings.Split(transcript, "\n"), Filename: filename}
}

func TestHandleLoadInvalidReportsError(t *testing.T) {
	e, store, rec := newTestEngine(t)

	err := e.Handle(context.Background(), Message{Action: ActionLoad, Lines: []string{"nope"}, Filename: "x.txt"})
	var ve *subtitle.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *subtitle.ValidationError, got %v", err)
	}

	got := rec.take()
	if len(got) != 1 || got[0].Type != DirectiveError || got[0].Error == "" {
		t.Fatalf("expected one error directive, got %+v", got)
	}
	if name, _ := store.Filename(); name != "" {
		t.Errorf("filename stored for invalid input: %q", name)
	}

	// still usable afterwards
	if err := e.Handle(context.Background(), loadMessage(twoCaptions, "movie.srt")); err != nil {
		t.Fatalf("load after error failed: %v", err)
	}
}

func TestHandlePlayWithoutTimeline(t *testing.T) {
	e, _, rec := newTestEngine(t)

	err := e.Handle(context.Background(), Message{Action: ActionPlay, Info: &VideoInfo{Width: 640, Height: 340}})
	if !errors.Is(err, playback.ErrEmptyTimeline) {
		t.Fatalf("expected ErrEmptyTimeline, got %v", err)
	}
	got := rec.take()
	if len(got) != 1 || got[0].Type != DirectiveError {
		t.Fatalf("expected only an error directive, got %+v", got)
	}
}

func TestHandlePlayAnnouncesRuntime(t *testing.T) {
	e, _, rec := newTestEngine(t)
	ctx := context.Background()

	if err := e.Handle(ctx, loadMessage(twoCaptions, "movie.srt")); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if err := e.Handle(ctx, Message{Action: ActionPlay, Info: &VideoInfo{Width: 640, Height: 340}}); err != nil {
		t.Fatalf("play failed: %v", err)
	}

	got := rec.take()
	if len(got) != 1 || got[0].Type != DirectiveInfo {
		t.Fatalf("expected one info directive, got %+v", got)
	}
	want := "Playing back: 'movie.srt' (Runtime: 00:00:04 [4000ms])..."
	if got[0].Info.Text != want {
		t.Errorf("banner = %q, want %q", got[0].Info.Text, want)
	}
	if got[0].Info.X != 280 || got[0].Info.Y != 295 {
		t.Errorf("banner at (%v, %v), want (280, 295)", got[0].Info.X, got[0].Info.Y)
	}
	if e.Clock().State() != playback.Playing {
		t.Errorf("expected Playing, got %s", e.Clock().State())
	}

	// resuming from pause does not repeat the banner
	if err := e.Handle(ctx, Message{Action: ActionPause}); err != nil {
		t.Fatalf("pause failed: %v", err)
	}
	if err := e.Handle(ctx, Message{Action: ActionPlay}); err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if got := rec.take(); len(got) != 0 {
		t.Errorf("expected no directives on resume, got %+v", got)
	}
}

func TestHandleSeeking(t *testing.T) {
	e, store, rec := newTestEngine(t)
	ctx := context.Background()

	if err := e.Handle(ctx, loadMessage(twoCaptions, "movie.srt")); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if err := e.Handle(ctx, Message{Action: ActionSeeking, Time: 2.6}); err != nil {
		t.Fatalf("seek failed: %v", err)
	}
	got := rec.take()
	if len(got) != 1 || got[0].Type != DirectiveRefresh {
		t.Fatalf("expected a refresh directive, got %+v", got)
	}
	c, _, _ := store.Cursor()
	if c.ElapsedMs != 2600 || c.Index != 1 {
		t.Errorf("cursor = %+v, want {2600 1}", c)
	}

	err := e.Handle(ctx, Message{Action: ActionSeeking, Time: 10})
	if !errors.Is(err, playback.ErrSeekOutOfRange) {
		t.Fatalf("expected ErrSeekOutOfRange, got %v", err)
	}
	got = rec.take()
	if len(got) != 2 || got[1].Type != DirectiveError {
		t.Fatalf("expected refresh then error, got %+v", got)
	}
}

func TestHandleClearKeepsTimeline(t *testing.T) {
	e, store, _ := newTestEngine(t)
	ctx := context.Background()

	if err := e.Handle(ctx, loadMessage(twoCaptions, "movie.srt")); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if err := e.Handle(ctx, Message{Action: ActionSeeking, Time: 1}); err != nil {
		t.Fatalf("seek failed: %v", err)
	}
	if err := e.Handle(ctx, Message{Action: ActionClear}); err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	if _, ok, _ := store.Cursor(); ok {
		t.Error("cursor should be removed by clear")
	}
	if entries, _ := store.LoadAll(); len(entries) != 2 {
		t.Errorf("expected timeline kept, got %d entries", len(entries))
	}
}

func TestHandleLoadResetsPlayback(t *testing.T) {
	e, store, _ := newTestEngine(t)
	ctx := context.Background()

	if err := e.Handle(ctx, loadMessage(twoCaptions, "movie.srt")); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if err := e.Handle(ctx, Message{Action: ActionSeeking, Time: 2}); err != nil {
		t.Fatalf("seek failed: %v", err)
	}
	if err := e.Handle(ctx, Message{Action: ActionPlay}); err != nil {
		t.Fatalf("play failed: %v", err)
	}

	if err := e.Handle(ctx, loadMessage("1\n00:00:05,000 --> 00:00:06,000\nNew\n", "other.srt")); err != nil {
		t.Fatalf("second load failed: %v", err)
	}
	if e.Clock().State() != playback.Stopped {
		t.Errorf("expected Stopped after load, got %s", e.Clock().State())
	}
	if _, ok, _ := store.Cursor(); ok {
		t.Error("cursor from previous transcript survived load")
	}
}

func TestHandleInvalidLoadKeepsPlaying(t *testing.T) {
	e, store, rec := newTestEngine(t)
	ctx := context.Background()

	if err := e.Handle(ctx, loadMessage(twoCaptions, "movie.srt")); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if err := e.Handle(ctx, Message{Action: ActionPlay, Info: &VideoInfo{Width: 640, Height: 340}}); err != nil {
		t.Fatalf("play failed: %v", err)
	}
	rec.take()

	err := e.Handle(ctx, Message{Action: ActionLoad, Lines: []string{"nope"}, Filename: "bad.txt"})
	var ve *subtitle.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *subtitle.ValidationError, got %v", err)
	}
	if e.Clock().State() != playback.Playing {
		t.Errorf("rejected load changed state to %s", e.Clock().State())
	}
	if got := rec.take(); len(got) != 1 || got[0].Type != DirectiveError {
		t.Errorf("expected only an error directive, got %+v", got)
	}
	if name, _ := store.Filename(); name != "movie.srt" {
		t.Errorf("filename = %q, want movie.srt", name)
	}
}

func TestPlayAfterFinishShowsCaptionsAgain(t *testing.T) {
	e, store, rec := newTestEngine(t, WithClockOptions(playback.WithInterval(time.Millisecond)))
	ctx := context.Background()

	if err := e.Handle(ctx, loadMessage("1\n00:00:00,000 --> 00:00:00,400\nQuick\n", "short.srt")); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	for round := 1; round <= 2; round++ {
		if err := e.Handle(ctx, Message{Action: ActionPlay, Info: &VideoInfo{Width: 640, Height: 340}}); err != nil {
			t.Fatalf("play #%d failed: %v", round, err)
		}
		select {
		case <-e.Clock().Done():
		case <-time.After(5 * time.Second):
			t.Fatalf("playback #%d did not finish", round)
		}

		var types []string
		for _, d := range rec.take() {
			types = append(types, d.Type)
		}
		if strings.Join(types, ",") != "info,subtitle,refresh" {
			t.Fatalf("play #%d directive types = %v", round, types)
		}
		if _, ok, _ := store.Cursor(); ok {
			t.Errorf("cursor left behind after play #%d", round)
		}
	}
}

func TestHandleInfo(t *testing.T) {
	e, _, rec := newTestEngine(t)

	msg := Message{
		Action: ActionInfo,
		Text:   "Loaded '$' with $ captions",
		Params: []string{"movie.srt", "2"},
		Info:   &VideoInfo{Width: 800, Height: 600},
	}
	if err := e.Handle(context.Background(), msg); err != nil {
		t.Fatalf("info failed: %v", err)
	}

	got := rec.take()
	if len(got) != 1 || got[0].Type != DirectiveInfo {
		t.Fatalf("expected one info directive, got %+v", got)
	}
	p := got[0].Info
	if p.Text != "Loaded 'movie.srt' with 2 captions" {
		t.Errorf("text = %q", p.Text)
	}
	if p.X != 360 || p.Y != 555 {
		t.Errorf("placed at (%v, %v), want (360, 555)", p.X, p.Y)
	}

	// no size given: the last one seen is reused
	if err := e.Handle(context.Background(), Message{Action: ActionInfo, Text: "again"}); err != nil {
		t.Fatalf("info failed: %v", err)
	}
	if got := rec.take(); got[0].Info.X != 360 {
		t.Errorf("expected remembered dimensions, got %+v", got[0].Info)
	}
}

func TestHandleUnknownAction(t *testing.T) {
	e, _, rec := newTestEngine(t)

	if err := e.Handle(context.Background(), Message{Action: "rewind"}); err == nil {
		t.Fatal("expected error for unknown action")
	}
	if got := rec.take(); len(got) != 1 || !strings.Contains(got[0].Error, "rewind") {
		t.Errorf("expected error naming the action, got %+v", got)
	}
}

func TestPauseWhileStoppedIsNoop(t *testing.T) {
	e, _, rec := newTestEngine(t)
	if err := e.Handle(context.Background(), Message{Action: ActionPause}); err != nil {
		t.Fatalf("pause failed: %v", err)
	}
	if got := rec.take(); len(got) != 0 {
		t.Errorf("expected no directives, got %+v", got)
	}
}

func TestPlaybackEmitsCaptions(t *testing.T) {
	e, _, rec := newTestEngine(t, WithClockOptions(playback.WithInterval(time.Millisecond)))
	ctx := context.Background()

	if err := e.Handle(ctx, loadMessage("1\n00:00:00,000 --> 00:00:00,400\nQuick\n", "short.srt")); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if err := e.Handle(ctx, Message{Action: ActionPlay, Info: &VideoInfo{Width: 640, Height: 340}}); err != nil {
		t.Fatalf("play failed: %v", err)
	}

	select {
	case <-e.Clock().Done():
	case <-time.After(5 * time.Second):
		t.Fatal("playback did not finish")
	}

	got := rec.take()
	var types []string
	for _, d := range got {
		types = append(types, d.Type)
	}
	if strings.Join(types, ",") != "info,subtitle,refresh" {
		t.Fatalf("directive types = %v", types)
	}
	if got[1].Subtitle.Text != "Quick" || got[1].Subtitle.X != 280 || got[1].Subtitle.Y != 295 {
		t.Errorf("subtitle = %+v", got[1].Subtitle)
	}
}

func TestHandleCancelledContext(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := e.Handle(ctx, Message{Action: ActionPause}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSubstitute(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		params []string
		want   string
	}{
		{"in order", "$ and $", []string{"a", "b"}, "a and b"},
		{"surplus params", "only $", []string{"a", "b"}, "only a"},
		{"surplus placeholders", "$ $ $", []string{"a"}, "a $ $"},
		{"no placeholders", "plain", []string{"a"}, "plain"},
		{"no params", "$", nil, "$"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Substitute(tt.text, tt.params); got != tt.want {
				t.Errorf("Substitute(%q, %v) = %q, want %q", tt.text, tt.params, got, tt.want)
			}
		})
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "00:00:00"},
		{4000, "00:00:04"},
		{59999, "00:00:59"},
		{3723004, "01:02:03"},
		{25 * 3600 * 1000, "01:00:00"},
		{-10, "00:00:00"},
	}

	for _, tt := range tests {
		if got := FormatClock(tt.ms); got != tt.want {
			t.Errorf("FormatClock(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}
