package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/mgpai22/suboverlay/internal/overlay"
	"github.com/mgpai22/suboverlay/internal/playback"
	"github.com/mgpai22/suboverlay/internal/timeline"
)

// terminalRenderer prints directives as plain text. Errors are left to the
// command's return value.
type terminalRenderer struct {
	mu  sync.Mutex
	out io.Writer
}

func newTerminalRenderer(out io.Writer) *terminalRenderer {
	return &terminalRenderer{out: out}
}

func (r *terminalRenderer) Emit(d overlay.Directive) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	switch d.Type {
	case overlay.DirectiveSubtitle:
		_, err = fmt.Fprintln(r.out, indent(d.Subtitle.Text))
	case overlay.DirectiveInfo:
		_, err = fmt.Fprintln(r.out, d.Info.Text)
	case overlay.DirectiveRefresh:
		_, err = fmt.Fprintln(r.out)
	}
	return err
}

func indent(text string) string {
	return "  " + strings.ReplaceAll(text, "\n", "\n  ")
}

func newEngine(store *timeline.Store, out overlay.Emitter) *overlay.Engine {
	return overlay.NewEngine(store, out,
		overlay.WithLogger(logger),
		overlay.WithAnchor(playback.Anchor{
			XOffset: cfg.Anchor.XOffset,
			YOffset: cfg.Anchor.YOffset,
		}),
		overlay.WithDefaultDimensions(playback.Dimensions{
			Width:  cfg.Video.Width,
			Height: cfg.Video.Height,
		}),
		overlay.WithClockOptions(playback.WithInterval(cfg.PollInterval)),
	)
}
