// Package overlay connects the timeline engine to a renderer. Inbound
// messages name an action; outbound directives tell the renderer what to draw.
package overlay

import (
	"strings"

	"github.com/mgpai22/suboverlay/internal/playback"
)

const (
	ActionLoad    = "load"
	ActionPlay    = "play"
	ActionPause   = "pause"
	ActionSeeking = "seeking"
	ActionClear   = "clear"
	ActionInfo    = "info"
)

const (
	DirectiveSubtitle = "subtitle"
	DirectiveRefresh  = "refresh"
	DirectiveInfo     = "info"
	DirectiveError    = "error"
)

// size of the video the overlay covers
type VideoInfo struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (v *VideoInfo) dimensions() (playback.Dimensions, bool) {
	if v == nil || v.Width <= 0 || v.Height <= 0 {
		return playback.Dimensions{}, false
	}
	return playback.Dimensions{Width: v.Width, Height: v.Height}, true
}

// inbound command
type Message struct {
	Action   string     `json:"action"`
	Lines    []string   `json:"lines,omitempty"`
	Filename string     `json:"filename,omitempty"`
	Info     *VideoInfo `json:"info,omitempty"`
	Time     float64    `json:"time,omitempty"`
	Text     string     `json:"text,omitempty"`
	Params   []string   `json:"params,omitempty"`
}

// text placed at a point on the overlay
type Placement struct {
	Text string  `json:"text"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// outbound instruction for the renderer
type Directive struct {
	Type     string     `json:"type"`
	Subtitle *Placement `json:"subtitle,omitempty"`
	Info     *Placement `json:"info,omitempty"`
	Error    string     `json:"error,omitempty"`
}

func SubtitleDirective(p Placement) Directive {
	return Directive{Type: DirectiveSubtitle, Subtitle: &p}
}

func RefreshDirective() Directive {
	return Directive{Type: DirectiveRefresh}
}

func InfoDirective(p Placement) Directive {
	return Directive{Type: DirectiveInfo, Info: &p}
}

func ErrorDirective(err error) Directive {
	return Directive{Type: DirectiveError, Error: err.Error()}
}

// Substitute replaces each "$" in text with the next param, left to right.
// Surplus placeholders are kept; surplus params are ignored.
func Substitute(text string, params []string) string {
	for _, p := range params {
		i := strings.IndexByte(text, '$')
		if i < 0 {
			break
		}
		text = text[:i] + p + text[i+1:]
	}
	return text
}
