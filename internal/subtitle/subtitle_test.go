package subtitle

import (
	"errors"
	"testing"
	"time"
)

func TestNewEntryValidation(t *testing.T) {
	tests := []struct {
		name    string
		seq     int
		start   int64
		end     int64
		text    string
		wantErr bool
	}{
		{"valid", 1, 1000, 2500, "Hello", false},
		{"zero length", 2, 3000, 3000, "Blink", false},
		{"start after end", 1, 2000, 1000, "Hello", true},
		{"zero sequence", 0, 0, 1000, "Hello", true},
		{"negative sequence", -3, 0, 1000, "Hello", true},
		{"negative start", 1, -1, 1000, "Hello", true},
		{"empty text", 1, 0, 1000, "", true},
		{"whitespace text", 1, 0, 1000, " \n\t ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEntry(tt.seq, tt.start, tt.end, tt.text)
			if tt.wantErr {
				var ve *ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("expected *ValidationError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	entries := []Entry{
		{Sequence: 1, StartMs: 1000, EndMs: 2500, Text: "Hello"},
		{Sequence: 42, StartMs: 0, EndMs: 0, Text: "Zero length"},
		{Sequence: 7, StartMs: 3600000, EndMs: 3601999, Text: "Two\nlines"},
		{Sequence: 3, StartMs: 5, EndMs: 9, Text: "colon: single is fine"},
	}

	for _, want := range entries {
		got, err := DecodeEntry(want.Encode())
		if err != nil {
			t.Fatalf("DecodeEntry(%q) failed: %v", want.Encode(), err)
		}
		if got != want {
			t.Errorf("round trip: got %+v, want %+v", got, want)
		}
	}
}

func TestEncodeFormat(t *testing.T) {
	e := Entry{Sequence: 2, StartMs: 3000, EndMs: 4000, Text: "World"}
	if got := e.Encode(); got != "2::3000::4000::World" {
		t.Errorf("Encode() = %q, want %q", got, "2::3000::4000::World")
	}
}

func TestDecodeEntryErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"too few fields", "1::1000::2000"},
		{"bad sequence", "one::1000::2000::Hello"},
		{"bad start", "1::1.5::2000::Hello"},
		{"bad end", "1::1000::end::Hello"},
		{"start after end", "1::3000::2000::Hello"},
		{"empty text", "1::1000::2000::"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeEntry(tt.input)
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("expected *DecodeError, got %v", err)
			}
		})
	}
}

func TestDecodeDelimiterInTextIsTruncated(t *testing.T) {
	e := Entry{Sequence: 1, StartMs: 0, EndMs: 1000, Text: "a::b"}
	got, err := DecodeEntry(e.Encode())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Text != "a" {
		t.Errorf("expected text truncated to %q, got %q", "a", got.Text)
	}
}

func TestRuntime(t *testing.T) {
	if got := Runtime(nil); got != 0 {
		t.Errorf("empty runtime = %v, want 0", got)
	}
	entries := []Entry{
		{Sequence: 1, StartMs: 1000, EndMs: 2500, Text: "Hello"},
		{Sequence: 2, StartMs: 3000, EndMs: 4000, Text: "World"},
	}
	if got := Runtime(entries); got != 4*time.Second {
		t.Errorf("runtime = %v, want 4s", got)
	}
	if got := entries[0].Duration(); got != 1500*time.Millisecond {
		t.Errorf("duration = %v, want 1.5s", got)
	}
}
