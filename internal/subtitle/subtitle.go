package subtitle

import (
	"strconv"
	"strings"
	"time"
)

// field delimiter of the stored entry encoding. Integers never contain it;
// caption text containing it does not survive a round trip.
const Delimiter = "::"

// represents single timed caption
type Entry struct {
	Sequence int
	StartMs  int64
	EndMs    int64
	Text     string
}

// NewEntry validates and builds an Entry.
func NewEntry(sequence int, startMs, endMs int64, text string) (Entry, error) {
	switch {
	case sequence <= 0:
		return Entry{}, &ValidationError{
			Reason: "sequence must be positive, got " + strconv.Itoa(sequence),
		}
	case startMs < 0 || endMs < 0:
		return Entry{}, &ValidationError{Reason: "timestamps must not be negative"}
	case startMs > endMs:
		return Entry{}, &ValidationError{
			Reason: "entry " + strconv.Itoa(sequence) + " starts after it ends",
		}
	case strings.TrimSpace(text) == "":
		return Entry{}, &ValidationError{
			Reason: "entry " + strconv.Itoa(sequence) + " has no text",
		}
	}

	return Entry{
		Sequence: sequence,
		StartMs:  startMs,
		EndMs:    endMs,
		Text:     text,
	}, nil
}

// Encode flattens the entry to "seq::start::end::text".
// Text is written verbatim, so text that itself contains the delimiter
// is truncated at the first occurrence when decoded.
func (e Entry) Encode() string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(e.Sequence))
	sb.WriteString(Delimiter)
	sb.WriteString(strconv.FormatInt(e.StartMs, 10))
	sb.WriteString(Delimiter)
	sb.WriteString(strconv.FormatInt(e.EndMs, 10))
	sb.WriteString(Delimiter)
	sb.WriteString(e.Text)
	return sb.String()
}

// DecodeEntry reverses Encode.
func DecodeEntry(value string) (Entry, error) {
	fields := strings.Split(value, Delimiter)
	if len(fields) < 4 {
		return Entry{}, &DecodeError{
			Value:  value,
			Reason: "expected 4 fields, got " + strconv.Itoa(len(fields)),
		}
	}

	seq, err := strconv.Atoi(fields[0])
	if err != nil {
		return Entry{}, &DecodeError{Value: value, Reason: "bad sequence", Err: err}
	}
	start, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return Entry{}, &DecodeError{Value: value, Reason: "bad start time", Err: err}
	}
	end, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return Entry{}, &DecodeError{Value: value, Reason: "bad end time", Err: err}
	}

	entry, err := NewEntry(seq, start, end, fields[3])
	if err != nil {
		return Entry{}, &DecodeError{Value: value, Reason: "corrupt entry", Err: err}
	}
	return entry, nil
}

// Start is the entry's start offset from the beginning of the video.
func (e Entry) Start() time.Duration {
	return time.Duration(e.StartMs) * time.Millisecond
}

// End is the entry's end offset from the beginning of the video.
func (e Entry) End() time.Duration {
	return time.Duration(e.EndMs) * time.Millisecond
}

// Duration is how long the entry stays on screen.
func (e Entry) Duration() time.Duration {
	return e.End() - e.Start()
}

// Runtime is the end offset of the last entry of an ordered timeline,
// or 0 for an empty one.
func Runtime(entries []Entry) time.Duration {
	if len(entries) == 0 {
		return 0
	}
	return entries[len(entries)-1].End()
}
