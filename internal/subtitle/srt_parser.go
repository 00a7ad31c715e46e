package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

var (
	timestampRegex = regexp.MustCompile(
		`(\d{2}):(\d{2}):(\d{2}),(\d{3})\s*-->\s*(\d{2}):(\d{2}):(\d{2}),(\d{3})`,
	)
	captionRegex  = regexp.MustCompile(`(?i)^[a-z0-9'\- ]+`)
	sequenceRegex = regexp.MustCompile(`^\d+`)
)

const maxLineSize = 1024 * 1024

// ReadLines splits a transcript into lines, dropping line terminators.
func ReadLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading transcript: %w", err)
	}
	return lines, nil
}

type timing struct {
	sequence int
	startMs  int64
	endMs    int64
	line     int
}

// ParseTranscript turns SRT-style lines into an ordered timeline.
// Sequence numbers are assigned from the order of timestamp lines, not taken
// from the transcript. Blank lines separate caption blocks.
func ParseTranscript(lines []string) ([]Entry, error) {
	first := firstContentLine(lines)
	if first == "" || !sequenceRegex.MatchString(first) {
		return nil, &ValidationError{Reason: "input is not valid subtitle data"}
	}

	var (
		timings []timing
		blocks  []string
		current []string
	)

	closeBlock := func() {
		if len(current) == 0 {
			return
		}
		blocks = append(blocks, strings.Join(current, "\n"))
		current = nil
	}

	for i, line := range lines {
		if i == 0 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		line = strings.TrimRight(line, "\r")

		if matches := timestampRegex.FindStringSubmatch(line); len(matches) == 9 {
			start, err := timestampMs(matches[1:5])
			if err != nil {
				return nil, &ValidationError{Reason: err.Error(), Line: i + 1}
			}
			end, err := timestampMs(matches[5:9])
			if err != nil {
				return nil, &ValidationError{Reason: err.Error(), Line: i + 1}
			}
			timings = append(timings, timing{
				sequence: len(timings) + 1,
				startMs:  start,
				endMs:    end,
				line:     i + 1,
			})
			continue
		}

		if strings.TrimSpace(line) == "" {
			closeBlock()
			continue
		}

		if captionRegex.MatchString(line) {
			current = append(current, line)
		}
	}
	closeBlock()

	var texts []string
	for _, block := range blocks {
		if text := cleanBlock(block); text != "" {
			texts = append(texts, text)
		}
	}

	if len(texts) != len(timings) {
		return nil, &ValidationError{
			Reason: fmt.Sprintf(
				"found %d timestamp lines but %d caption blocks",
				len(timings),
				len(texts),
			),
		}
	}

	entries := make([]Entry, 0, len(timings))
	for i, t := range timings {
		entry, err := NewEntry(t.sequence, t.startMs, t.endMs, texts[i])
		if err != nil {
			if ve, ok := err.(*ValidationError); ok {
				ve.Line = t.line
			}
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func firstContentLine(lines []string) string {
	for i, line := range lines {
		if i == 0 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// a block still carries its own sequence number line; drop it along with
// the surrounding whitespace
func cleanBlock(block string) string {
	block = strings.TrimPrefix(block, "\n")
	block = sequenceRegex.ReplaceAllString(block, "")
	return strings.TrimSpace(block)
}

// (H*3600 + M*60 + S) * 1000 + mmm
func timestampMs(parts []string) (int64, error) {
	var values [4]int64
	for i, part := range parts {
		v, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("bad timestamp field %q", part)
		}
		values[i] = v
	}
	if values[1] > 59 || values[2] > 59 {
		return 0, fmt.Errorf(
			"timestamp %s:%s:%s,%s out of range",
			parts[0], parts[1], parts[2], parts[3],
		)
	}

	seconds := values[0]*3600 + values[1]*60 + values[2]
	return seconds*1000 + values[3], nil
}
