package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/mgpai22/suboverlay/internal/subtitle"
)

// Entries translates the text of every entry, keeping sequence and timing.
// With overlay set, each caption becomes the translation followed by the
// original on the next line.
func Entries(
	ctx context.Context,
	tr Translator,
	entries []subtitle.Entry,
	concurrency int,
	overlay bool,
) ([]subtitle.Entry, error) {
	items := make([]TranslationItem, len(entries))
	for i, e := range entries {
		items[i] = TranslationItem{Sequence: e.Sequence, Text: e.Text}
	}

	var (
		results []TranslationResult
		err     error
	)
	if ct, ok := tr.(ConcurrentTranslator); ok {
		results, err = ct.TranslateWithConcurrency(ctx, items, concurrency)
	} else {
		results, err = tr.Translate(ctx, items)
	}
	if err != nil {
		return nil, err
	}

	translated := make(map[int]string, len(results))
	for _, r := range results {
		translated[r.Sequence] = r.Text
	}

	out := make([]subtitle.Entry, len(entries))
	for i, e := range entries {
		text, ok := translated[e.Sequence]
		if !ok {
			return nil, fmt.Errorf("missing translation for entry %d", e.Sequence)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, fmt.Errorf("empty translation for entry %d", e.Sequence)
		}
		if overlay {
			text = text + "\n" + e.Text
		}

		entry, err := subtitle.NewEntry(e.Sequence, e.StartMs, e.EndMs, text)
		if err != nil {
			return nil, fmt.Errorf("translation of entry %d rejected: %w", e.Sequence, err)
		}
		out[i] = entry
	}
	return out, nil
}
