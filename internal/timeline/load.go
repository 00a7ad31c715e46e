package timeline

import (
	"github.com/mgpai22/suboverlay/internal/subtitle"
)

// Load parses transcript lines and, only if parsing succeeds, replaces the
// stored timeline with the result. A *subtitle.ValidationError leaves the
// store untouched.
func (s *Store) Load(lines []string, filename string) ([]subtitle.Entry, error) {
	entries, err := subtitle.ParseTranscript(lines)
	if err != nil {
		return nil, err
	}
	if err := s.Replace(entries, filename); err != nil {
		return nil, err
	}
	return entries, nil
}
