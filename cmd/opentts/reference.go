package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Reference is a reference audio file paired with its transcript.
type Reference struct {
	AudioPath  string
	Transcript string
}

// parseReference parses the "file.wav;transcript text" argument form. The
// split is on the first semicolon only; transcripts may contain semicolons.
func parseReference(input string) (*Reference, error) {
	path, transcript, ok := strings.Cut(input, ";")
	if !ok {
		return nil, fmt.Errorf("invalid reference %q: want 'file.wav;transcript text'", input)
	}

	path = strings.TrimSpace(path)
	transcript = strings.TrimSpace(transcript)

	if transcript == "" {
		return nil, errors.New("reference transcript is empty")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("reference audio not found: %s", path)
	}

	return &Reference{AudioPath: path, Transcript: transcript}, nil
}
