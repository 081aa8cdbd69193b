package gradio

import (
	"bufio"
	"encoding/json"
	"strings"
)

// pollEvent is the terminal outcome scanned out of one poll response body.
type pollEvent int

const (
	eventNone pollEvent = iota
	eventComplete
	eventError
)

// parseEventStream scans a line-oriented event body for a terminal marker.
//
// The body is text, not JSON-per-line: the data payload does not
// necessarily sit on the line right after its event tag, so once a
// completion marker is seen the scan keeps going forward for the next
// data line. Anything else is inert. An error marker wins immediately.
// The returned string is the result URL, empty when the body carried a
// completion marker without a usable one.
func parseEventStream(body string) (pollEvent, string) {
	terminal := eventNone

	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())

		if rest, ok := strings.CutPrefix(line, "event:"); ok {
			switch strings.TrimSpace(rest) {
			case "error":
				return eventError, ""
			case "complete":
				terminal = eventComplete
			}
			continue
		}

		if terminal == eventComplete {
			if payload, ok := strings.CutPrefix(line, "data:"); ok {
				return eventComplete, resultURL(strings.TrimSpace(payload))
			}
		}
	}

	return terminal, ""
}

// resultURL pulls the artifact URL out of a completion data payload, a
// one-element JSON array whose element carries the URL.
func resultURL(payload string) string {
	var items []struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal([]byte(payload), &items); err != nil || len(items) == 0 {
		return ""
	}
	return items[0].URL
}
