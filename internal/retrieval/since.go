package retrieval

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// relativeSinceRe matches spec.md §4.5's relative since forms: "Nd" or "Nh".
var relativeSinceRe = regexp.MustCompile(`^(\d+)([dh])$`)

// ResolveSince converts a since string into an absolute instant relative to
// now. Accepts "Nd"/"Nh" (relative) or an ISO date/datetime (absolute). An
// empty since returns the zero time (no filter).
func ResolveSince(since string, now time.Time) (time.Time, error) {
	if since == "" {
		return time.Time{}, nil
	}
	if m := relativeSinceRe.FindStringSubmatch(since); m != nil {
		amount, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, fmt.Errorf("retrieval: invalid since %q: %w", since, err)
		}
		switch m[2] {
		case "d":
			return now.AddDate(0, 0, -amount), nil
		case "h":
			return now.Add(-time.Duration(amount) * time.Hour), nil
		}
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, since); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("retrieval: unrecognized since format %q", since)
}
