package normalize

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// parseDate tries the adapter-declared layouts in order and accepts the
// first parse that is also plausible: not before the configured earliest
// date and not past now by more than the future tolerance. Dates are
// timezone-free; everything is anchored at UTC midnight.
func (n *Normalizer) parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty date")
	}

	parsedAny := false
	for _, layout := range n.opts.DateFormats {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err != nil {
			continue
		}
		parsedAny = true
		t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		if n.plausible(t) {
			return t, nil
		}
	}

	if parsedAny {
		return time.Time{}, fmt.Errorf("date outside plausible range (earliest %s)",
			n.opts.EarliestDate.Format(time.DateOnly))
	}
	return time.Time{}, errors.New("unrecognized date format")
}

func (n *Normalizer) plausible(t time.Time) bool {
	if !n.opts.EarliestDate.IsZero() && t.Before(n.opts.EarliestDate) {
		return false
	}
	return !t.After(n.opts.Now().Add(n.opts.FutureTolerance))
}
