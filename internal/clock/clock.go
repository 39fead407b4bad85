// Package clock converts period-relative display clocks into monotonic,
// comparable time coordinates. Every downstream stage relies on the total
// order it establishes.
package clock

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pable/go-pbp-metrics/internal/model"
)

const (
	regulationPeriodSeconds = 720 // 12:00 periods 1-4
	overtimePeriodSeconds   = 300 // 5:00 OT
)

// Parse converts an "MM:SS" display clock to seconds remaining.
// Source feeds contain blanks and garbage rows; those parse to 0.
func Parse(display string) int {
	parts := strings.SplitN(strings.TrimSpace(display), ":", 2)
	if len(parts) != 2 {
		return 0
	}
	minutes, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0
	}
	seconds, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0
	}
	return minutes*60 + seconds
}

// PeriodLength returns the full length of a period in seconds.
func PeriodLength(period int) int {
	if period <= 4 {
		return regulationPeriodSeconds
	}
	return overtimePeriodSeconds
}

// Format renders seconds remaining as an "MM:SS" display clock.
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return strconv.Itoa(seconds/60) + ":" + pad(seconds%60)
}

func pad(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// Normalize derives elapsed time for every event, establishes the stable
// total order (period, elapsed, source order key) and fills missing
// defensive team ids. The input slice is not modified.
func Normalize(events []model.Event) []model.Event {
	out := append([]model.Event(nil), events...)

	// Elapsed is measured from the highest clock reading seen in the
	// period, not the nominal length: some feeds start OT rows mid-clock.
	maxClock := make(map[int]int)
	for _, e := range out {
		if e.ClockSeconds > maxClock[e.Period] {
			maxClock[e.Period] = e.ClockSeconds
		}
	}
	for i := range out {
		out[i].Elapsed = maxClock[out[i].Period] - out[i].ClockSeconds
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Period != b.Period {
			return a.Period < b.Period
		}
		if a.Elapsed != b.Elapsed {
			return a.Elapsed < b.Elapsed
		}
		return a.PbpOrder < b.PbpOrder
	})

	fillDefensiveTeams(out)
	return out
}

// TeamPair returns the two team ids that appear as offense in the stream.
func TeamPair(events []model.Event) (a, b int64, ok bool) {
	seen := make(map[int64]bool)
	var ids []int64
	for _, e := range events {
		if e.OffTeamID > 0 && !seen[e.OffTeamID] {
			seen[e.OffTeamID] = true
			ids = append(ids, e.OffTeamID)
		}
	}
	if len(ids) != 2 {
		return 0, 0, false
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids[0], ids[1], true
}

// fillDefensiveTeams sets DefTeamID to "the other team" wherever the feed
// left it blank but the offense is known.
func fillDefensiveTeams(events []model.Event) {
	a, b, ok := TeamPair(events)
	if !ok {
		return
	}
	for i := range events {
		if events[i].OffTeamID == 0 || events[i].DefTeamID != 0 {
			continue
		}
		if events[i].OffTeamID == a {
			events[i].DefTeamID = b
		} else if events[i].OffTeamID == b {
			events[i].DefTeamID = a
		}
	}
}
