package schedule

import (
	"fmt"
	"sort"
	"time"
)

// Frequency is the repetition kind of a recurrence rule.
type Frequency string

const (
	FreqNone    Frequency = "none"
	FreqDaily   Frequency = "daily"
	FreqWeekly  Frequency = "weekly"
	FreqMonthly Frequency = "monthly"
)

// MaxOccurrences bounds generation of unbounded rules (one year of weekly
// instances).
const MaxOccurrences = 52

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Rule is the client-facing recurrence descriptor. The same struct carries
// per-instance metadata (sequence, totalInstances, originalDate) when an
// expanded instance is sent back to the API, mirroring what the web client
// submits.
type Rule struct {
	Frequency   Frequency `json:"type"`
	Interval    int       `json:"interval,omitempty"`
	EndDate     string    `json:"endDate,omitempty"`
	DaysOfWeek  []int     `json:"daysOfWeek,omitempty"`
	Occurrences int       `json:"occurrences,omitempty"`
	UpdateAll   bool      `json:"updateAll,omitempty"`

	IsRecurringInstance bool   `json:"isRecurringInstance,omitempty"`
	OriginalDate        string `json:"originalDate,omitempty"`
	Sequence            int    `json:"sequence,omitempty"`
	TotalInstances      int    `json:"totalInstances,omitempty"`
}

// IsRecurring reports whether the rule actually repeats.
func (r *Rule) IsRecurring() bool {
	return r != nil && r.Frequency != "" && r.Frequency != FreqNone
}

// Occurrence is one concrete dated instance generated from a rule.
type Occurrence struct {
	Date     time.Time
	Sequence int
	Total    int
}

// Expand deterministically generates the ordered occurrence list for a rule
// seeded at seed. The reference time now is injected so expansion stays
// deterministic and testable; dates on days strictly before now are never
// emitted. For weekly rules with a weekday set, only selected weekdays are
// emitted; weekday values outside 0 (Sunday) to 6 (Saturday) are rejected,
// since a weekday that never matches would advance the cursor without ever
// emitting. Expansion always terminates: dates advance strictly forward and
// the occurrence cap bounds the emitted count.
//
// A structurally valid rule never returns an error; an empty result for a
// recurring rule (e.g. end date before seed) is the caller's signal to fail
// with recurring_generation_failed.
func Expand(rule Rule, seed time.Time, now time.Time) ([]Occurrence, error) {
	seed = truncateToDay(seed)
	today := truncateToDay(now)

	if !rule.IsRecurring() {
		return []Occurrence{{Date: seed, Sequence: 1, Total: 1}}, nil
	}

	interval := rule.Interval
	if interval < 1 {
		interval = 1
	}
	limit := rule.Occurrences
	if limit < 1 || limit > MaxOccurrences {
		limit = MaxOccurrences
	}

	var end *time.Time
	if rule.EndDate != "" {
		t, err := time.Parse(DateLayout, rule.EndDate)
		if err != nil {
			return nil, fmt.Errorf("schedule: invalid end date %q: %w", rule.EndDate, err)
		}
		t = truncateToDay(t)
		end = &t
	}

	days := append([]int(nil), rule.DaysOfWeek...)
	for _, d := range days {
		if d < 0 || d > 6 {
			return nil, fmt.Errorf("schedule: weekday %d out of range, want 0 (Sunday) to 6 (Saturday)", d)
		}
	}
	sort.Ints(days)
	weeklyWithDays := rule.Frequency == FreqWeekly && len(days) > 0

	var out []Occurrence
	current := seed
	for (end == nil || !current.After(*end)) && len(out) < limit {
		if validOccurrenceDate(current, today, weeklyWithDays, days) {
			out = append(out, Occurrence{Date: current, Sequence: len(out) + 1})
		}

		switch rule.Frequency {
		case FreqDaily:
			current = current.AddDate(0, 0, interval)
		case FreqWeekly:
			if weeklyWithDays {
				current = nextSelectedWeekday(current, days, interval)
			} else {
				current = current.AddDate(0, 0, 7*interval)
			}
		case FreqMonthly:
			current = addMonthsClamped(current, interval, seed.Day())
		default:
			return nil, fmt.Errorf("schedule: unknown frequency %q", rule.Frequency)
		}
	}

	for i := range out {
		out[i].Total = len(out)
	}
	return out, nil
}

func validOccurrenceDate(date, today time.Time, weeklyWithDays bool, days []int) bool {
	if date.Before(today) {
		return false
	}
	if weeklyWithDays {
		weekday := int(date.Weekday())
		for _, d := range days {
			if d == weekday {
				return true
			}
		}
		return false
	}
	return true
}

// nextSelectedWeekday advances to the next selected weekday strictly after
// current within the same week, or jumps to the first selected weekday of
// the cycle interval weeks later. days must be sorted ascending with
// Sunday = 0.
func nextSelectedWeekday(current time.Time, days []int, interval int) time.Time {
	weekday := int(current.Weekday())
	for _, d := range days {
		if d > weekday {
			return current.AddDate(0, 0, d-weekday)
		}
	}
	return current.AddDate(0, 0, 7*interval-weekday+days[0])
}

// addMonthsClamped advances by whole months keeping the seed's day of
// month, capped at the last valid day of the target month (seed day 31 in a
// 30-day month lands on day 30, never on the 1st of the following month).
func addMonthsClamped(current time.Time, months, seedDay int) time.Time {
	first := time.Date(current.Year(), current.Month()+time.Month(months), 1, 0, 0, 0, 0, current.Location())
	day := seedDay
	if last := daysInMonth(first); day > last {
		day = last
	}
	return first.AddDate(0, 0, day-1)
}

func daysInMonth(firstOfMonth time.Time) int {
	return firstOfMonth.AddDate(0, 1, -1).Day()
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
