package scheduler

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// DefaultWeeklyRule fires every Monday at 08:00.
const DefaultWeeklyRule = "FREQ=WEEKLY;BYDAY=MO;BYHOUR=8;BYMINUTE=0;BYSECOND=0"

// Schedule is a recurrence rule anchored at a start time.
type Schedule struct {
	rule *rrule.RRule
}

func ParseSchedule(rule string, start time.Time) (*Schedule, error) {
	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule rule %q: %w", rule, err)
	}
	r.DTStart(start)
	return &Schedule{rule: r}, nil
}

// Next returns the first occurrence strictly after t, or the zero time when
// the rule is exhausted.
func (s *Schedule) Next(t time.Time) time.Time {
	return s.rule.After(t, false)
}

func (s *Schedule) String() string {
	return s.rule.String()
}
