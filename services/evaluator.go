package services

import (
	"math"
	"time"

	"trainerpro-backend/models"
)

// Evaluator decides which rules are due for a target at a given instant.
//
// The matching law: remaining = ceil((instant - now) / unit), and a rule is
// due iff remaining equals its offset exactly. Exact equality means every
// rule fires in exactly one unit-sized evaluation window, so the sweep must
// run at least once per unit (hourly covers both kinds) or the window is
// missed for good. That is the documented contract, not a bug; the run-now
// endpoint exists for manual recovery.
type Evaluator struct{}

// unitsRemaining is the ceiling division the whole engine agrees on. A
// target one minute past three full units still counts as four.
func unitsRemaining(now, instant time.Time, unit time.Duration) int {
	d := instant.Sub(now)
	return int(math.Ceil(float64(d) / float64(unit)))
}

// Remaining returns how many whole units are left before the target fires.
// Negative values mean the instant is more than a unit in the past.
func (Evaluator) Remaining(now time.Time, target Target) int {
	return unitsRemaining(now, target.Instant(), target.Unit())
}

// DueRules returns the subset of rules due at now, in configured order.
// Inactive rules never match. remaining < 0 never matches; remaining == 0
// matches offset-0 ("day-of") rules.
func (e Evaluator) DueRules(now time.Time, target Target, rules []models.ReminderRule) []models.ReminderRule {
	remaining := e.Remaining(now, target)
	if remaining < 0 {
		return nil
	}
	var due []models.ReminderRule
	for _, rule := range rules {
		if !rule.Active {
			continue
		}
		if rule.Offset == remaining {
			due = append(due, rule)
		}
	}
	return due
}
