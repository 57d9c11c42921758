package services

import (
	"errors"
	"fmt"

	"trainerpro-backend/models"
)

// ErrAlreadyFired is returned by a DispatchHistory when recording a sent
// reminder whose (target, rule, channel) tuple already has a sent record.
// The orchestrator treats it as a lost race, not a failure.
var ErrAlreadyFired = errors.New("reminder already fired for tuple")

// ConfigurationError reports an invalid rule or configuration edit. It is
// surfaced to the operator at edit time and never aborts a sweep.
type ConfigurationError struct {
	Field string
	Msg   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid reminder configuration: %s: %s", e.Field, e.Msg)
}

// ValidateRule checks a single rule against the rest of its configuration.
// A second return value carries non-fatal warnings (an active rule with no
// channels dispatches nothing, which is legal but almost never intended).
func ValidateRule(rule models.ReminderRule, existing []models.ReminderRule) (warnings []string, err error) {
	if rule.ID == "" {
		return nil, &ConfigurationError{Field: "id", Msg: "rule id is required"}
	}
	if rule.Offset < 0 {
		return nil, &ConfigurationError{Field: "offset", Msg: "offset must be a non-negative integer"}
	}
	for _, other := range existing {
		if other.ID == rule.ID {
			return nil, &ConfigurationError{Field: "id", Msg: fmt.Sprintf("rule id %q already exists in this configuration", rule.ID)}
		}
	}
	for _, ch := range rule.Channels {
		if !ch.Valid() {
			return nil, &ConfigurationError{Field: "channels", Msg: fmt.Sprintf("unknown channel %q", ch)}
		}
	}
	if rule.Active && len(rule.Channels) == 0 {
		warnings = append(warnings, "active rule has no channels and will dispatch nothing")
	}
	return warnings, nil
}
