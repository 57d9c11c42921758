package services

import (
	"errors"
	"testing"

	"trainerpro-backend/models"
)

func TestValidateRule(t *testing.T) {
	existing := []models.ReminderRule{
		{ID: "r-24", Offset: 24, Active: true, Channels: []models.DeliveryChannel{models.ChannelWhatsApp}},
	}

	tests := []struct {
		name         string
		rule         models.ReminderRule
		wantErrField string
		wantWarnings int
	}{
		{
			name: "valid rule",
			rule: models.ReminderRule{ID: "r-2", Offset: 2, Active: true, Channels: []models.DeliveryChannel{models.ChannelSMS}},
		},
		{
			name:         "missing id",
			rule:         models.ReminderRule{Offset: 2},
			wantErrField: "id",
		},
		{
			name:         "negative offset",
			rule:         models.ReminderRule{ID: "r-neg", Offset: -1},
			wantErrField: "offset",
		},
		{
			name:         "duplicate id",
			rule:         models.ReminderRule{ID: "r-24", Offset: 2},
			wantErrField: "id",
		},
		{
			name:         "unknown channel",
			rule:         models.ReminderRule{ID: "r-x", Offset: 2, Channels: []models.DeliveryChannel{"pigeon"}},
			wantErrField: "channels",
		},
		{
			name:         "active without channels warns",
			rule:         models.ReminderRule{ID: "r-silent", Offset: 2, Active: true},
			wantWarnings: 1,
		},
		{
			name: "inactive without channels is quiet",
			rule: models.ReminderRule{ID: "r-off", Offset: 2, Active: false},
		},
		{
			name: "offset zero is legal",
			rule: models.ReminderRule{ID: "r-0", Offset: 0, Active: true, Channels: []models.DeliveryChannel{models.ChannelWhatsApp}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings, err := ValidateRule(tt.rule, existing)
			if tt.wantErrField != "" {
				var cfgErr *ConfigurationError
				if !errors.As(err, &cfgErr) {
					t.Fatalf("ValidateRule() = %v, want ConfigurationError", err)
				}
				if cfgErr.Field != tt.wantErrField {
					t.Errorf("error field = %s, want %s", cfgErr.Field, tt.wantErrField)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateRule() = %v, want nil", err)
			}
			if len(warnings) != tt.wantWarnings {
				t.Errorf("warnings = %v, want %d", warnings, tt.wantWarnings)
			}
		})
	}
}
