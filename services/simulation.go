package services

import (
	"context"
	"sort"
	"time"

	"trainerpro-backend/models"
)

// PreviewItem is one reminder that would fire if sweeps ran on schedule
// between now and the preview horizon. Nothing is sent or recorded.
type PreviewItem struct {
	TargetID   string                   `json:"targetId"`
	Kind       models.TargetKind        `json:"kind"`
	ClientName string                   `json:"clientName"`
	RuleID     string                   `json:"ruleId"`
	Offset     int                      `json:"offset"`
	Channels   []models.DeliveryChannel `json:"channels"`
	FireAt     time.Time                `json:"fireAt"`
	Instant    time.Time                `json:"instant"`
	Message    string                   `json:"message"`
}

// Preview dry-runs the evaluator over every sweep instant from now through
// windowEnd, stepping one unit per kind, and renders what each match would
// say. It shares the scheduler's evaluator and configuration loading, so
// preview and actual dispatch can never diverge; Preview(now, now) yields
// exactly the matches RunOnce(now) would act on.
func (s *Scheduler) Preview(ctx context.Context, now, windowEnd time.Time) ([]PreviewItem, error) {
	if windowEnd.Before(now) {
		windowEnd = now
	}

	var items []PreviewItem
	for _, kind := range []models.TargetKind{models.KindSession, models.KindPayment} {
		cfgs, err := s.configs.ConfigsByKind(ctx, kind)
		if err != nil {
			return nil, err
		}
		for i := range cfgs {
			cfg := cfgs[i]
			if !cfg.Active {
				continue
			}
			kindItems, err := s.previewConfig(ctx, now, windowEnd, &cfg)
			if err != nil {
				return nil, err
			}
			items = append(items, kindItems...)
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].FireAt.Equal(items[j].FireAt) {
			return items[i].FireAt.Before(items[j].FireAt)
		}
		return items[i].Offset > items[j].Offset
	})
	return items, nil
}

func (s *Scheduler) previewConfig(ctx context.Context, now, windowEnd time.Time, cfg *models.ReminderConfig) ([]PreviewItem, error) {
	var unit time.Duration
	if cfg.Kind == models.KindPayment {
		unit = 24 * time.Hour
	} else {
		unit = time.Hour
	}

	targets, err := s.loadTargets(ctx, now, cfg, windowEnd)
	if err != nil {
		return nil, err
	}
	rules := cfg.ActiveRules()
	grammar := GrammarFor(cfg.Kind)

	type matchKey struct {
		TargetID string
		RuleID   string
	}
	seen := make(map[matchKey]bool)

	var items []PreviewItem
	for at := now; !at.After(windowEnd); at = at.Add(unit) {
		for _, target := range targets {
			for _, rule := range s.eval.DueRules(at, target, rules) {
				key := matchKey{target.TargetID(), rule.ID}
				if seen[key] {
					continue
				}
				seen[key] = true

				message := grammar.Render(cfg.Template, target.Vars(at))
				if cfg.Kind == models.KindSession && s.opts.BaseURL != "" {
					message = ActionLinks{BaseURL: s.opts.BaseURL}.Append(message, target.TargetID())
				}
				items = append(items, PreviewItem{
					TargetID:   target.TargetID(),
					Kind:       cfg.Kind,
					ClientName: target.ClientName(),
					RuleID:     rule.ID,
					Offset:     rule.Offset,
					Channels:   rule.Channels,
					FireAt:     at,
					Instant:    target.Instant(),
					Message:    message,
				})
			}
		}
	}
	return items, nil
}
