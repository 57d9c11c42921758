package controllers

import (
	"errors"
	"net/http"
	"time"

	"trainerpro-backend/config"
	"trainerpro-backend/models"
	"trainerpro-backend/services"
	"trainerpro-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var (
	reminderSvc   *services.ReminderService
	reminderSched *services.Scheduler
	reminderStore *services.GormStore
)

// InitReminders wires the reminder engine into this package. Called once
// from main after the scheduler is assembled.
func InitReminders(svc *services.ReminderService, sched *services.Scheduler, store *services.GormStore) {
	reminderSvc = svc
	reminderSched = sched
	reminderStore = store
}

type UpdateReminderConfigInput struct {
	Active         *bool                   `json:"active"`
	Template       *string                 `json:"template"`
	DefaultChannel *models.DeliveryChannel `json:"defaultChannel"`
	Rules          *[]models.ReminderRule  `json:"rules"`
}

type UpdateRuleInput struct {
	Offset   *int                      `json:"offset"`
	Active   *bool                     `json:"active"`
	Channels *[]models.DeliveryChannel `json:"channels"`
	Order    *int                      `json:"order"`
}

type ManualReminderInput struct {
	TargetKind models.TargetKind      `json:"targetKind" binding:"required"`
	TargetID   string                 `json:"targetId" binding:"required"`
	Channel    models.DeliveryChannel `json:"channel"`
}

func parseKind(raw string) (models.TargetKind, bool) {
	kind := models.TargetKind(raw)
	return kind, kind == models.KindSession || kind == models.KindPayment
}

func trainerFromContext(c *gin.Context) (uuid.UUID, bool) {
	userID, exists := c.Get("userId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(userID.(string))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid user ID format")
		return uuid.Nil, false
	}
	return id, true
}

// resolveConfig finds the configuration the caller may edit: the global one
// for payments, the trainer's own for sessions. A trainer with no session
// config yet gets an unsaved default; it is persisted on first edit.
func resolveConfig(c *gin.Context, kind models.TargetKind, trainerID uuid.UUID) (*models.ReminderConfig, error) {
	cfgs, err := reminderStore.ConfigsByKind(c.Request.Context(), kind)
	if err != nil {
		return nil, err
	}
	if kind == models.KindPayment {
		for i := range cfgs {
			if cfgs[i].UserID == nil {
				return &cfgs[i], nil
			}
		}
		return &models.ReminderConfig{
			Kind:           models.KindPayment,
			Active:         true,
			Rules:          models.RuleList{},
			Template:       models.DefaultPaymentTemplate,
			DefaultChannel: models.ChannelWhatsApp,
		}, nil
	}
	for i := range cfgs {
		if cfgs[i].UserID != nil && *cfgs[i].UserID == trainerID {
			return &cfgs[i], nil
		}
	}
	userID := trainerID
	return &models.ReminderConfig{
		Kind:   models.KindSession,
		UserID: &userID,
		Active: true,
		Rules: models.RuleList{
			{ID: "s-24h", Offset: 24, Active: true, Channels: []models.DeliveryChannel{models.ChannelWhatsApp}, Order: 1},
			{ID: "s-1h", Offset: 1, Active: true, Channels: []models.DeliveryChannel{models.ChannelWhatsApp}, Order: 2},
		},
		Template:       models.DefaultSessionTemplate,
		DefaultChannel: models.ChannelWhatsApp,
	}, nil
}

// GetReminderConfigs returns the caller's session configuration and the
// global payment configuration side by side, the shape the settings screen
// renders.
func GetReminderConfigs(c *gin.Context) {
	trainerID, ok := trainerFromContext(c)
	if !ok {
		return
	}

	sessionCfg, err := resolveConfig(c, models.KindSession, trainerID)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load reminder configuration")
		return
	}
	paymentCfg, err := resolveConfig(c, models.KindPayment, trainerID)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load reminder configuration")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session": sessionCfg,
		"payment": paymentCfg,
	})
}

func UpdateReminderConfig(c *gin.Context) {
	kind, ok := parseKind(c.Param("kind"))
	if !ok {
		utils.RespondWithError(c, http.StatusBadRequest, "Unknown reminder kind")
		return
	}
	trainerID, ok := trainerFromContext(c)
	if !ok {
		return
	}

	var input UpdateReminderConfigInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	cfg, err := resolveConfig(c, kind, trainerID)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load reminder configuration")
		return
	}

	var warnings []string
	if input.Rules != nil {
		for i, rule := range *input.Rules {
			w, err := services.ValidateRule(rule, (*input.Rules)[:i])
			if err != nil {
				utils.RespondWithError(c, http.StatusBadRequest, err.Error())
				return
			}
			warnings = append(warnings, w...)
		}
		cfg.Rules = *input.Rules
	}
	if input.Active != nil {
		cfg.Active = *input.Active
	}
	if input.Template != nil {
		cfg.Template = *input.Template
	}
	if input.DefaultChannel != nil {
		if !input.DefaultChannel.Valid() {
			utils.RespondWithError(c, http.StatusBadRequest, "Unknown default channel")
			return
		}
		cfg.DefaultChannel = *input.DefaultChannel
	}

	if err := reminderStore.SaveConfig(c.Request.Context(), cfg); err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to save reminder configuration")
		return
	}
	c.JSON(http.StatusOK, gin.H{"config": cfg, "warnings": warnings})
}

func AddReminderRule(c *gin.Context) {
	kind, ok := parseKind(c.Param("kind"))
	if !ok {
		utils.RespondWithError(c, http.StatusBadRequest, "Unknown reminder kind")
		return
	}
	trainerID, ok := trainerFromContext(c)
	if !ok {
		return
	}

	var rule models.ReminderRule
	if err := c.ShouldBindJSON(&rule); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	cfg, err := resolveConfig(c, kind, trainerID)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load reminder configuration")
		return
	}

	warnings, err := services.ValidateRule(rule, cfg.Rules)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	if rule.Order == 0 {
		rule.Order = len(cfg.Rules) + 1
	}
	cfg.Rules = append(cfg.Rules, rule)

	if err := reminderStore.SaveConfig(c.Request.Context(), cfg); err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to save reminder configuration")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"config": cfg, "warnings": warnings})
}

func UpdateReminderRule(c *gin.Context) {
	kind, ok := parseKind(c.Param("kind"))
	if !ok {
		utils.RespondWithError(c, http.StatusBadRequest, "Unknown reminder kind")
		return
	}
	trainerID, ok := trainerFromContext(c)
	if !ok {
		return
	}

	var input UpdateRuleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	cfg, err := resolveConfig(c, kind, trainerID)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load reminder configuration")
		return
	}

	ruleID := c.Param("ruleId")
	idx := -1
	for i, r := range cfg.Rules {
		if r.ID == ruleID {
			idx = i
			break
		}
	}
	if idx == -1 {
		utils.RespondWithError(c, http.StatusNotFound, "Rule not found")
		return
	}

	rule := cfg.Rules[idx]
	if input.Offset != nil {
		rule.Offset = *input.Offset
	}
	if input.Active != nil {
		rule.Active = *input.Active
	}
	if input.Channels != nil {
		rule.Channels = *input.Channels
	}
	if input.Order != nil {
		rule.Order = *input.Order
	}

	others := make([]models.ReminderRule, 0, len(cfg.Rules)-1)
	others = append(others, cfg.Rules[:idx]...)
	others = append(others, cfg.Rules[idx+1:]...)
	warnings, err := services.ValidateRule(rule, others)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	cfg.Rules[idx] = rule

	if err := reminderStore.SaveConfig(c.Request.Context(), cfg); err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to save reminder configuration")
		return
	}
	c.JSON(http.StatusOK, gin.H{"config": cfg, "warnings": warnings})
}

func DeleteReminderRule(c *gin.Context) {
	kind, ok := parseKind(c.Param("kind"))
	if !ok {
		utils.RespondWithError(c, http.StatusBadRequest, "Unknown reminder kind")
		return
	}
	trainerID, ok := trainerFromContext(c)
	if !ok {
		return
	}

	cfg, err := resolveConfig(c, kind, trainerID)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load reminder configuration")
		return
	}

	ruleID := c.Param("ruleId")
	kept := make(models.RuleList, 0, len(cfg.Rules))
	for _, r := range cfg.Rules {
		if r.ID != ruleID {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(cfg.Rules) {
		utils.RespondWithError(c, http.StatusNotFound, "Rule not found")
		return
	}
	cfg.Rules = kept

	if err := reminderStore.SaveConfig(c.Request.Context(), cfg); err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to save reminder configuration")
		return
	}
	c.JSON(http.StatusOK, gin.H{"config": cfg})
}

// RunReminders triggers one immediate sweep, the recovery path after
// downtime. A sweep already in flight answers 409 rather than queueing.
func RunReminders(c *gin.Context) {
	records, err := reminderSvc.RunNow(c.Request.Context(), time.Now())
	if err != nil {
		if errors.Is(err, services.ErrSweepRunning) {
			utils.RespondWithError(c, http.StatusConflict, "A reminder sweep is already running")
			return
		}
		// Partial store errors: report them but still return what fired.
		c.JSON(http.StatusOK, gin.H{
			"records": records,
			"count":   len(records),
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records, "count": len(records)})
}

// PreviewReminders simulates the sweeps between now and ?until= without
// sending or recording anything.
func PreviewReminders(c *gin.Context) {
	now := time.Now()
	until := now.Add(7 * 24 * time.Hour)
	if raw := c.Query("until"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid until parameter, expected RFC3339")
			return
		}
		until = parsed
	}

	items, err := reminderSvc.Preview(c.Request.Context(), now, until)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to build preview")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// GetReminderHistory returns the audit trail for a time range, newest first.
func GetReminderHistory(c *gin.Context) {
	to := time.Now()
	from := to.Add(-30 * 24 * time.Hour)
	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid from parameter, expected RFC3339")
			return
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid to parameter, expected RFC3339")
			return
		}
		to = parsed
	}

	records, err := reminderStore.Query(c.Request.Context(), from, to)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load reminder history")
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records, "count": len(records)})
}

// SendManualReminder dispatches one reminder for a specific session or
// payment right now, outside the schedule.
func SendManualReminder(c *gin.Context) {
	trainerID, ok := trainerFromContext(c)
	if !ok {
		return
	}

	var input ManualReminderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if input.TargetKind != models.KindSession && input.TargetKind != models.KindPayment {
		utils.RespondWithError(c, http.StatusBadRequest, "Unknown reminder kind")
		return
	}
	targetUUID, err := uuid.Parse(input.TargetID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid target ID format")
		return
	}

	var target services.Target
	var client models.Client
	switch input.TargetKind {
	case models.KindSession:
		var session models.Session
		if err := config.DB.First(&session, "id = ?", targetUUID).Error; err != nil {
			utils.RespondWithError(c, http.StatusNotFound, "Session not found")
			return
		}
		if err := config.DB.First(&client, "id = ?", session.ClientID).Error; err != nil {
			utils.RespondWithError(c, http.StatusNotFound, "Client not found")
			return
		}
		target = services.SessionTarget{Session: session, Client: client}
	case models.KindPayment:
		var payment models.PaymentObligation
		if err := config.DB.First(&payment, "id = ?", targetUUID).Error; err != nil {
			utils.RespondWithError(c, http.StatusNotFound, "Payment not found")
			return
		}
		if err := config.DB.First(&client, "id = ?", payment.ClientID).Error; err != nil {
			utils.RespondWithError(c, http.StatusNotFound, "Client not found")
			return
		}
		target = services.PaymentTarget{Obligation: payment, Client: client}
	}

	cfg, err := resolveConfig(c, input.TargetKind, trainerID)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load reminder configuration")
		return
	}

	channel := input.Channel
	if channel == "" {
		channel = client.PreferredChannel
	}
	if channel == "" {
		channel = cfg.DefaultChannel
	}
	if !channel.Valid() {
		utils.RespondWithError(c, http.StatusBadRequest, "Unknown delivery channel")
		return
	}

	rec, err := reminderSched.SendManual(c.Request.Context(), time.Now(), target, cfg, channel)
	if err != nil {
		utils.RespondWithError(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	c.JSON(http.StatusOK, rec)
}
