package controllers

import (
	"net/http"
	"time"

	"trainerpro-backend/config"
	"trainerpro-backend/models"
	"trainerpro-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type UpcomingSession struct {
	ID         uuid.UUID `json:"id"`
	ClientName string    `json:"clientName"`
	Title      string    `json:"title"`
	StartAt    time.Time `json:"startAt"`
	Status     string    `json:"status"`
}

type DuePayment struct {
	ID           uuid.UUID       `json:"id"`
	ClientName   string          `json:"clientName"`
	Service      string          `json:"service"`
	Pending      decimal.Decimal `json:"pending"`
	DueAt        time.Time       `json:"dueAt"`
	Status       string          `json:"status"`
	DaysUntilDue int             `json:"daysUntilDue"` // negative when overdue
}

func GetDashboardOverview(c *gin.Context) {
	userID, exists := c.Get("userId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}
	trainerUUID, err := uuid.Parse(userID.(string))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid user ID format")
		return
	}

	now := time.Now()
	startOfDay := utils.BeginningOfDay(now)
	endOfDay := startOfDay.Add(24 * time.Hour)
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	// Active clients
	var activeClients int64
	config.DB.Model(&models.Client{}).Where("is_active = true AND deleted_at IS NULL").Count(&activeClients)

	// Today's sessions for this trainer
	var todaySessions []UpcomingSession
	config.DB.Raw(`
        SELECT s.id, c.name AS client_name, s.title, s.start_at, s.status
        FROM sessions s
        JOIN clients c ON c.id = s.client_id
        WHERE s.trainer_id = ? AND s.deleted_at IS NULL
        AND s.start_at >= ? AND s.start_at < ?
        AND s.status IN ('reserved', 'confirmed')
        ORDER BY s.start_at
    `, trainerUUID, startOfDay, endOfDay).Scan(&todaySessions)

	// This month's collected revenue
	var monthlyCollected decimal.Decimal
	config.DB.Model(&models.PaymentObligation{}).
		Where("updated_at >= ? AND paid_amount > 0 AND deleted_at IS NULL", firstOfMonth).
		Select("COALESCE(SUM(paid_amount), 0)").Scan(&monthlyCollected)

	// Outstanding balance across all clients
	var outstandingTotal decimal.Decimal
	config.DB.Model(&models.PaymentObligation{}).
		Where("status IN ('unpaid', 'overdue', 'partiallyPaid') AND deleted_at IS NULL").
		Select("COALESCE(SUM(amount - paid_amount), 0)").Scan(&outstandingTotal)

	// Payments coming due in the next 7 days, plus anything overdue
	var duePayments []DuePayment
	config.DB.Raw(`
        SELECT p.id, c.name AS client_name, p.service_label AS service,
               p.amount - p.paid_amount AS pending, p.due_at, p.status
        FROM payment_obligations p
        JOIN clients c ON c.id = p.client_id
        WHERE p.status IN ('unpaid', 'overdue', 'partiallyPaid')
        AND p.deleted_at IS NULL
        AND p.due_at < ?
        ORDER BY p.due_at
        LIMIT 10
    `, now.Add(7*24*time.Hour)).Scan(&duePayments)
	for i := range duePayments {
		duePayments[i].DaysUntilDue = utils.DaysBetween(now, duePayments[i].DueAt)
	}

	// Reminder activity in the last 24 hours
	var remindersSent, remindersFailed int64
	config.DB.Model(&models.ReminderRecord{}).
		Where("fired_at >= ? AND status = ?", now.Add(-24*time.Hour), models.StatusSent).
		Count(&remindersSent)
	config.DB.Model(&models.ReminderRecord{}).
		Where("fired_at >= ? AND status = ?", now.Add(-24*time.Hour), models.StatusFailed).
		Count(&remindersFailed)

	c.JSON(http.StatusOK, gin.H{
		"activeClients":    activeClients,
		"todaySessions":    todaySessions,
		"monthlyCollected": monthlyCollected,
		"outstandingTotal": outstandingTotal,
		"duePayments":      duePayments,
		"reminders": gin.H{
			"sentLast24h":   remindersSent,
			"failedLast24h": remindersFailed,
		},
	})
}
