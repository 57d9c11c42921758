package controllers

import (
	"errors"
	"net/http"
	"time"

	"trainerpro-backend/config"
	"trainerpro-backend/models"
	"trainerpro-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreatePaymentInput struct {
	ClientID     string          `json:"clientId" binding:"required"`
	ServiceLabel string          `json:"serviceLabel" binding:"required"`
	Amount       decimal.Decimal `json:"amount" binding:"required"`
	DueAt        time.Time       `json:"dueAt" binding:"required"`
	Notes        string          `json:"notes"`
}

type UpdatePaymentInput struct {
	ServiceLabel *string          `json:"serviceLabel"`
	Amount       *decimal.Decimal `json:"amount"`
	DueAt        *time.Time       `json:"dueAt"`
	Notes        *string          `json:"notes"`
}

type RegisterPaymentInput struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

func CreatePayment(c *gin.Context) {
	var input CreatePaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	clientUUID, err := uuid.Parse(input.ClientID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid client ID format")
		return
	}
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		utils.RespondWithError(c, http.StatusBadRequest, "Amount must be positive")
		return
	}

	var client models.Client
	if err := config.DB.First(&client, "id = ?", clientUUID).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Client not found")
		return
	}

	payment := models.PaymentObligation{
		ClientID:     clientUUID,
		ServiceLabel: input.ServiceLabel,
		Amount:       input.Amount,
		PaidAmount:   decimal.Zero,
		DueAt:        input.DueAt,
		Status:       models.PaymentUnpaid,
		Notes:        input.Notes,
	}
	if err := config.DB.Create(&payment).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create payment")
		return
	}

	c.JSON(http.StatusCreated, payment)
}

func GetPayments(c *gin.Context) {
	q := config.DB.Order("due_at")
	if clientID, err := uuid.Parse(c.Query("clientId")); err == nil {
		q = q.Where("client_id = ?", clientID)
	}
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var payments []models.PaymentObligation
	if err := q.Find(&payments).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve payments")
		return
	}
	c.JSON(http.StatusOK, payments)
}

func GetPayment(c *gin.Context) {
	paymentUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid payment ID format")
		return
	}

	var payment models.PaymentObligation
	if err := config.DB.First(&payment, "id = ?", paymentUUID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Payment not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}
	c.JSON(http.StatusOK, payment)
}

func UpdatePayment(c *gin.Context) {
	paymentUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid payment ID format")
		return
	}

	var input UpdatePaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var payment models.PaymentObligation
	if err := config.DB.First(&payment, "id = ?", paymentUUID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Payment not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if input.ServiceLabel != nil {
		payment.ServiceLabel = *input.ServiceLabel
	}
	if input.Amount != nil {
		if input.Amount.LessThanOrEqual(decimal.Zero) {
			utils.RespondWithError(c, http.StatusBadRequest, "Amount must be positive")
			return
		}
		payment.Amount = *input.Amount
	}
	if input.DueAt != nil {
		payment.DueAt = *input.DueAt
	}
	if input.Notes != nil {
		payment.Notes = *input.Notes
	}
	payment.Status = paymentStatusFor(payment)

	if err := config.DB.Save(&payment).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update payment")
		return
	}
	c.JSON(http.StatusOK, payment)
}

// RegisterPayment records money received against an obligation. Reaching the
// full amount marks it paid, which removes it from the reminder sweep.
func RegisterPayment(c *gin.Context) {
	paymentUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid payment ID format")
		return
	}

	var input RegisterPaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		utils.RespondWithError(c, http.StatusBadRequest, "Amount must be positive")
		return
	}

	var payment models.PaymentObligation
	if err := config.DB.First(&payment, "id = ?", paymentUUID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Payment not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}
	if payment.Status == models.PaymentPaid {
		utils.RespondWithError(c, http.StatusConflict, "Payment is already settled")
		return
	}
	if input.Amount.GreaterThan(payment.PendingAmount()) {
		utils.RespondWithError(c, http.StatusBadRequest, "Amount exceeds pending balance")
		return
	}

	payment.PaidAmount = payment.PaidAmount.Add(input.Amount)
	payment.Status = paymentStatusFor(payment)

	if err := config.DB.Save(&payment).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to register payment")
		return
	}
	c.JSON(http.StatusOK, payment)
}

func DeletePayment(c *gin.Context) {
	paymentUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid payment ID format")
		return
	}

	result := config.DB.Delete(&models.PaymentObligation{}, "id = ?", paymentUUID)
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete payment")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Payment not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payment deleted successfully"})
}

func paymentStatusFor(p models.PaymentObligation) models.PaymentStatus {
	switch {
	case p.PendingAmount().LessThanOrEqual(decimal.Zero):
		return models.PaymentPaid
	case p.PaidAmount.GreaterThan(decimal.Zero):
		return models.PaymentPartiallyPaid
	case time.Now().After(p.DueAt):
		return models.PaymentOverdue
	default:
		return models.PaymentUnpaid
	}
}
