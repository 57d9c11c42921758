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
	"gorm.io/gorm"
)

type CreateSessionInput struct {
	ClientID string    `json:"clientId" binding:"required"`
	Title    string    `json:"title" binding:"required"`
	Location string    `json:"location"`
	StartAt  time.Time `json:"startAt" binding:"required"`
	EndAt    time.Time `json:"endAt" binding:"required"`
	Notes    string    `json:"notes"`
}

type UpdateSessionInput struct {
	Title    *string               `json:"title"`
	Location *string               `json:"location"`
	StartAt  *time.Time            `json:"startAt"`
	EndAt    *time.Time            `json:"endAt"`
	Status   *models.SessionStatus `json:"status"`
	Notes    *string               `json:"notes"`
}

func CreateSession(c *gin.Context) {
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

	var input CreateSessionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	clientUUID, err := uuid.Parse(input.ClientID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid client ID format")
		return
	}
	if !input.EndAt.After(input.StartAt) {
		utils.RespondWithError(c, http.StatusBadRequest, "Session must end after it starts")
		return
	}

	var client models.Client
	if err := config.DB.First(&client, "id = ?", clientUUID).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Client not found")
		return
	}

	session := models.Session{
		TrainerID: trainerUUID,
		ClientID:  clientUUID,
		Title:     input.Title,
		Location:  input.Location,
		StartAt:   input.StartAt,
		EndAt:     input.EndAt,
		Status:    models.SessionReserved,
		Notes:     input.Notes,
	}
	if err := config.DB.Create(&session).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create session")
		return
	}

	c.JSON(http.StatusCreated, session)
}

func GetSessions(c *gin.Context) {
	q := config.DB.Order("start_at")
	if from, err := time.Parse(time.RFC3339, c.Query("from")); err == nil {
		q = q.Where("start_at >= ?", from)
	}
	if to, err := time.Parse(time.RFC3339, c.Query("to")); err == nil {
		q = q.Where("start_at <= ?", to)
	}
	if clientID, err := uuid.Parse(c.Query("clientId")); err == nil {
		q = q.Where("client_id = ?", clientID)
	}

	var sessions []models.Session
	if err := q.Find(&sessions).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve sessions")
		return
	}
	c.JSON(http.StatusOK, sessions)
}

func GetSession(c *gin.Context) {
	sessionUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	var session models.Session
	if err := config.DB.First(&session, "id = ?", sessionUUID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Session not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}
	c.JSON(http.StatusOK, session)
}

func UpdateSession(c *gin.Context) {
	sessionUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	var input UpdateSessionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var session models.Session
	if err := config.DB.First(&session, "id = ?", sessionUUID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Session not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if input.Title != nil {
		session.Title = *input.Title
	}
	if input.Location != nil {
		session.Location = *input.Location
	}
	if input.StartAt != nil {
		session.StartAt = *input.StartAt
	}
	if input.EndAt != nil {
		session.EndAt = *input.EndAt
	}
	if input.Status != nil {
		session.Status = *input.Status
	}
	if input.Notes != nil {
		session.Notes = *input.Notes
	}
	if !session.EndAt.After(session.StartAt) {
		utils.RespondWithError(c, http.StatusBadRequest, "Session must end after it starts")
		return
	}

	if err := config.DB.Save(&session).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update session")
		return
	}
	c.JSON(http.StatusOK, session)
}

func DeleteSession(c *gin.Context) {
	sessionUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	result := config.DB.Delete(&models.Session{}, "id = ?", sessionUUID)
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete session")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Session not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session deleted successfully"})
}

// ConfirmSession handles the action links appended to session reminders:
// GET /confirmar-sesion?citaId=<id>&accion=confirmar|cancelar
func ConfirmSession(c *gin.Context) {
	sessionUUID, err := uuid.Parse(c.Query("citaId"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	var session models.Session
	if err := config.DB.First(&session, "id = ?", sessionUUID).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Session not found")
		return
	}

	switch c.Query("accion") {
	case "confirmar":
		session.Status = models.SessionConfirmed
	case "cancelar":
		session.Status = models.SessionCancelled
	default:
		utils.RespondWithError(c, http.StatusBadRequest, "Unknown action")
		return
	}

	if err := config.DB.Save(&session).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": session.Status})
}
