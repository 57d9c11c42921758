package controllers

import (
	"errors"
	"net/http"

	"trainerpro-backend/config"
	"trainerpro-backend/models"
	"trainerpro-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateClientInput struct {
	Name             string                 `json:"name" binding:"required"`
	Phone            string                 `json:"phone"`
	Email            string                 `json:"email" binding:"omitempty,email"`
	Goals            string                 `json:"goals"`
	PreferredChannel models.DeliveryChannel `json:"preferredChannel"`
}

type UpdateClientInput struct {
	Name             *string                 `json:"name"`
	Phone            *string                 `json:"phone"`
	Email            *string                 `json:"email" binding:"omitempty,email"`
	Goals            *string                 `json:"goals"`
	RemindersOptOut  *bool                   `json:"remindersOptOut"`
	PreferredChannel *models.DeliveryChannel `json:"preferredChannel"`
	IsActive         *bool                   `json:"isActive"`
}

type CreateClientNoteInput struct {
	Body   string `json:"body" binding:"required"`
	Pinned bool   `json:"pinned"`
}

func CreateClient(c *gin.Context) {
	userID, exists := c.Get("userId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}
	userUUID, err := uuid.Parse(userID.(string))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid user ID format")
		return
	}

	var input CreateClientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if input.Phone != "" && !utils.ValidatePhone(input.Phone) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number")
		return
	}
	if input.PreferredChannel != "" && !input.PreferredChannel.Valid() {
		utils.RespondWithError(c, http.StatusBadRequest, "Unknown preferred channel")
		return
	}

	client := models.Client{
		CreatedByUserID:  userUUID,
		Name:             input.Name,
		Phone:            input.Phone,
		Email:            input.Email,
		Goals:            input.Goals,
		PreferredChannel: input.PreferredChannel,
		IsActive:         true,
	}
	if err := config.DB.Create(&client).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create client")
		return
	}

	c.JSON(http.StatusCreated, client)
}

func GetClients(c *gin.Context) {
	var clients []models.Client
	if err := config.DB.Order("name").Find(&clients).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve clients")
		return
	}
	c.JSON(http.StatusOK, clients)
}

func GetClient(c *gin.Context) {
	clientUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid client ID format")
		return
	}

	var client models.Client
	if err := config.DB.Preload("Notes").First(&client, "id = ?", clientUUID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Client not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, client)
}

func UpdateClient(c *gin.Context) {
	clientUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid client ID format")
		return
	}

	var input UpdateClientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var client models.Client
	if err := config.DB.First(&client, "id = ?", clientUUID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Client not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if input.Name != nil {
		client.Name = *input.Name
	}
	if input.Phone != nil {
		if *input.Phone != "" && !utils.ValidatePhone(*input.Phone) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number")
			return
		}
		client.Phone = *input.Phone
	}
	if input.Email != nil {
		client.Email = *input.Email
	}
	if input.Goals != nil {
		client.Goals = *input.Goals
	}
	if input.RemindersOptOut != nil {
		client.RemindersOptOut = *input.RemindersOptOut
	}
	if input.PreferredChannel != nil {
		if *input.PreferredChannel != "" && !input.PreferredChannel.Valid() {
			utils.RespondWithError(c, http.StatusBadRequest, "Unknown preferred channel")
			return
		}
		client.PreferredChannel = *input.PreferredChannel
	}
	if input.IsActive != nil {
		client.IsActive = *input.IsActive
	}

	if err := config.DB.Save(&client).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update client")
		return
	}

	c.JSON(http.StatusOK, client)
}

func DeleteClient(c *gin.Context) {
	clientUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid client ID format")
		return
	}

	result := config.DB.Delete(&models.Client{}, "id = ?", clientUUID)
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete client")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Client not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Client deleted successfully"})
}

func CreateClientNote(c *gin.Context) {
	clientUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid client ID format")
		return
	}

	userID, exists := c.Get("userId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}
	authorUUID, err := uuid.Parse(userID.(string))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid user ID format")
		return
	}

	var input CreateClientNoteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var client models.Client
	if err := config.DB.First(&client, "id = ?", clientUUID).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Client not found")
		return
	}

	note := models.ClientNote{
		ClientID: clientUUID,
		AuthorID: authorUUID,
		Body:     input.Body,
		Pinned:   input.Pinned,
	}
	if err := config.DB.Create(&note).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create note")
		return
	}

	c.JSON(http.StatusCreated, note)
}

func DeleteClientNote(c *gin.Context) {
	noteUUID, err := uuid.Parse(c.Param("noteId"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid note ID format")
		return
	}

	result := config.DB.Delete(&models.ClientNote{}, "id = ?", noteUUID)
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete note")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Note not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Note deleted successfully"})
}
