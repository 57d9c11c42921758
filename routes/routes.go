package routes

import (
	"os"
	"strings"

	"trainerpro-backend/config"
	"trainerpro-backend/controllers"
	"trainerpro-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRouter() *gin.Engine {
	r := gin.Default()

	origins := []string{"http://localhost:3000", "http://localhost:5173"}
	if extra := os.Getenv("CORS_ORIGINS"); extra != "" {
		origins = append(origins, strings.Split(extra, ",")...)
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
	}))

	r.Use(config.PerformanceLogger())

	// Public: the confirm/decline links sent inside session reminders.
	r.GET("/confirmar-sesion", controllers.ConfirmSession)

	auth := r.Group("/auth")
	{
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)

		auth.Use(utils.AuthMiddleware())
		auth.GET("/me", controllers.Me)
	}

	api := r.Group("/api")
	api.Use(utils.AuthMiddleware())
	{
		// Client routes
		clients := api.Group("/clients")
		{
			clients.POST("", controllers.CreateClient)
			clients.GET("", controllers.GetClients)
			clients.GET("/:id", controllers.GetClient)
			clients.PUT("/:id", controllers.UpdateClient)
			clients.DELETE("/:id", controllers.DeleteClient)
			clients.POST("/:id/notes", controllers.CreateClientNote)
			clients.DELETE("/:id/notes/:noteId", controllers.DeleteClientNote)
		}

		// Session routes
		sessions := api.Group("/sessions")
		{
			sessions.POST("", controllers.CreateSession)
			sessions.GET("", controllers.GetSessions)
			sessions.GET("/:id", controllers.GetSession)
			sessions.PUT("/:id", controllers.UpdateSession)
			sessions.DELETE("/:id", controllers.DeleteSession)
		}

		// Payment routes
		payments := api.Group("/payments")
		{
			payments.POST("", controllers.CreatePayment)
			payments.GET("", controllers.GetPayments)
			payments.GET("/:id", controllers.GetPayment)
			payments.PUT("/:id", controllers.UpdatePayment)
			payments.POST("/:id/register", controllers.RegisterPayment)
			payments.DELETE("/:id", controllers.DeletePayment)
		}

		// Reminder routes
		reminders := api.Group("/reminders")
		{
			reminders.GET("/config", controllers.GetReminderConfigs)
			reminders.PUT("/config/:kind", controllers.UpdateReminderConfig)
			reminders.POST("/config/:kind/rules", controllers.AddReminderRule)
			reminders.PUT("/config/:kind/rules/:ruleId", controllers.UpdateReminderRule)
			reminders.DELETE("/config/:kind/rules/:ruleId", controllers.DeleteReminderRule)

			reminders.POST("/run", controllers.RunReminders)
			reminders.GET("/preview", controllers.PreviewReminders)
			reminders.GET("/history", controllers.GetReminderHistory)
			reminders.POST("/send", controllers.SendManualReminder)
		}

		// Reports routes
		api.GET("/reports/financial", controllers.GetFinancialReport)
		api.GET("/reports/fiscal.csv", controllers.ExportFiscalCSV)

		// Dashboard routes
		api.GET("/dashboard", controllers.GetDashboardOverview)
	}

	return r
}
