package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trainerpro-backend/config"
	"trainerpro-backend/controllers"
	"trainerpro-backend/models"
	"trainerpro-backend/routes"
	"trainerpro-backend/services"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found")
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("LOG_PRETTY") == "true" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	config.ConnectDB()

	store := services.NewGormStore(config.DB)
	if err := store.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	if err := store.EnsureDefaultConfigs(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("seeding default reminder configs failed")
	}

	senders := buildSenders()

	sched := services.NewScheduler(
		store, store, store, store, store,
		senders,
		services.SchedulerOptions{
			BaseURL:     os.Getenv("REMINDER_BASE_URL"),
			SendTimeout: 15 * time.Second,
		},
		log.Logger,
	)
	svc := services.NewReminderService(sched, log.Logger)
	if err := svc.Start(); err != nil {
		log.Fatal().Err(err).Msg("starting reminder scheduler failed")
	}
	controllers.InitReminders(svc, sched, store)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r := routes.SetupRouter()

	go func() {
		if err := r.Run(":" + port); err != nil {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")
	svc.Stop()
}

// buildSenders assembles one sender per channel from the environment. Missing
// credentials degrade that channel to log-only delivery so development setups
// run without providers.
func buildSenders() services.SenderRegistry {
	senders := services.SenderRegistry{
		models.ChannelWhatsApp: services.LogSender{Channel: models.ChannelWhatsApp, Log: log.Logger},
		models.ChannelSMS:      services.LogSender{Channel: models.ChannelSMS, Log: log.Logger},
		models.ChannelEmail:    services.LogSender{Channel: models.ChannelEmail, Log: log.Logger},
	}

	if os.Getenv("TWILIO_ACCOUNT_SID") != "" && os.Getenv("TWILIO_AUTH_TOKEN") != "" {
		client := services.NewTwilioClientFromEnv()
		if from := os.Getenv("TWILIO_WHATSAPP_FROM"); from != "" {
			senders[models.ChannelWhatsApp] = services.NewTwilioWhatsAppSender(client, from)
		}
		if from := os.Getenv("TWILIO_SMS_FROM"); from != "" {
			senders[models.ChannelSMS] = services.NewTwilioSMSSender(client, from)
		}
	}

	if url := os.Getenv("AMQP_URL"); url != "" {
		exchange := os.Getenv("AMQP_EXCHANGE")
		if exchange == "" {
			exchange = "reminders"
		}
		qs, err := services.NewQueueSender(url, exchange, models.ChannelEmail)
		if err != nil {
			log.Warn().Err(err).Msg("amqp unavailable, email reminders degrade to log-only")
		} else {
			senders[models.ChannelEmail] = qs
		}
	}

	return senders
}
