package main

import (
	"randevu/cmd/internal/config"
	"randevu/cmd/internal/domain/sqlite"
	"randevu/cmd/internal/domain/sqlite/repository"
	"randevu/cmd/internal/notify"
	"randevu/cmd/internal/routes"
	"randevu/cmd/internal/scheduler"
	"randevu/cmd/internal/service"
	"randevu/cmd/internal/utils"
	"randevu/cmd/internal/utils/validators"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
)

func main() {
	validate := validator.New()
	registerValidators(validate)

	// .env is optional outside local development
	_ = godotenv.Load()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal("failed to load configuration", err)
	}
	utils.ConfigureTokenSecret(cfg.Auth.JWTSecret)

	// Init SQLite
	db, err := sqlite.Init(cfg.Database.Path)
	if err != nil {
		log.Fatal("failed to initialize database", err)
	}

	// Getting repositories
	userRepo := repository.NewUserRepository(db)
	apptRepo := repository.NewAppointmentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Notification fan-out: in-app always, email/push when configured
	sinks := []notify.Sink{notify.NewInAppSink(notificationRepo)}
	if cfg.SMTP.Enabled {
		sinks = append(sinks, notify.NewEmailSink(cfg))
	}
	if cfg.Push.Enabled {
		sinks = append(sinks, notify.NewPushSink(cfg))
	}
	dispatcher := notify.NewDispatcher(userRepo, sinks...)

	// Getting services
	userService := service.NewUserService(userRepo, validate, cfg.Auth.TokenTTL)
	apptService := service.NewAppointmentService(apptRepo, userRepo, dispatcher, validate)
	notificationService := service.NewNotificationService(notificationRepo)

	// Getting routes
	userRoutes := routes.NewUserDefault(userService)
	apptRoutes := routes.NewAppointmentDefault(apptService)
	notificationRoutes := routes.NewNotificationDefault(notificationService)

	// Background schedulers
	expiryScheduler := scheduler.New(scheduler.NewExpiryJob(apptRepo), cfg.Scheduler.ExpiryInterval)
	reminderScheduler := scheduler.New(scheduler.NewReminderJob(apptRepo, dispatcher), cfg.Scheduler.ReminderInterval)
	expiryScheduler.Start()
	reminderScheduler.Start()
	defer expiryScheduler.Stop()
	defer reminderScheduler.Stop()

	e := echo.New()
	e.Use(middleware.CORS())

	// Auth
	e.POST("/api/auth/register", userRoutes.Register)
	e.POST("/api/auth/login", userRoutes.Login)

	// Users
	e.GET("/api/users/consultants", userRoutes.GetConsultants)
	e.GET("/api/users/me", userRoutes.GetProfile)
	e.PUT("/api/users/me", userRoutes.UpdateProfile)
	e.PUT("/api/users/change-password", userRoutes.ChangePassword)

	// Appointments
	e.POST("/api/appointments", apptRoutes.CreateAppointment)
	e.GET("/api/appointments", apptRoutes.GetAppointments)
	e.GET("/api/appointments/dashboard", apptRoutes.GetDashboard)
	e.GET("/api/appointments/pending/requests", apptRoutes.GetPendingRequests)
	e.GET("/api/appointments/:id", apptRoutes.GetAppointment)
	e.PUT("/api/appointments/:id/confirm", apptRoutes.ConfirmAppointment)
	e.PUT("/api/appointments/:id/reject", apptRoutes.RejectAppointment)
	e.PUT("/api/appointments/:id/cancel", apptRoutes.CancelAppointment)
	e.PUT("/api/appointments/:id/complete", apptRoutes.CompleteAppointment)
	e.PUT("/api/appointments/:id/reschedule", apptRoutes.RescheduleAppointment)

	// Notifications
	e.GET("/api/notifications", notificationRoutes.GetNotifications)
	e.GET("/api/notifications/unread-count", notificationRoutes.GetUnreadCount)
	e.PUT("/api/notifications/:id/read", notificationRoutes.MarkAsRead)
	e.PUT("/api/notifications/read-all", notificationRoutes.MarkAllAsRead)

	err = e.Start(":" + cfg.HTTP.Port)
	if err != nil {
		e.Logger.Fatal(err)
	}
}

func registerValidators(validate *validator.Validate) {
	_ = validate.RegisterValidation("hasupper", validators.HasUpper)
	_ = validate.RegisterValidation("haslower", validators.HasLower)
	_ = validate.RegisterValidation("hasdigit", validators.HasDigit)
	_ = validate.RegisterValidation("hasspecial", validators.HasSpecial)
	_ = validate.RegisterValidation("nospaces", validators.NoWhiteSpaces)
	_ = validate.RegisterValidation("iso8601", validators.IsIso8601)
}
