package main

import (
	"context"
	"database/sql"
	"net/http"

	"bookinghub/internal/api"
	"bookinghub/internal/auth"
	"bookinghub/internal/config"
	"bookinghub/internal/repository"
	"bookinghub/internal/service"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	database, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to open DB", zap.Error(err))
	}
	if err := database.Ping(); err != nil {
		log.Fatal("failed to connect to DB", zap.Error(err))
	}

	bookingRepo := repository.NewBookingRepository(database)
	resourceRepo := repository.NewResourceRepository(database)
	profileRepo := repository.NewProfileRepository(database)
	jobRepo := repository.NewJobRepository(database)

	listener := repository.NewChangeListener(cfg.DatabaseURL, log)
	go func() {
		if err := listener.Run(context.Background()); err != nil && err != context.Canceled {
			log.Error("booking change listener stopped", zap.Error(err))
		}
	}()

	sender := service.NewSenderService(cfg, log)
	availabilitySvc := service.NewAvailabilityService(bookingRepo, listener, cfg.Policy.Window, log)
	bookingSvc := service.NewBookingService(bookingRepo, resourceRepo, sender, cfg.Policy, log)
	authSvc := service.NewAuthService(profileRepo, cfg.JWTSecret)
	jobSvc := service.NewJobService(jobRepo, sender, cfg.Policy.ReminderLead, log)

	resourceHandler := api.NewResourceHandler(resourceRepo)
	bookingHandler := api.NewBookingHandler(availabilitySvc, bookingSvc)
	authHandler := api.NewAuthHandler(authSvc)

	scheduler := cron.New()
	scheduler.AddFunc("@every 5m", func() {
		if err := jobSvc.CompleteFinishedBookings(); err != nil {
			log.Error("completed-bookings sweep failed", zap.Error(err))
		}
	})
	scheduler.AddFunc("@every 1m", func() {
		if err := jobSvc.SendUpcomingReminders(); err != nil {
			log.Error("reminder sweep failed", zap.Error(err))
		}
	})
	scheduler.Start()

	r := mux.NewRouter()

	// Public endpoints
	r.HandleFunc("/api/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/api/resources", resourceHandler.ListResources).Methods("GET")
	r.HandleFunc("/api/resources/{id}", resourceHandler.GetResource).Methods("GET")
	r.HandleFunc("/api/resources/{id}/events", bookingHandler.StreamResourceEvents).Methods("GET")
	r.HandleFunc("/api/availability", bookingHandler.CheckAvailability).Methods("POST")

	// Booking endpoints (authenticated)
	bookings := r.PathPrefix("/api/bookings").Subrouter()
	bookings.Use(auth.Middleware(cfg.JWTSecret))
	bookings.HandleFunc("", bookingHandler.ListBookings).Methods("GET")
	bookings.HandleFunc("", bookingHandler.CreateBooking).Methods("POST")
	bookings.HandleFunc("/{id}", bookingHandler.UpdateBooking).Methods("PUT")
	bookings.HandleFunc("/{id}", bookingHandler.CancelBooking).Methods("DELETE")
	bookings.HandleFunc("/{id}/feedback", bookingHandler.LeaveFeedback).Methods("POST")

	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)

	log.Info("server running", zap.String("port", cfg.Port))
	if err := http.ListenAndServe(":"+cfg.Port, cors(r)); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
