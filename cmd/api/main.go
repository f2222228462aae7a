package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "merlin/docs" // This is for Swagger
	"merlin/internal/auth"
	"merlin/internal/config"
	"merlin/internal/database"
	"merlin/internal/email"
	"merlin/internal/handlers"
	"merlin/internal/logger"
	"merlin/internal/middleware"
	"merlin/internal/repository"
	"merlin/internal/scheduler"
	"merlin/internal/service"

	httpSwagger "github.com/swaggo/http-swagger"
)

// @title Merlin API
// @version 1.0
// @description Backend API for the Merlin performance management platform
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@merlin.local

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logger
	logger.Setup(logger.Config{
		Level: cfg.Log.Level,
	})

	slog.Info("Starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"env", cfg.App.Env,
		"log_level", cfg.Log.Level,
	)

	// Initialize database
	db, err := database.New(&cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func(db *database.Database) {
		err := db.Close()
		if err != nil {
			slog.Error("Failed to close database connection", "error", err)
		}
	}(db)

	slog.Info("Database connection established")

	// Run database migrations
	migrator := database.NewMigrationExecutor(db.DB)
	if err := migrator.RunMigrations("./migrations"); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database migrations completed")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.DB)
	roleRepo := repository.NewRoleRepository(db.DB)
	auditRepo := repository.NewAuditRepository(db.DB)
	cycleRepo := repository.NewCycleRepository(db.DB)
	formRepo := repository.NewFormRepository(db.DB)
	assignmentRepo := repository.NewAssignmentRepository(db.DB)
	responseRepo := repository.NewResponseRepository(db.DB)
	noteRepo := repository.NewNoteRepository(db.DB)
	summaryRepo := repository.NewSummaryRepository(db.DB)

	// Initialize services
	tokenService := auth.NewService(&cfg.JWT)
	emailService := email.NewService(&cfg.Email)
	orgGraph := service.NewOrgGraphService(userRepo)
	authService := service.NewAuthService(userRepo, tokenService, auditRepo)
	userService := service.NewUserService(userRepo, orgGraph, tokenService, auditRepo)
	cycleService := service.NewCycleService(cycleRepo, formRepo, auditRepo)
	formService := service.NewFormService(formRepo, cycleRepo, auditRepo)
	assignmentService := service.NewAssignmentService(db.DB, formRepo, cycleRepo, userRepo, assignmentRepo, orgGraph, auditRepo)
	responseService := service.NewResponseService(db.DB, formRepo, assignmentRepo, responseRepo)
	resultsService := service.NewResultsService(formRepo, userRepo, assignmentRepo, responseRepo)
	exportService := service.NewExportService(assignmentService, resultsService)
	noteService := service.NewNoteService(noteRepo, summaryRepo, cycleRepo, userRepo)

	// Initialize scheduler
	schedulerService := scheduler.NewScheduler(cycleService, assignmentService, assignmentRepo, emailService, &cfg.Scheduler)
	schedulerService.Start()
	defer schedulerService.Stop()

	// Initialize middleware
	authMw := middleware.NewAuthMiddleware(tokenService)
	adminMw := middleware.NewAdminMiddleware(db.DB)
	corsMw := middleware.NewCORSMiddleware(&cfg.CORS)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit)
	auditMw := middleware.NewAuditMiddleware(db.DB)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, userService, auditMw)
	userHandler := handlers.NewUserHandler(userService)
	cycleHandler := handlers.NewCycleHandler(cycleService, assignmentService)
	formHandler := handlers.NewFormHandler(formService, assignmentService, responseService, resultsService)
	reportHandler := handlers.NewReportHandler(exportService)
	noteHandler := handlers.NewNoteHandler(noteService)
	committeeHandler := handlers.NewCommitteeHandler(roleRepo)
	auditHandler := handlers.NewAuditHandler(auditRepo)

	// admin wraps a handler so only active admins reach it
	admin := func(h http.HandlerFunc) http.Handler {
		return authMw.Authenticate(adminMw.RequireAdmin(h))
	}
	// user wraps a handler so only authenticated users reach it
	user := func(h http.HandlerFunc) http.Handler {
		return authMw.Authenticate(h)
	}

	// Setup router
	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)

	// Authenticated routes
	mux.Handle("GET /api/v1/auth/profile", user(authHandler.GetProfile))
	mux.Handle("POST /api/v1/auth/password", user(authHandler.ChangePassword))

	// Cycle routes
	mux.Handle("GET /api/v1/cycles", user(cycleHandler.ListCycles))
	mux.Handle("GET /api/v1/cycles/{id}", user(cycleHandler.GetCycle))
	mux.Handle("POST /api/v1/cycles",
		authMw.Authenticate(
			adminMw.RequireAdmin(
				auditMw.Log("cycle.create", "cycle", "")(
					http.HandlerFunc(cycleHandler.CreateCycle),
				),
			),
		),
	)
	mux.Handle("DELETE /api/v1/cycles/{id}",
		authMw.Authenticate(
			adminMw.RequireAdmin(
				auditMw.Log("cycle.delete", "cycle", "")(
					http.HandlerFunc(cycleHandler.DeleteCycle),
				),
			),
		),
	)
	mux.Handle("POST /api/v1/cycles/{id}/materialize",
		authMw.Authenticate(
			adminMw.RequireAdmin(
				auditMw.Log("cycle.materialize", "cycle", "")(
					http.HandlerFunc(cycleHandler.MaterializeCycle),
				),
			),
		),
	)

	// Form routes
	mux.Handle("GET /api/v1/forms", user(formHandler.ListForms))
	mux.Handle("GET /api/v1/forms/{id}", user(formHandler.GetForm))
	mux.Handle("POST /api/v1/forms", admin(formHandler.CreateForm))
	mux.Handle("POST /api/v1/forms/{id}/questions", admin(formHandler.AddQuestion))
	mux.Handle("GET /api/v1/forms/{id}/preview", admin(formHandler.PreviewAssignments))
	mux.Handle("POST /api/v1/forms/{id}/materialize",
		authMw.Authenticate(
			adminMw.RequireAdmin(
				auditMw.Log("form.materialize", "form", "")(
					http.HandlerFunc(formHandler.MaterializeForm),
				),
			),
		),
	)
	mux.Handle("POST /api/v1/forms/{id}/assignments", admin(formHandler.CreateManualAssignment))
	mux.Handle("GET /api/v1/forms/{id}/assignments", admin(formHandler.ListAssignments))
	mux.Handle("GET /api/v1/forms/{id}/results", admin(formHandler.GetResults))

	// Response routes (respondent-facing)
	mux.Handle("POST /api/v1/forms/{id}/responses", user(formHandler.SubmitResponses))
	mux.Handle("GET /api/v1/forms/{id}/responses", user(formHandler.GetMyResponses))

	// Report routes (CSV export)
	mux.Handle("GET /api/v1/reports/skipped", admin(reportHandler.ExportSkipped))
	mux.Handle("GET /api/v1/reports/results", admin(reportHandler.ExportResults))

	// Note routes
	mux.Handle("POST /api/v1/notes", user(noteHandler.CreateNote))
	mux.Handle("GET /api/v1/notes", user(noteHandler.ListNotes))
	mux.Handle("GET /api/v1/notes/{id}", user(noteHandler.GetNote))
	mux.Handle("PUT /api/v1/notes/{id}", user(noteHandler.UpdateNote))
	mux.Handle("DELETE /api/v1/notes/{id}", user(noteHandler.DeleteNote))
	mux.Handle("POST /api/v1/notes/{id}/share", user(noteHandler.ShareNote))

	// Summary routes
	mux.Handle("PUT /api/v1/summaries", user(noteHandler.UpsertSummary))
	mux.Handle("GET /api/v1/summaries", user(noteHandler.GetSummary))

	// User routes
	mux.Handle("GET /api/v1/users/{id}/reports", user(userHandler.GetReports))

	// Admin routes
	mux.Handle("POST /api/v1/admin/users",
		authMw.Authenticate(
			adminMw.RequireAdmin(
				auditMw.Log("user.create", "user", "")(
					http.HandlerFunc(userHandler.CreateUser),
				),
			),
		),
	)
	mux.Handle("GET /api/v1/admin/users", admin(userHandler.ListUsers))
	mux.Handle("GET /api/v1/admin/users/{id}", admin(userHandler.GetUser))
	mux.Handle("PUT /api/v1/admin/users/{id}",
		authMw.Authenticate(
			adminMw.RequireAdmin(
				auditMw.Log("user.update", "user", "")(
					http.HandlerFunc(userHandler.UpdateUser),
				),
			),
		),
	)
	mux.Handle("POST /api/v1/admin/committees", admin(committeeHandler.CreateCommittee))
	mux.Handle("GET /api/v1/admin/committees", admin(committeeHandler.ListCommittees))
	mux.Handle("POST /api/v1/admin/committees/{id}/roles", admin(committeeHandler.CreateRole))
	mux.Handle("GET /api/v1/admin/committees/{id}/roles", admin(committeeHandler.ListRoles))
	mux.Handle("GET /api/v1/admin/committees/{id}/members", admin(committeeHandler.ListMembers))
	mux.Handle("GET /api/v1/admin/users/{id}/summaries", admin(noteHandler.ListSubjectSummaries))
	mux.Handle("GET /api/v1/admin/audit-logs", admin(auditHandler.ListAuditLogs))

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.HealthCheck(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, err := w.Write([]byte(`{"status":"unhealthy","database":"error"}`))
			if err != nil {
				slog.Error("Failed to write health check response", "error", err)
				return
			}
			return
		}
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte(`{"status":"healthy","version":"` + cfg.App.Version + `"}`))
		if err != nil {
			slog.Error("Failed to write health check response", "error", err)
			return
		}
	})

	// Swagger documentation
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	// Apply global middleware
	handler := middleware.LoggingMiddleware(
		middleware.SecurityHeaders(
			corsMw.Handler(
				rateLimiter.Limit(mux),
			),
		),
	)

	// Create server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.TimeoutRead,
		WriteTimeout: cfg.Server.TimeoutWrite,
		IdleTimeout:  cfg.Server.TimeoutIdle,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Server starting", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped")
}
