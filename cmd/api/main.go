package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/yourusername/accounts-api/internal/config"
	"github.com/yourusername/accounts-api/internal/handler"
	"github.com/yourusername/accounts-api/internal/middleware"
	pgRepo "github.com/yourusername/accounts-api/internal/repository/postgres"
	"github.com/yourusername/accounts-api/internal/service"
	"github.com/yourusername/accounts-api/pkg/auth"
	"github.com/yourusername/accounts-api/pkg/database"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	// Применяем миграции
	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к Redis (rate limiting)
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Инициализируем репозитории
	accountRepo := pgRepo.NewAccountRepo(db)
	profileRepo := pgRepo.NewAccountProfileRepo(db)
	codeRepo := pgRepo.NewVerificationCodeRepo(db)
	refreshTokenRepo := pgRepo.NewRefreshTokenRepo(db)

	// Инициализируем отправку писем
	emailService, err := buildEmailService(cfg.Email)
	if err != nil {
		log.Printf("Failed to initialize email service: %v", err)
		os.Exit(1)
	}

	// Инициализируем JWT
	jwtService, err := auth.NewJWTService(
		cfg.JWT.Secret,
		time.Duration(cfg.JWT.ExpirationHrs)*time.Hour,
		cfg.JWT.Issuer,
	)
	if err != nil {
		log.Printf("Failed to initialize JWT service: %v", err)
		os.Exit(1)
	}

	// Инициализируем сервисы
	accountService, err := service.NewAccountService(accountRepo)
	if err != nil {
		log.Printf("Failed to initialize AccountService: %v", err)
		os.Exit(1)
	}

	verificationService, err := service.NewVerificationService(
		codeRepo,
		accountRepo,
		emailService,
		time.Duration(cfg.Verification.TTLMinutes)*time.Minute,
		cfg.Verification.MaxAttempts,
	)
	if err != nil {
		log.Printf("Failed to initialize VerificationService: %v", err)
		os.Exit(1)
	}

	gateService, err := service.NewStatusGateService(profileRepo, accountRepo, refreshTokenRepo, emailService)
	if err != nil {
		log.Printf("Failed to initialize StatusGateService: %v", err)
		os.Exit(1)
	}

	sessionService, err := service.NewSessionService(
		jwtService,
		refreshTokenRepo,
		accountRepo,
		gateService,
		time.Duration(cfg.Auth.RefreshTokenLifetime)*time.Hour,
	)
	if err != nil {
		log.Printf("Failed to initialize SessionService: %v", err)
		os.Exit(1)
	}

	// Инициализируем обработчики
	authHandler := handler.NewAuthHandler(accountService, sessionService, verificationService, gateService)
	adminHandler := handler.NewAdminHandler(gateService)

	// Инициализируем middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	gateMiddleware := middleware.NewGateMiddleware(gateService, refreshTokenRepo)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Контекст для фоновых задач
	ctx, cancel := context.WithCancel(context.Background())

	// Периодическая очистка протухших refresh-токенов
	go func() {
		ticker := time.NewTicker(12 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed, err := refreshTokenRepo.CleanupExpired(); err != nil {
					log.Printf("Failed to clean up expired refresh tokens: %v", err)
				} else if removed > 0 {
					log.Printf("Cleaned up %d expired refresh tokens", removed)
				}
			}
		}
	}()

	router := gin.Default()

	// Настройка CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Настраиваем маршруты API
	api := router.Group("/api")
	{
		// Аутентификация и подтверждение email
		authGroup := api.Group("/auth")
		authGroup.Use(rateLimiter.Limit(middleware.DefaultAuthRateLimitConfig()))
		{
			strict := rateLimiter.Limit(middleware.StrictAuthRateLimitConfig())
			authGroup.POST("/signup", strict, authHandler.Signup)
			authGroup.POST("/login", strict, authHandler.Login)
			authGroup.POST("/refresh", authHandler.RefreshToken)
			authGroup.POST("/verify-email", strict, authHandler.VerifyEmail)
			authGroup.POST("/resend-code", strict, authHandler.ResendCode)
			authGroup.GET("/verification-status", authHandler.VerificationStatus)

			authedAuth := authGroup.Group("/")
			authedAuth.Use(authMiddleware.RequireAuth())
			{
				authedAuth.POST("/logout", authHandler.Logout)
			}
		}

		// Пользователи: доступ только активным учетным записям
		users := api.Group("/users")
		users.Use(authMiddleware.RequireAuth(), gateMiddleware.RequireActive())
		{
			users.GET("/me", authHandler.GetMe)
		}

		// Администрирование профилей: очередь на одобрение и переходы статусов.
		// Гейт здесь тоже стоит: заблокированный админ не должен продолжать
		// админить с живым access-токеном.
		admin := api.Group("/admin")
		admin.Use(authMiddleware.RequireAuth(), gateMiddleware.RequireActive())
		{
			admin.GET("/profiles", adminHandler.ListProfiles)

			target := admin.Group("/profiles/:id")
			target.Use(middleware.ExtractUintParam("id", "targetID"))
			{
				target.POST("/approve", adminHandler.ApproveProfile)
				target.POST("/reject", adminHandler.RejectProfile)
				target.POST("/suspend", adminHandler.SuspendProfile)
				target.POST("/reinstate", adminHandler.ReinstateProfile)
			}
		}
	}

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Server started on port %s", cfg.Server.Port)

	// Ждем сигнала остановки
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Отправляем сигнал завершения для фоновых горутин
	cancel()

	// Создаем контекст с таймаутом для graceful shutdown сервера
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	if err := redisClient.Close(); err != nil {
		log.Printf("Error closing Redis client: %v", err)
	}

	log.Println("Server exited properly")
}

// buildEmailService выбирает реализацию отправки писем по конфигурации
func buildEmailService(cfg config.EmailConfig) (service.EmailService, error) {
	switch cfg.Provider {
	case "resend":
		return service.NewResendEmailService(cfg.ResendAPIKey, cfg.FromAddress)
	case "smtp":
		return service.NewSMTPEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.FromAddress)
	case "noop", "":
		log.Println("Email provider is 'noop': письма только логируются")
		return &service.NoopEmailService{}, nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}
