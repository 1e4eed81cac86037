package main

import (
	"log"
	"os"

	_ "github.com/bbasabana/redevance-sub001/api/swagger" // swagger docs
	"github.com/bbasabana/redevance-sub001/internal/database"
	"github.com/bbasabana/redevance-sub001/internal/handler"
	"github.com/bbasabana/redevance-sub001/internal/middleware"
	"github.com/bbasabana/redevance-sub001/internal/repository"
	"github.com/bbasabana/redevance-sub001/internal/service"
	"github.com/bbasabana/redevance-sub001/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           Redevance Audiovisuelle API
// @version         1.0
// @description     Fiscal note lifecycle for the recurring audiovisual licence fee: declarations, tariff resolution, two-signer approval, payment ledger and escalation reminders.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	logger, err := newLogger()
	if err != nil {
		log.Fatalf("Logger initialization failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := database.NewConnection(buildDSN())
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	logger.Info("connected to PostgreSQL")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(logger)
	go wsHub.Run()

	// Repositories
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	entiteRepo := repository.NewEntiteRepository(db)
	assujettiRepo := repository.NewAssujettiRepository(db)
	tarifRepo := repository.NewTarifRepository(db)
	declarationRepo := repository.NewDeclarationRepository(db)
	noteRepo := repository.NewNoteRepository(db)
	sequenceRepo := repository.NewSequenceRepository(db)
	paiementRepo := repository.NewPaiementRepository(db)
	relanceRepo := repository.NewRelanceRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// Outbound email: resend when configured, no-op otherwise
	var notifier service.Notifier
	if apiKey := os.Getenv("RESEND_API_KEY"); apiKey != "" {
		notifier = service.NewEmailNotifier(apiKey, os.Getenv("EMAIL_FROM_ADDRESS"), os.Getenv("EMAIL_FROM_NAME"), logger)
	} else {
		notifier = service.NewNopNotifier(logger)
	}

	// Services
	userService := service.NewUserService(userRepo)
	geographieService := service.NewGeographieService(entiteRepo)
	tarifService := service.NewTarifService(tarifRepo, auditRepo)
	assujettiService := service.NewAssujettiService(assujettiRepo, entiteRepo, noteRepo)
	declarationService := service.NewDeclarationService(
		assujettiRepo, declarationRepo, noteRepo, sequenceRepo, auditRepo,
		tarifService, geographieService, txManager, notifier, wsHub, logger)
	noteService := service.NewNoteService(noteRepo, declarationRepo, auditRepo, txManager)
	paiementService := service.NewPaiementService(
		paiementRepo, noteRepo, assujettiRepo, auditRepo, txManager, notifier, logger)
	relanceService := service.NewRelanceService(
		relanceRepo, noteRepo, auditRepo, txManager, notifier, nil, logger)

	// Handlers
	userHandler := handler.NewUserHandler(userService)
	entiteHandler := handler.NewEntiteHandler(geographieService)
	assujettiHandler := handler.NewAssujettiHandler(assujettiService)
	tarifHandler := handler.NewTarifHandler(tarifService)
	declarationHandler := handler.NewDeclarationHandler(declarationService)
	noteHandler := handler.NewNoteHandler(noteService, paiementService, relanceService)
	paiementHandler := handler.NewPaiementHandler(paiementService)
	relanceHandler := handler.NewRelanceHandler(relanceService)
	auditHandler := handler.NewAuditHandler(auditRepo)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	root := router.Group("")
	userHandler.RegisterRoutes(root)
	entiteHandler.RegisterRoutes(root)
	assujettiHandler.RegisterRoutes(root)
	tarifHandler.RegisterRoutes(root)
	declarationHandler.RegisterRoutes(root)
	noteHandler.RegisterRoutes(root)
	paiementHandler.RegisterRoutes(root)
	relanceHandler.RegisterRoutes(root)
	auditHandler.RegisterRoutes(root)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Info("server listening", zap.String("port", port))
	if err := router.Run(":" + port); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func newLogger() (*zap.Logger, error) {
	if os.Getenv("GIN_MODE") == "release" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func buildDSN() string {
	get := func(key, fallback string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fallback
	}

	dbHost := get("DB_HOST", "localhost")
	dbPort := get("DB_PORT", "5432")
	dbUser := get("DB_USER", "postgres")
	dbPassword := get("DB_PASSWORD", "postgres")
	dbName := get("DB_NAME", "postgres")
	dbSslMode := get("DB_SSLMODE", "disable")

	return "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode
}
