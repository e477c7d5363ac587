package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/M051719/npivault/access"
	"github.com/M051719/npivault/ccc/logging"
	"github.com/M051719/npivault/config"
	"github.com/M051719/npivault/documents"
	"github.com/M051719/npivault/encryption"
	"github.com/M051719/npivault/handlers"
	"github.com/M051719/npivault/keys"
	"github.com/M051719/npivault/middleware"

	_ "github.com/mattn/go-sqlite3"
)

func main() {
	configPath := flag.String("config", "npivault.json", "path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Save the config in case it was not found or updated
	if err := cfg.SaveConfig(*configPath); err != nil {
		log.Printf("Failed to save configuration: %v", err)
	}

	// Initialize logger
	logger := logging.CreateLogger(logging.LogLevel(cfg.LogLevel), cfg.LogPath, "npivault")
	logger.Info("Starting NPI vault server", "port", cfg.WebPort)

	// Initialize database
	database, err := sql.Open("sqlite3", cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	// Initialize the encryption engine
	engine := encryption.NewAESEngine()

	// Initialize key management
	keyRepo, err := keys.NewSQLiteKeyRepository(database)
	if err != nil {
		log.Fatalf("Failed to create key repository: %v", err)
	}
	keyManager := keys.NewKeyManager(logger, keyRepo, engine)

	// Initialize access control
	subjectRepo, err := access.NewSQLiteSubjectRepository(database)
	if err != nil {
		log.Fatalf("Failed to create subject repository: %v", err)
	}
	permissionRepo, err := access.NewSQLitePermissionRepository(database)
	if err != nil {
		log.Fatalf("Failed to create permission repository: %v", err)
	}
	auditRepo, err := access.NewSQLiteAuditRepository(database)
	if err != nil {
		log.Fatalf("Failed to create audit repository: %v", err)
	}
	aclEngine := access.NewEngine(logger, subjectRepo, permissionRepo, auditRepo)
	subjectService := access.NewSubjectService(logger, subjectRepo)

	// Register the bootstrap admin so the first operator can manage grants
	if cfg.BootstrapAdminID != "" {
		_, err := subjectService.RegisterSubject(context.Background(), cfg.BootstrapAdminID, cfg.BootstrapAdminName, access.RoleAdmin)
		if err != nil && !access.IsSubjectAlreadyExistsError(err) {
			log.Fatalf("Failed to register bootstrap admin: %v", err)
		}
	}

	// Initialize the document vault
	documentRepo, err := documents.NewSQLiteDocumentRepository(database)
	if err != nil {
		log.Fatalf("Failed to create document repository: %v", err)
	}
	vault := documents.NewVault(logger, documentRepo, keyManager, engine, aclEngine)

	// Initialize handlers and middleware
	authMiddleware := middleware.NewAuthMiddleware(logger, []byte(cfg.TokenSecret))
	documentHandler := handlers.NewDocumentHandler(logger, vault)
	accessHandler := handlers.NewAccessHandler(logger, aclEngine, subjectService)
	complianceHandler := handlers.NewComplianceHandler(logger, engine, aclEngine)

	// Set up Gin router
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Add middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Set up routes
	setupRoutes(router, authMiddleware, documentHandler, accessHandler, complianceHandler)

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.WebAddr, cfg.WebPort)
	logger.Info("Server listening", "address", addr)

	if err := http.ListenAndServe(addr, router); err != nil {
		logger.Error("Server failed to start", "error", err)
		os.Exit(1)
	}
}

// setupRoutes configures the HTTP routes
func setupRoutes(router *gin.Engine, authMiddleware *middleware.AuthMiddleware, documentHandler *handlers.DocumentHandler, accessHandler *handlers.AccessHandler, complianceHandler *handlers.ComplianceHandler) {
	// API routes group
	api := router.Group("/api")

	// All API routes require an authenticated identity
	api.Use(authMiddleware.RequireIdentity())

	// Secure document lifecycle
	api.POST("/documents", documentHandler.Upload)
	api.GET("/documents", documentHandler.List)
	api.GET("/documents/:id", documentHandler.Download)
	api.DELETE("/documents/:id", documentHandler.Revoke)

	// Access control
	api.POST("/access/grants", accessHandler.Grant)
	api.DELETE("/access/grants/:id", accessHandler.RevokeGrant)
	api.GET("/access/audit/:subjectId", accessHandler.AuditTrail)
	api.POST("/subjects", accessHandler.RegisterSubject)

	// Compliance
	api.GET("/compliance/status", complianceHandler.Status)
	api.GET("/compliance/report", complianceHandler.Report)

	// Health check endpoint (no auth required)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "npivault",
		})
	})
}
