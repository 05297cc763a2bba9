package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/TerexitariusStomp/BrazilCommunityCurrency/internal/config"
	"github.com/TerexitariusStomp/BrazilCommunityCurrency/internal/handlers"
	"github.com/TerexitariusStomp/BrazilCommunityCurrency/internal/repositories"
	"github.com/TerexitariusStomp/BrazilCommunityCurrency/internal/routes"
	"github.com/TerexitariusStomp/BrazilCommunityCurrency/internal/services"
	"github.com/TerexitariusStomp/BrazilCommunityCurrency/internal/utils"
)

func Run() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file, using process environment")
	}

	cfg := config.LoadConfig()

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("database connection failed: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("database close: %v", err)
		}
	}()

	if err := runMigrations(cfg.Database.DSN); err != nil {
		log.Fatal("migrations failed: ", err)
	}

	// === Repos ===
	sessionRepo := repositories.NewSessionRepository(db)
	walletRepo := repositories.NewWalletRepository(db)
	authTokenRepo := repositories.NewAuthTokenRepository(db)
	connectionRegistry := repositories.NewConnectionRegistry()

	// === External clients ===
	whatsappClient := utils.NewWhatsAppClient(cfg.WhatsApp.APIURL, cfg.WhatsApp.APIKey, cfg.WhatsApp.DryRun)
	pluggyClient := services.NewPluggyService(cfg.Pluggy.ClientID, cfg.Pluggy.ClientSecret, cfg.Pluggy.Sandbox)
	relayer := services.NewRelayerClient(cfg.Chain.RelayerURL, cfg.Chain.OracleAddress, cfg.Chain.FactoryAddress)

	// Deployment strategy is picked once, here, never inside business logic.
	var deployer services.Deployer
	if cfg.Chain.EnableOnchainDeploy && relayer.FactoryConfigured() {
		deployer = services.NewLiveDeployer(relayer)
	} else {
		deployer = services.NewSyntheticDeployer()
	}

	// === Services ===
	authService := services.NewAuthService(authTokenRepo, walletRepo, whatsappClient, cfg.Server.BaseURL, cfg.Auth.JWTSecret)
	whatsappService := services.NewWhatsAppService(sessionRepo, walletRepo, authService)
	deployService := services.NewDeployService(deployer)
	syncService := services.NewOracleSyncService(connectionRegistry, pluggyClient, relayer, cfg.Server.BaseURL)

	// === Handlers ===
	tokenHandler := handlers.NewTokenHandler(deployService, syncService)
	webhookHandler := handlers.NewWebhookHandler(syncService)
	whatsappHandler := handlers.NewWhatsAppHandler(whatsappService)
	authHandler := handlers.NewAuthHandler(authService)
	walletHandler := handlers.NewWalletHandler(walletRepo)
	healthHandler := handlers.NewHealthHandler(db, pluggyClient, whatsappClient, relayer, deployService.Mode())

	// === Gin ===
	router := gin.Default()
	router.Use(corsMiddleware())

	routes.SetupRoutes(
		router,
		tokenHandler,
		webhookHandler,
		whatsappHandler,
		authHandler,
		walletHandler,
		healthHandler,
		[]byte(cfg.Auth.JWTSecret),
	)

	// === Background sync ===
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	syncService.StartBalanceUpdates(ctx)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("server listening on %s (deployer=%s)", listenAddr, deployService.Mode())
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("server start failed: ", err)
	}
}

func runMigrations(dsn string) error {
	m, err := migrate.New("file://migrations", dsn)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
