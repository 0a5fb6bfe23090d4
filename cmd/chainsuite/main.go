package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/arcline-lab/chainsuite/internal/api"
	"github.com/arcline-lab/chainsuite/internal/chain"
	"github.com/arcline-lab/chainsuite/internal/config"
	"github.com/arcline-lab/chainsuite/internal/keeper"
	"github.com/arcline-lab/chainsuite/internal/services"
	"github.com/arcline-lab/chainsuite/internal/utils"
	"go.uber.org/zap"
)

// Build information (set via ldflags)
var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildTime  = "unknown"
)

func main() {
	var showVersion = flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		log.Printf("ChainSuite\n")
		log.Printf("Version: %s\n", Version)
		log.Printf("Commit: %s\n", CommitHash)
		log.Printf("Built: %s\n", BuildTime)
		return
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	var db services.DBService
	if cfg.DatabaseURL != "" {
		db, err = services.NewPostgresDBService(cfg.DatabaseURL)
	} else {
		db, err = services.NewSqliteDBService(cfg.SQLitePath)
	}
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	chainClient, err := chain.NewEvmClient(cfg.Chain, logger)
	if err != nil {
		logger.Fatal("failed to initialize chain client", zap.Error(err))
	}

	userService := services.NewUserService(db.GetDB())
	whitelistService := services.NewWhitelistService(db.GetDB(), chainClient)
	positionService := services.NewPositionService(db.GetDB(), whitelistService)
	rewardsService := services.NewRewardsService(db.GetDB(), userService, positionService, whitelistService, chainClient)
	pipelineService := services.NewTaskPipelineService(chainClient)
	orderService := services.NewOrderService(db.GetDB(), userService, chainClient)
	dcaService := services.NewDcaService(db.GetDB(), userService, chainClient)
	deployerService := services.NewDeployerService(db.GetDB(), userService, chainClient)
	wrapperService := services.NewWrapperService(db.GetDB(), chainClient)

	authenticator := utils.NewJwtAuthenticator(cfg.JWTSecret, cfg.JWTIssuer)
	apiServer := api.NewAPIServer(api.Services{
		User:      userService,
		Whitelist: whitelistService,
		Position:  positionService,
		Rewards:   rewardsService,
		Pipeline:  pipelineService,
		Orders:    orderService,
		Dca:       dcaService,
		Deployer:  deployerService,
		Wrapper:   wrapperService,
	}, authenticator, logger)

	port, err := apiServer.Start(cfg.Port)
	if err != nil {
		logger.Fatal("failed to start api server", zap.Error(err))
	}
	logger.Info("api server started", zap.Int("port", port))

	var dcaKeeper *keeper.Keeper
	if cfg.KeeperSpec != "" {
		dcaKeeper = keeper.NewKeeper(dcaService, logger, cfg.KeeperSpec)
		if err := dcaKeeper.Start(); err != nil {
			logger.Fatal("failed to start keeper", zap.Error(err))
		}
	}

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	logger.Info("shutting down")
	if dcaKeeper != nil {
		dcaKeeper.Stop()
	}
	if err := apiServer.Shutdown(); err != nil {
		logger.Error("error shutting down api server", zap.Error(err))
	}
}
