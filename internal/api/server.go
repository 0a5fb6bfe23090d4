package api

import (
	"fmt"
	"net"

	"github.com/arcline-lab/chainsuite/internal/api/middleware"
	"github.com/arcline-lab/chainsuite/internal/services"
	"github.com/arcline-lab/chainsuite/internal/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

// Services bundles everything the HTTP surface depends on.
type Services struct {
	User      services.UserService
	Whitelist services.WhitelistService
	Position  services.PositionService
	Rewards   services.RewardsService
	Pipeline  services.TaskPipelineService
	Orders    services.OrderService
	Dca       services.DcaService
	Deployer  services.DeployerService
	Wrapper   services.WrapperService
}

type APIServer struct {
	app       *fiber.App
	services  Services
	auth      *utils.JwtAuthenticator
	logger    *zap.Logger
	validator *validator.Validate
	port      int
}

func NewAPIServer(svcs Services, auth *utils.JwtAuthenticator, log *zap.Logger) *APIServer {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	// Add middleware
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))

	server := &APIServer{
		app:       app,
		services:  svcs,
		auth:      auth,
		logger:    log,
		validator: validator.New(),
	}
	server.setupRoutes()
	return server
}

func (s *APIServer) setupRoutes() {
	authed := middleware.AuthMiddleware(middleware.AuthConfig{JWTAuthenticator: s.auth})
	adminOnly := middleware.AuthMiddleware(middleware.AuthConfig{JWTAuthenticator: s.auth, RequireAdmin: true})

	// Registry and rewards
	s.app.Post("/users/register", s.handleRegisterUser)
	s.app.Get("/users/:address/id", s.handleGetUserID)
	s.app.Post("/users/withdraw-all", authed, s.handleWithdrawAll)
	s.app.Post("/rewards/claim", authed, s.handleClaimRewards)
	s.app.Get("/rewards", authed, s.handleGetRewards)

	// Composable task pipeline
	s.app.Post("/tasks/compose", authed, s.handleComposeTasks)

	// Order book
	s.app.Post("/orders", authed, s.handleCreateOrder)
	s.app.Get("/orders", s.handleGetOrders)
	s.app.Delete("/orders/:id", authed, s.handleCancelOrder)
	s.app.Post("/orders/:id/prune", authed, s.handlePruneOrder)
	s.app.Get("/orders/settings", s.handleGetOrderBookSettings)

	// Recurring trades
	s.app.Post("/dca/actions", authed, s.handleCreateDcaAction)
	s.app.Get("/dca/actions", authed, s.handleGetDcaActions)
	s.app.Patch("/dca/actions/:id/total-actions", authed, s.handleChangeTotalActions)
	s.app.Patch("/dca/actions/:id/frequency", authed, s.handleChangeTradeFrequency)

	// Exchange deployer
	s.app.Post("/deployer/deploy", authed, s.handleDeploy)
	s.app.Get("/deployer/deployments", authed, s.handleGetDeployments)
	s.app.Get("/deployer/fees/:action", s.handleGetActionFee)

	// Extra rewards wrapper
	s.app.Post("/wrapper/wrap", authed, s.handleWrapFarmToken)
	s.app.Post("/wrapper/unwrap", authed, s.handleUnwrapFarmToken)
	s.app.Post("/wrapper/merge", authed, s.handleMergeWrappedTokens)
	s.app.Post("/wrapper/claim", authed, s.handleClaimExtraRewards)

	// Admin surface
	admin := s.app.Group("/admin", adminOnly)
	admin.Post("/farms", s.handleAddFarms)
	admin.Delete("/farms", s.handleRemoveFarms)
	admin.Post("/metastakings", s.handleAddMetastakings)
	admin.Delete("/metastakings", s.handleRemoveMetastakings)
	admin.Post("/orders/pause", s.handlePauseOrderBook)
	admin.Post("/orders/unpause", s.handleUnpauseOrderBook)
	admin.Put("/orders/settings", s.handleUpdateOrderBookSettings)
	admin.Put("/rewards/settings", s.handleSaveRewardsSettings)
	admin.Put("/dca/retries", s.handleSetNrRetries)
	admin.Post("/deployer/pause", s.handlePauseDeployer)
	admin.Post("/deployer/unpause", s.handleUnpauseDeployer)
	admin.Put("/deployer/fees", s.handleSetDeployFees)
	admin.Put("/wrapper/settings", s.handleConfigureWrapper)
	admin.Post("/wrapper/rewards/deposit", s.handleDepositWrapperRewards)
	admin.Post("/wrapper/rewards/withdraw", s.handleWithdrawWrapperRewards)

	// Health check
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})
}

// Start starts the server; port 0 picks a random available port.
func (s *APIServer) Start(port int) (int, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return 0, fmt.Errorf("failed to bind port: %w", err)
	}
	s.port = listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	go func() {
		if err := s.app.Listen(fmt.Sprintf(":%d", s.port)); err != nil {
			s.logger.Error("api server stopped", zap.Error(err))
		}
	}()
	return s.port, nil
}

func (s *APIServer) Shutdown() error {
	return s.app.Shutdown()
}

func (s *APIServer) GetPort() int {
	return s.port
}

// App exposes the fiber app for in-process testing.
func (s *APIServer) App() *fiber.App {
	return s.app
}
