// Package main provides the Agentforge API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/agentforge/agentforge/pkg/eventbus"
	"github.com/agentforge/agentforge/pkg/persistence"
	"github.com/agentforge/agentforge/pkg/services"
	"github.com/agentforge/agentforge/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	executions  persistence.ExecutionRepository
	eventBus    eventbus.EventBus
	adminIDs    []string
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	executions persistence.ExecutionRepository,
	eventBus eventbus.EventBus,
	adminIDs []string,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		executions:  executions,
		eventBus:    eventBus,
		adminIDs:    adminIDs,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	agentService := services.NewAgent(a.persistence, a.eventBus)
	publishingService := services.NewPublishing(a.persistence, a.eventBus)
	permissionService := services.NewPermission(a.persistence, a.adminIDs)
	executionService := services.NewExecution(a.persistence.AgentRepository(), a.executions, a.eventBus)

	handlers := web.NewAPIHandlers(
		agentService,
		publishingService,
		permissionService,
		executionService,
		a.validate,
	)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Agentforge API")
	})

	ag := app.Group("/agents")
	ag.Get("/", handlers.GetAgents)
	ag.Post("/", handlers.CreateAgent)
	ag.Get("/:id", handlers.GetAgent)
	ag.Patch("/:id", handlers.UpdateAgent)
	ag.Delete("/:id", handlers.DeleteAgent)
	ag.Post("/:id/publish", handlers.PublishAgent)
	ag.Post("/:id/restore-status", handlers.RestoreStatus)

	// Permission endpoints:
	ag.Get("/:id/permissions", handlers.GetPermissions)
	ag.Put("/:id/grants/:actorId", handlers.SetGrants)
	ag.Delete("/:id/grants/:actorId", handlers.RevokeGrants)

	// Execution endpoints:
	ag.Post("/:id/executions", handlers.StartExecution)
	ag.Get("/:id/executions", handlers.GetAgentExecutions)

	ex := app.Group("/executions")
	ex.Get("/:id", handlers.GetExecution)
	ex.Post("/:id/approve", handlers.ApproveExecution)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
