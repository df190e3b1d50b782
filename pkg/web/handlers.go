// Package web provides HTTP handlers and REST API endpoints for agent
// configuration management.
package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/agentforge/agentforge/pkg/models"
	"github.com/agentforge/agentforge/pkg/permissions"
	"github.com/agentforge/agentforge/pkg/persistence"
	"github.com/agentforge/agentforge/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// ActorHeader carries the authenticated actor identity. Upstream
// authentication middleware is expected to have verified it.
const ActorHeader = "X-Actor-ID"

type APIHandlers struct {
	agentService      *services.Agent
	publishingService *services.Publishing
	permissionService *services.Permission
	executionService  *services.Execution
	validator         *validator.Validate
}

func NewAPIHandlers(
	agentService *services.Agent,
	publishingService *services.Publishing,
	permissionService *services.Permission,
	executionService *services.Execution,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		agentService:      agentService,
		publishingService: publishingService,
		permissionService: permissionService,
		executionService:  executionService,
		validator:         validator,
	}
}

func actorID(c fiber.Ctx) string {
	return c.Get(ActorHeader)
}

// snapshotFor computes the caller's permission snapshot for an agent. When
// ok is false the response has already been written and the handler must
// return the accompanying error as-is.
func (h *APIHandlers) snapshotFor(c fiber.Ctx, agentID string) (models.PermissionSnapshot, bool, error) {
	actor := actorID(c)
	if actor == "" {
		return models.PermissionSnapshot{}, false, unauthorized(c, "missing "+ActorHeader+" header")
	}

	snapshot, err := h.permissionService.Snapshot(c.Context(), agentID, actor)
	if err != nil {
		return models.PermissionSnapshot{}, false, handleServiceError(c, err)
	}

	return *snapshot, true, nil
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.agentService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Agentforge API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Agentforge API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) GetAgents(c fiber.Ctx) error {
	req := services.ListAgentsRequest{OwnerID: c.Query("owner_id")}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return badRequest(c, "Invalid limit: "+limitStr)
		}

		req.Limit = limit
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return badRequest(c, "Invalid offset: "+offsetStr)
		}

		req.Offset = offset
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status := models.AgentStatus(statusStr)
		req.Status = &status
	}

	agents, err := h.agentService.ListAgents(c.Context(), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"agents": agents,
		"pagination": fiber.Map{
			"limit":  req.Limit,
			"offset": req.Offset,
		},
	})
}

func (h *APIHandlers) CreateAgent(c fiber.Ctx) error {
	actor := actorID(c)
	if actor == "" {
		return unauthorized(c, "missing "+ActorHeader+" header")
	}

	var payload models.Agent
	if err := c.Bind().JSON(&payload); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	created, err := h.agentService.CreateAgent(c.Context(), actor, &payload)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) GetAgent(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Agent ID is required")
	}

	agent, err := h.agentService.GetAgent(c.Context(), id)
	if err != nil {
		if persistence.IsAgentNotFound(err) {
			return notFound(c, "agent not found")
		}

		return internalError(c, err)
	}

	return c.JSON(agent)
}

func (h *APIHandlers) UpdateAgent(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Agent ID is required")
	}

	snapshot, ok, err := h.snapshotFor(c, id)
	if !ok {
		return err
	}

	// Field-level gating happens in the editing surface; the API only
	// requires some editing grant at all.
	if !permissions.CanEdit(snapshot) {
		return forbidden(c, "no editing capability for this agent")
	}

	var payload models.Agent
	if err := c.Bind().JSON(&payload); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	updated, err := h.agentService.UpdateAgent(c.Context(), id, &payload)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteAgent(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Agent ID is required")
	}

	snapshot, ok, err := h.snapshotFor(c, id)
	if !ok {
		return err
	}

	if permissions.Authorize(snapshot, permissions.SectionDeleteAction) != permissions.Mutable {
		return forbidden(c, "no delete capability for this agent")
	}

	if err := h.agentService.DeleteAgent(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) PublishAgent(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Agent ID is required")
	}

	snapshot, ok, err := h.snapshotFor(c, id)
	if !ok {
		return err
	}

	if permissions.Authorize(snapshot, permissions.SectionPublishAction) != permissions.Mutable {
		return forbidden(c, "no publish capability for this agent")
	}

	published, err := h.publishingService.PublishAgent(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(published)
}

func (h *APIHandlers) RestoreStatus(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Agent ID is required")
	}

	snapshot, ok, err := h.snapshotFor(c, id)
	if !ok {
		return err
	}

	// Restoring status is part of the publish lifecycle.
	if permissions.Authorize(snapshot, permissions.SectionPublishAction) != permissions.Mutable {
		return forbidden(c, "no publish capability for this agent")
	}

	var req RestoreStatusRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	restored, err := h.publishingService.RestoreStatus(c.Context(), id, req.Status)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(restored)
}

func (h *APIHandlers) GetPermissions(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Agent ID is required")
	}

	snapshot, ok, err := h.snapshotFor(c, id)
	if !ok {
		return err
	}

	sections := make(map[string]string)
	for section, mutability := range permissions.MutabilityMap(snapshot) {
		sections[string(section)] = string(mutability)
	}

	capabilities := snapshot.Capabilities
	if capabilities == nil {
		capabilities = []models.Capability{}
	}

	return c.JSON(PermissionsResponse{
		IsOwner:      snapshot.IsOwner,
		IsAdmin:      snapshot.IsAdmin,
		Capabilities: capabilities,
		Sections:     sections,
	})
}

func (h *APIHandlers) SetGrants(c fiber.Ctx) error {
	id := c.Params("id")
	targetID := c.Params("actorId")

	if id == "" || targetID == "" {
		return badRequest(c, "Agent ID and actor ID are required")
	}

	actor := actorID(c)
	if actor == "" {
		return unauthorized(c, "missing "+ActorHeader+" header")
	}

	var req SetGrantsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.permissionService.Delegate(c.Context(), id, actor, targetID, req.Capabilities); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) RevokeGrants(c fiber.Ctx) error {
	id := c.Params("id")
	targetID := c.Params("actorId")

	if id == "" || targetID == "" {
		return badRequest(c, "Agent ID and actor ID are required")
	}

	actor := actorID(c)
	if actor == "" {
		return unauthorized(c, "missing "+ActorHeader+" header")
	}

	if err := h.permissionService.Revoke(c.Context(), id, actor, targetID); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) StartExecution(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Agent ID is required")
	}

	snapshot, ok, err := h.snapshotFor(c, id)
	if !ok {
		return err
	}

	// Anyone who can edit something may test-run the agent.
	if permissions.Authorize(snapshot, permissions.SectionTestStep) != permissions.Mutable {
		return forbidden(c, "no test capability for this agent")
	}

	var req StartExecutionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	execution, err := h.executionService.StartExecution(c.Context(), id, req.Subtitle)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(execution)
}

func (h *APIHandlers) GetAgentExecutions(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Agent ID is required")
	}

	executions, err := h.executionService.ListExecutions(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"executions": executions})
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Execution ID is required")
	}

	execution, err := h.executionService.GetExecution(c.Context(), id)
	if err != nil {
		if persistence.IsExecutionNotFound(err) {
			return notFound(c, "execution not found")
		}

		return internalError(c, err)
	}

	return c.JSON(execution)
}

func (h *APIHandlers) ApproveExecution(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Execution ID is required")
	}

	actor := actorID(c)
	if actor == "" {
		return unauthorized(c, "missing "+ActorHeader+" header")
	}

	execution, err := h.executionService.ApproveExecution(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(execution)
}
