package server

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/comigor/hass-tools/internal/history"
	"github.com/comigor/hass-tools/internal/logger"
)

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("list_entities_by_domain",
		mcp.WithDescription("Lists Home Assistant entities in one domain (light, switch, fan, ...). "+
			"Use the returned friendly names to match the device the user is referring to."),
		mcp.WithString("domain", mcp.Required(), mcp.Description("Entity domain, e.g. \"light\"")),
	), s.handleListEntitiesByDomain)

	s.mcp.AddTool(mcp.NewTool("list_all_entities",
		mcp.WithDescription("Lists every Home Assistant entity, grouped by domain. "+
			"Use this for broad or ambiguous commands when the domain is unknown."),
	), s.handleListAllEntities)

	s.mcp.AddTool(mcp.NewTool("invoke_service",
		mcp.WithDescription("Invokes a Home Assistant service on one entity, e.g. light/turn_on. "+
			"Call list_entities_by_domain first to obtain a valid entity_id."),
		mcp.WithString("entity_id", mcp.Required(), mcp.Description("Full entity id, e.g. \"light.office_fan\"")),
		mcp.WithString("domain", mcp.Required(), mcp.Description("Entity domain, e.g. \"light\"")),
		mcp.WithString("service", mcp.Required(), mcp.Description("Service name, e.g. \"turn_on\"")),
	), s.handleInvokeService)

	s.mcp.AddTool(mcp.NewTool("list_services",
		mcp.WithDescription("Lists the services available for a Home Assistant domain, e.g. turn_on, turn_off, toggle."),
		mcp.WithString("domain", mcp.Required(), mcp.Description("Entity domain, e.g. \"light\"")),
	), s.handleListServices)

	s.mcp.AddTool(mcp.NewTool("get_entity_state",
		mcp.WithDescription("Reads the current state and attributes of one Home Assistant entity. "+
			"Useful before setting brightness, speed, temperature and similar attributes."),
		mcp.WithString("entity_id", mcp.Required(), mcp.Description("Full entity id, e.g. \"light.office_fan\"")),
	), s.handleGetEntityState)

	s.mcp.AddTool(mcp.NewTool("set_entity_attribute",
		mcp.WithDescription("Invokes a Home Assistant service with extra data, e.g. brightness_pct or temperature. "+
			"Use this when invoke_service is not enough."),
		mcp.WithString("entity_id", mcp.Required(), mcp.Description("Full entity id, e.g. \"light.office_fan\"")),
		mcp.WithString("domain", mcp.Required(), mcp.Description("Entity domain, e.g. \"light\"")),
		mcp.WithString("service", mcp.Required(), mcp.Description("Service name, e.g. \"turn_on\"")),
		mcp.WithObject("data", mcp.Description("Extra service data merged into the payload, e.g. {\"brightness_pct\": 40}")),
	), s.handleSetEntityAttribute)
}

func (s *Server) handleListEntitiesByDomain(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	domain, err := req.RequireString("domain")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	entities, err := s.opClient().ListEntitiesByDomain(ctx, domain)
	s.record(ctx, history.Invocation{Tool: "list_entities_by_domain", Domain: domain, Success: err == nil})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(entities)
}

func (s *Server) handleListAllEntities(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	grouped, err := s.opClient().ListAllEntities(ctx)
	s.record(ctx, history.Invocation{Tool: "list_all_entities", Success: err == nil})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(grouped)
}

func (s *Server) handleInvokeService(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entityID, err := req.RequireString("entity_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	domain, err := req.RequireString("domain")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	service, err := req.RequireString("service")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := s.opClient().InvokeService(ctx, entityID, domain, service)
	inv := history.Invocation{Tool: "invoke_service", Entity: entityID, Domain: domain, Service: service}
	if res != nil {
		inv.StatusCode = res.StatusCode
		inv.Success = res.Success
	}
	s.record(ctx, inv)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) handleListServices(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	domain, err := req.RequireString("domain")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	services, err := s.opClient().ListServices(ctx, domain)
	s.record(ctx, history.Invocation{Tool: "list_services", Domain: domain, Success: err == nil})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(services)
}

func (s *Server) handleGetEntityState(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entityID, err := req.RequireString("entity_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	st, err := s.opClient().GetEntityState(ctx, entityID)
	s.record(ctx, history.Invocation{Tool: "get_entity_state", Entity: entityID, Success: err == nil})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(st)
}

func (s *Server) handleSetEntityAttribute(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entityID, err := req.RequireString("entity_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	domain, err := req.RequireString("domain")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	service, err := req.RequireString("service")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, _ := req.GetArguments()["data"].(map[string]any)

	res, err := s.opClient().SetEntityAttribute(ctx, entityID, domain, service, data)
	inv := history.Invocation{Tool: "set_entity_attribute", Entity: entityID, Domain: domain, Service: service}
	if res != nil {
		inv.StatusCode = res.StatusCode
		inv.Success = res.Success
	}
	s.record(ctx, inv)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

// record writes the invocation to the history store. Recording is
// best-effort and never fails the tool call.
func (s *Server) record(_ context.Context, inv history.Invocation) {
	inv.CreatedAt = time.Now().UTC()
	saved := history.Save(inv)
	logger.L.Debug("tool invocation recorded", "id", saved.ID, "tool", saved.Tool, "success", saved.Success)
}
