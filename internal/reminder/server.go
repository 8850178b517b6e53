package reminder

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/notexe/plant-care/internal/care"
)

const (
	serverName    = "plant-care-reminders"
	serverVersion = "1.0.0"
)

// Server is the MCP server for plant care reminders.
type Server struct {
	mcpServer *server.MCPServer
	service   *Service
}

// NewServer creates a new reminder MCP server backed by the given service.
func NewServer(service *Service) *Server {
	s := &Server{
		service: service,
	}

	s.mcpServer = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
	)

	s.registerTools()
	return s
}

// MCPServer returns the underlying MCP server for serving.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	typeDesc := "Care type: " + joinEnum(care.CareTypes)
	freqDesc := "Frequency: " + joinEnum(care.Frequencies)
	dayDesc := "Preferred weekday for weekly and biweekly reminders (e.g. monday)"
	timeDesc := "Preferred time: morning, afternoon, evening or HH:MM"

	// add_reminder
	s.mcpServer.AddTool(
		mcp.NewTool("add_reminder",
			mcp.WithDescription("Create a recurring plant care reminder and schedule its alert"),
			mcp.WithString("plant_id", mcp.Required(), mcp.Description("Identifier of the plant")),
			mcp.WithString("plant_name", mcp.Description("Display name of the plant")),
			mcp.WithString("type", mcp.Required(), mcp.Description(typeDesc)),
			mcp.WithString("frequency", mcp.Required(), mcp.Description(freqDesc)),
			mcp.WithString("start_date", mcp.Required(), mcp.Description("First possible due date, YYYY-MM-DD")),
			mcp.WithString("preferred_day", mcp.Description(dayDesc)),
			mcp.WithString("preferred_time", mcp.Description(timeDesc)),
			mcp.WithBoolean("enabled", mcp.Description("Whether alerts are enabled (default: true)")),
		),
		s.handleAddReminder,
	)

	// list_reminders
	s.mcpServer.AddTool(
		mcp.NewTool("list_reminders",
			mcp.WithDescription("List reminders ordered by next due date, optionally filtered by status"),
			mcp.WithString("status", mcp.Description("Filter by status: enabled, disabled, or empty for all")),
		),
		s.handleListReminders,
	)

	// get_due_reminders
	s.mcpServer.AddTool(
		mcp.NewTool("get_due_reminders",
			mcp.WithDescription("Get enabled reminders that are due today or overdue"),
		),
		s.handleGetDueReminders,
	)

	// complete_reminder
	s.mcpServer.AddTool(
		mcp.NewTool("complete_reminder",
			mcp.WithDescription("Mark a reminder as done and advance it to its next due date"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Reminder ID or unique ID prefix")),
			mcp.WithString("completed_on", mcp.Description("Completion date YYYY-MM-DD (default: today)")),
		),
		s.handleCompleteReminder,
	)

	// toggle_reminder
	s.mcpServer.AddTool(
		mcp.NewTool("toggle_reminder",
			mcp.WithDescription("Enable or disable a reminder's alerts without changing its due date"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Reminder ID or unique ID prefix")),
			mcp.WithBoolean("enabled", mcp.Description("Target state; flips the current state when omitted")),
		),
		s.handleToggleReminder,
	)

	// update_reminder
	s.mcpServer.AddTool(
		mcp.NewTool("update_reminder",
			mcp.WithDescription("Update a reminder's fields; the due date is recomputed from start date and frequency"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Reminder ID or unique ID prefix")),
			mcp.WithString("plant_id", mcp.Description("New plant identifier")),
			mcp.WithString("plant_name", mcp.Description("New plant name")),
			mcp.WithString("type", mcp.Description(typeDesc)),
			mcp.WithString("frequency", mcp.Description(freqDesc)),
			mcp.WithString("start_date", mcp.Description("New start date, YYYY-MM-DD")),
			mcp.WithString("preferred_day", mcp.Description(dayDesc+"; \"none\" clears it")),
			mcp.WithString("preferred_time", mcp.Description(timeDesc)),
			mcp.WithBoolean("enabled", mcp.Description("Whether alerts are enabled")),
		),
		s.handleUpdateReminder,
	)

	// delete_reminder
	s.mcpServer.AddTool(
		mcp.NewTool("delete_reminder",
			mcp.WithDescription("Delete a reminder permanently and cancel its alert"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Reminder ID or unique ID prefix")),
		),
		s.handleDeleteReminder,
	)

	// preview_trigger
	s.mcpServer.AddTool(
		mcp.NewTool("preview_trigger",
			mcp.WithDescription("Show the alert trigger a reminder would register right now"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Reminder ID or unique ID prefix")),
		),
		s.handlePreviewTrigger,
	)
}

func (s *Server) handleAddReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in := Input{
		PlantID:       req.GetString("plant_id", ""),
		PlantName:     req.GetString("plant_name", ""),
		Type:          req.GetString("type", ""),
		Frequency:     req.GetString("frequency", ""),
		StartDate:     req.GetString("start_date", ""),
		PreferredDay:  req.GetString("preferred_day", ""),
		PreferredTime: req.GetString("preferred_time", ""),
		Enabled:       optionalBool(req, "enabled"),
	}

	added, err := s.service.Create(ctx, in)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to add reminder: %v", err)), nil
	}

	return jsonResult(added), nil
}

func (s *Server) handleListReminders(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := req.GetString("status", "")

	reminders, err := s.service.List(ctx, status)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list reminders: %v", err)), nil
	}

	if len(reminders) == 0 {
		return mcp.NewToolResultText("No reminders found."), nil
	}

	return jsonResult(reminders), nil
}

func (s *Server) handleGetDueReminders(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reminders, err := s.service.Due(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get due reminders: %v", err)), nil
	}

	if len(reminders) == 0 {
		return mcp.NewToolResultText("No due reminders."), nil
	}

	return jsonResult(reminders), nil
}

func (s *Server) handleCompleteReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	var on care.Date
	if v := req.GetString("completed_on", ""); v != "" {
		d, err := care.ParseDate(v)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid completed_on: %v", err)), nil
		}
		on = d
	}

	rec, err := s.service.MarkCompleted(ctx, id, on)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to complete reminder: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Reminder %s completed. Next due %s.", rec.ID, rec.NextDue)), nil
}

func (s *Server) handleToggleReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	var (
		rec *Record
		err error
	)
	if enabled := optionalBool(req, "enabled"); enabled != nil {
		rec, err = s.service.SetEnabled(ctx, id, *enabled)
	} else {
		rec, err = s.service.Toggle(ctx, id)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to toggle reminder: %v", err)), nil
	}

	state := "disabled"
	if rec.Enabled {
		state = "enabled"
	}
	return mcp.NewToolResultText(fmt.Sprintf("Reminder %s %s.", rec.ID, state)), nil
}

func (s *Server) handleUpdateReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	current, err := s.service.Get(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to update reminder: %v", err)), nil
	}

	in := InputFrom(*current)
	setIfPresent(&in.PlantID, req, "plant_id")
	setIfPresent(&in.PlantName, req, "plant_name")
	setIfPresent(&in.Type, req, "type")
	setIfPresent(&in.Frequency, req, "frequency")
	setIfPresent(&in.StartDate, req, "start_date")
	setIfPresent(&in.PreferredDay, req, "preferred_day")
	setIfPresent(&in.PreferredTime, req, "preferred_time")
	if strings.EqualFold(in.PreferredDay, "none") {
		in.PreferredDay = ""
	}
	if enabled := optionalBool(req, "enabled"); enabled != nil {
		in.Enabled = enabled
	}

	updated, err := s.service.Edit(ctx, current.ID, in)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to update reminder: %v", err)), nil
	}

	return jsonResult(updated), nil
}

func (s *Server) handleDeleteReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	if err := s.service.Delete(ctx, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete reminder: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Reminder %s deleted.", id)), nil
}

func (s *Server) handlePreviewTrigger(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	trigger, err := s.service.PreviewTrigger(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to preview trigger: %v", err)), nil
	}

	return jsonResult(trigger), nil
}

func jsonResult(v interface{}) *mcp.CallToolResult {
	output, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(output))
}

// optionalBool returns nil when the argument was not supplied, so that
// omitted and false can be told apart.
func optionalBool(req mcp.CallToolRequest, key string) *bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return nil
	}
	return &v
}

func setIfPresent(dst *string, req mcp.CallToolRequest, key string) {
	if v, ok := req.GetArguments()[key].(string); ok {
		*dst = strings.TrimSpace(v)
	}
}
