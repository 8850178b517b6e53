// Command mcp-reminder provides an MCP server for plant care reminders.
//
// The server exposes tools for creating, listing, completing, toggling and
// editing recurring care reminders. Alerts are registered in the same SQLite
// database that `plantcare run` dispatches from.
//
// Usage:
//
//	./mcp-reminder          # Start MCP server (stdio)
//	./mcp-reminder --help   # Show help
//
// Environment:
//
//	PLANTCARE_DB_PATH  Path to SQLite database (default: ~/.plant-care/reminders.db)
package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/notexe/plant-care/internal/app"
	"github.com/notexe/plant-care/internal/config"
	"github.com/notexe/plant-care/internal/reminder"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--help", "-h":
			printHelp()
			return
		}
	}

	a, err := app.Open(app.Options{
		ConfigPath: config.GetDefaultConfigPath(),
		EnvFile:    ".env",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	s := reminder.NewServer(a.Service)
	a.Logger.Infow("Serving reminder tools on stdio", "db", a.Config.Database.Path)

	if err := server.ServeStdio(s.MCPServer()); err != nil {
		a.Logger.Errorw("Server error", "error", err)
		a.Close()
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println(`MCP Reminder Server - Plant care reminders via MCP protocol

USAGE:
    mcp-reminder          Start MCP server (communicates via stdio)
    mcp-reminder --help   Show this help

ENVIRONMENT:
    PLANTCARE_DB_PATH     Path to SQLite database file
                          Default: ~/.plant-care/reminders.db
    PLANTCARE_LOG__LEVEL  Log level (logs go to stderr)

    The YAML configuration at ~/.plant-care/config.yaml is read when present.

TOOLS:
    add_reminder       Create a reminder (plant_id, type, frequency, start_date,
                       preferred_day, preferred_time)
    list_reminders     List reminders ordered by next due date (optional status)
    get_due_reminders  Enabled reminders due today or overdue
    complete_reminder  Mark a reminder as done and advance its due date
    toggle_reminder    Enable or disable a reminder's alerts
    update_reminder    Change reminder fields; the due date is recomputed
    delete_reminder    Delete a reminder and cancel its alert
    preview_trigger    Show the alert trigger a reminder would register

CONFIGURATION:
    Add to your MCP client configuration:
    {
      "mcpServers": {
        "plant-care": {
          "command": "/path/to/mcp-reminder",
          "args": []
        }
      }
    }`)
}
