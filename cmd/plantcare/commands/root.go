// Package commands holds the plantcare cobra commands.
package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/notexe/plant-care/internal/app"
	"github.com/notexe/plant-care/internal/care"
	"github.com/notexe/plant-care/internal/config"
	"github.com/notexe/plant-care/internal/ui"
)

type rootOptions struct {
	configPath string
	envFile    string
	noColor    bool
	verbose    bool
}

// state is shared by the subcommands of one invocation.
type state struct {
	opts rootOptions
	app  *app.App
}

// NewRootCommand builds the plantcare command tree.
func NewRootCommand() *cobra.Command {
	st := &state{}

	rootCmd := &cobra.Command{
		Use:           "plantcare",
		Short:         "Recurring plant care reminders",
		Long:          "plantcare schedules watering, fertilizing and other plant care reminders and sends an alert when they are due.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return st.open(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if st.app == nil {
				return nil
			}
			return st.app.Close()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&st.opts.configPath, "config", config.GetDefaultConfigPath(), "Path to the YAML configuration file")
	flags.StringVar(&st.opts.envFile, "env-file", ".env", "Environment file loaded before the configuration")
	flags.BoolVar(&st.opts.noColor, "no-color", false, "Disable colored output")
	flags.BoolVarP(&st.opts.verbose, "verbose", "v", false, "Log service activity to stderr")

	rootCmd.AddCommand(
		newAddCommand(st),
		newListCommand(st),
		newDueCommand(st),
		newShowCommand(st),
		newDoneCommand(st),
		newToggleCommand(st),
		newEditCommand(st),
		newDeleteCommand(st),
		newTriggerCommand(st),
		newAgendaCommand(st),
		newRunCommand(st),
		newShellCommand(st),
	)

	return rootCmd
}

func (st *state) open(cmd *cobra.Command) error {
	switch cmd.Name() {
	case "help", "completion", cobra.ShellCompRequestCmd:
		return nil
	}

	a, err := app.Open(app.Options{
		ConfigPath: st.opts.configPath,
		EnvFile:    st.opts.envFile,
		Quiet:      !st.opts.verbose && cmd.Name() != "run",
	})
	if err != nil {
		return err
	}
	st.app = a
	return nil
}

func (st *state) colored() bool {
	return st.app.Config.UI.ColoredOutput && !st.opts.noColor
}

func (st *state) formatter() *ui.Formatter {
	return ui.NewFormatter(st.colored())
}

func (st *state) today() care.Date {
	return care.DateOf(st.app.Now())
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
