package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/notexe/plant-care/internal/care"
	"github.com/notexe/plant-care/internal/reminder"
	"github.com/notexe/plant-care/internal/ui"
)

// reminderFlags are the editable reminder fields shared by add and edit.
type reminderFlags struct {
	plantID   string
	plantName string
	careType  string
	frequency string
	start     string
	day       string
	time      string
	disabled  bool
}

func (f *reminderFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&f.plantID, "plant", "", "Plant identifier")
	flags.StringVar(&f.plantName, "name", "", "Plant display name")
	flags.StringVar(&f.careType, "type", "", "Care type: "+enumList(care.CareTypes))
	flags.StringVar(&f.frequency, "every", "", "Frequency: "+enumList(care.Frequencies))
	flags.StringVar(&f.start, "start", "", "Start date YYYY-MM-DD (default: today)")
	flags.StringVar(&f.day, "day", "", "Preferred weekday for weekly and biweekly reminders")
	flags.StringVar(&f.time, "time", "", "Preferred time: morning, afternoon, evening or HH:MM")
	flags.BoolVar(&f.disabled, "disabled", false, "Create or keep the reminder without alerts")
}

// apply copies the flags the user set onto in.
func (f *reminderFlags) apply(flags *pflag.FlagSet, in *reminder.Input) {
	set := func(name string, dst *string, v string) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	set("plant", &in.PlantID, f.plantID)
	set("name", &in.PlantName, f.plantName)
	set("type", &in.Type, f.careType)
	set("every", &in.Frequency, f.frequency)
	set("start", &in.StartDate, f.start)
	set("day", &in.PreferredDay, f.day)
	set("time", &in.PreferredTime, f.time)
	if strings.EqualFold(in.PreferredDay, "none") {
		in.PreferredDay = ""
	}
	if flags.Changed("disabled") {
		enabled := !f.disabled
		in.Enabled = &enabled
	}
}

func enumList[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}

func newAddCommand(st *state) *cobra.Command {
	var f reminderFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a reminder",
		Example: `  plantcare add --plant fern --name "Boston fern" --type watering --every weekly --day sunday --time evening
  plantcare add --plant ficus --type fertilizing --every monthly --start 2024-04-01`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := reminder.Input{StartDate: st.today().String()}
			f.apply(cmd.Flags(), &in)

			rec, err := st.app.Service.Create(cmd.Context(), in)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), st.formatter().FormatSuccess("Created "+ui.ShortID(rec.ID)))
			fmt.Fprintln(cmd.OutOrStdout(), st.formatter().FormatReminder(*rec, st.today()))
			return nil
		},
	}

	f.register(cmd.Flags())
	cmd.MarkFlagRequired("plant")
	cmd.MarkFlagRequired("type")
	cmd.MarkFlagRequired("every")
	return cmd
}

func newEditCommand(st *state) *cobra.Command {
	var f reminderFlags

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a reminder; the due date is recomputed from start date and frequency",
		Example: `  plantcare edit 0f8fad5b --every biweekly --day wednesday
  plantcare edit 0f8fad5b --day none`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			current, err := st.app.Service.Get(ctx, args[0])
			if err != nil {
				return err
			}
			in := reminder.InputFrom(*current)
			in.Enabled = nil
			f.apply(cmd.Flags(), &in)

			rec, err := st.app.Service.Edit(ctx, current.ID, in)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), st.formatter().FormatReminder(*rec, st.today()))
			return nil
		},
	}

	f.register(cmd.Flags())
	return cmd
}

func newListCommand(st *state) *cobra.Command {
	var status string
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List reminders ordered by next due date",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := st.app.Service.List(cmd.Context(), status)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), recs)
			}
			fmt.Fprintln(cmd.OutOrStdout(), st.formatter().FormatReminderList(recs, st.today()))
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter: enabled or disabled")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newDueCommand(st *state) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "due",
		Short: "List enabled reminders due today or overdue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := st.app.Service.Due(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), recs)
			}
			if len(recs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), st.formatter().FormatStatus("Nothing is due."))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), st.formatter().FormatReminderList(recs, st.today()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newShowCommand(st *state) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one reminder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := st.app.Service.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), rec)
			}
			fmt.Fprintln(cmd.OutOrStdout(), st.formatter().FormatReminderDetail(*rec, st.today()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newDoneCommand(st *state) *cobra.Command {
	var on string

	cmd := &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a reminder as done and advance its due date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var date care.Date
			if on != "" {
				d, err := care.ParseDate(on)
				if err != nil {
					return err
				}
				date = d
			}

			rec, err := st.app.Service.MarkCompleted(cmd.Context(), args[0], date)
			if err != nil {
				return err
			}

			today := st.today()
			fmt.Fprintln(cmd.OutOrStdout(), st.formatter().FormatSuccess(fmt.Sprintf(
				"✓ Done. Next due %s (%s).", rec.NextDue, ui.RelativeDue(today, rec.NextDue))))
			return nil
		},
	}

	cmd.Flags().StringVar(&on, "on", "", "Completion date YYYY-MM-DD (default: today)")
	return cmd
}

func newToggleCommand(st *state) *cobra.Command {
	var enable, disable bool

	cmd := &cobra.Command{
		Use:   "toggle <id>",
		Short: "Enable or disable a reminder's alerts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				rec *reminder.Record
				err error
			)
			switch {
			case enable:
				rec, err = st.app.Service.SetEnabled(cmd.Context(), args[0], true)
			case disable:
				rec, err = st.app.Service.SetEnabled(cmd.Context(), args[0], false)
			default:
				rec, err = st.app.Service.Toggle(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), st.formatter().FormatReminder(*rec, st.today()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&enable, "on", false, "Enable alerts")
	cmd.Flags().BoolVar(&disable, "off", false, "Disable alerts")
	cmd.MarkFlagsMutuallyExclusive("on", "off")
	return cmd
}

func newDeleteCommand(st *state) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a reminder and cancel its alert",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := st.app.Service.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := st.app.Service.Delete(cmd.Context(), rec.ID); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), st.formatter().FormatSuccess("Deleted "+ui.ShortID(rec.ID)))
			return nil
		},
	}
}

func newTriggerCommand(st *state) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "trigger <id>",
		Short: "Preview the alert trigger a reminder would register now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			trigger, err := st.app.Service.PreviewTrigger(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), trigger)
			}
			fmt.Fprintln(cmd.OutOrStdout(), st.formatter().FormatTrigger(trigger))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the trigger descriptor as JSON")
	return cmd
}

func newAgendaCommand(st *state) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "agenda",
		Short: "Show due, upcoming and disabled reminders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := st.app.Service.List(cmd.Context(), reminder.StatusAll)
			if err != nil {
				return err
			}
			md := ui.Agenda(recs, st.today(), days)
			fmt.Fprintln(cmd.OutOrStdout(), ui.RenderMarkdown(md, st.colored()))
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", ui.DefaultAgendaDays, "How many days ahead to show")
	return cmd
}
