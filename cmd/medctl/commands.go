package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"med-reminder/internal/domain/medications"
	"med-reminder/internal/domain/reminders"
	"med-reminder/internal/platform/httpclient"

	"github.com/spf13/cobra"
)

type cliOptions struct {
	addr    string
	token   string
	timeout time.Duration
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:           "medctl",
		Short:         "Cliente de línea de comandos para med-reminder",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.addr, "addr", envOr("MEDCTL_ADDR", "http://localhost:8080"), "URL base de la API")
	root.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("API_TOKEN"), "token Bearer de la API")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", httpclient.DefaultTimeout, "timeout por request")

	root.AddCommand(
		newListCmd(opts),
		newAddCmd(opts),
		newRemoveCmd(opts),
		newClearCmd(opts),
		newStatusCmd(opts),
		newTakeCmd(opts),
		newSnoozeCmd(opts),
		newStopCmd(opts),
		newTestCmd(opts),
		newScheduleCmd(opts),
	)
	return root
}

func (o *cliOptions) client() (*httpclient.Client, error) {
	return httpclient.New(httpclient.Options{BaseURL: o.addr, Timeout: o.timeout, Token: o.token})
}

// call resuelve el cliente y hace un request JSON con el contexto del comando.
func (o *cliOptions) call(ctx context.Context, method, path string, in, out any) error {
	c, err := o.client()
	if err != nil {
		return err
	}
	if err := c.DoJSON(ctx, method, path, in, out); err != nil {
		return describe(err)
	}
	return nil
}

func describe(err error) error {
	switch httpclient.StatusCode(err) {
	case http.StatusConflict:
		return fmt.Errorf("no active alarm")
	case http.StatusNotFound:
		return fmt.Errorf("medication not found")
	case http.StatusUnauthorized:
		return fmt.Errorf("unauthorized: check --token")
	}
	return err
}

// -------------------------
// Medicamentos
// -------------------------

func newListCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Lista los medicamentos registrados",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var items []medications.Medication
			if err := opts.call(cmd.Context(), http.MethodGet, "/medications", nil, &items); err != nil {
				return err
			}
			return printMedications(cmd.OutOrStdout(), items)
		},
	}
}

func printMedications(w io.Writer, items []medications.Medication) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDOSE\tSTART\tEVERY\tTAKEN")
	for _, m := range items {
		every := "once"
		if !m.IsOneShot() {
			every = m.Interval().String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n",
			m.ID, m.Name, m.DoseDescription, m.StartTime.Format(time.RFC3339), every, len(m.History))
	}
	return tw.Flush()
}

func newAddCmd(opts *cliOptions) *cobra.Command {
	var (
		name  string
		dose  string
		start string
		every int
		photo string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Registra un medicamento",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if start == "" {
				start = time.Now().UTC().Format(time.RFC3339)
			}
			in := map[string]any{
				"name":             name,
				"dose_description": dose,
				"start_time":       start,
				"interval_minutes": every,
				"photo_ref":        photo,
			}
			var m medications.Medication
			if err := opts.call(cmd.Context(), http.MethodPost, "/medications", in, &m); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), m.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "nombre del medicamento")
	cmd.Flags().StringVar(&dose, "dose", "", "descripción de la dosis")
	cmd.Flags().StringVar(&start, "start", "", "primera toma (RFC3339 o YYYY-MM-DDTHH:MM); default ahora")
	cmd.Flags().IntVar(&every, "every", 0, "intervalo en minutos; 0 = una sola toma")
	cmd.Flags().StringVar(&photo, "photo", "", "referencia a la foto")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("dose")
	return cmd
}

func newRemoveCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Borra un medicamento",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.call(cmd.Context(), http.MethodDelete, "/medications/"+args[0], nil, nil)
		},
	}
}

func newClearCmd(opts *cliOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Borra todos los medicamentos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear without --yes")
			}
			return opts.call(cmd.Context(), http.MethodDelete, "/medications", nil, nil)
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirmar el borrado")
	return cmd
}

// -------------------------
// Alarma
// -------------------------

func newStatusCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Muestra la alarma activa",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var st reminders.AlarmStatus
			if err := opts.call(cmd.Context(), http.MethodGet, "/alarm", nil, &st); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !st.Active {
				fmt.Fprintf(out, "no active alarm (%d pending)\n", len(st.Pending))
				return nil
			}
			fmt.Fprintf(out, "%s: %s\n", st.Title, st.Body)
			fmt.Fprintf(out, "due %s, shown %d times, %d pending\n",
				st.DueAt.Format(time.RFC3339), st.Deliveries, len(st.Pending))
			return nil
		},
	}
}

func newTakeCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "take",
		Aliases: []string{"ack"},
		Short:   "Confirma la toma de la alarma activa",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var m medications.Medication
			if err := opts.call(cmd.Context(), http.MethodPost, "/alarm/acknowledge", nil, &m); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "taken: %s (%s)\n", m.Name, m.DoseDescription)
			return nil
		},
	}
}

func newSnoozeCmd(opts *cliOptions) *cobra.Command {
	var minutes int
	cmd := &cobra.Command{
		Use:     "snooze",
		Aliases: []string{"postpone"},
		Short:   "Pospone la alarma activa",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var in any
			if minutes > 0 {
				in = map[string]int{"minutes": minutes}
			}
			var out struct {
				MedicationID string    `json:"medication_id"`
				Until        time.Time `json:"until"`
			}
			if err := opts.call(cmd.Context(), http.MethodPost, "/alarm/postpone", in, &out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "postponed until %s\n", out.Until.Local().Format(time.Kitchen))
			return nil
		},
	}
	cmd.Flags().IntVar(&minutes, "minutes", 0, "minutos a posponer; default del servidor")
	return cmd
}

func newStopCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Silencia la alarma activa sin registrar la toma",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.call(cmd.Context(), http.MethodPost, "/alarm/stop", nil, nil)
		},
	}
}

func newTestCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "test <id>",
		Short: "Dispara una notificación de prueba",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.call(cmd.Context(), http.MethodPost, "/alarm/test", map[string]string{"medication_id": args[0]}, nil)
		},
	}
}

func newScheduleCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Muestra las próximas tomas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var items []reminders.ScheduleEntry
			if err := opts.call(cmd.Context(), http.MethodGet, "/schedule", nil, &items); err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tDOSE\tNEXT")
			for _, e := range items {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.MedicationID, e.Name, e.DoseDescription, nextLabel(e))
			}
			return tw.Flush()
		},
	}
}

func nextLabel(e reminders.ScheduleEntry) string {
	switch {
	case e.Active:
		return "ringing"
	case e.Invalid:
		return "invalid schedule"
	case e.Completed:
		return "done"
	case e.PostponedUntil != nil:
		return "postponed until " + e.PostponedUntil.Format(time.RFC3339)
	case e.NextDue == nil:
		return "-"
	}
	return e.NextDue.Format(time.RFC3339)
}
