package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"plancraft/internal/client"
	"plancraft/internal/draftfile"
	"plancraft/internal/formatting"
	"plancraft/internal/reference"
	"plancraft/internal/repl"
	"plancraft/internal/schedule"
	"plancraft/internal/testplan"
	"plancraft/internal/validation"
	"plancraft/internal/wizard"
	"plancraft/pkg/logging"
)

// entityKind describes one wizard-backed entity for the CLI.
type entityKind struct {
	use     string
	aliases []string
	noun    string

	definition func() wizard.Definition
	// refKinds are the reference lists the wizard's validators check against.
	refKinds []string
	summary  func(wizard.Draft) [][]string
	// fetch loads an existing entity as an edit-mode seed.
	fetch func(ctx context.Context, c *client.Client, id string) (wizard.Draft, error)
}

var planKind = entityKind{
	use:        "plan",
	aliases:    []string{"plans", "testplan"},
	noun:       "test plan",
	definition: testplan.Definition,
	refKinds:   []string{testplan.SuiteOptions},
	fetch: func(ctx context.Context, c *client.Client, id string) (wizard.Draft, error) {
		var e testplan.Entity
		if err := c.GetEntity(ctx, testplan.Kind, id, &e); err != nil {
			return nil, err
		}
		return testplan.FromEntity(e), nil
	},
}

var scheduleKind = entityKind{
	use:        "schedule",
	aliases:    []string{"schedules"},
	noun:       "schedule",
	definition: schedule.Definition,
	refKinds:   []string{schedule.PlanOptions},
	summary:    scheduleSummary,
	fetch: func(ctx context.Context, c *client.Client, id string) (wizard.Draft, error) {
		var e schedule.Entity
		if err := c.GetEntity(ctx, schedule.Kind, id, &e); err != nil {
			return nil, err
		}
		return schedule.FromEntity(e), nil
	},
}

func scheduleSummary(d wizard.Draft) [][]string {
	lines := schedule.Summary(d)
	rows := make([][]string, len(lines))
	for i, l := range lines {
		rows[i] = []string{l.Label, l.Value}
	}
	return rows
}

// commandContext returns the command's context, cancelled on interrupt.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt)
}

func newEntityCmd(k entityKind) *cobra.Command {
	cmd := &cobra.Command{
		Use:     k.use,
		Aliases: k.aliases,
		Short:   fmt.Sprintf("Create, edit and check %ss", k.noun),
		Long: fmt.Sprintf(`Work with %[1]ss.

Drafts are YAML or JSON files mapping wizard field names to values. Fields
left out keep their defaults.

Examples:
  plancraft %[2]s validate -f draft.yaml
  plancraft %[2]s validate -f draft.yaml --watch
  plancraft %[2]s payload -f draft.yaml -o json
  plancraft %[2]s create -f draft.yaml
  plancraft %[2]s edit 42 -f changes.yaml
  plancraft %[2]s wizard`, k.noun, k.use),
	}

	cmd.AddCommand(
		newCreateCmd(k),
		newEditCmd(k),
		newValidateCmd(k),
		newPayloadCmd(k),
		newWizardCmd(k),
	)
	return cmd
}

func newCreateCmd(k entityKind) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "create",
		Short: fmt.Sprintf("Validate a %s draft file and submit it", k.noun),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(cmd, k, file, "")
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Draft file (YAML or JSON)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newEditCmd(k entityKind) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: fmt.Sprintf("Apply a draft file on top of an existing %s and submit the update", k.noun),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(cmd, k, file, args[0])
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Draft file with the fields to change")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runSubmit(cmd *cobra.Command, k entityKind, file, id string) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.close()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	values, err := draftfile.Load(file)
	if err != nil {
		return err
	}
	c, err := env.newClient(ctx)
	if err != nil {
		return err
	}

	opts := []wizard.Option{
		wizard.WithSubmitter(c),
		wizard.WithNotifier(env.notifier),
		wizard.WithObserver(env.collector),
	}
	if id != "" {
		seed, err := k.fetch(ctx, c, id)
		if err != nil {
			return fmt.Errorf("failed to load %s %s: %w", k.noun, id, err)
		}
		opts = append(opts, wizard.WithEntity(id, seed))
	}

	vctx, err := loadReferences(ctx, c, k.refKinds)
	if err != nil {
		logging.Warn("CLI", "Reference lists unavailable, skipping membership checks: %v", err)
	}

	eng, report := draftfile.Check(ctx, k.definition(), values, vctx, opts...)
	if !report.Valid {
		printReport(cmd.OutOrStdout(), env.formatter, k, report)
		return errInvalidDraft
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
	s.Suffix = " Submitting..."
	s.Start()
	err = advanceToLastStep(ctx, eng)
	if err == nil {
		err = eng.Dispatch(ctx, wizard.Submit{})
	}
	s.Stop()

	var sve *wizard.StepValidationError
	if errors.As(err, &sve) {
		printReport(cmd.OutOrStdout(), env.formatter, k, draftfile.Report{
			FirstInvalidStep: sve.Step,
			StepTitle:        k.definition().Steps.StepFor(sve.Step).Title,
			Errors:           sve.Errors,
		})
		return errInvalidDraft
	}
	if err != nil {
		return err
	}

	st := eng.GetState()
	result := map[string]interface{}{"id": st.EntityID, "mode": string(st.Mode)}
	if env.formatter.GetOptions().Format == formatting.FormatTable {
		verb := "Created"
		if st.Mode == wizard.ModeUpdate {
			verb = "Updated"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", verb, k.noun, st.EntityID)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), env.formatter.FormatValue(result))
	return nil
}

// advanceToLastStep walks a validated engine forward to its final step,
// the only one Submit is accepted from.
func advanceToLastStep(ctx context.Context, eng *wizard.Engine) error {
	for st := eng.GetState(); st.Step < st.TotalSteps; st = eng.GetState() {
		if err := eng.Dispatch(ctx, wizard.Next{}); err != nil {
			return err
		}
	}
	return nil
}

// loadReferences fetches the reference lists once and returns them as a
// validation context.
func loadReferences(ctx context.Context, c *client.Client, kinds []string) (*validation.Context, error) {
	loader := reference.NewLoader(c)
	defer loader.Close()
	if err := loader.Open(ctx, kinds...); err != nil {
		return nil, err
	}
	return loader.ValidationContext(), nil
}

func printReport(w io.Writer, f formatting.Formatter, k entityKind, report draftfile.Report) {
	if f.GetOptions().Format != formatting.FormatTable {
		fmt.Fprintln(w, f.FormatValue(report))
		return
	}
	if report.Valid {
		fmt.Fprintf(w, "The %s draft is valid.\n", k.noun)
		return
	}
	if report.FirstInvalidStep != 0 {
		fmt.Fprintf(w, "The %s draft is invalid; the first problem is on step %d (%s).\n", k.noun, report.FirstInvalidStep, report.StepTitle)
	} else {
		fmt.Fprintf(w, "The %s draft could not be applied.\n", k.noun)
	}
	fmt.Fprintln(w, f.FormatRows([]string{"Step", "Field", "Error"}, report.Rows(k.definition().Steps)))
}

func newValidateCmd(k entityKind) *cobra.Command {
	var (
		file       string
		watch      bool
		references bool
	)
	cmd := &cobra.Command{
		Use:   "validate",
		Short: fmt.Sprintf("Check every step of a %s draft file", k.noun),
		Long: fmt.Sprintf(`Check every step of a %s draft file and list the problems.

With --watch the file is checked again whenever it is saved, until
interrupted. With --references the reference lists are fetched from the
execution service so that selected IDs are checked too.`, k.noun),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			ctx, cancel := commandContext(cmd)
			defer cancel()

			var vctx *validation.Context
			if references {
				c, err := env.newClient(ctx)
				if err != nil {
					return err
				}
				if vctx, err = loadReferences(ctx, c, k.refKinds); err != nil {
					return fmt.Errorf("failed to load reference lists: %w", err)
				}
			}

			check := func() error {
				values, err := draftfile.Load(file)
				if err != nil {
					return err
				}
				_, report := draftfile.Check(ctx, k.definition(), values, vctx)
				printReport(cmd.OutOrStdout(), env.formatter, k, report)
				if !report.Valid {
					return errInvalidDraft
				}
				return nil
			}

			err = check()
			if !watch {
				return err
			}
			if err != nil && !errors.Is(err, errInvalidDraft) {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s for changes (Ctrl+C to stop)\n", file)
			return draftfile.Watch(ctx, file, draftfile.DefaultDebounce, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "\n%s changed\n", file)
				if err := check(); err != nil && !errors.Is(err, errInvalidDraft) {
					fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				}
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Draft file (YAML or JSON)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Re-validate whenever the file changes")
	cmd.Flags().BoolVar(&references, "references", false, "Check selected IDs against the execution service")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newPayloadCmd(k entityKind) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "payload",
		Short: fmt.Sprintf("Print the request body a %s draft file would be submitted as", k.noun),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			ctx, cancel := commandContext(cmd)
			defer cancel()

			values, err := draftfile.Load(file)
			if err != nil {
				return err
			}
			eng, report := draftfile.Check(ctx, k.definition(), values, nil)
			if !report.Valid {
				printReport(cmd.OutOrStdout(), env.formatter, k, report)
				return errInvalidDraft
			}
			payload, err := eng.Preview()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), env.formatter.FormatValue(payload))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Draft file (YAML or JSON)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newWizardCmd(k entityKind) *cobra.Command {
	var (
		file   string
		editID string
	)
	cmd := &cobra.Command{
		Use:   "wizard",
		Short: fmt.Sprintf("Fill in a %s step by step", k.noun),
		Long: fmt.Sprintf(`Start the interactive %s wizard.

The wizard walks through each step, validating before it moves on. Use
--edit to change an existing %[1]s and --file to start from a draft file.`, k.noun),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			ctx, cancel := commandContext(cmd)
			defer cancel()

			c, err := env.newClient(ctx)
			if err != nil {
				return err
			}

			opts := []wizard.Option{
				wizard.WithSubmitter(c),
				wizard.WithNotifier(env.notifier),
				wizard.WithObserver(env.collector),
			}
			if editID != "" {
				seed, err := k.fetch(ctx, c, editID)
				if err != nil {
					return fmt.Errorf("failed to load %s %s: %w", k.noun, editID, err)
				}
				opts = append(opts, wizard.WithEntity(editID, seed))
			}
			eng := wizard.New(k.definition(), opts...)

			if file != "" {
				values, err := draftfile.Load(file)
				if err != nil {
					return err
				}
				if err := draftfile.Apply(ctx, eng, values); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
				}
			}

			var loader *reference.Loader
			if env.cfg.Wizard.FetchOnOpen {
				loader = reference.NewLoader(c)
			}

			logs := logging.InitForREPL(env.level)
			defer logging.CloseREPLSink()

			session := repl.New(repl.Options{
				Engine:    eng,
				Formatter: formatting.New(formatting.Options{Format: formatting.FormatTable, Color: true}),
				Loader:    loader,
				Kinds:     k.refKinds,
				Summary:   k.summary,
				Spinner:   true,
				Logs:      logs,
				Stdout:    cmd.OutOrStdout(),
			})
			return session.Run(ctx)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Draft file to start from")
	cmd.Flags().StringVar(&editID, "edit", "", fmt.Sprintf("ID of an existing %s to edit", k.noun))
	return cmd
}
