package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"plancraft/internal/formatting"
	"plancraft/internal/reference"
	"plancraft/internal/wizard"
	"plancraft/pkg/logging"
)

// commandExecutionTimeout bounds a single command, including a submit.
const commandExecutionTimeout = 2 * time.Minute

// errExit ends the session.
var errExit = errors.New("exit")

// Options configures a REPL.
type Options struct {
	Engine    *wizard.Engine
	Formatter formatting.Formatter

	// Loader and Kinds are optional. When set, the reference lists are
	// opened at start and feed option-membership validation.
	Loader *reference.Loader
	Kinds  []string

	// Summary renders extra review rows for the last step, if any.
	Summary func(wizard.Draft) [][]string

	// Spinner shows progress while a submit is in flight.
	Spinner bool

	// Logs, when set, is drained while the session runs and printed above
	// the prompt. The caller closes it.
	Logs <-chan logging.LogEntry

	Stdin       io.ReadCloser
	Stdout      io.Writer
	HistoryFile string
}

// REPL is an interactive wizard session.
type REPL struct {
	opts     Options
	eng      *wizard.Engine
	out      io.Writer
	registry *registry
	rl       *readline.Instance
}

// New builds a REPL for opts.Engine.
func New(opts Options) *REPL {
	if opts.Formatter == nil {
		opts.Formatter = formatting.New(formatting.Options{Format: formatting.FormatTable})
	}
	out := opts.Stdout
	if out == nil {
		out = os.Stdout
	}
	r := &REPL{
		opts:     opts,
		eng:      opts.Engine,
		out:      out,
		registry: newRegistry(),
	}
	r.registerCommands()
	return r
}

func (r *REPL) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.out, format, args...)
}

// Open loads reference data when a loader is configured. Failures are
// reported and the session continues with whatever was cached.
func (r *REPL) Open(ctx context.Context) {
	if r.opts.Loader == nil || len(r.opts.Kinds) == 0 {
		return
	}
	if err := r.opts.Loader.Open(ctx, r.opts.Kinds...); err != nil {
		logging.Warn("REPL", "Could not load reference lists: %v", err)
		r.printf("Warning: could not load reference lists: %v\n", err)
	}
	r.eng.SetValidationContext(r.opts.Loader.ValidationContext())
}

// Close deactivates the reference loader.
func (r *REPL) Close() {
	if r.opts.Loader != nil {
		r.opts.Loader.Close()
	}
}

func (r *REPL) buildPrompt() string {
	st := r.eng.GetState()
	title := strings.ToLower(r.eng.Definition().Title)
	if st.Status == wizard.StatusClosed {
		return fmt.Sprintf("plancraft %s (closed)> ", title)
	}
	return fmt.Sprintf("plancraft %s %d/%d> ", title, st.Step, st.TotalSteps)
}

// Execute runs one command line. It reports done when the session should
// end, either because the user exited or because the wizard closed.
func (r *REPL) Execute(ctx context.Context, line string) (done bool, err error) {
	name, args := splitCommand(line)
	if name == "" {
		return false, nil
	}
	if name == "?" {
		name = "help"
	}

	cmd, ok := r.registry.get(strings.ToLower(name))
	if !ok {
		return false, fmt.Errorf("unknown command: %s. Type 'help' for available commands", name)
	}

	commandCtx, cancel := context.WithTimeout(ctx, commandExecutionTimeout)
	defer cancel()

	err = cmd.run(commandCtx, args)
	if errors.Is(err, errExit) {
		return true, nil
	}
	return r.eng.GetState().Status == wizard.StatusClosed, err
}

// Run reads commands until exit, EOF, ctx cancellation or the wizard
// closing.
func (r *REPL) Run(ctx context.Context) error {
	historyFile := r.opts.HistoryFile
	if historyFile == "" {
		historyFile = filepath.Join(os.TempDir(), ".plancraft_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            r.buildPrompt(),
		HistoryFile:       historyFile,
		AutoComplete:      r.createCompleter(),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
		Stdin:             r.opts.Stdin,
		Stdout:            r.out,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline instance: %w", err)
	}
	defer rl.Close()
	r.rl = rl

	if r.opts.Logs != nil {
		go func() {
			for entry := range r.opts.Logs {
				fmt.Fprintln(rl.Stderr(), entry.String())
			}
		}()
	}

	r.Open(ctx)
	defer r.Close()

	r.printf("%s wizard. Type 'help' for commands. Use TAB for completion.\n\n", r.eng.Definition().Title)
	r.show()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		rl.SetPrompt(r.buildPrompt())
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		} else if errors.Is(err, io.EOF) {
			r.printf("Goodbye!\n")
			return nil
		} else if err != nil {
			return fmt.Errorf("readline error: %w", err)
		}

		done, err := r.Execute(ctx, line)
		if err != nil {
			r.printf("Error: %v\n", err)
		}
		if done {
			return nil
		}
		r.printf("\n")
	}
}

// show renders the current step.
func (r *REPL) show() {
	st := r.eng.GetState()
	if st.Status == wizard.StatusClosed {
		if st.EntityID != "" {
			r.printf("Wizard closed. Saved as %s.\n", st.EntityID)
		} else {
			r.printf("Wizard closed.\n")
		}
		return
	}

	def := r.eng.Definition()
	step := def.Steps.StepFor(st.Step)
	fields := append(step.FieldNames(), step.Mirrors...)
	r.printf("%s", r.opts.Formatter.FormatState(formatting.StateView{
		Wizard:    def.Title,
		StepTitle: step.Title,
		Fields:    fields,
		State:     st,
	}))
	if r.opts.Summary != nil && def.Steps.IsLastStep(st.Step) {
		r.printf("%s", r.opts.Formatter.FormatRows([]string{"Item", "Value"}, r.opts.Summary(st.Draft)))
	}
}

// splitCommand returns the first word and the untouched remainder.
func splitCommand(line string) (string, string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", ""
	}
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		return line[:i], strings.TrimSpace(line[i+1:])
	}
	return line, ""
}
