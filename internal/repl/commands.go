package repl

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/briandowns/spinner"

	"plancraft/internal/assertion"
	"plancraft/internal/draftfile"
	"plancraft/internal/wizard"
)

func (r *REPL) registerCommands() {
	for _, cmd := range []*command{
		{name: "help", usage: "help", description: "List commands", aliases: []string{"h"}, run: r.help},
		{name: "show", usage: "show", description: "Show the current step", aliases: []string{"ls"}, run: r.showCmd},
		{name: "set", usage: "set <field> <value>", description: "Set a field; lists are comma separated, structured fields take JSON", run: r.set},
		{name: "next", usage: "next", description: "Validate this step and continue", aliases: []string{"n"}, run: r.dispatch(wizard.Next{})},
		{name: "back", usage: "back", description: "Go to the previous step", aliases: []string{"b", "prev"}, run: r.dispatch(wizard.Previous{})},
		{name: "submit", usage: "submit", description: "Validate everything and send to the execution service", run: r.submit},
		{name: "reset", usage: "reset", description: "Start over from step 1", run: r.dispatch(wizard.Reset{})},
		{name: "check", usage: "check <field>", description: "Validate one field", run: r.check},
		{name: "preview", usage: "preview", description: "Show the payload submit would send", run: r.preview},
		{name: "options", usage: "options <kind>", description: "List loaded reference items", run: r.options},
		{name: "assert", usage: "assert list | add | rm <id> | set <id> <field> <value>", description: "Edit assertion rules", run: r.assertCmd},
		{name: "save", usage: "save <file>", description: "Write the draft to a YAML file", run: r.save},
		{name: "load", usage: "load <file>", description: "Apply a YAML or JSON draft file", run: r.load},
		{name: "close", usage: "close", description: "Discard the draft and close the wizard", run: r.dispatch(wizard.Close{})},
		{name: "exit", usage: "exit", description: "Leave without closing the wizard", aliases: []string{"quit", "q"}, run: func(context.Context, string) error { return errExit }},
	} {
		r.registry.register(cmd)
	}
}

func (r *REPL) help(_ context.Context, _ string) error {
	var rows [][]string
	for _, cmd := range r.registry.sorted() {
		rows = append(rows, []string{cmd.usage, cmd.description})
	}
	r.printf("%s", r.opts.Formatter.FormatRows([]string{"Command", "Description"}, rows))
	return nil
}

func (r *REPL) showCmd(_ context.Context, _ string) error {
	r.show()
	return nil
}

// dispatch sends ev and re-renders, also after a validation failure so the
// messages are visible.
func (r *REPL) dispatch(ev wizard.Event) func(context.Context, string) error {
	return func(ctx context.Context, _ string) error {
		err := r.eng.Dispatch(ctx, ev)
		var sve *wizard.StepValidationError
		var se *wizard.SubmitError
		if err == nil || errors.As(err, &sve) || errors.As(err, &se) {
			r.show()
		}
		if sve != nil {
			return fmt.Errorf("step %d has %d problem(s)", sve.Step, len(sve.Errors))
		}
		return err
	}
}

func (r *REPL) set(ctx context.Context, args string) error {
	name, value := splitCommand(args)
	if name == "" {
		return errors.New("usage: set <field> <value>")
	}
	if err := r.eng.Dispatch(ctx, wizard.SetField{Name: name, Value: unquote(value)}); err != nil {
		return err
	}
	r.show()
	return nil
}

func (r *REPL) submit(ctx context.Context, _ string) error {
	if r.opts.Spinner {
		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(r.out))
		s.Suffix = " Submitting..."
		s.Start()
		defer s.Stop()
	}
	return r.dispatch(wizard.Submit{})(ctx, "")
}

func (r *REPL) check(_ context.Context, args string) error {
	name := strings.TrimSpace(args)
	if name == "" {
		return errors.New("usage: check <field>")
	}
	msg, err := r.eng.Check(name)
	if err != nil {
		return err
	}
	if msg == "" {
		r.printf("%s: ok\n", name)
	} else {
		r.printf("%s: %s\n", name, msg)
	}
	return nil
}

func (r *REPL) preview(_ context.Context, _ string) error {
	payload, err := r.eng.Preview()
	if err != nil {
		return err
	}
	r.printf("%s\n", r.opts.Formatter.FormatValue(payload))
	return nil
}

func (r *REPL) options(_ context.Context, args string) error {
	if r.opts.Loader == nil {
		return errors.New("no reference lists are configured")
	}
	kind := strings.TrimSpace(args)
	if kind == "" {
		return fmt.Errorf("usage: options <kind> (one of %s)", strings.Join(r.opts.Kinds, ", "))
	}
	var rows [][]string
	for _, ref := range r.opts.Loader.Options(kind) {
		rows = append(rows, []string{string(ref.ID), ref.Name, ref.Type})
	}
	r.printf("%s", r.opts.Formatter.FormatRows([]string{"ID", "Name", "Type"}, rows))
	return nil
}

func (r *REPL) assertCmd(_ context.Context, args string) error {
	sub, rest := splitCommand(args)
	switch sub {
	case "", "list":
		r.listAssertions()
		return nil
	case "add":
		id, err := r.eng.AddAssertion()
		if err != nil {
			return err
		}
		r.printf("Added assertion %s\n", shortID(id))
		r.listAssertions()
		return nil
	case "rm", "remove":
		id, err := r.resolveAssertion(rest)
		if err != nil {
			return err
		}
		if err := r.eng.RemoveAssertion(id); err != nil {
			return err
		}
		r.listAssertions()
		return nil
	case "set":
		idArg, rest := splitCommand(rest)
		field, value := splitCommand(rest)
		if field == "" {
			return errors.New("usage: assert set <id> <field> <value>")
		}
		id, err := r.resolveAssertion(idArg)
		if err != nil {
			return err
		}
		if err := r.eng.ChangeAssertionField(id, field, unquote(value)); err != nil {
			return err
		}
		r.listAssertions()
		return nil
	default:
		return fmt.Errorf("unknown assert command %q", sub)
	}
}

func (r *REPL) assertions() assertion.List {
	field := r.eng.Definition().AssertionField
	if field == "" {
		return nil
	}
	return r.eng.GetState().Draft.Assertions(field)
}

func (r *REPL) listAssertions() {
	var rows [][]string
	for _, rec := range r.assertions() {
		rows = append(rows, []string{
			shortID(rec.ID), string(rec.Source), rec.Property,
			string(rec.Comparison), rec.TargetValue, strconv.FormatBool(rec.Enabled),
		})
	}
	r.printf("%s", r.opts.Formatter.FormatRows([]string{"ID", "Source", "Property", "Comparison", "Target", "Enabled"}, rows))
}

// resolveAssertion accepts a full id or a unique prefix.
func (r *REPL) resolveAssertion(prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", errors.New("assertion id is required")
	}
	var match string
	for _, rec := range r.assertions() {
		if rec.ID == prefix {
			return rec.ID, nil
		}
		if strings.HasPrefix(rec.ID, prefix) {
			if match != "" {
				return "", fmt.Errorf("assertion id %q is ambiguous", prefix)
			}
			match = rec.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("no assertion with id %q", prefix)
	}
	return match, nil
}

func (r *REPL) save(_ context.Context, args string) error {
	path := strings.TrimSpace(args)
	if path == "" {
		return errors.New("usage: save <file>")
	}
	st := r.eng.GetState()
	if st.Status == wizard.StatusClosed {
		return wizard.ErrClosed
	}
	if err := draftfile.Save(path, r.eng.Definition().Steps, st.Draft); err != nil {
		return err
	}
	r.printf("Saved draft to %s\n", path)
	return nil
}

func (r *REPL) load(ctx context.Context, args string) error {
	path := strings.TrimSpace(args)
	if path == "" {
		return errors.New("usage: load <file>")
	}
	values, err := draftfile.Load(path)
	if err != nil {
		return err
	}
	err = draftfile.Apply(ctx, r.eng, values)
	r.show()
	return err
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// unquote strips one pair of matching quotes so that `set name ""` clears a
// field.
func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
