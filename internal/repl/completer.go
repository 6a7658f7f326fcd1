package repl

import (
	"github.com/chzyer/readline"

	"plancraft/internal/assertion"
)

// createCompleter completes commands, field names, reference kinds and
// assertion field names.
func (r *REPL) createCompleter() readline.AutoCompleter {
	fields := func(string) []string {
		return r.eng.Definition().Steps.FieldNames()
	}
	kinds := func(string) []string {
		return append([]string(nil), r.opts.Kinds...)
	}
	assertionIDs := func(string) []string {
		var ids []string
		for _, rec := range r.assertions() {
			ids = append(ids, shortID(rec.ID))
		}
		return ids
	}

	var items []readline.PrefixCompleterInterface
	for _, cmd := range r.registry.sorted() {
		switch cmd.name {
		case "set", "check":
			items = append(items, readline.PcItem(cmd.name, readline.PcItemDynamic(fields)))
		case "options":
			items = append(items, readline.PcItem(cmd.name, readline.PcItemDynamic(kinds)))
		case "assert":
			items = append(items, readline.PcItem(cmd.name,
				readline.PcItem("list"),
				readline.PcItem("add"),
				readline.PcItem("rm", readline.PcItemDynamic(assertionIDs)),
				readline.PcItem("set", readline.PcItemDynamic(assertionIDs,
					readline.PcItem(assertion.FieldSource),
					readline.PcItem(assertion.FieldProperty),
					readline.PcItem(assertion.FieldComparison),
					readline.PcItem(assertion.FieldTargetValue),
					readline.PcItem(assertion.FieldEnabled),
				)),
			))
		default:
			items = append(items, readline.PcItem(cmd.name))
		}
	}
	return readline.NewPrefixCompleter(items...)
}
