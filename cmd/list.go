package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/florinutz/docsink/cdc"
	"github.com/florinutz/docsink/config"
	"github.com/florinutz/docsink/idstrategy"
	"github.com/florinutz/docsink/stage"
	"github.com/florinutz/docsink/writemodel"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list [stages|id-strategies|write-models|cdc-handlers|options]",
	Short: "List available components",
	Long:  `List all registered stages, id strategies, write model strategies, CDC handlers, or the recognised options.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

type listEntry struct {
	name        string
	description string
}

func componentEntries(kind string) ([]listEntry, bool) {
	var out []listEntry
	switch kind {
	case "stages", "stage":
		for _, e := range stage.Entries() {
			out = append(out, listEntry{e.Name, e.Description})
		}
	case "id-strategies", "id-strategy":
		desc := idstrategy.Descriptions()
		for _, n := range idstrategy.Names() {
			out = append(out, listEntry{n, desc[n]})
		}
	case "write-models", "write-model":
		desc := writemodel.Descriptions()
		for _, n := range writemodel.Names() {
			out = append(out, listEntry{n, desc[n]})
		}
	case "cdc-handlers", "cdc-handler":
		for _, e := range cdc.Entries() {
			out = append(out, listEntry{e.Name, e.Description})
		}
	default:
		return nil, false
	}
	return out, true
}

func runList(cmd *cobra.Command, args []string) error {
	kind := "all"
	if len(args) > 0 {
		kind = args[0]
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

	switch kind {
	case "options", "option":
		writeOptions(w)

	case "all":
		for _, section := range []struct{ title, kind string }{
			{"STAGES", "stages"},
			{"ID STRATEGIES", "id-strategies"},
			{"WRITE MODELS", "write-models"},
			{"CDC HANDLERS", "cdc-handlers"},
		} {
			entries, _ := componentEntries(section.kind)
			_, _ = fmt.Fprintln(w, section.title)
			writeEntries(w, entries)
			_, _ = fmt.Fprintln(w)
		}
		_, _ = fmt.Fprintln(w, "OPTIONS")
		writeOptions(w)

	default:
		entries, ok := componentEntries(kind)
		if !ok {
			return fmt.Errorf("unknown component type %q: expected stages, id-strategies, write-models, cdc-handlers, or options", kind)
		}
		writeEntries(w, entries)
	}

	return w.Flush()
}

func writeEntries(w io.Writer, entries []listEntry) {
	_, _ = fmt.Fprintln(w, "NAME\tDESCRIPTION")
	for _, e := range entries {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", e.name, e.description)
	}
}

func writeOptions(w io.Writer) {
	_, _ = fmt.Fprintln(w, "NAME\tTYPE\tDEFAULT\tDESCRIPTION")
	for _, p := range config.Schema() {
		def := p.Default
		if def == "" {
			def = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Name, p.Type, def, p.Description)
	}
}
