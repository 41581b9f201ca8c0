package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/nfrund/mochachat/internal/topicmgr"
	"github.com/spf13/cobra"
)

// topicDisplay represents a topic for display purposes
type topicDisplay struct {
	Name        string         `json:"name"`
	Scope       string         `json:"scope"`
	Module      string         `json:"module,omitempty"`
	Description string         `json:"description"`
	Pattern     string         `json:"pattern"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

func newTopicsCmd() *cobra.Command {
	var format, scope string

	c := &cobra.Command{
		Use:   "topics",
		Short: "List the event topics observers can subscribe to",
		Long: `List the topics published on the session bus.

Examples:
  mochachat topics
  mochachat topics --scope module
  mochachat topics --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager := topicmgr.Default()

			var list []topicmgr.Topic
			switch strings.ToLower(scope) {
			case "":
				list = manager.List()
			case string(topicmgr.ScopeEngine), string(topicmgr.ScopeModule):
				list = manager.ListByScope(topicmgr.TopicScope(strings.ToLower(scope)))
			default:
				return fmt.Errorf("invalid scope %q, valid scopes: engine, module", scope)
			}

			switch format {
			case "table":
				printTopicsTable(cmd.OutOrStdout(), list)
				return nil
			case "json":
				return printTopicsJSON(cmd.OutOrStdout(), list)
			default:
				return fmt.Errorf("unsupported output format %q, use table or json", format)
			}
		},
	}

	c.Flags().StringVarP(&format, "format", "f", "table", "Output format (table, json)")
	c.Flags().StringVarP(&scope, "scope", "s", "", "Filter topics by scope (engine, module)")
	return c
}

func printTopicsTable(out io.Writer, topics []topicmgr.Topic) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "NAME\tSCOPE\tMODULE\tPATTERN\tDESCRIPTION")
	for _, t := range topics {
		module := t.Module()
		if module == "" {
			module = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.Name(), t.Scope(), module, t.Pattern(), truncate(t.Description(), 50))
	}
}

func printTopicsJSON(out io.Writer, topics []topicmgr.Topic) error {
	displays := make([]topicDisplay, len(topics))
	for i, t := range topics {
		displays[i] = topicDisplay{
			Name:        t.Name(),
			Scope:       string(t.Scope()),
			Module:      t.Module(),
			Description: t.Description(),
			Pattern:     t.Pattern(),
			Metadata:    t.Metadata(),
		}
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(struct {
		Topics []topicDisplay `json:"topics"`
		Count  int            `json:"count"`
	}{Topics: displays, Count: len(displays)})
}
