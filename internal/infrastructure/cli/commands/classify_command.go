package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/doeshing/wintool/internal/app"
	"github.com/doeshing/wintool/internal/infrastructure/cli/helpers"
	"github.com/doeshing/wintool/internal/infrastructure/failures"
)

// NewClassifyCommand creates the classify command
func NewClassifyCommand(container *app.Container) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "classify <command> <message>",
		Short: "Check whether a failure message is expected for a command",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat, err := helpers.ParseFormat(format)
			if err != nil {
				return err
			}
			verdict := classifierOf(container).Classify(args[0], args[1])
			return helpers.WriteStructured(cmd.OutOrStdout(), outputFormat, verdict, func(w *tabwriter.Writer) {
				fmt.Fprintf(w, "Expected\t%t\n", verdict.Expected)
				if verdict.Category != "" {
					fmt.Fprintf(w, "Category\t%s\n", verdict.Category)
				}
				if verdict.Reason != "" {
					fmt.Fprintf(w, "Reason\t%s\n", verdict.Reason)
				}
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "o", helpers.FormatTable, "Output format: table, json or yaml")
	cmd.AddCommand(newClassifyRulesCommand(container))
	return cmd
}

func newClassifyRulesCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the active expected-failure rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			listClassifierRules(cmd.OutOrStdout(), classifierOf(container))
			return nil
		},
	}
}

func listClassifierRules(out io.Writer, classifier *failures.Classifier) {
	fmt.Fprintf(out, "Source: %s\n", classifier.Source())
	for _, rule := range classifier.Rules() {
		fmt.Fprintf(out, "%s\n  command: %s\n", rule.Category, rule.CommandPattern)
		if rule.ServiceNamePattern != "" {
			fmt.Fprintf(out, "  service: %s\n", rule.ServiceNamePattern)
		}
		fmt.Fprintf(out, "  messages: %s\n", strings.Join(rule.MessagePatterns, " | "))
	}
}

func classifierOf(container *app.Container) *failures.Classifier {
	if container.Classifier != nil {
		return container.Classifier
	}
	return failures.Default()
}
