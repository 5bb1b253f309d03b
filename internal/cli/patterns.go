package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/archviz/pkg/plan"
)

// patternsCommand creates the patterns command, which lists the built-in
// cluster patterns accepted by --pattern.
func (c *CLI) patternsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "patterns [name]",
		Short: "List the built-in architecture patterns",
		Long: `List the built-in architecture patterns.

A pattern declares a set of clusters ahead of the analysis' own. Services
join them by naming the cluster, for example "cluster: business" with
--pattern layered_architecture. With a pattern name, print its clusters.`,
		Args: cobra.MaximumNArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return plan.PatternNames(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return printPattern(args[0])
			}
			for _, p := range plan.Patterns() {
				printKeyValue(p.Name, p.Description)
			}
			return nil
		},
	}
}

func printPattern(name string) error {
	p, err := plan.LookupPattern(name)
	if err != nil {
		return err
	}
	fmt.Println(StyleTitle.Render(p.Title))
	printDetail("%s", p.Description)
	printNewline()
	for _, cl := range p.Clusters {
		label := cl.Label
		if cl.Parent != "" {
			label += " (in " + cl.Parent + ")"
		}
		printKeyValue(cl.Name, label)
	}
	return nil
}
