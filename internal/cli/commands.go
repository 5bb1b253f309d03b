package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/archviz/pkg/command"
)

// commandsCommand creates the commands command, which lists the registry.
func (c *CLI) commandsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "commands [name]",
		Short: "List the diagram commands a plan may use",
		Long: `List the diagram commands a plan may use.

With a command name, print its description and JSON parameter schema.`,
		Args: cobra.MaximumNArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return command.NewRegistry(command.Builtins(), c.Logger).Names(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := command.NewRegistry(command.Builtins(), c.Logger)
			if len(args) == 1 {
				return printCommand(reg, args[0])
			}
			printCommands(reg)
			return nil
		},
	}
}

func printCommands(reg *command.Registry) {
	list := reg.List()
	for _, name := range reg.Names() {
		printKeyValue(name, list[name])
	}
	errs := reg.DiscoveryErrors()
	labels := make([]string, 0, len(errs))
	for label := range errs {
		labels = append(labels, label)
	}
	slices.Sort(labels)
	for _, label := range labels {
		printWarning("%s: %s", label, errs[label])
	}
}

func printCommand(reg *command.Registry, name string) error {
	cmd, err := reg.Get(name)
	if err != nil {
		return err
	}
	fmt.Println(StyleTitle.Render(cmd.Name()))
	printDetail("%s", cmd.Description())
	printNewline()

	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(cmd.Schema()), "", "  "); err != nil {
		fmt.Println(cmd.Schema())
		return nil
	}
	fmt.Println(buf.String())
	return nil
}
