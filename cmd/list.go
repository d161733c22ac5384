package cmd

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/samuelfneumann/simgym/environment/registration"
	"github.com/samuelfneumann/simgym/scenario"
	"github.com/spf13/cobra"

	// Registered environments
	_ "github.com/samuelfneumann/simgym/environment/envs"
)

// listCmd represents the `simgym list` command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the registered environments and physics engines",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _args []string) error {
		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.Header("id", "agent rate", "physics rate",
			"max episode steps", "description")

		for _, id := range registration.IDs() {
			entry, err := registration.Lookup(id)
			if err != nil {
				return err
			}
			if err := table.Append([]string{
				id,
				fmt.Sprintf("%v", entry.Kwargs.Config.AgentRate),
				fmt.Sprintf("%v", entry.Kwargs.Config.PhysicsRate),
				fmt.Sprintf("%d", entry.Kwargs.MaxEpisodeSteps),
				entry.Description,
			}); err != nil {
				return err
			}
		}
		if err := table.Render(); err != nil {
			return err
		}

		engines := make([]string, 0)
		for _, engine := range scenario.Engines() {
			engines = append(engines, string(engine))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "physics engines: %s\n",
			strings.Join(engines, ", "))
		return nil
	},
}
