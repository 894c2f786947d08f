// Command fuelctl runs operator tasks against the master registry and the
// tenant databases: migrations, the legacy cutover import, retention runs
// and tenant lookups.
package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"github.com/supritimishra/FuelOne-1-sub007/internal/app"
)

type cli struct {
	app *app.App
}

func newRootCommand() (*cobra.Command, *cli) {
	c := &cli{}

	root := &cobra.Command{
		Use:          "fuelctl",
		Short:        "FuelOne operator tool",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			conf, log, err := app.Init("fuelctl")
			if err != nil {
				return err
			}
			c.app, err = app.New(conf, log)
			return err
		},
	}

	root.AddCommand(
		c.migrateCommand(),
		c.importLegacyCommand(),
		c.retentionCommand(),
		c.tenantCommand(),
	)
	return root, c
}

func (c *cli) close() error {
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	_ = c.app.Log.Sync()
	c.app = nil
	return err
}

// printJSON writes v indented to the command output
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	root, c := newRootCommand()
	err := root.Execute()
	if cerr := c.close(); cerr != nil {
		root.PrintErrln("Error closing databases:", cerr)
	}
	if err != nil {
		os.Exit(1)
	}
}
