package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lexandro/dupwatch/register"
)

var registerCmd = &cobra.Command{
	Use:   "register project|user [directory] [-- server args]",
	Short: "Add dupwatch mcp to an MCP client configuration",
	Long: `Write (or update) the "dupwatch" entry of an MCP client configuration file.

  project  <directory>/.mcp.json (default directory: .)
  user     ~/.claude.json

Arguments after -- are passed to "dupwatch mcp".

Examples:
  dupwatch register project
  dupwatch register user -- --config /etc/dupwatch.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dash := cmd.ArgsLenAtDash()
		if dash == 0 {
			return fmt.Errorf("scope (project or user) must come before --")
		}
		options := register.Options{Scope: register.Scope(args[0])}

		positional := args[1:]
		if dash > 0 {
			options.ServerArgs = args[dash:]
			positional = args[1:dash]
		}
		if len(positional) > 0 {
			options.Directory = positional[0]
		}

		path, err := register.Register(options)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %q in %s\n", color.GreenString("Registered"), register.ServerName, path)
		return nil
	},
}
