package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the mailliam web frontend
var rootCmd = &cobra.Command{
	Use:   "mailliam",
	Short: "Web frontend for the Mailliam email summary assistant",
	Long: `mailliam serves the Mailliam web frontend: the Google sign-in screen, the
dashboard with the daily summary time and the list of summarized emails, and a
small JSON API over the same operations.

All configuration comes from the environment (a .env file is loaded
automatically); the serve flags override the most common settings.`,
	SilenceUsage: true,
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(`{{printf "mailliam version %s\n" .Version}}`)

	rootCmd.SetArgs(withDefaultCommand(rootCmd, os.Args[1:]))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// withDefaultCommand prefixes args with serve unless they already name a
// subcommand or ask for help or the version, so "mailliam --port 9000" serves
func withDefaultCommand(root *cobra.Command, args []string) []string {
	if len(args) == 0 {
		return []string{"serve"}
	}

	switch args[0] {
	case "-h", "--help", "-v", "--version", "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
		return args
	}
	for _, sub := range root.Commands() {
		if sub.Name() == args[0] || sub.HasAlias(args[0]) {
			return args
		}
	}

	return append([]string{"serve"}, args...)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mailliam version %s\n", version)
		},
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
}
