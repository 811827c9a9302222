package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/spf13/cobra"
)

const appVersion = "1.0.0"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "reservas",
		Short:        "SENAC room reservation backend",
		SilenceUsage: true,
	}
	cmd.Version = appVersion
	cmd.SetVersionTemplate(fmt.Sprintf("reservas v%s\n", appVersion))

	cmd.AddCommand(
		newServeCommand(),
		newExportCommand(),
		newBackupCommand(),
		newTokenCommand(),
		newSecretCommand(),
		newCheckCommand(),
	)
	return cmd
}
