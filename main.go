package main

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/isdelr/blogstack/cmd/migrate"
	"github.com/isdelr/blogstack/cmd/serve"
	"github.com/isdelr/blogstack/internal/config"
)

func newRootCommand() *cobra.Command {
	serveCmd := serve.NewServeCommand()
	root := &cobra.Command{
		Use:           "blogstack",
		Short:         "Demo blog served over web forms, REST, SOAP and WebSockets",
		SilenceUsage:  true,
		SilenceErrors: true,
		// Running without a subcommand serves.
		RunE: serveCmd.RunE,
	}
	root.PersistentFlags().String(config.ConfigFlag, "", "path to a config file (default ./config.yaml if present)")
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(serveCmd, migrate.NewMigrateCommand())
	return root
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
