// Package cmd contains the command line applications for the project.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/arqdiario/arqvault/pkg/app"
	"github.com/arqdiario/arqvault/pkg/configs"
)

var (
	configPath string
	debug      bool

	rootCmd = &cobra.Command{
		Use:   "arqvault",
		Short: "Digital archive service: SIP ingestion, AIP management and DIP export",
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "start the archive HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.NewApp(configPath).Run()
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "print the build version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(configs.AppVersion)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "verbose diagnostic output")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)

	registerConfigsCommands()
	registerDBCommands()
	registerMQCommands()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
