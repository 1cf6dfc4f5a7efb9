package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"alarmserver/internal/app"
	"alarmserver/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "Presence detection server",
	Long: `Accepts images on POST /detect, counts faces and detects objects,
and keeps a copy of every image in which a face or a person was found.`,
	SilenceUsage: true,
	RunE:         runServer,
}

func init() {
	rootCmd.Flags().Int("port", 5000, "Port to listen on (overrides PORT)")
	rootCmd.Flags().String("host", "0.0.0.0", "Host to bind to (overrides HOST)")
	rootCmd.Flags().String("env-file", ".env", "Environment file to load")
}

func runServer(cmd *cobra.Command, args []string) error {
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg := config.Load(envFile)

	if cmd.Flags().Changed("port") {
		cfg.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("host") {
		cfg.Host, _ = cmd.Flags().GetString("host")
	}

	application, err := app.NewApp(cfg)
	if err != nil {
		return err
	}
	return application.Run()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
