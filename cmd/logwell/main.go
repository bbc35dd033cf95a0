package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	clientcmd "github.com/logwell/logwell/internal/cmd/client"
	serverrun "github.com/logwell/logwell/internal/cmd/server"
	logpkg "github.com/logwell/logwell/pkg/log"
)

func main() {
	// CLI logger; LOGWELL_LOG_LEVEL applies to both client commands and
	// server start output.
	logger, err := logpkg.ApplyConfig(&logpkg.Config{
		Level:  os.Getenv("LOGWELL_LOG_LEVEL"),
		Format: os.Getenv("LOGWELL_LOG_FORMAT"),
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logwell:", err)
		os.Exit(1)
	}
	logpkg.RedirectStdLog(logger)

	rootCmd := &cobra.Command{
		Use:   "logwell",
		Short: "Logwell log delivery CLI",
		Long:  "Logwell collects, stores, and streams application logs. This CLI manages the server and basic log operations.",
	}

	// server start
	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	serverStartCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start the logwell server",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			dataDir, _ := cmd.Flags().GetString("data-dir")
			httpAddr, _ := cmd.Flags().GetString("http")
			apiKey, _ := cmd.Flags().GetString("api-key")
			noSync, _ := cmd.Flags().GetBool("no-sync")

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := serverrun.Run(ctx, serverrun.Options{
				ConfigPath: configPath,
				DataDir:    dataDir,
				HTTPAddr:   httpAddr,
				APIKey:     apiKey,
				NoSync:     noSync,
			}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			// brief delay to allow logs flush
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	}
	serverStartCmd.Flags().String("config", os.Getenv("LOGWELL_CONFIG"), "Config file path (JSON or YAML)")
	serverStartCmd.Flags().String("data-dir", "", "Data directory (defaults to the OS application data directory)")
	serverStartCmd.Flags().String("http", "", "HTTP listen address (default :8080)")
	serverStartCmd.Flags().String("api-key", "", "Require this bearer token on API requests")
	serverStartCmd.Flags().Bool("no-sync", false, "Skip fsync on writes (faster, less durable)")
	serverCmd.AddCommand(serverStartCmd)
	rootCmd.AddCommand(serverCmd)

	// logs commands
	rootCmd.AddCommand(clientcmd.NewLogsCommand(apiURL))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func apiURL() string {
	if v := os.Getenv("LOGWELL_HTTP"); v != "" {
		return v
	}
	return "http://127.0.0.1:8080"
}
