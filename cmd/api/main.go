package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// @title           EventHub Auth API
// @version         1.0
// @description     Account signup, email verification, login and password reset for EventHub.

// @contact.name   API Support
// @contact.email  support@eventhub.example

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Application error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "eventhub-auth",
		Short:         "EventHub account service",
		Long:          "Signup, email verification, login and password reset API for EventHub.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serveCmd := newServeCmd()
	rootCmd.AddCommand(serveCmd, newMigrateCmd())

	// Allow running without subcommand (default to serve)
	rootCmd.RunE = serveCmd.RunE
	rootCmd.Flags().AddFlagSet(serveCmd.Flags())

	return rootCmd
}
