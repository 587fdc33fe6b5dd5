package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rmacdonaldsmith/eventstreams-go/pkg/httpclient"
)

var (
	// Global flags
	serverURL string
	clientID  string
	adminKey  string
	token     string
	timeout   time.Duration
	noAuth    bool

	// Global client instance
	client *httpclient.Client
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "eventstreams-cli",
		Short: "Event streams HTTP gateway command line interface",
		Long: `eventstreams-cli is a command line interface for the event streams HTTP gateway.
It provides commands for authentication, writing and querying stream events,
and binding actors to their stores.`,
		PersistentPreRunE: initializeClient,
		SilenceUsage:      true,
	}

	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8082", "Gateway URL")
	rootCmd.PersistentFlags().StringVar(&clientID, "client-id", "", "Client ID (the actor identity) for authentication")
	rootCmd.PersistentFlags().StringVar(&adminKey, "admin-key", "", "Admin key, requests a system token at login")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "JWT token (if already authenticated)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")
	rootCmd.PersistentFlags().BoolVar(&noAuth, "no-auth", false, "Skip authentication (for development with --no-auth gateways)")

	rootCmd.AddCommand(newAuthCommand())
	rootCmd.AddCommand(newWriteCommand())
	rootCmd.AddCommand(newQueryCommand())
	rootCmd.AddCommand(newAdminCommand())
	rootCmd.AddCommand(newHealthCommand())

	return rootCmd
}

// initializeClient sets up the HTTP client with global configuration
func initializeClient(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "help" || cmd.Parent() == nil {
		return nil
	}

	if !noAuth && clientID == "" && token == "" {
		return fmt.Errorf("client-id is required (unless using --no-auth or --token)")
	}

	effectiveClientID := clientID
	if effectiveClientID == "" {
		effectiveClientID = "dev-client"
	}

	var err error
	client, err = httpclient.NewClient(httpclient.Config{
		ServerURL: serverURL,
		ClientID:  effectiveClientID,
		AdminKey:  adminKey,
		Timeout:   timeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	if token != "" {
		client.SetToken(token)
	} else if noAuth {
		// The gateway ignores the token in no-auth mode; this only satisfies the client-side check
		client.SetToken("no-auth-mode")
	}

	return nil
}

// requireAuthentication checks if the client is authenticated
func requireAuthentication() error {
	if client == nil {
		return fmt.Errorf("client not initialized")
	}
	if noAuth {
		return nil
	}
	if !client.IsAuthenticated() {
		return fmt.Errorf("not authenticated - run 'eventstreams-cli auth' first or provide --token")
	}
	return nil
}
