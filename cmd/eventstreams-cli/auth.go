package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newAuthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with the gateway",
		Long: `Authenticate with the gateway using your client ID.
With --admin-key the token carries the system identity and may use the admin commands.`,
		RunE: runAuth,
	}
}

func runAuth(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Authenticating with %s as client %s...\n", serverURL, clientID)

	if err := client.Authenticate(ctx); err != nil {
		return err
	}

	fmt.Fprintf(out, "Authentication successful (system: %t)\n", client.IsSystem())
	fmt.Fprintf(out, "Token: %s\n", client.GetToken())
	fmt.Fprintf(out, "\nSave the token for later commands:\n")
	fmt.Fprintf(out, "  export EVENTSTREAMS_TOKEN=\"%s\"\n", client.GetToken())
	fmt.Fprintf(out, "  eventstreams-cli --token \"$EVENTSTREAMS_TOKEN\" write --stream orders --value item=widget\n")
	return nil
}
