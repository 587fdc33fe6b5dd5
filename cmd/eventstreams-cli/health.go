package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newHealthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check gateway health",
		Long:  "Check the health status of the event streams provider behind the gateway",
		RunE:  runHealth,
	}
}

func runHealth(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Checking health of %s...\n", serverURL)

	health, err := client.GetHealth(ctx)
	if err != nil {
		return err
	}

	if health.Healthy {
		fmt.Fprintln(out, "Provider is healthy")
	} else {
		fmt.Fprintln(out, "Provider is not healthy")
	}
	fmt.Fprintf(out, "Version: %s\n", health.Version)
	fmt.Fprintf(out, "Dispatcher configured: %t\n", health.DispatcherConfigured)
	fmt.Fprintf(out, "Bound actors: %d\n", health.BoundActors)
	if health.Message != "" {
		fmt.Fprintf(out, "Message: %s\n", health.Message)
	}
	return nil
}
