package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newAdminCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Admin commands (requires a system token)",
		Long:  "Administrative commands for binding actors and inspecting the provider",
	}

	cmd.AddCommand(newAdminActorsCommand())
	cmd.AddCommand(newAdminBindCommand())
	cmd.AddCommand(newAdminRemoveCommand())
	cmd.AddCommand(newAdminDescribeCommand())

	return cmd
}

func newAdminActorsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "actors",
		Short: "List bound actors",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireAuthentication(); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			actors, err := client.ListActors(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(actors) == 0 {
				fmt.Fprintln(out, "No actors bound")
				return nil
			}
			fmt.Fprintf(out, "%d bound actor(s):\n", len(actors))
			for _, actor := range actors {
				fmt.Fprintf(out, "  %s\n", actor)
			}
			return nil
		},
	}
}

func newAdminBindCommand() *cobra.Command {
	var (
		storeURL string
		values   map[string]string
	)

	cmd := &cobra.Command{
		Use:   "bind ACTOR",
		Short: "Bind an actor to a store",
		Long: `Bind an actor to a Redis store. Rebinding an actor replaces its previous store.
Without --url the provider's default store address is used.`,
		Example: "  eventstreams-cli --token \"$EVENTSTREAMS_TOKEN\" admin bind orders-service --url redis://localhost:6379/0",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireAuthentication(); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			if err := client.BindActor(ctx, args[0], storeURL, values); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Actor %s bound\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&storeURL, "url", "", "Store connection URL")
	cmd.Flags().StringToStringVar(&values, "value", nil, "Additional configuration value as key=value")

	return cmd
}

func newAdminRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove ACTOR",
		Short: "Remove an actor's binding",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireAuthentication(); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			if err := client.RemoveActor(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Actor %s removed\n", args[0])
			return nil
		},
	}
}

func newAdminDescribeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "Show the capability descriptor",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireAuthentication(); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			desc, err := client.GetDescriptor(ctx)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(desc)
		},
	}
}
