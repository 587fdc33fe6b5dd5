package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newWriteCommand() *cobra.Command {
	var (
		stream string
		values map[string]string
	)

	cmd := &cobra.Command{
		Use:   "write",
		Short: "Append an event to a stream",
		Long:  "Append an event with one or more field values to the end of a stream",
		Example: `  eventstreams-cli write --stream orders --value item=widget --value qty=3
  eventstreams-cli write --stream orders --value item=widget,qty=3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireAuthentication(); err != nil {
				return err
			}
			if len(values) == 0 {
				return errors.New("at least one --value is required")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			resp, err := client.WriteEvent(ctx, stream, values)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Event written to %s\n", resp.Stream)
			fmt.Fprintf(cmd.OutOrStdout(), "Event ID: %s\n", resp.EventID)
			return nil
		},
	}

	cmd.Flags().StringVar(&stream, "stream", "", "Stream to write to")
	cmd.Flags().StringToStringVar(&values, "value", nil, "Field value as key=value (repeatable)")
	_ = cmd.MarkFlagRequired("stream")

	return cmd
}
