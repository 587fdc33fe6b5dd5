package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/rmacdonaldsmith/eventstreams-go/pkg/httpclient"
)

func newQueryCommand() *cobra.Command {
	var (
		stream  string
		minTime uint64
		maxTime uint64
		count   uint64
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query events from a stream",
		Long: `Query events from a stream in id order.
--min and --max bound the query by event time in milliseconds and must be given together.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireAuthentication(); err != nil {
				return err
			}

			opts := httpclient.QueryOptions{Count: count}
			minSet, maxSet := cmd.Flags().Changed("min"), cmd.Flags().Changed("max")
			if minSet != maxSet {
				return errors.New("--min and --max must be used together")
			}
			if minSet {
				opts.HasRange = true
				opts.MinTime = minTime
				opts.MaxTime = maxTime
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			resp, err := client.QueryStream(ctx, stream, opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}

			if len(resp.Events) == 0 {
				fmt.Fprintf(out, "No events in %s\n", resp.Stream)
				return nil
			}

			fmt.Fprintf(out, "%d event(s) in %s:\n", resp.Count, resp.Stream)
			for _, event := range resp.Events {
				fmt.Fprintf(out, "%s\n", event.EventID)
				keys := make([]string, 0, len(event.Values))
				for k := range event.Values {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Fprintf(out, "  %s=%s\n", k, event.Values[k])
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&stream, "stream", "", "Stream to query")
	cmd.Flags().Uint64Var(&minTime, "min", 0, "Earliest event time in milliseconds")
	cmd.Flags().Uint64Var(&maxTime, "max", 0, "Latest event time in milliseconds")
	cmd.Flags().Uint64Var(&count, "count", 0, "Maximum number of events (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	_ = cmd.MarkFlagRequired("stream")

	return cmd
}
