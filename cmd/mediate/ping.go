package main

import (
	"fmt"
	"time"

	mediate "github.com/glimte/mediate-go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

func newPingCommand(v *viper.Viper) *cobra.Command {
	var (
		count       int
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "ping [message]",
		Short: "Dispatch demo Ping queries through the configured behaviours",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("count must be at least 1")
			}
			if concurrency < 1 {
				concurrency = 1
			}

			message := "ping"
			if len(args) == 1 {
				message = args[0]
			}

			_, d, err := setup(v, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			start := time.Now()
			results := make([]error, count)
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(concurrency)
			var last Pong
			for i := 0; i < count; i++ {
				g.Go(func() error {
					out, err := mediate.Query[Ping, Pong](ctx, d.mediator, Ping{Message: message})
					results[i] = err
					if err == nil && i == count-1 {
						last = out
					}
					return nil
				})
			}
			_ = g.Wait()

			failed := 0
			for _, err := range results {
				if err != nil {
					failed++
				}
			}

			out := cmd.OutOrStdout()
			if failed < count && last.Message != "" {
				fmt.Fprintf(out, "%s %s\n", titleStyle.Render("pong:"), last.Message)
			}
			fmt.Fprintf(out, "dispatched: %d  succeeded: %d  failed: %d  audited: %d  elapsed: %v\n",
				count, count-failed, failed, d.audit.Count(), time.Since(start).Round(time.Millisecond))

			for _, err := range results {
				if err != nil {
					fmt.Fprintln(out, errorStyle.Render("first error: ")+err.Error())
					break
				}
			}

			if failed == count {
				return fmt.Errorf("all %d dispatches failed", count)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of queries to dispatch")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 4, "Maximum concurrent dispatches")

	return cmd
}
