package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oceanbase/decaymem-go/pkg/core"
	"github.com/oceanbase/decaymem-go/pkg/intelligence"
	"github.com/oceanbase/decaymem-go/pkg/observe"
	"github.com/oceanbase/decaymem-go/pkg/sweeper"
	"github.com/oceanbase/decaymem-go/pkg/vectors"
)

func storeCmd(g *globalFlags) *cobra.Command {
	var (
		role           string
		tags           []string
		conversationID string
	)
	cmd := &cobra.Command{
		Use:   "store [content]",
		Short: "Store one utterance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withClient(cmd.Context(), func(c *core.Config) {
				c.Memory.InsertMode = core.ModeImmediate.String()
			}, func(ctx context.Context, client *core.Client) error {
				id, err := client.Store(ctx, args[0],
					core.WithRole(vectors.ParseRole(role)),
					core.WithTags(tags...),
					core.WithConversationID(conversationID),
				)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&role, "role", "r", "user", "speaker role (user, assistant, other)")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "context tag, repeatable")
	cmd.Flags().StringVar(&conversationID, "conversation", "", "conversation id")
	return cmd
}

func searchCmd(g *globalFlags) *cobra.Command {
	var (
		limit   int
		exclude string
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search memories from previous conversations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withClient(cmd.Context(), nil, func(ctx context.Context, client *core.Client) error {
				results, err := client.SearchText(ctx, args[0],
					core.WithLimit(limit),
					core.WithExcludeConversation(exclude),
				)
				if asJSON {
					if err != nil {
						return err
					}
					return writeJSON(cmd.OutOrStdout(), results)
				}
				// Search failures are reported in the rendered text.
				if err != nil && len(results) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), core.MessageUnavailable)
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), client.FormatResults(args[0], results))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", core.DefaultSearchLimit, "maximum number of results")
	cmd.Flags().StringVar(&exclude, "exclude-conversation", "", "skip memories from this conversation")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output results as JSON")
	return cmd
}

func cleanupCmd(g *globalFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Evict weak memories and enforce the capacity limit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withClient(cmd.Context(), nil, func(ctx context.Context, client *core.Client) error {
				res, err := client.Cleanup(ctx)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), res)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "scanned %d, deleted %d, failed %d\n", res.Scanned, res.Deleted, res.Failed)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output the result as JSON")
	return cmd
}

func statsCmd(g *globalFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show strength statistics of stored memories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withClient(cmd.Context(), nil, func(ctx context.Context, client *core.Client) error {
				stats, err := client.Stats(ctx)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), stats)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "memories:     %d\n", stats.TotalMemories)
				fmt.Fprintf(out, "strength:     avg %.3f, min %.3f, max %.3f\n", stats.AvgStrength, stats.MinStrength, stats.MaxStrength)
				fmt.Fprintf(out, "avg age:      %.1f days\n", stats.AvgAgeDays)
				fmt.Fprintf(out, "below min:    %d\n", stats.WeakMemories)
				for _, tier := range intelligence.AllTiers {
					fmt.Fprintf(out, "%-13s %d\n", string(tier)+":", stats.Tiers[tier])
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output statistics as JSON")
	return cmd
}

func sweepCmd(g *globalFlags) *cobra.Command {
	var (
		schedule string
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run cleanup on a schedule until interrupted",
		Long: `sweep keeps a client open and runs cleanup whenever the schedule fires.
Without flags it uses memory.cleanup_schedule from the configuration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if schedule == "" && interval == 0 {
				schedule = cfg.Memory.CleanupSchedule
			}
			obs := observe.New(cmd.ErrOrStderr(), observe.Options{
				Level:  cfg.Log.Level,
				Format: observe.Format(cfg.Log.Format),
			})

			client, err := core.NewClientFromConfig(cfg, core.WithObserver(obs))
			if err != nil {
				return err
			}
			defer client.Close()

			sw, err := sweeper.New(client, sweeper.Config{Schedule: schedule, Interval: interval}, obs)
			if err != nil {
				return err
			}
			obs.Log().Info().Str("schedule", schedule).Str("interval", interval.String()).Msg("sweeper started")
			if err := sw.Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&schedule, "schedule", "", "cron expression, e.g. \"*/15 * * * *\"")
	cmd.Flags().DurationVar(&interval, "interval", 0, "fixed interval between runs, e.g. 10m")
	return cmd
}
