package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"vodsieve/internal/lookupcache"
	"vodsieve/internal/media"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the lookup cache",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheSweepCommand(ctx))
	cacheCmd.AddCommand(newCacheInvalidateCommand(ctx))

	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show lookup cache contents",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openCache(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOutput {
				return writeJSON(out, stats)
			}
			cfg, _ := ctx.ensureConfig()
			fmt.Fprintf(out, "Cache: %s\n", lookupcache.Describe(cfg.Cache))
			rows := [][]string{
				tableStatsRow("search", stats.Search),
				tableStatsRow("detail", stats.Detail),
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Table", "Live", "Expired", "By kind"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print statistics as JSON")
	return cmd
}

func tableStatsRow(name string, ts lookupcache.TableStats) []string {
	kinds := make([]string, 0, len(ts.ByKind))
	for kind, n := range ts.ByKind {
		kinds = append(kinds, fmt.Sprintf("%s=%d", kind, n))
	}
	sort.Strings(kinds)
	byKind := strings.Join(kinds, " ")
	if byKind == "" {
		byKind = "-"
	}
	return []string{
		name,
		strconv.FormatInt(ts.Live, 10),
		strconv.FormatInt(ts.Expired, 10),
		byKind,
	}
}

func newCacheSweepCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openCache(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired entries\n", removed)
			return nil
		},
	}
}

func newCacheInvalidateCommand(ctx *commandContext) *cobra.Command {
	var kindFlag string
	cmd := &cobra.Command{
		Use:   "invalidate",
		Short: "Remove cached lookups for one kind or all kinds",
		RunE: func(cmd *cobra.Command, args []string) error {
			var kind media.Kind
			if strings.TrimSpace(kindFlag) != "" {
				parsed, err := media.ParseKind(kindFlag)
				if err != nil {
					return err
				}
				kind = parsed
			}
			store, err := ctx.openCache(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Invalidate(cmd.Context(), kind)
			if err != nil {
				return err
			}
			scope := "all kinds"
			if kind != "" {
				scope = string(kind)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries (%s)\n", removed, scope)
			return nil
		},
	}
	cmd.Flags().StringVarP(&kindFlag, "kind", "k", "", "Limit invalidation to one kind (movie, tv, documentary)")
	return cmd
}
