package main

import (
	"fmt"
	"os"

	"marketplace_console_go/config"
	"marketplace_console_go/db"
	"marketplace_console_go/logging"
	"marketplace_console_go/services"

	"github.com/spf13/cobra"
)

var (
	flagLevel  string
	flagDryRun bool
)

// rootCmd normalizes category slugs created before slug sanitizing existed
var rootCmd = &cobra.Command{
	Use:   "migrate-slugs",
	Short: "Backfill empty or malformed category slugs",
	Long: `Rewrite category slugs that are empty or not lower-case hyphenated.

Slugs are derived from the existing slug or the category name and get a
-1, -2... suffix while they collide with another category at the same level.`,
	SilenceUsage: true,
	RunE:         runMigrateSlugs,
}

func init() {
	rootCmd.Flags().StringVar(&flagLevel, "level", "all", "head, sub, micro or all")
	rootCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "report changes without writing them")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMigrateSlugs(cmd *cobra.Command, args []string) error {
	config.LoadEnvFile()
	logger := logging.New(os.Getenv("ENVIRONMENT"))
	defer logger.Sync()

	levels := []services.CategoryLevel{services.LevelHead, services.LevelSub, services.LevelMicro}
	if flagLevel != "all" {
		level, err := services.ParseCategoryLevel(flagLevel)
		if err != nil {
			return fmt.Errorf("unknown level %q", flagLevel)
		}
		levels = []services.CategoryLevel{level}
	}

	cfg, err := config.Load(logger)
	if err != nil {
		return err
	}

	database, err := db.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close(database)

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	for _, level := range levels {
		var report *services.SlugReport
		switch level {
		case services.LevelHead:
			report, err = services.NewHeadCategoryManager(database, nil).BackfillSlugs(ctx, flagDryRun, logger)
		case services.LevelSub:
			report, err = services.NewSubCategoryManager(database, nil).BackfillSlugs(ctx, flagDryRun, logger)
		case services.LevelMicro:
			report, err = services.NewMicroCategoryManager(database, nil).BackfillSlugs(ctx, flagDryRun, logger)
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "%s: %d scanned, %d to fix\n", report.Level, report.Scanned, len(report.Changes))
		for _, c := range report.Changes {
			fmt.Fprintf(out, "  %s %q: %q -> %q\n", c.ID, c.Name, c.OldSlug, c.NewSlug)
		}
	}

	if flagDryRun {
		fmt.Fprintln(out, "dry run: no changes written")
	}
	return nil
}
