package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tusharsharma89566/Edu-Learn/internal/seed"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the default admin, FAQs and badges",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		fixtures, err := seed.Default()
		if seedFile != "" {
			var data []byte
			data, err = os.ReadFile(seedFile)
			if err != nil {
				return fmt.Errorf("failed to read seed file: %w", err)
			}
			fixtures, err = seed.Parse(data)
		}
		if err != nil {
			return err
		}

		a, err := newApp(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.close(ctx)

		result, err := seed.NewSeeder(a.serviceManager, logger).Apply(ctx, fixtures)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "admin created: %t, faqs: %d, badges: %d\n", result.AdminCreated, result.FAQs, result.Badges)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "YAML fixtures to load instead of the built-in set")
}
