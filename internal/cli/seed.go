package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load manufacturers, robots and news from a YAML fixture file",
		Long: `Load a fixture file into the configured store. Robots are upserted by
slug and manufacturers by name, so seeding twice is safe. News articles
whose title already exists for the same source are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file == "" {
				return errors.New("--file is required")
			}
			cfg := rootOpts.Config()
			ctx := cmd.Context()

			b, err := openBackend(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			res, err := seed(ctx, b, b.newService(cfg), file)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "manufacturers: %d, robots: %d, news imported: %d, news skipped: %d\n",
				res.Manufacturers, res.Robots, res.News.Imported, res.News.Skipped)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "fixture file")
	return cmd
}
