package cli

import (
	"errors"
	"fmt"

	"github.com/robostorm/robostorm/internal/adapters/fixtures"
	"github.com/spf13/cobra"
)

// NewNewsCommand creates the news command and its subcommands.
func NewNewsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "news",
		Short: "Manage curated industry news",
	}
	cmd.AddCommand(newNewsImportCommand(rootOpts))
	return cmd
}

func newNewsImportCommand(rootOpts *RootOptions) *cobra.Command {
	var file, source string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import curated articles, skipping titles already stored for the source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file == "" {
				return errors.New("--file is required")
			}
			cfg := rootOpts.Config()
			ctx := cmd.Context()

			set, err := fixtures.LoadFile(file)
			if err != nil {
				return err
			}

			b, err := openBackend(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			sum, err := b.newService(cfg).ImportNews(ctx, set.News, source)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported: %d, skipped: %d\n", sum.Imported, sum.Skipped)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "YAML file with a news list")
	cmd.Flags().StringVar(&source, "source", "", "source name applied to every article")
	return cmd
}
