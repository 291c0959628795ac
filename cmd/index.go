package cmd

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build or refresh the vector index from the docs directory",
	Long: `Extracts text from the configured PDF directory, chunks it, and writes
embeddings into the local vector database. Unchanged document sets are
skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		st, err := buildStack(cfg)
		if err != nil {
			return err
		}

		var bar *progressbar.ProgressBar
		st.ingestor.OnProgress = func(done, total int) {
			if bar == nil {
				bar = progressbar.Default(int64(total), "indexing")
			}
			bar.Set(done)
		}

		if err := st.ingestor.EnsureIndex(cmd.Context()); err != nil {
			return err
		}
		fmt.Printf("Index ready: %d chunks, %d cards\n", st.store.Docs().Count(), st.store.Cards().Count())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
