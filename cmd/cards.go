package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var cardsCmd = &cobra.Command{
	Use:   "cards",
	Short: "Print the quick-info cards",
	Long: `Prints the curated quick-info cards. When no curated cards are indexed,
a one-time synthesis from the document corpus fills them in.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		st, err := buildStack(cfg)
		if err != nil {
			return err
		}
		if err := st.ingestor.EnsureIndex(cmd.Context()); err != nil {
			return fmt.Errorf("building index: %w", err)
		}

		cards, err := st.orchestrator.QuickInfoCards(cmd.Context())
		if err != nil {
			return err
		}
		if len(cards) == 0 {
			fmt.Println("No cards available. Add a cards PDF or index some documents first.")
			return nil
		}
		for _, c := range cards {
			fmt.Printf("%s\n%s\n\n", strings.ToUpper(c.Title), c.Content)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cardsCmd)
}
