package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fundedai/boothchat/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize boothchat configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure the booth assistant and generates a .boothchat.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
