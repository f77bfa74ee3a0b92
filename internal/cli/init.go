// init.go implements "ember init", creating the .ember directory.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emberfocus/ember/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the .ember directory and default config",
	RunE: func(cmd *cobra.Command, args []string) error {
		baseDir, err := config.ResolveBaseDir()
		if err != nil {
			return err
		}
		if err := config.InitEmberDir(baseDir); err != nil {
			return err
		}
		cfg, err := config.NewConfig(baseDir)
		if err != nil {
			return err
		}
		fmt.Printf("Initialized %s\n", cfg.EmberHomeDir)
		fmt.Printf("Store backend: %s\n", cfg.StoreBackend())
		return nil
	},
}
