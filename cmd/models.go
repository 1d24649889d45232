package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/docquery-cli/internal/ai"
)

var modelsProvider string

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models available from the configured backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireConfig(); err != nil {
			return err
		}
		provider := modelsProvider
		if provider == "" {
			provider = cfg.DefaultProvider
		}
		runtime, ok := ai.GetRuntime(provider, runtimeConfig())
		if !ok {
			return fmt.Errorf("unknown provider %q", provider)
		}
		lister, ok := runtime.(ai.ModelLister)
		if !ok {
			return fmt.Errorf("provider %q cannot list models", provider)
		}
		names, err := lister.ListModels(cmd.Context())
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Printf("No models installed; default is %s\n", cfg.DefaultModel)
			return nil
		}
		for _, name := range names {
			marker := " "
			if name == cfg.DefaultModel {
				marker = "*"
			}
			fmt.Printf("%s %s\n", marker, name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.Flags().StringVar(&modelsProvider, "provider", "", "backend to query (default from config)")
}
