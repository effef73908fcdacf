package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"uuid-bench/bench"
	"uuid-bench/keygen"
)

var (
	generateVariant string
	generateCount   int
	generateEngine  string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Print keys from one generator",
	Long: `Print keys produced by one key generation variant, one per line, to
inspect their layout and ordering.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if generateCount < 0 {
			return fmt.Errorf("%w: count must not be negative, got %d", bench.ErrConfiguration, generateCount)
		}

		keys, err := keygen.Lookup(generateVariant, generateEngine)
		if err != nil {
			return err
		}

		for range generateCount {
			fmt.Fprintln(cmd.OutOrStdout(), keys().String())
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVar(&generateVariant, "variant", keygen.V7SubMillis,
		"key generation variant")
	generateCmd.Flags().IntVar(&generateCount, "count", 10, "number of keys to print")
	generateCmd.Flags().StringVar(&generateEngine, "engine", "",
		"engine used to resolve the friendly variant")
}
