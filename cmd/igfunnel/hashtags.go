package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"igfunnel/pkg/config"
	"igfunnel/pkg/hashtags"
	"igfunnel/pkg/logger"
)

var hashtagsCount int

var hashtagsCmd = &cobra.Command{
	Use:   "hashtags [topic]",
	Short: "Generate niche hashtags",
	Args:  cobra.ExactArgs(1),
	Example: `  igfunnel hashtags fitness
  igfunnel hashtags "vegan cooking" --count 30`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile, map[string]interface{}{
			"log-level": logLevel,
		})
		if err != nil {
			return err
		}
		if err := logger.Initialize(&cfg.Logging); err != nil {
			return err
		}

		gen := hashtags.NewGenerator(&cfg.Hashtags, logger.GetLogger())
		tags, err := gen.Generate(context.Background(), args[0], hashtagsCount)
		if err != nil {
			return err
		}

		for _, tag := range tags {
			fmt.Println(tag)
		}
		return nil
	},
}

func init() {
	hashtagsCmd.Flags().IntVarP(&hashtagsCount, "count", "c", 20, "number of hashtags to generate")
	rootCmd.AddCommand(hashtagsCmd)
}
