package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raushankrgupta/fitscroll/app"
	"github.com/raushankrgupta/fitscroll/config"
	"github.com/raushankrgupta/fitscroll/models"
	"github.com/raushankrgupta/fitscroll/utils"
)

var (
	generateUser     string
	generateKeywords string
	generateNoSave   bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a feed for a stored profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		services, err := app.New(ctx, cfg, newLogger(cmd))
		if err != nil {
			return err
		}
		defer services.Close()

		profile, err := services.Store.LoadProfile(ctx, generateUser)
		if err != nil {
			return err
		}
		if generateKeywords != "" {
			profile.Keywords = utils.SplitList(generateKeywords)
		}

		out := cmd.OutOrStdout()
		entries, err := services.Pipeline.Run(ctx, profile, func(p models.PipelineProgress) {
			fmt.Fprintf(out, "[%3.0f%%] %s %d/%d\n", p.Fraction*100, p.Stage, p.Completed, p.Total)
		})
		if err != nil {
			return err
		}

		if !generateNoSave {
			if err := services.Store.SaveCachedFeed(ctx, generateUser, entries); err != nil {
				return fmt.Errorf("cache feed: %w", err)
			}
		}

		b, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(b))
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVar(&generateUser, "user", "", "User id whose profile drives the run")
	generateCmd.Flags().StringVar(&generateKeywords, "keywords", "", "Comma separated keywords overriding the profile")
	generateCmd.Flags().BoolVar(&generateNoSave, "no-save", false, "Print the feed without caching it")
	_ = generateCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(generateCmd)
}
