package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raushankrgupta/fitscroll/bridge"
	"github.com/raushankrgupta/fitscroll/config"
)

var errBridgeDown = errors.New("bridge is unreachable")

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the outfit bridge is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}

		client := bridge.NewClient(cfg.BridgeURL, cfg.BridgeTimeout, cfg.BridgeRefreshTimeout, newLogger(cmd))
		if !client.HealthCheck(cmd.Context()) {
			return fmt.Errorf("%w: %s", errBridgeDown, cfg.BridgeURL)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "bridge ok: %s\n", cfg.BridgeURL)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
