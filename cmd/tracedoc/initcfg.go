package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tracedoc/tracedoc/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default config file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "config.yaml"
		if len(args) == 1 {
			path = args[0]
		}

		if !initForce {
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
		}

		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Printf("Wrote default config to %s\n", path)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")

	rootCmd.AddCommand(initCmd)
}
