package cmd

import "github.com/spf13/cobra"

// redisCmd groups utilities for the optional Redis cache backend.
var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Redis cache backend utilities",
}

func init() {
	rootCmd.AddCommand(redisCmd)
}
