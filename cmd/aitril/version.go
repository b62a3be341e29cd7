package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/professai/aitril/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("aitril version %s\n", version.Get())
	},
}
