package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tpmjsctl",
	Short: "TPMJS registry server control",
	Long:  `tpmjsctl runs and manages the TPMJS tool registry server.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}
