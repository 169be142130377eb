package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pgagates/gatesite/internal/version"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "gatesite",
		Short:         "Gate installation site server and admin tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "path to config.toml")

	root.AddCommand(newServeCmd())
	root.AddCommand(newUploadCmd())
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("gatesite %s\n", version.GetInfo())
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "gatesite: %v\n", err)
		os.Exit(1)
	}
}
