package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"heimdall/style"
)

var Version = "dev"

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show CLI version and API credential status",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("%s %s\n", style.Bold.Render("heimdall"), Version)

		if cfg.Token == "" {
			fmt.Printf("%s %s\n", style.DimText.Render("api"), style.DimText.Render("no token configured"))
			return nil
		}

		u, err := client.User(context.Background())
		if err != nil {
			fmt.Printf("%s %s\n", style.DimText.Render("api"), style.Unhealthy.Render("unreachable"))
			return nil
		}
		fmt.Printf("%s %s %s\n", style.DimText.Render("api"), style.DotHealthy, u.Username)
		return nil
	},
}
