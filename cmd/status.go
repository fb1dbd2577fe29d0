package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"heimdall/style"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status [project]",
	Short: "Show the latest deployment without waiting on it",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireToken(); err != nil {
			return err
		}

		project := ""
		if len(args) == 1 {
			project = args[0]
		}

		d, err := client.LatestDeployment(context.Background(), project)
		if err != nil {
			return fmt.Errorf("fetch deployment: %w", err)
		}

		fmt.Println(style.Title.Render("latest deployment"))

		kv := func(k, v string) {
			fmt.Printf("%s%s\n", style.Key.Render(k), v)
		}
		kv("state", style.StateDot(d.Status())+" "+style.StateStyle(d.Status()).Render(d.Status()))
		kv("id", style.DimText.Render(d.DeploymentID()))
		if d.Name != "" {
			kv("project", style.Bold.Render(d.Name))
		}
		if d.URL != "" {
			kv("url", style.Val.Render("https://"+d.URL))
		}
		kv("commit", style.CommitText.Render(d.CommitInfo()))
		if d.CreatedAt > 0 {
			kv("created", style.DimText.Render(time.UnixMilli(d.CreatedAt).Local().Format(time.RFC822)))
		}
		if d.ErrorMessage != "" {
			kv("error", style.Unhealthy.Render(d.ErrorMessage))
		}
		return nil
	},
}
