package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ztsentinel/sentinel/internal/daemon"
)

func init() {
	dashboardCmd.Flags().StringVar(&dashboardHost, "host", "127.0.0.1", "Dashboard host")
	dashboardCmd.Flags().IntVar(&dashboardPort, "port", 5000, "Dashboard port")
	rootCmd.AddCommand(dashboardCmd)
}

var (
	dashboardHost string
	dashboardPort int
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Launch the web dashboard",
	RunE:  runDashboard,
}

func runDashboard(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}

	d.Config.API.Host = dashboardHost
	d.Config.API.Port = dashboardPort

	fmt.Printf("[*] Starting sentinel dashboard on %s:%d\n", dashboardHost, dashboardPort)
	fmt.Printf("[*] Visit http://%s:%d/dashboard\n", dashboardHost, dashboardPort)
	return d.Serve(context.Background())
}
