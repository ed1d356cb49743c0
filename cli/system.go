package cli

import (
	"context"
	"runtime"
	"time"

	"github.com/binhbb2204/bookhub/cli/config"
	"github.com/binhbb2204/bookhub/internal/api"
	"github.com/spf13/cobra"
)

var systemCmd = &cobra.Command{
	Use:   "system",
	Short: "System information",
	Long:  `Display system information and diagnostics.`,
}

var systemInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show system info",
	Long:  `Display system information, the active configuration and API reachability.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)

		outln("System Information:")
		outln("-------------------")
		outf("OS: %s\n", runtime.GOOS)
		outf("Architecture: %s\n", runtime.GOARCH)
		outf("Go Version: %s\n", runtime.Version())
		outf("CPUs: %d\n", runtime.NumCPU())

		path, _ := config.GetConfigPath()
		outln("\nConfiguration:")
		outf("  Config Path: %s\n", path)
		outf("  API: %s\n", a.Client.BaseURL())
		outf("  Session Storage: %s (%s)\n", a.Config.Storage.Path, a.Config.Storage.Backend)
		outf("  Log File: %s\n", a.Config.LogFile())

		outln("\nServer Connectivity:")
		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Second)
		defer cancel()
		start := time.Now()
		h, err := a.Client.Admin.Health(ctx)
		switch {
		case err == nil:
			outf("  Status: ✓ Online (%s, %dms)\n", h.Status, time.Since(start).Milliseconds())
		case api.StatusCode(err) > 0:
			outf("  Status: ⚠ Issues (HTTP %d)\n", api.StatusCode(err))
		default:
			outf("  Status: ✗ Unreachable (%s)\n", err.Error())
		}

		outln("\nSession:")
		if u, ok := storedUser(a); ok {
			outf("  Logged in as %s (%s)\n", u.Username, u.Role)
		} else {
			outln("  Not logged in")
		}

		m := a.Client.Metrics().Snapshot()
		outf("\nRequests this run: %d (failures: %d)\n", m.RequestsTotal, m.FailuresTotal)
		return nil
	},
}

func init() {
	systemCmd.AddCommand(systemInfoCmd)
}
