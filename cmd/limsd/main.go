// Command limsd runs the LIMS access-control service and inspects its
// permission policy.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev" // set at build time with -ldflags "-X main.version=..."

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "limsd",
		Short:   "LIMS authorization and account-protection service",
		Version: version,
		Long: `limsd enforces the LIMS role permission matrix, per-client rate limits
and per-account login lockout in front of the laboratory API.

Configuration is read from the environment (PORT, JWT_SECRET, MONGO_URI,
REDIS_ADDR, RATE_LIMIT_BACKEND, LOCKOUT_MAX_ATTEMPTS, LOCKOUT_WINDOW, ...).`,
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newPermissionsCmd(), newCheckCmd())
	return root
}
