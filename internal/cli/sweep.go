package cli

import (
	"github.com/spf13/cobra"

	"github.com/bridgekit/mentiond/internal/ratelimit"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove stale rate limit records",
	Long:  "Rate limit records accumulate one per client identity. Sweep drops every record whose newest request is older than twice the window; run it from cron.",
	RunE:  sweepAction,
}

func sweepAction(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	kvs, _, err := openStore(cfg)
	if err != nil {
		return err
	}

	limiter := ratelimit.New(kvs, logger, ratelimit.Options{
		Enabled:       cfg.Security.RateLimit.Enabled,
		MaxRequests:   cfg.Security.RateLimit.MaxRequests,
		WindowSeconds: cfg.Security.RateLimit.WindowSeconds,
	})

	return limiter.Sweep(cmd.Context())
}
