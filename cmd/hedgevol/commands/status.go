package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the database and cache connections",
	Long: `Loads the configuration and reports whether the optional Postgres
price store and Redis series cache are reachable.

Example:
  go run ./cmd/hedgevol status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Printf("Environment: %s\n\n", a.cfg.Env)

	if a.db == nil {
		PrintWarning("Database: not configured (DATABASE_URL)")
	} else {
		status := a.db.HealthCheck(ctx)
		if status.Healthy {
			PrintSuccess(fmt.Sprintf("Database: ok (%v, %d conns, %d idle)",
				status.ResponseTime, status.TotalConns, status.IdleConns))
		} else {
			PrintError("Database: " + status.Error)
		}
	}

	if !a.redis.Enabled() {
		PrintWarning("Redis: disabled (REDIS_ENABLED)")
	} else if err := a.redis.Redis().Ping(ctx).Err(); err != nil {
		PrintError("Redis: " + err.Error())
	} else {
		PrintSuccess(fmt.Sprintf("Redis: ok (%s:%s, ttl %v)", a.cfg.Redis.Host, a.cfg.Redis.Port, a.cfg.Redis.TTL))
	}

	return nil
}
