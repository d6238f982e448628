package main

import (
	"context"
	"database/sql"
	"time"

	"civicpay/internal/services/booking"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// runSweep expires abandoned drafts on a fixed interval until ctx is done.
// A zero interval disables the in-process sweep, leaving it to the
// external scheduler.
func runSweep(ctx context.Context, log *logrus.Logger, bookings booking.Service, interval time.Duration) {
	if interval <= 0 {
		log.Info("in-process booking sweep disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := bookings.SweepAbandoned(ctx, now); err != nil {
				log.WithError(err).Error("scheduled booking sweep failed")
			}
		}
	}
}

// logPoolStats reports database and Redis connection pool counters once a
// minute at debug level.
func logPoolStats(ctx context.Context, log *logrus.Logger, db func() sql.DBStats, rdb func() *redis.PoolStats) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := db()
			log.WithFields(logrus.Fields{
				"open":          s.OpenConnections,
				"idle":          s.Idle,
				"in_use":        s.InUse,
				"wait_count":    s.WaitCount,
				"wait_duration": s.WaitDuration.String(),
			}).Debug("db pool stats")

			r := rdb()
			log.WithFields(logrus.Fields{
				"hits":        r.Hits,
				"misses":      r.Misses,
				"timeouts":    r.Timeouts,
				"total_conns": r.TotalConns,
				"idle_conns":  r.IdleConns,
			}).Debug("redis pool stats")
		}
	}
}
