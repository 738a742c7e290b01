// Command reconciler runs the orphaned-payment sweep as a standalone job:
// it finds verified charges that never became orders and raises
// payment.unreconciled events for the support tooling to complete or refund.
package main

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	appkg "github.com/threadcart/backend/internal/app"
	"github.com/threadcart/backend/internal/notifier"
	"github.com/threadcart/backend/internal/reconcile"
	"github.com/threadcart/backend/internal/repository"
)

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, _ *app.Telemetry) error {
		cfg, err := appkg.LoadConfig()
		if err != nil {
			return err
		}

		pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return errors.Wrap(err, "create db pool")
		}
		defer pool.Close()

		events := notifier.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.Buffer, lg.Named("notifier"))
		events.Start()
		defer events.Close()

		r := reconcile.New(
			repository.NewPaymentRepository(pool),
			events,
			reconcile.Config{Interval: cfg.Reconcile.Interval, MinAge: cfg.Reconcile.MinAge},
			lg,
		)

		err = r.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
}
