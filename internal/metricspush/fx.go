package metricspush

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/pathway/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultPushInterval = 5 * time.Minute

var Module = fx.Module("metrics.push",
	fx.Provide(NewPusher),
	fx.Invoke(Run),
)

type RunParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Cfg       config.Config
	Pusher    Pusher `optional:"true"`
	DB        *gorm.DB
	Log       *zap.Logger
}

// Run starts the background push worker when a pusher is configured.
func Run(p RunParams) {
	if p.Pusher == nil {
		return
	}
	log := p.Log.Named("metrics.push")
	gauges := NewGauges(prometheus.NewRegistry())

	interval := p.Cfg.MetricsPush.Interval
	if interval <= 0 {
		interval = defaultPushInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Info("starting metrics push worker", zap.Duration("interval", interval))
			go func() {
				defer close(done)
				ticker := time.NewTicker(interval)
				defer ticker.Stop()

				pushOnce(ctx, log, gauges, p.Pusher, p.DB)
				for {
					select {
					case <-ticker.C:
						pushOnce(ctx, log, gauges, p.Pusher, p.DB)
					case <-ctx.Done():
						log.Info("stopping metrics push worker")
						return
					}
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return nil
		},
	})
}

func pushOnce(ctx context.Context, log *zap.Logger, gauges *Gauges, pusher Pusher, db *gorm.DB) {
	if err := gauges.Refresh(ctx, db); err != nil {
		log.Warn("metrics refresh incomplete", zap.Error(err))
	}
	pushCtx, cancel := context.WithTimeout(ctx, defaultPushTimeout)
	defer cancel()
	if err := pusher.Push(pushCtx, gauges.Registry()); err != nil {
		log.Error("metrics push failed", zap.Error(err))
	}
}
