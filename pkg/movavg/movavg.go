package movavg

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tsl2591 "github.com/JenswBE/golang-tsl2591"
	"github.com/lmittmann/tint"
	"github.com/mikesmitty/max31865"
	"github.com/mikesmitty/movavg/pkg/averager"
	"github.com/mikesmitty/movavg/pkg/mqtt"
	"github.com/mikesmitty/movavg/pkg/router"
	"github.com/mikesmitty/movavg/pkg/source"
	"github.com/mikesmitty/movavg/pkg/stats"
	"github.com/mikesmitty/movavg/pkg/watchdog"
	"github.com/mikesmitty/sht4x"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

const shutdownGrace = 5 * time.Second

func Root() func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		cfg, err := LoadConfig(viper.GetViper())
		errChk(err)

		log, err := newLogger(os.Stderr, cfg.LogFormat, cfg.Debug)
		errChk(err)
		slog.SetDefault(log)

		avg, err := averager.New(cfg.Input, cfg.Accumulator, cfg.WindowDepth)
		errChk(err)
		slog.Info("moving average ready", "input", avg.Input(), "accumulator", avg.Accumulator(), "depth", avg.WindowSize(), "source", cfg.Source)

		sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT)
		defer stop()
		g, ctx := newGroup(sigCtx)

		var mc *mqtt.Client
		if cfg.MQTTBroker != nil {
			mc = mqtt.NewClient(cfg.MQTTBroker, cfg.MQTTSampleInterval)
			mc.SetWindow(mqtt.Window{
				Depth:       avg.WindowSize(),
				Input:       string(avg.Input()),
				Accumulator: string(avg.Accumulator()),
				Scale:       cfg.Scale,
			})
			errChk(mc.Connect())
			defer mc.Disconnect()
		}

		rawCh, sourceFn, closeSource, err := openSource(ctx, cfg, mc)
		errChk(err)
		defer func() {
			if err := closeSource(); err != nil {
				slog.Error("closing source", "source", cfg.Source, "error", err)
			}
		}()

		// Every subscription is taken before the fans start so nothing is missed.
		rawFan := router.NewFan[int64]("raw", rawCh)
		rawFan.SetDebug(cfg.Debug)
		avgCh, smoothFn := Smooth(ctx, avg, rawFan.MustSubscribe("smooth"))
		avgFan := router.NewFan[int64]("average", avgCh)
		avgFan.SetDebug(cfg.Debug)

		g.Go(Printer(cmd.OutOrStdout(), avgFan.MustSubscribe("stdout"), cfg.Scale))

		var statsCh <-chan stats.Summary
		if cfg.StatsWindow > 0 {
			var statsFn func() error
			statsCh, statsFn = stats.Channel(ctx, avgFan.MustSubscribe("stats"), cfg.StatsWindow, cfg.StatsEvery, cfg.Scale)
			g.Go(statsFn)
		}

		if mc != nil {
			g.Go(mc.GetPublisher(rawFan.MustSubscribe("mqtt"), avgFan.MustSubscribe("mqtt"), statsCh, cfg.MQTTSensorType, cfg.Scale))
			errChk(mc.HomeAssistant())
			g.GoService(func(ctx context.Context) func() error {
				return mc.SwitchFn(ctx, "publish-enable",
					func() { mc.SetPublishing(true) },
					func() { mc.SetPublishing(false) },
					mc.Publishing,
				)
			})
		} else if statsCh != nil {
			g.Go(logStats(statsCh))
		}

		if cfg.WatchdogTimeout > 0 {
			g.Go(watchdog.New(ctx, cfg.WatchdogTimeout, rawFan.MustSubscribe("watchdog")))
		}

		g.Go(sourceFn)
		g.Go(rawFan.Run)
		g.Go(smoothFn)
		g.Go(avgFan.Run)

		done := make(chan error, 1)
		go func() { done <- g.Wait() }()

		select {
		case err = <-done:
		case <-ctx.Done():
			slog.Info("shutting down...")
			select {
			case err = <-done:
			case <-time.After(shutdownGrace):
				// A source blocked in a read (stdin) cannot observe ctx.
				slog.Warn("pipeline did not stop in time", "grace", shutdownGrace)
				err = context.Cause(ctx)
				if sigCtx.Err() != nil {
					err = nil
				}
			}
		}
		errChk(err)
	}
}

func errChk(err error) {
	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func newLogger(w io.Writer, format string, debug bool) (*slog.Logger, error) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	switch format {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
	case "tint":
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.RFC3339,
		})), nil
	}
	return nil, fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, format)
}

func logStats(in <-chan stats.Summary) func() error {
	return func() error {
		for s := range in {
			slog.Info("window stats", "mean", s.Mean, "stddev", s.StdDev, "slope", s.Slope, "module", "stats")
		}
		return nil
	}
}

func noClose() error { return nil }

// openSource returns the raw sample stream for cfg.Source and a function
// releasing whatever hardware it holds.
func openSource(ctx context.Context, cfg Config, mc *mqtt.Client) (<-chan int64, func() error, func() error, error) {
	switch cfg.Source {
	case SourceStdin:
		c, fn := source.ReaderChannel(ctx, os.Stdin)
		return c, fn, noClose, nil

	case SourceMQTT:
		if mc == nil {
			return nil, nil, nil, fmt.Errorf("%w: source mqtt needs mqtt-broker", ErrInvalidConfig)
		}
		c, fn := mc.SampleChannel(ctx, cfg.MQTTInputTopic)
		return c, fn, noClose, nil

	case SourceSHT4x:
		if err := initHost(); err != nil {
			return nil, nil, nil, err
		}
		ib, err := i2creg.Open(cfg.I2CBus)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("i2c: %w", err)
		}
		dev, err := sht4x.New(ib, nil)
		if err != nil {
			ib.Close()
			return nil, nil, nil, fmt.Errorf("sht4x: %w", err)
		}
		c, fn := source.SHT4xChannel(ctx, dev, cfg.PollInterval, cfg.SHT4xField, cfg.Scale)
		return c, fn, ib.Close, nil

	case SourceMAX31865:
		if err := initHost(); err != nil {
			return nil, nil, nil, err
		}
		sb, err := spireg.Open(cfg.SPIBus)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("spi: %w", err)
		}
		dev, err := max31865.New(sb, nil)
		if err != nil {
			sb.Close()
			return nil, nil, nil, fmt.Errorf("max31865: %w", err)
		}
		c, fn := source.MAX31865Channel(ctx, dev, cfg.PollInterval, cfg.Scale)
		return c, fn, sb.Close, nil

	case SourceTSL2591:
		if err := initHost(); err != nil {
			return nil, nil, nil, err
		}
		dev, err := tsl2591.NewTSL2591(&tsl2591.Opts{
			Bus:    cfg.I2CBus,
			Gain:   tsl2591.GainLow,
			Timing: tsl2591.IntegrationTime100MS,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("tsl2591: %w", err)
		}
		c, fn := source.TSL2591Channel(ctx, dev, cfg.PollInterval)
		return c, fn, dev.Disable, nil
	}
	return nil, nil, nil, fmt.Errorf("%w: unknown source %q", ErrInvalidConfig, cfg.Source)
}

func initHost() error {
	hostState, err := host.Init()
	if err != nil {
		return fmt.Errorf("periph host: %w", err)
	}
	for i := range hostState.Loaded {
		slog.Debug("loaded", "module", hostState.Loaded[i])
	}
	for i := range hostState.Failed {
		slog.Error("failed", "module", hostState.Failed[i])
	}
	for i := range hostState.Skipped {
		slog.Debug("skipped", "module", hostState.Skipped[i])
	}
	return nil
}
