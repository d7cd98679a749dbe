package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/mutker/perfscope/internal/canvas"
	"codeberg.org/mutker/perfscope/internal/config"
	"codeberg.org/mutker/perfscope/internal/errors"
	"codeberg.org/mutker/perfscope/internal/logger"
	"codeberg.org/mutker/perfscope/internal/panel"
	"codeberg.org/mutker/perfscope/internal/pid"
	"codeberg.org/mutker/perfscope/internal/tui"
	"github.com/rivo/tview"
)

const appName = "perfscope"

var cfg *config.Config

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	level, _ := logger.ParseLevel(cfg.LogLevel)
	out, err := logOutput()
	if err != nil {
		fmt.Printf("failed to open log file: %v\n", err)
		os.Exit(1)
	}
	logger.Init(level, out, logger.IsService())
	logger.Debug().Msg("Config loaded")
}

// logOutput keeps the terminal free for the UI when no log file is set.
func logOutput() (io.Writer, error) {
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, errors.New().Wrap(errors.ErrOpenLogFile, err)
		}
		return f, nil
	}
	if cfg.Headless {
		return os.Stdout, nil
	}

	return io.Discard, nil
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	raster, err := canvas.New(cfg.Width, cfg.Height)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create canvas")
	}

	var thermo *tui.Thermometer
	opts := []panel.Option{panel.WithSurface(raster)}
	if !cfg.Headless {
		thermo = tui.NewThermometer()
		opts = append(opts, panel.WithGauge(thermo))
	}

	p, err := panel.Open(ctx, cfg, opts...)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open panel")
	}
	defer cleanup(p)

	if cfg.Headless {
		err = headless(ctx, p, raster)
	} else {
		view := tui.NewView(tview.NewApplication(), p, raster.Image(), thermo, cfg.TickInterval, logger.Default().With("tui"))
		err = view.Run(ctx)
	}
	if err != nil {
		logger.Error().Err(err).Msg("error in main loop")
	}
}

func headless(ctx context.Context, p *panel.Panel, raster *canvas.Raster) error {
	pidPath := pid.Path(appName)
	if err := pid.Write(pidPath); err != nil {
		return err
	}
	defer func() {
		if err := pid.Remove(pidPath); err != nil {
			logger.Warn().Err(err).Msg("failed to remove PID file")
		}
	}()

	logger.Info().Int("port", p.Port()).Str("snapshot", cfg.SnapshotPath).Msg("Headless mode, waiting for devices")

	ticker := time.NewTicker(cfg.SnapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			plan, ok := p.Render()
			if !ok {
				logger.Debug().Msg("No device to snapshot")
				continue
			}
			if err := raster.SavePNG(cfg.SnapshotPath); err != nil {
				logger.Error().Err(err).Msg("failed to write snapshot")
				continue
			}

			c := p.Counters()
			logger.Info().
				Str("addr", plan.Address).
				Bool("paused", plan.Paused).
				Uint64("frames", c.Frames).
				Uint64("dropped", c.Dropped).
				Uint64("rejected", c.Rejected).
				Msg("Snapshot written")
		}
	}
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

func cleanup(p *panel.Panel) {
	if err := p.Close(); err != nil {
		logger.Error().Err(err).Msg("failed to close panel")
	}
	logger.Info().Msg("Exiting...")
}
