package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/racer/internal/config"
	"github.com/zeusync/racer/internal/core/observability/log"
	"github.com/zeusync/racer/internal/core/race"
	"github.com/zeusync/racer/internal/injector"
)

// defaultTicks bounds a headless run: ten minutes of race time at 60 Hz.
const defaultTicks = 10 * 60 * 60

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("racer", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a YAML config file")
	script := fs.String("script", "", "path to a YAML input script (overrides input_script)")
	ticks := fs.Int("ticks", defaultTicks, "maximum ticks to simulate in headless mode")
	headless := fs.Bool("headless", false, "simulate as fast as possible and print the result")
	restartAfter := fs.Duration("restart-after", 0, "start a new race this long after each finish (0 keeps the config value)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *script != "" {
		cfg.InputScript = *script
	}
	if *restartAfter > 0 {
		cfg.Loop.RestartDelay = *restartAfter
	}

	app, cleanup, err := injector.InitializeApp(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if *headless {
		return runHeadless(ctx, app, *ticks, stdout)
	}
	return runLive(ctx, app)
}

func runHeadless(ctx context.Context, app *injector.App, ticks int, stdout io.Writer) error {
	if ticks <= 0 {
		return fmt.Errorf("ticks must be positive, got %d", ticks)
	}
	app.Loop.RunFor(ctx, ticks)

	snap := app.Loop.Snapshot()
	winner := snap.Winner
	if winner == "" {
		winner = "none"
	}
	fmt.Fprintf(stdout, "race:    %s\n", snap.RaceID)
	fmt.Fprintf(stdout, "winner:  %s\n", winner)
	fmt.Fprintf(stdout, "ticks:   %d\n", snap.Tick)
	fmt.Fprintf(stdout, "elapsed: %.3fs\n", snap.Elapsed)
	for _, c := range snap.Cars {
		fmt.Fprintf(stdout, "laps:    %s %d/%d\n", c.ID, c.Laps, snap.LapsToWin)
	}
	fmt.Fprintf(stdout, "digest:  %016x\n", app.Loop.Digest())
	return nil
}

// reportFinish logs the result once the loop has returned on its own. The
// spectator feed keeps serving the final frame until the process is
// interrupted.
func reportFinish(logger log.Log, snap race.Snapshot, spectating bool) {
	if snap.Winner == "" {
		return
	}
	logger.Info("race over", log.String("winner", snap.Winner), log.Float64("elapsed", snap.Elapsed))
	if spectating {
		logger.Info("holding final frame for spectators until interrupted")
	}
}

func runLive(ctx context.Context, app *injector.App) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := app.Loop.Run(gctx); err != nil {
			return err
		}
		reportFinish(app.Logger, app.Loop.Snapshot(), app.Config.Spectator.Enabled)
		return nil
	})

	if app.Config.Spectator.Enabled {
		g.Go(func() error {
			if err := app.Spectator.Start(gctx, ""); err != nil {
				return err
			}
			<-gctx.Done()
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return app.Spectator.Stop(stopCtx)
		})
	}

	return g.Wait()
}
