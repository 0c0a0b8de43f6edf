package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/e7canasta/rtsp-launch/internal/config"
	"github.com/e7canasta/rtsp-launch/internal/factory"
	"github.com/e7canasta/rtsp-launch/internal/metrics"
	"github.com/e7canasta/rtsp-launch/internal/rtsp"
)

// App wires the launcher together: configuration in, a mounted and
// attached server runtime out.
type App struct {
	cfg     *config.Config
	runtime *rtsp.Runtime
	metrics *metrics.Metrics
}

// New builds the media factory from the configuration and walks the
// runtime through configure and mount. Any configuration error aborts
// before a listener exists.
func New(cfg *config.Config) (*App, error) {
	m := metrics.New()

	f, err := factory.New(factory.Options{
		Launch:             cfg.Launch,
		ProfileSpec:        cfg.ProfileSpec,
		RetransmissionSpec: cfg.RetransmissionSpec,
		DisableRTCP:        cfg.DisableRTCP,
	})
	if err != nil {
		return nil, err
	}
	if cfg.Debug {
		f.SetMediaConstructedHook(factory.LogMediaConstructed)
	}

	runtime := rtsp.NewRuntime(cfg.Port, m)
	if err := runtime.Configure(); err != nil {
		return nil, err
	}

	if cfg.DisableRTCP && !runtime.SupportsRTCPToggle() {
		slog.Info("app: --disable-rtcp accepted but the protocol engine has no per-stream RTCP toggle, flag has no effect")
	}

	fmt.Printf("Pipeline: %s\n", f.Launch())

	table := rtsp.NewMountTable()
	if err := table.AddFactory(cfg.MountPath(), f); err != nil {
		return nil, err
	}
	// The runtime owns the table from here on.
	if err := runtime.Mount(table); err != nil {
		return nil, err
	}

	return &App{cfg: cfg, runtime: runtime, metrics: m}, nil
}

// Run attaches the listener and serves until ctx is cancelled. The ready
// line is printed only after the listener is bound.
func (a *App) Run(ctx context.Context) error {
	if a.cfg.MetricsAddr != "" {
		a.metrics.Serve(a.cfg.MetricsAddr)
	}

	if err := a.runtime.Attach(); err != nil {
		return err
	}

	fmt.Printf("Stream ready at rtsp://127.0.0.1:%s%s\n", a.cfg.Port, a.cfg.MountPath())

	return a.runtime.Run(ctx)
}
