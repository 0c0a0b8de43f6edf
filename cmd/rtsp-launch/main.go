package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/e7canasta/rtsp-launch/internal/app"
	"github.com/e7canasta/rtsp-launch/internal/config"
	"github.com/e7canasta/rtsp-launch/internal/profile"
	"github.com/e7canasta/rtsp-launch/internal/rtsp"
)

// Exit codes, one per failure class. Configuration failures are told
// apart from the listener failing to bind.
const (
	exitUsage    = -1
	exitProfiles = 3
	exitDuration = 4
	exitAttach   = 6
)

func main() {
	fmt.Println("Launch RTSP Server")

	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		fail(err)
	}

	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	a, err := app.New(cfg)
	if err != nil {
		fail(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		fail(err)
	}
}

// fail prints the error and exits with the code its class maps to.
func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(exitCodeFor(err))
}

// exitCodeFor maps an error to the process exit code. The usage check
// runs last: usage errors may wrap flag-library errors but nothing wraps
// a usage error.
func exitCodeFor(err error) int {
	var profileErr *profile.SyntaxError
	var durationErr *config.DurationError
	var attachErr *rtsp.AttachError
	var usageErr *config.UsageError
	switch {
	case errors.As(err, &profileErr):
		return exitProfiles
	case errors.As(err, &durationErr):
		return exitDuration
	case errors.As(err, &attachErr):
		return exitAttach
	case errors.As(err, &usageErr):
		return exitUsage
	default:
		return 1
	}
}
