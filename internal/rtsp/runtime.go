package rtsp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bluenviron/gortsplib/v4"
	"github.com/looplab/fsm"

	"github.com/e7canasta/rtsp-launch/internal/metrics"
)

// Lifecycle states of the server runtime. Transitions are linear; the
// state machine exists to reject out-of-order startup calls loudly
// instead of serving from a half-built server.
const (
	StateUnconfigured = "unconfigured"
	StateConfiguring  = "configuring"
	StateMounted      = "mounted"
	StateAttached     = "attached"
	StateRunning      = "running"
)

const (
	eventConfigure = "configure"
	eventMount     = "mount"
	eventAttach    = "attach"
	eventRun       = "run"
)

// Runtime owns the RTSP server: the listener, the mount table, the
// session pool with its reaper, and the lazily constructed shared media.
type Runtime struct {
	port    string
	metrics *metrics.Metrics

	server    *gortsplib.Server
	pool      *Pool
	reaper    *Reaper
	lifecycle *fsm.FSM

	mu     sync.Mutex
	mounts *MountTable
	media  *mediaStream
}

// NewRuntime creates a runtime listening on the given port once attached.
// metrics may be nil.
func NewRuntime(port string, m *metrics.Metrics) *Runtime {
	r := &Runtime{
		port:    port,
		metrics: m,
		pool:    NewPool(DefaultSessionTimeout),
	}
	r.reaper = NewReaper(r.pool, m)
	r.server = &gortsplib.Server{
		Handler:     &serverHandler{runtime: r},
		RTSPAddress: ":" + port,
	}
	r.lifecycle = fsm.NewFSM(
		StateUnconfigured,
		fsm.Events{
			{Name: eventConfigure, Src: []string{StateUnconfigured}, Dst: StateConfiguring},
			{Name: eventMount, Src: []string{StateConfiguring}, Dst: StateMounted},
			{Name: eventAttach, Src: []string{StateMounted}, Dst: StateAttached},
			{Name: eventRun, Src: []string{StateAttached}, Dst: StateRunning},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				slog.Debug("rtsp: lifecycle transition", "from", e.Src, "to", e.Dst)
			},
		},
	)
	return r
}

// State returns the current lifecycle state.
func (r *Runtime) State() string { return r.lifecycle.Current() }

// Configure moves the runtime out of its initial state. Factories are
// built and mounted afterwards.
func (r *Runtime) Configure() error {
	return r.lifecycle.Event(context.Background(), eventConfigure)
}

// Mount installs the mount table. The runtime takes ownership: the caller
// must not use the table after a successful return.
func (r *Runtime) Mount(table *MountTable) error {
	if table == nil || table.Path() == "" {
		return fmt.Errorf("rtsp: refusing to mount an empty table")
	}
	if err := r.lifecycle.Event(context.Background(), eventMount); err != nil {
		return err
	}

	r.mu.Lock()
	r.mounts = table
	r.mu.Unlock()

	slog.Info("rtsp: media factory mounted", "path", table.Path())
	return nil
}

// Attach binds the listening socket. A bind failure is returned as an
// AttachError so the caller can map it to its startup exit path.
func (r *Runtime) Attach() error {
	if err := r.lifecycle.Event(context.Background(), eventAttach); err != nil {
		return err
	}
	if err := r.server.Start(); err != nil {
		return &AttachError{Addr: r.server.RTSPAddress, Err: err}
	}
	slog.Info("rtsp: server attached", "addr", r.server.RTSPAddress)
	return nil
}

// Run serves clients until ctx is cancelled or the server fails. The
// session reaper runs for the same span.
func (r *Runtime) Run(ctx context.Context) error {
	if err := r.lifecycle.Event(context.Background(), eventRun); err != nil {
		return err
	}

	go r.reaper.Run(ctx)

	serverDone := make(chan error, 1)
	go func() { serverDone <- r.server.Wait() }()

	select {
	case <-ctx.Done():
		slog.Info("rtsp: shutting down")
		r.teardown()
		<-serverDone
		return nil
	case err := <-serverDone:
		r.teardown()
		if err != nil {
			return fmt.Errorf("rtsp: server terminated: %w", err)
		}
		return nil
	}
}

// SupportsRTCPToggle reports whether per-stream RTCP can be switched off
// on this protocol engine. It cannot; the flag is accepted for
// compatibility and logged as having no effect.
func (r *Runtime) SupportsRTCPToggle() bool { return false }

// teardown stops the shared media and closes the listener. Safe to call
// from either shutdown path.
func (r *Runtime) teardown() {
	r.mu.Lock()
	media := r.media
	r.media = nil
	r.mu.Unlock()

	if media != nil {
		media.close()
	}
	r.server.Close()
}
