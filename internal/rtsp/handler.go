package rtsp

import (
	"log/slog"
	"strings"

	"github.com/bluenviron/gortsplib/v4"
	"github.com/bluenviron/gortsplib/v4/pkg/base"

	"github.com/e7canasta/rtsp-launch/internal/factory"
)

// serverHandler adapts protocol engine callbacks onto the runtime: path
// lookup, lazy media construction and session pool bookkeeping. Every
// request that proves the client is alive refreshes its pool entry.
type serverHandler struct {
	runtime *Runtime
}

var (
	_ gortsplib.ServerHandlerOnConnOpen     = (*serverHandler)(nil)
	_ gortsplib.ServerHandlerOnConnClose    = (*serverHandler)(nil)
	_ gortsplib.ServerHandlerOnSessionOpen  = (*serverHandler)(nil)
	_ gortsplib.ServerHandlerOnSessionClose = (*serverHandler)(nil)
	_ gortsplib.ServerHandlerOnDescribe     = (*serverHandler)(nil)
	_ gortsplib.ServerHandlerOnSetup        = (*serverHandler)(nil)
	_ gortsplib.ServerHandlerOnPlay         = (*serverHandler)(nil)
	_ gortsplib.ServerHandlerOnPause        = (*serverHandler)(nil)
	_ gortsplib.ServerHandlerOnGetParameter = (*serverHandler)(nil)
)

func (h *serverHandler) OnConnOpen(ctx *gortsplib.ServerHandlerOnConnOpenCtx) {
	slog.Debug("rtsp: connection opened", "remote", ctx.Conn.NetConn().RemoteAddr())
}

func (h *serverHandler) OnConnClose(ctx *gortsplib.ServerHandlerOnConnCloseCtx) {
	slog.Debug("rtsp: connection closed", "error", ctx.Error)
}

func (h *serverHandler) OnSessionOpen(ctx *gortsplib.ServerHandlerOnSessionOpenCtx) {
	s := h.runtime.pool.Add(ctx.Session)
	if m := h.runtime.metrics; m != nil {
		m.RecordSessionOpened()
	}
	slog.Info("rtsp: session opened", "session_id", s.ID)
}

func (h *serverHandler) OnSessionClose(ctx *gortsplib.ServerHandlerOnSessionCloseCtx) {
	// A false return means the reaper already evicted the session and
	// accounted for it.
	if h.runtime.pool.Remove(ctx.Session) {
		if m := h.runtime.metrics; m != nil {
			m.RecordSessionClosed()
		}
	}
}

func (h *serverHandler) OnDescribe(ctx *gortsplib.ServerHandlerOnDescribeCtx) (*base.Response, *gortsplib.ServerStream, error) {
	f, ok := h.lookup(ctx.Path)
	if !ok {
		slog.Info("rtsp: describe for unknown path", "path", ctx.Path)
		return &base.Response{StatusCode: base.StatusNotFound}, nil, nil
	}

	// A profile mask restricted to secure variants cannot be satisfied
	// on this plain-transport listener.
	if mask, set := f.Profiles(); set && !mask.Plain() {
		slog.Warn("rtsp: refusing describe, only secure profiles allowed", "profiles", mask.String())
		return &base.Response{StatusCode: base.StatusUnsupportedTransport}, nil, nil
	}

	stream, err := h.runtime.ensureMedia()
	if err != nil {
		slog.Error("rtsp: media construction failed", "error", err)
		return &base.Response{StatusCode: base.StatusInternalServerError}, nil, nil
	}
	return &base.Response{StatusCode: base.StatusOK}, stream, nil
}

func (h *serverHandler) OnSetup(ctx *gortsplib.ServerHandlerOnSetupCtx) (*base.Response, *gortsplib.ServerStream, error) {
	h.runtime.pool.Touch(ctx.Session)

	if _, ok := h.lookup(ctx.Path); !ok {
		return &base.Response{StatusCode: base.StatusNotFound}, nil, nil
	}

	// Clients may skip DESCRIBE; construction happens here then.
	stream, err := h.runtime.ensureMedia()
	if err != nil {
		slog.Error("rtsp: media construction failed", "error", err)
		return &base.Response{StatusCode: base.StatusInternalServerError}, nil, nil
	}
	return &base.Response{StatusCode: base.StatusOK}, stream, nil
}

func (h *serverHandler) OnPlay(ctx *gortsplib.ServerHandlerOnPlayCtx) (*base.Response, error) {
	h.runtime.pool.Touch(ctx.Session)
	slog.Info("rtsp: session playing", "path", ctx.Path)
	return &base.Response{StatusCode: base.StatusOK}, nil
}

func (h *serverHandler) OnPause(ctx *gortsplib.ServerHandlerOnPauseCtx) (*base.Response, error) {
	h.runtime.pool.Touch(ctx.Session)
	slog.Info("rtsp: session paused", "path", ctx.Path)
	return &base.Response{StatusCode: base.StatusOK}, nil
}

func (h *serverHandler) OnGetParameter(ctx *gortsplib.ServerHandlerOnGetParameterCtx) (*base.Response, error) {
	// GET_PARAMETER is the standard keepalive.
	h.runtime.pool.Touch(ctx.Session)
	return &base.Response{StatusCode: base.StatusOK}, nil
}

// lookup resolves a request path against the mount table. The engine may
// report paths without a leading slash; the table stores them absolute.
func (h *serverHandler) lookup(path string) (*factory.MediaFactory, bool) {
	h.runtime.mu.Lock()
	mounts := h.runtime.mounts
	h.runtime.mu.Unlock()

	if mounts == nil {
		return nil, false
	}
	return mounts.Lookup(normalizePath(path))
}

// normalizePath makes a request path absolute.
func normalizePath(path string) string {
	if strings.HasPrefix(path, "/") {
		return path
	}
	return "/" + path
}
