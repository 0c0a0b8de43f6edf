package rtsp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/bluenviron/gortsplib/v4"
	"github.com/bluenviron/gortsplib/v4/pkg/description"
	rtspformat "github.com/bluenviron/gortsplib/v4/pkg/format"
	"github.com/pion/rtp"

	"github.com/e7canasta/rtsp-launch/internal/factory"
	enginegst "github.com/e7canasta/rtsp-launch/internal/gst"
	"github.com/e7canasta/rtsp-launch/internal/metrics"
)

// mediaStartTimeout bounds pipeline startup and caps negotiation when the
// shared media is constructed.
const mediaStartTimeout = 15 * time.Second

// mediaStream is the running shared media: one pipeline feeding one
// server stream that every client session reads from.
type mediaStream struct {
	pipeline  *enginegst.Pipeline
	stream    *gortsplib.ServerStream
	medias    []*description.Media
	retention *RetentionBuffer
	metrics   *metrics.Metrics
	cancel    context.CancelFunc

	// ready gates packet forwarding: taps start delivering as soon as
	// the pipeline plays, before the server stream exists.
	ready atomic.Bool
}

// ensureMedia returns the shared media stream, constructing it on first
// use. Construction is deferred until a client asks, so the server comes
// up and answers requests even when the pipeline cannot start.
func (r *Runtime) ensureMedia() (*gortsplib.ServerStream, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.media != nil {
		return r.media.stream, nil
	}
	if r.mounts == nil {
		return nil, fmt.Errorf("rtsp: no mount table installed")
	}
	f, ok := r.mounts.Lookup(r.mounts.Path())
	if !ok {
		return nil, fmt.Errorf("rtsp: mount table has no factory")
	}

	ms, err := r.constructMedia(f)
	if err != nil {
		return nil, err
	}
	r.media = ms
	return ms.stream, nil
}

// constructMedia builds the pipeline, waits for its payload formats and
// publishes them as one server stream.
func (r *Runtime) constructMedia(f *factory.MediaFactory) (*mediaStream, error) {
	ms := &mediaStream{metrics: r.metrics}
	if f.Retain() {
		ms.retention = NewRetentionBuffer(f.RetransmissionTime())
		slog.Info("rtsp: packet retention enabled", "window", f.RetransmissionTime())
	}

	pipeline, err := enginegst.NewPipeline(f.Launch())
	if err != nil {
		return nil, err
	}
	ms.pipeline = pipeline

	ctx, cancel := context.WithCancel(context.Background())
	ms.cancel = cancel

	startCtx, startCancel := context.WithTimeout(ctx, mediaStartTimeout)
	defer startCancel()
	if err := pipeline.Start(startCtx, ms.forward); err != nil {
		cancel()
		pipeline.Stop()
		return nil, err
	}

	medias := make([]*description.Media, 0, len(pipeline.Taps()))
	for _, tap := range pipeline.Taps() {
		medi, err := mediaFromFormat(tap.Format)
		if err != nil {
			cancel()
			pipeline.Stop()
			return nil, fmt.Errorf("rtsp: pay%d: %w", tap.Index, err)
		}
		medias = append(medias, medi)
	}
	ms.medias = medias

	stream := &gortsplib.ServerStream{
		Server: r.server,
		Desc:   &description.Session{Medias: medias},
	}
	if err := stream.Initialize(); err != nil {
		cancel()
		pipeline.Stop()
		return nil, fmt.Errorf("rtsp: failed to initialize server stream: %w", err)
	}
	ms.stream = stream
	ms.ready.Store(true)

	f.MediaConstructed(len(medias))
	if r.metrics != nil {
		r.metrics.MediaConstructed.Inc()
	}
	slog.Info("rtsp: shared media constructed", "streams", len(medias))

	go func() {
		if err := pipeline.MonitorBus(ctx); err != nil {
			slog.Error("rtsp: media pipeline failed, dropping shared media", "error", err)
			var perr *enginegst.PipelineError
			if errors.As(err, &perr) && r.metrics != nil {
				r.metrics.PipelineErrors.WithLabelValues(perr.Category.String()).Inc()
			}
			r.dropMedia(ms)
		}
	}()

	return ms, nil
}

// dropMedia tears down a failed media stream. The next DESCRIBE triggers
// a fresh construction attempt.
func (r *Runtime) dropMedia(ms *mediaStream) {
	r.mu.Lock()
	if r.media == ms {
		r.media = nil
	}
	r.mu.Unlock()
	ms.close()
}

func (ms *mediaStream) close() {
	ms.ready.Store(false)
	if ms.cancel != nil {
		ms.cancel()
	}
	if ms.stream != nil {
		ms.stream.Close()
	}
	if ms.pipeline != nil {
		ms.pipeline.Stop()
	}
}

// forward hands one tapped RTP packet to every subscribed client session.
// Runs on the pipeline's streaming threads; packets arriving before the
// server stream exists are dropped.
func (ms *mediaStream) forward(streamIndex int, data []byte) {
	if !ms.ready.Load() || streamIndex >= len(ms.medias) {
		return
	}

	var pkt rtp.Packet
	if err := pkt.Unmarshal(data); err != nil {
		slog.Warn("rtsp: dropping malformed RTP packet", "stream", streamIndex, "error", err)
		return
	}

	if err := ms.stream.WritePacketRTP(ms.medias[streamIndex], &pkt); err != nil {
		slog.Debug("rtsp: failed to write RTP packet", "stream", streamIndex, "error", err)
		return
	}

	if ms.retention != nil {
		ms.retention.Add(streamIndex, &pkt, time.Now())
		if ms.metrics != nil {
			ms.metrics.PacketsRetained.Set(float64(ms.retention.Len()))
		}
	}
	if ms.metrics != nil {
		ms.metrics.RecordPacketSent(strconv.Itoa(streamIndex), len(data))
	}
}

// mediaFromFormat translates a negotiated payload format into a session
// description media entry.
func mediaFromFormat(f enginegst.RTPFormat) (*description.Media, error) {
	gen := &rtspformat.Generic{
		PayloadTyp: f.Payload,
		RTPMa:      f.RTPMap(),
		FMT:        f.FMTP,
		ClockRat:   f.ClockRate,
	}
	if err := gen.Init(); err != nil {
		return nil, fmt.Errorf("rtsp: invalid payload format %q: %w", f.RTPMap(), err)
	}
	return &description.Media{
		Type:    description.MediaType(f.Media),
		Formats: []rtspformat.Format{gen},
	}, nil
}
