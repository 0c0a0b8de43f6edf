package gst

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

// capsWaitInterval is how often pad caps are polled while the pipeline
// negotiates after reaching PLAYING.
const capsWaitInterval = 100 * time.Millisecond

// defaultCapsWaitTimeout bounds the wait for payloader caps when the caller
// supplies no deadline of its own.
const defaultCapsWaitTimeout = 10 * time.Second

// PacketFunc receives one RTP packet produced by the payload stream with
// the given index. The data slice is owned by the callee.
type PacketFunc func(streamIndex int, data []byte)

// Tap is one payload stream: a pay%d element from the launch description
// with an appsink attached to its output.
type Tap struct {
	// Index is the payloader index (pay0 -> 0).
	Index int
	// Format is filled once the pipeline has negotiated caps.
	Format RTPFormat

	element *gst.Element
	sink    *app.Sink
}

// Pipeline wraps a GStreamer pipeline built from an operator-supplied
// launch description. Each element named pay%d is treated as one payload
// stream and tapped for RTP packets.
type Pipeline struct {
	launch   string
	pipeline *gst.Pipeline
	taps     []*Tap
}

// NewPipeline parses the launch description and discovers its payload
// streams. The pipeline is configured but not started; call Start.
//
// Fail-fast validation: the description must parse and contain at least one
// pay%d element, otherwise there is nothing to serve.
func NewPipeline(launch string) (*Pipeline, error) {
	gst.Init(nil)

	pipeline, err := gst.NewPipelineFromString(launch)
	if err != nil {
		return nil, fmt.Errorf("gst: failed to parse launch description: %w", err)
	}

	elements, err := pipeline.GetElements()
	if err != nil {
		return nil, fmt.Errorf("gst: failed to list pipeline elements: %w", err)
	}

	var taps []*Tap
	for _, elem := range elements {
		index, ok := payloaderIndex(elem.GetName())
		if !ok {
			continue
		}
		taps = append(taps, &Tap{Index: index, element: elem})
	}
	if len(taps) == 0 {
		return nil, fmt.Errorf("gst: launch description contains no payload element (pay%%d)")
	}
	sort.Slice(taps, func(i, j int) bool { return taps[i].Index < taps[j].Index })

	slog.Info("gst: pipeline created",
		"launch", launch,
		"payload_streams", len(taps),
	)

	return &Pipeline{
		launch:   launch,
		pipeline: pipeline,
		taps:     taps,
	}, nil
}

// Taps returns the payload streams in index order. Formats are valid only
// after Start has returned.
func (p *Pipeline) Taps() []*Tap { return p.taps }

// Launch returns the launch description the pipeline was built from.
func (p *Pipeline) Launch() string { return p.launch }

// Start attaches an appsink to every payload stream, moves the pipeline to
// PLAYING and waits for caps negotiation so each tap's Format is known.
// Every RTP packet leaving a payloader is handed to onPacket.
func (p *Pipeline) Start(ctx context.Context, onPacket PacketFunc) error {
	for _, tap := range p.taps {
		if err := p.attachSink(tap, onPacket); err != nil {
			return err
		}
	}

	if err := p.pipeline.SetState(gst.StatePlaying); err != nil {
		return fmt.Errorf("gst: failed to start pipeline: %w", err)
	}

	if err := p.awaitFormats(ctx); err != nil {
		p.Stop()
		return err
	}

	slog.Info("gst: pipeline playing", "payload_streams", len(p.taps))
	return nil
}

// attachSink adds an appsink behind the tap's payloader and wires the
// sample callback. The sink never blocks the pipeline: old samples are
// dropped when no one consumes fast enough.
func (p *Pipeline) attachSink(tap *Tap, onPacket PacketFunc) error {
	sink, err := app.NewAppSink()
	if err != nil {
		return fmt.Errorf("gst: failed to create appsink for pay%d: %w", tap.Index, err)
	}
	sink.SetProperty("sync", false)
	sink.SetProperty("max-buffers", 64)
	sink.SetProperty("drop", true)

	if err := p.pipeline.Add(sink.Element); err != nil {
		return fmt.Errorf("gst: failed to add appsink for pay%d: %w", tap.Index, err)
	}
	if err := gst.ElementLinkMany(tap.element, sink.Element); err != nil {
		return fmt.Errorf("gst: failed to link pay%d to appsink: %w", tap.Index, err)
	}

	index := tap.Index
	sink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: func(s *app.Sink) gst.FlowReturn {
			return pullPacket(s, index, onPacket)
		},
	})

	tap.sink = sink
	return nil
}

// pullPacket drains one sample from the appsink and forwards its bytes as
// an RTP packet. A single bad sample is skipped rather than killing the
// whole stream.
func pullPacket(sink *app.Sink, streamIndex int, onPacket PacketFunc) gst.FlowReturn {
	sample := sink.PullSample()
	if sample == nil {
		slog.Warn("gst: failed to pull sample from appsink, skipping packet",
			"stream", streamIndex)
		return gst.FlowOK
	}

	buffer := sample.GetBuffer()
	if buffer == nil {
		slog.Warn("gst: sample without buffer, skipping packet", "stream", streamIndex)
		return gst.FlowOK
	}

	mapInfo := buffer.Map(gst.MapRead)
	data := mapInfo.Bytes()
	if len(data) == 0 {
		buffer.Unmap()
		slog.Warn("gst: empty buffer received", "stream", streamIndex)
		return gst.FlowOK
	}

	// Copy before unmap; GStreamer reuses the buffer.
	packet := make([]byte, len(data))
	copy(packet, data)
	buffer.Unmap()

	onPacket(streamIndex, packet)
	return gst.FlowOK
}

// awaitFormats polls each payloader's src pad until its caps are
// negotiated, then parses them into the tap's RTPFormat.
func (p *Pipeline) awaitFormats(ctx context.Context) error {
	deadline := time.Now().Add(defaultCapsWaitTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	for _, tap := range p.taps {
		pad := tap.element.GetStaticPad("src")
		if pad == nil {
			return fmt.Errorf("gst: pay%d has no src pad", tap.Index)
		}

		for {
			caps := pad.GetCurrentCaps()
			if caps != nil {
				structure := caps.GetStructureAt(0)
				if structure == nil {
					return fmt.Errorf("gst: pay%d caps have no structure", tap.Index)
				}
				format, err := ParseRTPCaps(structure.String())
				if err != nil {
					return fmt.Errorf("gst: pay%d: %w", tap.Index, err)
				}
				tap.Format = format
				slog.Debug("gst: payload stream negotiated",
					"stream", tap.Index,
					"media", format.Media,
					"rtpmap", format.RTPMap(),
					"payload", format.Payload,
				)
				break
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(capsWaitInterval):
			}
			if time.Now().After(deadline) {
				return fmt.Errorf("gst: timed out waiting for pay%d caps", tap.Index)
			}
		}
	}
	return nil
}

// Bus returns the pipeline bus for monitoring. Valid after NewPipeline.
func (p *Pipeline) Bus() *gst.Bus { return p.pipeline.GetPipelineBus() }

// Name returns the pipeline element name, used to filter bus messages.
func (p *Pipeline) Name() string { return p.pipeline.GetName() }

// Stop sets the pipeline to NULL, releasing its resources. Safe to call
// more than once.
func (p *Pipeline) Stop() {
	if p.pipeline == nil {
		return
	}
	if err := p.pipeline.SetState(gst.StateNull); err != nil {
		slog.Error("gst: failed to stop pipeline", "error", err)
	}
}

// payloaderIndex reports whether an element name designates a payload
// stream (pay%d) and returns its index.
func payloaderIndex(name string) (int, bool) {
	rest, ok := strings.CutPrefix(name, "pay")
	if !ok || rest == "" {
		return 0, false
	}
	for i := 0; i < len(rest); i++ {
		if rest[i] < '0' || rest[i] > '9' {
			return 0, false
		}
	}
	index, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return index, true
}
