package gst

import (
	"context"
	"log/slog"
	"time"

	"github.com/tinyzimmer/go-gst/gst"
)

// busPollInterval keeps the bus monitor responsive to shutdown without
// busy-waiting.
const busPollInterval = 50 * time.Millisecond

// MonitorBus watches the pipeline bus for messages until the context is
// cancelled or the pipeline fails.
//
// Returns nil on cancellation (external shutdown) and an error on
// MessageError or end-of-stream; a live launch pipeline reaching EOS means
// the source dried up and the mount can no longer serve.
func (p *Pipeline) MonitorBus(ctx context.Context) error {
	bus := p.Bus()

	for {
		select {
		case <-ctx.Done():
			slog.Debug("gst: context cancelled, stopping bus monitor")
			return nil

		default:
			msg := bus.TimedPop(busPollInterval)
			if msg == nil {
				continue
			}

			switch msg.Type() {
			case gst.MessageEOS:
				slog.Info("gst: end of stream received", "launch", p.launch)
				return &PipelineError{Category: ErrCategoryResource, Message: "end of stream"}

			case gst.MessageError:
				gerr := msg.ParseError()
				category := ClassifyPipelineError(gerr)
				slog.Error("gst: pipeline error",
					"error", gerr.Error(),
					"debug", gerr.DebugString(),
					"category", category.String(),
					"launch", p.launch,
				)
				return &PipelineError{Category: category, Message: gerr.Error()}

			case gst.MessageStateChanged:
				if msg.Source() == p.Name() {
					old, next := msg.ParseStateChanged()
					slog.Debug("gst: pipeline state changed", "from", old, "to", next)
				}
			}
		}
	}
}
