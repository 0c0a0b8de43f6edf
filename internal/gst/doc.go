// Package gst binds the operator-supplied launch description to a running
// GStreamer pipeline.
//
// The launch description is handed verbatim to GStreamer's parse-launch
// machinery; every element named pay%d is treated as one payload stream and
// tapped with an appsink so its RTP packets can be forwarded to connected
// clients. The pipeline is a black box otherwise: this package knows
// nothing about RTSP.
//
// Requires the gstreamer1.0 runtime; see the repository README for the
// plugin packages a typical launch line needs.
package gst
