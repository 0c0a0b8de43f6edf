// Package rtsp hosts the server runtime: the protocol listener, the
// single-entry mount table, the lazily constructed shared media stream,
// and the session pool with its periodic reaper.
//
// The runtime walks a linear lifecycle (unconfigured, configuring,
// mounted, attached, running); each startup step is a state transition
// and out-of-order calls fail instead of serving from a half-built
// server. Media is constructed on the first DESCRIBE or SETUP and shared
// by every client session afterwards.
package rtsp
