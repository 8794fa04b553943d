// Package log captures protocol traffic of catree servers and clients.
//
// Servers, clients and transports report every frame, decoded message,
// channel state change and error as an Event to a Logger. Captures are
// independent of the runtime slog output and are meant for later analysis
// with catree-log.
//
//	capture, _ := log.NewFileLogger("ioc.clog")
//	cfg.ProtocolLogger = log.Tee(capture, log.NewSlogAdapter(slog.Default()))
//
// A capture file is a stream of CBOR events with integer keys. Reader walks a
// capture, optionally through a Filter; Select and WithoutFrames filter
// events before they are written.
package log
