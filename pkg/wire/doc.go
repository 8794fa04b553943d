// Package wire defines the CBOR wire format of the catree channel protocol.
//
// Messages use CBOR (RFC 8949) with integer keys and are carried in
// length-prefixed frames (see package transport).
//
// # Message Types
//
//   - Request: client to server (Hello, Search, Get, Put, Monitor, Cancel)
//   - Response: server to client, matching a request by message ID
//   - Update: server to client, a monitored value change (messageId 0)
//   - Control: either direction (ping/pong/close)
//
// Each type carries a discriminating key, so PeekMessageType can classify a
// frame without decoding it fully.
//
// # Monitors
//
// A Monitor request's message ID doubles as the monitor ID: every Update for
// that monitor carries it, and a Cancel request names it as its target. The
// server sends the current value as the first Update, so a client never
// needs a separate Get to prime a monitor.
//
// # Values
//
// Values travel as plain CBOR numbers, strings and arrays. After decoding,
// NativeValue restores the Go type the channel type implies (int64, float64,
// string or slices of them).
package wire
