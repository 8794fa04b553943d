// Package transport carries protocol messages between channel clients and
// servers.
//
// The transport layer handles:
//   - TCP listening (Server) and dialing (Connection)
//   - Length-prefixed message framing
//   - Keep-alive ping/pong for connection liveness
//   - Connection state management and protocol logging
//
// # Protocol Stack
//
//	┌────────────────────────────────┐
//	│      CBOR Messages             │
//	├────────────────────────────────┤
//	│   Length-Prefix Framing (4B)   │
//	├────────────────────────────────┤
//	│           TCP                  │
//	└────────────────────────────────┘
//
// Every frame is a 4-byte big-endian payload length followed by one CBOR
// message. Control messages (ping, pong, close) are answered inside this
// package and never reach the message handlers.
//
// # Keep-Alive
//
// Clients ping the server; servers only answer:
//   - Ping interval: 15 seconds
//   - Pong timeout: 5 seconds
//   - Max missed pongs: 3
package transport
