// Package connection provides connection lifecycle management for channel
// clients.
//
// This package handles:
//   - Exponential backoff for reconnection attempts
//   - Jitter to prevent thundering herd
//   - Connection state tracking
//   - Automatic reconnection on connection loss
//
// # Reconnection Strategy
//
// Manager.Start makes a first attempt at once. After a failure, or when a
// connection is lost, attempts follow an exponential backoff:
//
//  1. Initial delay: 1 second
//  2. Exponential increase: 2s, 4s, 8s, 16s
//  3. Maximum delay: 30 seconds
//  4. Continue at the maximum until successful
//  5. Reset to the initial delay on success
//
// # Jitter
//
// To prevent thundering herd when many clients lose the same IOC:
//
//	actual_delay = base_delay + random(0, base_delay * 0.25)
//
// A reconnection is successful when the ConnectFunc returns nil; for the
// network client that means TCP is up and the Hello exchange succeeded.
package connection
