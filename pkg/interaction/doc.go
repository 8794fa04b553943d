// Package interaction implements the request/response layer between channel
// clients and an IOC.
//
// The protocol defines six operations:
//
//   - Hello: exchange protocol versions
//   - Search: resolve a channel name to its type, count and enum strings
//   - Get: read the current value
//   - Put: write a value, optionally to an element range
//   - Monitor: subscribe to value changes
//   - Cancel: end a monitor
//
// # Server Usage
//
// A Server answers the requests of one client session from a soft IOC
// database:
//
//	srv := interaction.NewServer(db, interaction.ServerConfig{Name: "ioc"},
//	    func(u *wire.Update) {
//	        // Send update to client
//	    })
//	defer srv.Close()
//
//	resp := srv.HandleRequest(ctx, req)
//
// # Client Usage
//
// The Client sends requests over any RequestSender and waits for the
// matching responses. The connection owner feeds incoming messages back:
//
//	client := interaction.NewClient(conn)
//	// in the read loop:
//	client.HandleResponse(resp)
//	client.HandleUpdate(update)
//
//	info, err := client.Search(ctx, name)
//	id, err := client.Monitor(ctx, name, ca.FormCtrl, onUpdate)
//
// # Monitors
//
// A monitor is identified by the message ID of its Monitor request. The
// server sends the current value as the first update, then every change.
// Monitors are session-scoped: when a connection closes, its monitors are
// cancelled. Updates for one monitor that queue up behind a slow client are
// coalesced to the latest value.
package interaction
