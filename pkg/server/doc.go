// Package server serves a soft IOC database to network clients.
//
// Each accepted TCP connection becomes a session with its own
// interaction.Server: requests are answered on the connection's read
// goroutine and monitor updates are pushed from a per-session goroutine.
// Closing the connection cancels the session's monitors.
//
//	db, _ := softioc.NewDatabase(root, softioc.Config{Namer: namer})
//	srv := server.New(db, server.Config{Address: ":5064", Name: "ioc"})
//	if err := srv.Start(ctx); err != nil {
//	    return err
//	}
//	defer srv.Stop()
package server
