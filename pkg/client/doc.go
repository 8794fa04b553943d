// Package client implements ca.Client over the network protocol served by
// package server.
//
// A Client keeps one session with one IOC. It connects in the background
// (connection.Manager), exchanges Hello, then searches every channel that
// was requested and starts its monitor. When the session drops, all channels
// disconnect, the manager reconnects with exponential backoff, and the
// channels are searched and monitored again on the new session.
//
//	c := client.New(client.Config{Address: "ioc:5064"})
//	defer c.Close()
//	pv := c.GetPV(name, ca.FormNative, time.Second)
//
// Unlike the PV default, Put waits for the server's answer: a rejected write
// returns an error wrapping both ca.ErrPutFailed and the *wire.StatusError.
package client
