// Package ca defines the process-variable client API that tree adapters bind
// to, plus the pieces shared by every client implementation.
//
// # Model
//
// A Client hands out PVs by name. GetPV never blocks longer than the given
// connection timeout; with a zero timeout it returns at once and the PV
// connects in the background. Connection state is observed later through
// Connected, WaitConnected, Get and callbacks.
//
// # Callbacks
//
// Value changes are delivered to registered Callbacks as an Event, the
// keyword bundle of one monitor update. Every client delivers callbacks from
// a single Dispatcher goroutine, in order, out of band with respect to the
// caller. Callback targets must be safe to call from that goroutine.
//
// # Forms
//
// FormNative delivers raw values. FormCtrl additionally carries control
// metadata such as the enum strings, which CharValue is rendered from.
package ca
