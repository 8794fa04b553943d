// Package adapt binds tree nodes to process-variable channels.
//
// An Adapter wraps tree paths so that every leaf it produces is backed by
// channels of a ca.Client:
//
//	a := adapt.New(adapt.Config{Client: client, Namer: chname.DefaultNamer()})
//	p, _ := a.LoadYAMLFile("top.yaml", "root", "", nil)
//	v, _ := p.FindByName("mmio/AxiVersion/UpTimeCnt")
//	uptime, _ := v.CreateVar()
//	uptime.SetWidget(myWidget)
//
// # Channel roles
//
// Each leaf owns channels named by hashing its path with a role suffix:
// variables read and monitor through "Rd" and write through "St" (writable
// variables only); commands trigger through "Ex". Channels are opened with a
// zero connection timeout, so creating adapters never blocks on the network.
//
// # Value delivery
//
// A Var registered with SetWidget receives monitor updates on the client's
// dispatcher goroutine and forwards each decoded value to
// Widget.AsyncUpdateWidget. SetWidget also reads the current value once, so
// a widget may see the initial value twice; updates must be idempotent.
// Adapters take no locks: wrap widgets whose update entry point is not
// goroutine-safe with Serialize.
//
// # Unsupported operations
//
// Streams, pull-based asynchronous reads and per-node YAML configuration are
// not available over channel access. They fail with an *UnsupportedError
// that matches ErrNotImplemented.
package adapt
