// Package discovery implements mDNS/DNS-SD discovery of channel servers.
//
// An IOC advertises one instance of the _catree._tcp service on its
// channel server port (5064 by default). The instance name is chosen by the
// operator; TXT records describe how the server names its channels:
//
//	ver   protocol version (major.minor), required
//	rp    record prefix, required (may be empty)
//	hp    hash prefix, optional
//	ml    maximum channel name length, optional
//	rc    number of records served, optional
//	root  name of the tree root, optional
//
// A browser reading these records can derive channel names for any path of
// the tree without contacting the server.
//
// Browse results are aggregated by instance name. Addresses seen on several
// interfaces are merged into one entry and removed again when an interface
// withdraws them.
package discovery
