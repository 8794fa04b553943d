package discovery

import (
	"errors"
	"time"

	"github.com/cpswtree/catree/pkg/chname"
	"github.com/cpswtree/catree/pkg/transport"
)

// Service constants for mDNS.
const (
	// ServiceType is the DNS-SD service type of a channel server.
	ServiceType = "_catree._tcp"

	// Domain is the mDNS domain.
	Domain = "local"

	// DefaultPort is the default channel server port.
	DefaultPort = transport.DefaultPort
)

// TXT record key constants.
const (
	TXTKeyVersion      = "ver"  // Protocol version (required)
	TXTKeyRecordPrefix = "rp"   // Record prefix of channel names (required)
	TXTKeyHashPrefix   = "hp"   // Hash prefix (optional, empty if absent)
	TXTKeyMaxLen       = "ml"   // Maximum channel name length (optional)
	TXTKeyRecords      = "rc"   // Number of records served (optional)
	TXTKeyRoot         = "root" // Name of the tree root (optional)
)

// Timing constants.
const (
	// BrowseTimeout is the default timeout for mDNS browsing.
	BrowseTimeout = 10 * time.Second

	// DefaultTTL is the default DNS record TTL.
	DefaultTTL = 120 * time.Second
)

// Limits.
const (
	// MaxInstanceNameLen is the DNS label limit.
	MaxInstanceNameLen = 63

	// MaxTXTRecordSize is the maximum total TXT record size.
	MaxTXTRecordSize = 400
)

// Discovery errors.
var (
	ErrInvalidTXTRecord    = errors.New("invalid TXT record format")
	ErrMissingRequired     = errors.New("missing required field")
	ErrInstanceNameTooLong = errors.New("instance name exceeds 63 characters")
	ErrTXTTooLarge         = errors.New("TXT records exceed 400 bytes")
	ErrNotFound            = errors.New("service not found")
	ErrBrowserStopped      = errors.New("browser stopped")
)

// IOCInfo describes an IOC to advertise.
type IOCInfo struct {
	// Name is the DNS-SD instance name.
	Name string

	// Port the channel server listens on (default DefaultPort).
	Port uint16

	// Version is the protocol version the server speaks.
	Version string

	// Namer holds the naming parameters of the served channels.
	Namer chname.Namer

	// Records is the number of records served (optional).
	Records int

	// Root is the name of the tree root (optional).
	Root string
}

// IOCService is an IOC found by browsing.
type IOCService struct {
	InstanceName string
	Host         string
	Port         uint16
	Addresses    []string

	Version string
	Namer   chname.Namer
	Records int
	Root    string
}

// Address returns a dialable host:port for the service, preferring the first
// resolved address over the host name.
func (s *IOCService) Address() string {
	host := s.Host
	if len(s.Addresses) > 0 {
		host = s.Addresses[0]
	}
	return joinHostPort(host, s.Port)
}
