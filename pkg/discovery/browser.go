package discovery

import (
	"context"
	"time"

	"github.com/enbility/zeroconf/v3/api"
)

// Browser finds IOCs on the local network.
type Browser interface {
	// Browse streams IOCs as they are found until ctx is done.
	Browse(ctx context.Context) (<-chan *IOCService, error)

	// Find returns the IOC advertised under instance.
	Find(ctx context.Context, instance string) (*IOCService, error)

	// FindAll collects every IOC seen until ctx is done.
	FindAll(ctx context.Context) ([]*IOCService, error)

	// Stop stops all browsing.
	Stop()
}

// BrowserConfig configures browser behavior.
type BrowserConfig struct {
	// BrowseTimeout is the default timeout for browse operations.
	// Default: 10 seconds.
	BrowseTimeout time.Duration

	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string

	// ConnectionFactory creates multicast connections.
	// If nil, uses the default zeroconf connection factory.
	// Set this in tests to inject mock connections.
	ConnectionFactory api.ConnectionFactory

	// InterfaceProvider lists network interfaces.
	// If nil, uses the default zeroconf interface provider.
	// Set this in tests to inject mock interface lists.
	InterfaceProvider api.InterfaceProvider
}

// DefaultBrowserConfig returns the default browser configuration.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		BrowseTimeout: BrowseTimeout,
		Interface:     "",
	}
}

// FilterFunc is a function that filters browse results.
type FilterFunc func(*IOCService) bool

// FilterByRecordPrefix returns a filter that matches IOCs serving channels
// under the given record prefix.
func FilterByRecordPrefix(prefix string) FilterFunc {
	return func(svc *IOCService) bool {
		return svc.Namer.RecordPrefix == prefix
	}
}

// FilterByRoot returns a filter that matches IOCs serving a tree with the
// given root name.
func FilterByRoot(root string) FilterFunc {
	return func(svc *IOCService) bool {
		return svc.Root == root
	}
}

// FilterBrowseResults filters a channel of IOC services.
func FilterBrowseResults(in <-chan *IOCService, filter FilterFunc) <-chan *IOCService {
	out := make(chan *IOCService)
	go func() {
		defer close(out)
		for svc := range in {
			if filter(svc) {
				out <- svc
			}
		}
	}()
	return out
}

// ServiceEntry is a raw mDNS service entry.
// This is a helper for Browser implementations.
type ServiceEntry struct {
	Instance string
	Service  string
	Domain   string
	Host     string
	Port     uint16
	Text     []string
	Addrs    []string
}

// ToIOCService converts a ServiceEntry to IOCService.
func (e *ServiceEntry) ToIOCService() (*IOCService, error) {
	txt := StringsToTXTRecords(e.Text)
	info, err := DecodeIOCTXT(txt)
	if err != nil {
		return nil, err
	}

	return &IOCService{
		InstanceName: e.Instance,
		Host:         e.Host,
		Port:         e.Port,
		Addresses:    e.Addrs,
		Version:      info.Version,
		Namer:        info.Namer,
		Records:      info.Records,
		Root:         info.Root,
	}, nil
}
