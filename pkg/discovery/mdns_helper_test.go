package discovery_test

import (
	"net"
	"sync/atomic"
	"testing"

	"github.com/enbility/zeroconf/v3/mocks"
	"github.com/stretchr/testify/mock"

	"github.com/cpswtree/catree/pkg/discovery"
)

// socketCalls counts how often the browser reached for the mocked sockets.
type socketCalls struct {
	interfaces atomic.Int32
	conns      atomic.Int32
}

// testBrowserConfig returns a BrowserConfig backed by mocked multicast
// sockets on a single loopback interface.
func testBrowserConfig(t *testing.T) discovery.BrowserConfig {
	cfg, _ := countingBrowserConfig(t)
	return cfg
}

func countingBrowserConfig(t *testing.T) (discovery.BrowserConfig, *socketCalls) {
	calls := &socketCalls{}

	provider := mocks.NewMockInterfaceProvider(t)
	provider.EXPECT().MulticastInterfaces().Return([]net.Interface{
		{Index: 1, Name: "lo", Flags: net.FlagUp | net.FlagLoopback | net.FlagMulticast},
	}).Maybe().Run(func(mock.Arguments) { calls.interfaces.Add(1) })

	v4, v6 := idleConn(t), idleConn(t)
	factory := mocks.NewMockConnectionFactory(t)
	factory.EXPECT().CreateIPv4Conn(mock.Anything).Return(v4, nil).Maybe().
		Run(func(mock.Arguments) { calls.conns.Add(1) })
	factory.EXPECT().CreateIPv6Conn(mock.Anything).Return(v6, nil).Maybe().
		Run(func(mock.Arguments) { calls.conns.Add(1) })

	cfg := discovery.DefaultBrowserConfig()
	cfg.ConnectionFactory = factory
	cfg.InterfaceProvider = provider
	return cfg, calls
}

// idleConn accepts every socket call and never receives a packet.
func idleConn(t *testing.T) *mocks.MockPacketConn {
	c := mocks.NewMockPacketConn(t)
	c.EXPECT().ReadFrom(mock.Anything).RunAndReturn(func([]byte) (int, int, net.Addr, error) {
		return 0, 0, nil, nil
	}).Maybe()
	c.EXPECT().WriteTo(mock.Anything, mock.Anything, mock.Anything).Return(0, nil).Maybe()
	for _, call := range []*mock.Call{
		c.EXPECT().JoinGroup(mock.Anything, mock.Anything).Call,
		c.EXPECT().LeaveGroup(mock.Anything, mock.Anything).Call,
		c.EXPECT().SetMulticastTTL(mock.Anything).Call,
		c.EXPECT().SetMulticastHopLimit(mock.Anything).Call,
		c.EXPECT().SetMulticastInterface(mock.Anything).Call,
		c.EXPECT().Close().Call,
	} {
		call.Return(nil).Maybe()
	}
	return c
}
