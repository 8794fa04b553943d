package client

import (
	"fmt"
	"time"

	"github.com/cpswtree/catree/pkg/interaction"
	"github.com/cpswtree/catree/pkg/log"
	"github.com/cpswtree/catree/pkg/transport"
	"github.com/cpswtree/catree/pkg/wire"
)

// session is one connection to the IOC. A reconnect creates a new session.
type session struct {
	client *Client
	conn   *transport.Connection
	ic     *interaction.Client
}

func newSession(c *Client) *session {
	s := &session{client: c}
	s.conn = transport.NewConnection(c.config.Transport, s)
	s.ic = interaction.NewClient(s.conn)
	s.ic.SetTimeout(c.config.RequestTimeout)
	s.ic.OnRequest(func(req *wire.Request) {
		s.logMessage(log.DirectionOut, req.Name, log.RequestEvent(req))
	})
	return s
}

func (s *session) close() {
	s.ic.Close()
	_ = s.conn.Close()
}

// OnMessage implements transport.ConnectionHandler. It runs on the
// connection's read goroutine.
func (s *session) OnMessage(data []byte) {
	mt, err := wire.PeekMessageType(data)
	if err != nil {
		s.logError("peek message", err)
		return
	}

	switch mt {
	case wire.MessageTypeResponse:
		resp, err := wire.DecodeResponse(data)
		if err != nil {
			s.logError("decode response", err)
			return
		}
		s.logMessage(log.DirectionIn, "", log.ResponseEvent(resp, 0))
		if err := s.ic.HandleResponse(resp); err != nil {
			s.client.debug("unmatched response", "id", resp.MessageID, "status", resp.Status)
		}

	case wire.MessageTypeUpdate:
		u, err := wire.DecodeUpdate(data)
		if err != nil {
			s.logError("decode update", err)
			return
		}
		s.logMessage(log.DirectionIn, "", log.UpdateEvent(u))
		s.ic.HandleUpdate(u)

	default:
		s.logError("dispatch", fmt.Errorf("unexpected %s message", mt))
	}
}

// OnStateChange implements transport.ConnectionHandler.
func (s *session) OnStateChange(oldState, newState transport.ConnectionState) {
	if newState != transport.StateDisconnected {
		return
	}
	if oldState == transport.StateConnected || oldState == transport.StateClosing {
		s.client.lost(s)
	}
}

// OnError implements transport.ConnectionHandler.
func (s *session) OnError(err error) {
	s.client.debug("connection error", "conn", s.conn.ID(), "error", err)
}

func (s *session) logMessage(dir log.Direction, channel string, msg *log.MessageEvent) {
	s.log(log.Event{
		Direction: dir,
		Layer:     log.LayerWire,
		Category:  log.CategoryMessage,
		Channel:   channel,
		Message:   msg,
	})
}

func (s *session) logChannel(name, path, state string) {
	s.log(log.Event{
		Layer:    log.LayerChannel,
		Category: log.CategoryState,
		Channel:  name,
		Path:     path,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityChannel,
			NewState: state,
		},
	})
}

func (s *session) logError(op string, err error) {
	s.client.debug("protocol error", "conn", s.conn.ID(), "op", op, "error", err)
	s.log(log.Event{
		Layer:    log.LayerWire,
		Category: log.CategoryError,
		Error: &log.ErrorEventData{
			Layer:   log.LayerWire,
			Message: err.Error(),
			Context: op,
		},
	})
}

func (s *session) log(ev log.Event) {
	logger := s.client.config.ProtocolLogger
	if logger == nil {
		return
	}
	ev.Timestamp = time.Now()
	ev.ConnectionID = s.conn.ID()
	ev.LocalRole = log.RoleClient
	if addr := s.conn.RemoteAddr(); addr != nil {
		ev.RemoteAddr = addr.String()
	}
	logger.Log(ev)
}
