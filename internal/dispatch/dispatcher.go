package dispatch

import (
	"encoding/json"

	"github.com/cosci-dev/cosci/internal/domain"
	"go.uber.org/zap"
)

// Sink consumes the two recognized message shapes. The controller
// implements it.
type Sink interface {
	ApplyAgentUpdate(agent domain.Agent, status domain.AgentStatus, data json.RawMessage)
	ApplySessionUpdate(event domain.EventType, data json.RawMessage)
}

// Dispatcher decodes inbound channel frames and routes them by their type
// discriminant. Malformed or unrecognized input is logged and dropped;
// nothing raises past this boundary.
type Dispatcher struct {
	sink   Sink
	logger *zap.Logger
}

func NewDispatcher(sink Sink, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{sink: sink, logger: logger}
}

// Dispatch handles one raw frame.
func (d *Dispatcher) Dispatch(payload []byte) {
	var msg domain.Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		d.logger.Warn("dropping undecodable channel message", zap.Error(err))
		return
	}

	switch msg.Type {
	case domain.MessageAgentUpdate:
		if !domain.ValidAgent(msg.Agent) || !domain.ValidAgentStatus(msg.Status) {
			d.logger.Warn("dropping agent_update with unknown agent or status",
				zap.String("agent", msg.Agent),
				zap.String("status", msg.Status))
			return
		}
		d.sink.ApplyAgentUpdate(domain.Agent(msg.Agent), domain.AgentStatus(msg.Status), msg.Data)

	case domain.MessageSessionUpdate:
		if !domain.ValidEventType(msg.EventType) {
			d.logger.Warn("dropping session_update with unknown event_type",
				zap.String("event_type", msg.EventType))
			return
		}
		d.sink.ApplySessionUpdate(domain.EventType(msg.EventType), msg.Data)

	default:
		d.logger.Warn("dropping channel message with unknown type",
			zap.String("type", msg.Type))
	}
}
