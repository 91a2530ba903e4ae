// Package alert defines the contract for pushing error notifications to an
// external channel such as a chat bot or an incident tracker. The alerting
// invocation listener feeds repository failures through this interface;
// process-level wiring decides where they land.
package alert

import "context"

// Provider sends error alerts.
type Provider interface {
	// SendError delivers one error event. errCode identifies the error
	// class, msg is the human-readable message, operation names the failed
	// call site and details carries additional context pairs.
	SendError(ctx context.Context, errCode, msg, operation string, details map[string]string) error
}

// NoopProvider discards every alert. It stands in when no channel is
// configured.
type NoopProvider struct{}

func (NoopProvider) SendError(context.Context, string, string, string, map[string]string) error {
	return nil
}
