// Package platform defines the contract shared by the chat front ends. Each
// platform adapter translates its channel's updates into progress-service
// calls and renders the results back in channel-native formatting.
package platform

import "context"

// Platform is one chat channel adapter (Telegram, Slack). Start blocks until
// the context is cancelled or the channel fails.
type Platform interface {
	Name() string
	Start(ctx context.Context) error
	Stop()
}
