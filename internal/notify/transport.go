// Package notify abstracts outbound delivery across the router's channels
// (signal, obsidian, digest, web), generalizing
// internal/email.Sender interface (Send + LogSender/real-sender split by
// environment) from a single email concern to the router's channel set.
package notify

import "context"

// Delivery is one outbound message the router has decided to send.
type Delivery struct {
	Owner   string
	Channel string // signal | obsidian | digest | web
	Subject string
	Body    string
}

// Transport sends a Delivery over one concrete channel. Implementations
// must only send while the router-active flag is set on ctx (see
// ActiveFromContext). The router is the single place permitted to gate
// outbound sends (spec §4.5/§9).
type Transport interface {
	Send(ctx context.Context, d Delivery) error
}
