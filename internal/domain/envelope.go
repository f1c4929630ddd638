package domain

import "time"

// ProvenanceInput is one entry in a notification descriptor's provenance
// trail (spec §6).
type ProvenanceInput struct {
	InputType   string
	Reference   string
	Description string
}

// NotificationDescriptor carries the provenance trail that justifies a
// notification; missing or empty Provenance collapses routing to LOG_ONLY
// (spec §4.5 step 1).
type NotificationDescriptor struct {
	Version         string
	SourceComponent string
	OriginSignal    string
	Confidence      float64
	Provenance      []ProvenanceInput
}

// SignalPayload is the optional Signal-shaped content of an envelope.
type SignalPayload struct {
	From    string
	To      string
	Message string
}

// RoutingEnvelope is the input to the attention router's pipeline
// (spec §6, "Routing envelope").
type RoutingEnvelope struct {
	Version         string
	SignalType      string
	SignalReference string
	Actor           Actor
	Owner           string
	ChannelHint     *string // signal | obsidian | digest | web | nil
	Urgency         float64 // [0,1]
	ChannelCost     float64 // [0,1]
	ContentType     string
	Timestamp       time.Time
	SignalPayload   *SignalPayload
	Notification    *NotificationDescriptor
}
