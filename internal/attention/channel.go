package attention

import "strings"

// allowedChannels enumerates the channels the router may deliver to,
// grounded on original_source's channel_selection.py ALLOWED_CHANNELS.
var allowedChannels = map[string]bool{
	"signal": true, "obsidian": true, "digest": true, "web": true,
}

// ChannelSelectionInput mirrors original_source's ChannelSelectionInputs.
type ChannelSelectionInput struct {
	Decision         string // e.g. "NOTIFY", "NOTIFY:signal", "ESCALATE"
	SignalType       string
	UrgencyScore     float64
	ChannelCost      float64
	ContentType      string
	RecordToObsidian bool
}

// ChannelSelectionResult mirrors ChannelSelectionResult.
type ChannelSelectionResult struct {
	FinalDecision    string
	PrimaryChannel   string
	SecondaryChannel string
}

// SelectChannel implements select_channel: it honors an explicit
// decision:channel hint, falling back to LOG_ONLY for unknown channels and
// to content/urgency/cost-based defaults otherwise (spec §4.5, testable
// property: channel fallback order).
func SelectChannel(in ChannelSelectionInput) ChannelSelectionResult {
	decisionType, requestedChannel := parseDecision(in.Decision)
	if decisionType != "NOTIFY" && decisionType != "ESCALATE" {
		return ChannelSelectionResult{FinalDecision: in.Decision}
	}

	if requestedChannel != "" && !allowedChannels[requestedChannel] {
		return ChannelSelectionResult{FinalDecision: "LOG_ONLY"}
	}

	primary := requestedChannel
	if primary == "" {
		primary = selectPrimary(in)
	}
	if !allowedChannels[primary] {
		return ChannelSelectionResult{FinalDecision: "LOG_ONLY"}
	}

	secondary := ""
	if in.RecordToObsidian {
		secondary = "obsidian"
	}
	return ChannelSelectionResult{
		FinalDecision:    decisionType + ":" + primary,
		PrimaryChannel:   primary,
		SecondaryChannel: secondary,
	}
}

func parseDecision(decision string) (string, string) {
	prefix, channel, found := strings.Cut(decision, ":")
	if !found {
		return decision, ""
	}
	return prefix, channel
}

func selectPrimary(in ChannelSelectionInput) string {
	if in.ContentType == "analysis" {
		return "obsidian"
	}
	if strings.HasSuffix(in.SignalType, "failed") || in.UrgencyScore >= HighUrgencyThreshold {
		return "signal"
	}
	if in.ChannelCost >= HighChannelCost {
		return "digest"
	}
	return "web"
}
