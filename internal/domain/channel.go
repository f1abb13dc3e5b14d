package domain

// Channel is the interaction channel of an incoming pair.
type Channel string

const (
	ChannelHadronHadron Channel = "hadron-hadron"
	ChannelHadronLepton Channel = "hadron-lepton"
	ChannelLeptonLepton Channel = "lepton-lepton"
	ChannelHadronBoson  Channel = "hadron-boson"
	ChannelLeptonBoson  Channel = "lepton-boson"
	ChannelUnknown      Channel = "unknown"
)

// AllChannels lists every channel in a stable order.
var AllChannels = []Channel{
	ChannelHadronHadron,
	ChannelHadronLepton,
	ChannelLeptonLepton,
	ChannelHadronBoson,
	ChannelLeptonBoson,
	ChannelUnknown,
}

// String returns the string representation of Channel.
func (c Channel) String() string {
	return string(c)
}

// IsValid checks if the channel is a known value.
func (c Channel) IsValid() bool {
	for _, known := range AllChannels {
		if c == known {
			return true
		}
	}
	return false
}

// HasGenerator reports whether events can be generated for the channel.
func (c Channel) HasGenerator() bool {
	switch c {
	case ChannelHadronHadron, ChannelHadronLepton, ChannelLeptonLepton:
		return true
	default:
		return false
	}
}
