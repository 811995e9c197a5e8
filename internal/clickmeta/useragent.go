// ===========================================
// Package clickmeta - Click Enrichment
// ===========================================
// Derives the classification fields of a click event from raw
// request metadata: OS/device from the User-Agent header and
// country/city from the client IP. Both derivations sit behind
// small interfaces so the service layer can be tested with stubs.
// ===========================================

package clickmeta

import "github.com/mssola/useragent"

// DeviceDesktop is the fallback device class when the
// user-agent carries no recognizable device signal.
const DeviceDesktop = "desktop"

// Agent is the classification derived from a User-Agent string.
type Agent struct {
	OS     string
	Device string
}

// AgentParser classifies a raw User-Agent string.
type AgentParser interface {
	Parse(rawUA string) Agent
}

// UAParser classifies user agents with mssola/useragent.
type UAParser struct{}

// NewUAParser returns the production user-agent parser.
func NewUAParser() *UAParser {
	return &UAParser{}
}

// Parse derives OS and device class from rawUA. Unparsable or
// empty strings classify as unknown OS on a desktop device.
func (p *UAParser) Parse(rawUA string) Agent {
	if rawUA == "" {
		return Agent{OS: "unknown", Device: DeviceDesktop}
	}

	ua := useragent.New(rawUA)

	os := ua.OSInfo().Name
	if os == "" {
		os = "unknown"
	}

	device := DeviceDesktop
	if ua.Mobile() {
		device = "mobile"
	} else if ua.Bot() {
		device = "bot"
	}

	return Agent{OS: os, Device: device}
}
