package provider

import (
	"github.com/pion/webrtc/v4"

	"github.com/counselpoint/gateway/internal/core"
)

// DefaultSTUNURL is used when the operator configures nothing.
const DefaultSTUNURL = "stun:stun.l.google.com:19302"

// Configuration builds the ICE configuration peer-to-peer clients use to
// complete NAT traversal without the gateway brokering media. TURN is
// included only when fully configured.
func Configuration(stunURLs []string, turnURL, turnUsername, turnCredential string) webrtc.Configuration {
	if len(stunURLs) == 0 {
		stunURLs = []string{DefaultSTUNURL}
	}
	servers := []webrtc.ICEServer{
		{URLs: stunURLs},
	}
	if turnURL != "" && turnUsername != "" {
		servers = append(servers, webrtc.ICEServer{
			URLs:       []string{turnURL},
			Username:   turnUsername,
			Credential: turnCredential,
		})
	}
	return webrtc.Configuration{ICEServers: servers}
}

// WireServers converts the pion configuration into the wire shape sent
// to browsers as rtcConfig.iceServers.
func WireServers(cfg webrtc.Configuration) []core.ICEServer {
	out := make([]core.ICEServer, 0, len(cfg.ICEServers))
	for _, s := range cfg.ICEServers {
		ws := core.ICEServer{URLs: s.URLs, Username: s.Username}
		if cred, ok := s.Credential.(string); ok {
			ws.Credential = cred
		}
		out = append(out, ws)
	}
	return out
}
