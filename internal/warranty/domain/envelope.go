package domain

import "encoding/json"

// Envelope is the only response shape the relay ever writes.
type Envelope struct {
	OK       bool   `json:"ok"`
	Upstream any    `json:"upstream,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Success wraps a parsed (or raw-wrapped) upstream body.
func Success(upstream any) Envelope {
	return Envelope{OK: true, Upstream: upstream}
}

// Failure builds an error envelope. An empty message becomes "unknown" so that
// ok=false always carries a description.
func Failure(message string) Envelope {
	if message == "" {
		message = "unknown"
	}
	return Envelope{OK: false, Error: message}
}

// MarshalJSON keeps "upstream" on success even when upstream replied null.
func (e Envelope) MarshalJSON() ([]byte, error) {
	if e.OK {
		return json.Marshal(struct {
			OK       bool `json:"ok"`
			Upstream any  `json:"upstream"`
		}{OK: true, Upstream: e.Upstream})
	}
	return json.Marshal(struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}{OK: false, Error: Failure(e.Error).Error})
}
