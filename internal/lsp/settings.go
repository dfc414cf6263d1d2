package lsp

import (
	"encoding/json"
	"time"
)

func (s *Server) handleDidChangeConfiguration(msg *rpcMessage) error {
	if len(msg.Params) == 0 {
		return nil
	}
	var params didChangeConfigurationParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil
	}
	s.applySettings(params.Settings)
	return nil
}

// applySettings accepts {"ergoscript": {...}}. Unknown or malformed
// settings are ignored; absent keys keep their current value.
func (s *Server) applySettings(raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	var settings lspSettings
	if err := json.Unmarshal(raw, &settings); err != nil {
		s.logf("ignoring malformed settings: %v", err)
		return
	}
	es := settings.ErgoScript
	if es.Strict != nil {
		s.session.Coordinator().SetStrict(*es.Strict)
	}
	if es.DeadlineMS != nil && *es.DeadlineMS > 0 {
		s.session.SetDeadline(time.Duration(*es.DeadlineMS) * time.Millisecond)
	}
	if es.Trace != nil {
		s.mu.Lock()
		s.traceLSP = *es.Trace
		s.mu.Unlock()
	}
}
