package server

import (
	"encoding/json"

	contractx "github.com/clearline-ai/kycflow/agent/contract"
)

type taggedEvent struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// marshalEvents tags every event variant for API consumers. The switch
// is exhaustive over the closed event set.
func marshalEvents(events []contractx.Event) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(events))
	for _, e := range events {
		var tagged taggedEvent
		switch ev := e.(type) {
		case contractx.CustomerDataUpdate:
			tagged = taggedEvent{Type: "customer_data_update", Data: ev}
		case contractx.DataRequest:
			tagged = taggedEvent{Type: "data_request", Data: ev}
		case contractx.Complete:
			tagged = taggedEvent{Type: "complete", Data: ev}
		case contractx.Failed:
			tagged = taggedEvent{Type: "failed", Data: ev}
		default:
			continue
		}
		raw, err := json.Marshal(tagged)
		if err != nil {
			continue
		}
		out = append(out, raw)
	}
	return out
}
