package audit

import "encoding/json"

func mustMarshal(event Event) []byte {
	payload, err := json.Marshal(event)
	if err != nil {
		// Event contains only marshalable fields; this cannot happen.
		panic(err)
	}
	return payload
}
