package httpserver

import "encoding/json"

// splitBatch re-decodes a JSON array into its raw per-element byte
// slices, so each batch item can be handed to the dispatcher
// untouched rather than re-marshaled after a lossy interface{} decode.
func splitBatch(body []byte) ([]json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// batchFrame joins already-serialized single-response frames into one
// JSON array frame, without re-parsing them.
func batchFrame(frames []string) []byte {
	out := make([]byte, 0, len(frames)+2)
	out = append(out, '[')
	for i, frame := range frames {
		if i > 0 {
			out = append(out, ',')
		}
		out = append(out, frame...)
	}
	out = append(out, ']')
	return out
}
