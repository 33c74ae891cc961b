package classify

import (
	"encoding/json"
	"strings"
)

// DecodeRecord extracts the message of a structured JSON log line. It
// understands logrus ("msg"), generic ("message") and loguru serialized
// ("record.message") layouts.
func DecodeRecord(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") {
		return "", false
	}

	var doc struct {
		Msg     *string `json:"msg"`
		Message *string `json:"message"`
		Record  *struct {
			Message *string `json:"message"`
		} `json:"record"`
	}
	if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
		return "", false
	}

	switch {
	case doc.Msg != nil:
		return *doc.Msg, true
	case doc.Message != nil:
		return *doc.Message, true
	case doc.Record != nil && doc.Record.Message != nil:
		return *doc.Record.Message, true
	}
	return "", false
}
