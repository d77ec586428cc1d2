package domain

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ExternalID is a gateway identifier that may arrive as a JSON string or a
// JSON number.
type ExternalID string

func (e *ExternalID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*e = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*e = ExternalID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*e = ExternalID(n.String())
	return nil
}

func (e ExternalID) String() string {
	return string(e)
}
