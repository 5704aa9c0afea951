package decklog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// flexUint decodes a number that the API sends either as a JSON number or
// as a numeric string. null and "" decode as absent.
type flexUint struct {
	Value uint32
	Valid bool
}

func (f *flexUint) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = flexUint{}
		return nil
	}
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			*f = flexUint{}
			return nil
		}
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return fmt.Errorf("decklog: invalid number %s", data)
	}
	*f = flexUint{Value: uint32(v), Valid: true}
	return nil
}

func (f flexUint) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatUint(uint64(f.Value), 10)), nil
}
