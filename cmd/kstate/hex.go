package main

import (
	"encoding/hex"
	"fmt"
	"strings"
)

func hexDump(b []byte) string {
	return hex.Dump(b)
}

// decodeHex accepts "12345678", "0x12345678", or "12 34 56 78".
func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	s = strings.ReplaceAll(s, " ", "")
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("bad hex %q: %w", s, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("bad hex %q: empty", s)
	}
	return data, nil
}
