package parser

import (
	"bytes"
	"unicode/utf8"

	"telemetry-anomaly-monitor/src/types"
)

// DecodeLine turns one newline-delimited chunk into trimmed text. An empty
// result with a nil error means the line carried nothing and must be dropped.
func DecodeLine(raw []byte) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "", nil
	}

	if !utf8.Valid(trimmed) {
		return "", types.ErrDecode
	}

	return string(trimmed), nil
}
