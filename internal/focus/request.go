package focus

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"strings"
)

// maxMinutes is the largest value that still converts to a whole int64
// minute count without losing precision.
const maxMinutes = 1 << 53

// AccumulateRequest is a validated save request.
type AccumulateRequest struct {
	Subject string
	Minutes float64
}

// WholeMinutes truncates Minutes toward zero. Only whole minutes are persisted.
func (r AccumulateRequest) WholeMinutes() int64 {
	return int64(math.Trunc(r.Minutes))
}

// DecodePayload reads a JSON object body. An empty body decodes to an empty payload.
func DecodePayload(r io.Reader) (map[string]any, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, &ValidationError{Err: ErrInvalidBody}
	}
	payload := map[string]any{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &ValidationError{Err: ErrInvalidBody}
	}
	return payload, nil
}

// Validate checks subject and minutes and ignores every other field.
func Validate(payload map[string]any) (AccumulateRequest, error) {
	subject, ok := payload["subject"].(string)
	if !ok || strings.TrimSpace(subject) == "" {
		return AccumulateRequest{}, &ValidationError{Field: "subject", Err: ErrInvalidSubject}
	}
	minutes, ok := numberValue(payload["minutes"])
	if !ok || math.IsNaN(minutes) || math.IsInf(minutes, 0) || minutes < 0 || minutes > maxMinutes {
		return AccumulateRequest{}, &ValidationError{Field: "minutes", Err: ErrInvalidMinutes}
	}
	return AccumulateRequest{Subject: subject, Minutes: minutes}, nil
}

func numberValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
