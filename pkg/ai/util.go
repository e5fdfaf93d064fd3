package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/kaptinlin/jsonrepair"
)

// ErrMalformedResponse reports model output that could not be parsed as the
// requested JSON structure, even after repair. Callers can use errors.Is to
// separate parse failures from transport failures.
var ErrMalformedResponse = errors.New("malformed model response")

// GenerateSchema creates a JSON Schema from the given Go type for use with
// structured model output.
func GenerateSchema(value any) any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	t := reflect.TypeOf(value)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	v := reflect.New(t).Interface()
	return reflector.Reflect(v)
}

// UnwrapFences strips a markdown code fence wrapping the input, if any.
// Models occasionally fence their JSON output despite instructions; the
// fence language tag ("json") is discarded along with the fence markers.
func UnwrapFences(input string) string {
	s := strings.TrimSpace(input)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		firstLine := strings.TrimSpace(s[:idx])
		// drop a language tag like "json" on the fence line
		if firstLine == "" || !strings.ContainsAny(firstLine, "{[") {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// UnmarshalFlexible attempts to unmarshal model JSON output into the target
// with fallback strategies: fence unwrapping, standard decoding,
// double-encoded JSON strings, and finally jsonrepair for malformed output.
func UnmarshalFlexible(input string, out any) error {
	input = UnwrapFences(input)

	if err := json.Unmarshal([]byte(input), out); err == nil {
		return nil
	}

	var asString string
	if err := json.Unmarshal([]byte(input), &asString); err == nil {
		asString = strings.TrimSpace(asString)
		if err := json.Unmarshal([]byte(asString), out); err == nil {
			return nil
		}
		input = asString
	}

	repaired, err := jsonrepair.JSONRepair(input)
	if err != nil {
		return fmt.Errorf("json repair failed: %v: %w", err, ErrMalformedResponse)
	}

	if err := json.Unmarshal([]byte(repaired), out); err != nil {
		return fmt.Errorf("unmarshal failed after repair: %v: %w", err, ErrMalformedResponse)
	}

	return nil
}
