package utils

import (
	"bytes"
	"strings"
	"testing"
)

func TestMarshalJSON_NoEscaping(t *testing.T) {
	buf, err := MarshalJSON(map[string]string{"k": "<&>"})
	if err != nil {
		t.Fatal(err)
	}
	if string(buf) != "{\"k\":\"<&>\"}" {
		t.Fatalf("expected {\"k\":\"<&>\"}, got %s", buf)
	}
}

func TestMarshalJSONIndent(t *testing.T) {
	buf, err := MarshalJSONIndent([]int{1, 2}, "  ")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(buf), "\n  1,") {
		t.Fatalf("expected indented output, got %s", buf)
	}
}

func TestEncoderDecoderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONEncoder(&buf).Encode([]uint64{1 << 60}); err != nil {
		t.Fatal(err)
	}

	var out []uint64
	if err := NewJSONDecoder(&buf).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0] != 1<<60 {
		t.Fatalf("expected [1152921504606846976], got %v", out)
	}
}
