// Copyright 2026 The Kiln Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"
)

// sampleRequest mirrors the shape of a control-socket request: an
// action name plus optional action-specific fields.
type sampleRequest struct {
	Action string `cbor:"action"`
	Since  uint64 `cbor:"since,omitempty"`
}

func TestMarshalDeterministic(t *testing.T) {
	// Map encoding must be byte-identical across calls; the mock
	// daemon's fixtures and the exporter's requests rely on it.
	value := map[string]any{
		"size_bytes":        int64(1 << 30),
		"used_bytes":        int64(1 << 29),
		"reclaimable_bytes": int64(1 << 20),
		"records":           int64(812),
	}

	first, err := Marshal(value)
	if err != nil {
		t.Fatalf("first Marshal: %v", err)
	}
	second, err := Marshal(value)
	if err != nil {
		t.Fatalf("second Marshal: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Errorf("deterministic encoding violated: %x != %x", first, second)
	}
}

func TestEncoderDecoderStreamRoundtrip(t *testing.T) {
	requests := []sampleRequest{
		{Action: "info"},
		{Action: "build-history", Since: 117},
		{Action: "disk-usage"},
	}

	var buffer bytes.Buffer
	encoder := NewEncoder(&buffer)
	for _, request := range requests {
		if err := encoder.Encode(request); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}

	decoder := NewDecoder(&buffer)
	for i, want := range requests {
		var got sampleRequest
		if err := decoder.Decode(&got); err != nil {
			t.Fatalf("Decode request %d: %v", i, err)
		}
		if got != want {
			t.Errorf("request %d: got %+v, want %+v", i, got, want)
		}
	}
}

func TestOmitemptyRespected(t *testing.T) {
	withCursor := sampleRequest{Action: "build-history", Since: 9}
	withoutCursor := sampleRequest{Action: "build-history"}

	dataWith, err := Marshal(withCursor)
	if err != nil {
		t.Fatal(err)
	}
	dataWithout, err := Marshal(withoutCursor)
	if err != nil {
		t.Fatal(err)
	}

	// The encoding without the cursor must be shorter because the
	// omitted field is not present at all.
	if len(dataWithout) >= len(dataWith) {
		t.Errorf("omitempty not effective: without=%d bytes, with=%d bytes",
			len(dataWithout), len(dataWith))
	}
}

func TestDefaultMapTypeForAnyTargets(t *testing.T) {
	data, err := Marshal(sampleRequest{Action: "info"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	asMap, ok := decoded.(map[string]any)
	if !ok {
		t.Fatalf("any-typed decode produced %T, want map[string]any", decoded)
	}
	if asMap["action"] != "info" {
		t.Errorf("action = %v, want %q", asMap["action"], "info")
	}
}

func TestUnmarshalInvalidCBOR(t *testing.T) {
	var request sampleRequest
	if err := Unmarshal([]byte{0xFF, 0xFE, 0xFD}, &request); err == nil {
		t.Error("Unmarshal should reject invalid CBOR")
	}
}

func TestRawMessagePassthrough(t *testing.T) {
	// Response envelopes carry their data field as RawMessage; the
	// bytes must survive an envelope roundtrip untouched.
	payload, err := Marshal(map[string]any{"version": "v0.14.1"})
	if err != nil {
		t.Fatalf("Marshal payload: %v", err)
	}

	type envelope struct {
		OK   bool       `cbor:"ok"`
		Data RawMessage `cbor:"data,omitempty"`
	}

	data, err := Marshal(envelope{OK: true, Data: payload})
	if err != nil {
		t.Fatalf("Marshal envelope: %v", err)
	}

	var decoded envelope
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal envelope: %v", err)
	}

	if !bytes.Equal(decoded.Data, payload) {
		t.Errorf("data field altered in transit: got %x, want %x", decoded.Data, payload)
	}
}
