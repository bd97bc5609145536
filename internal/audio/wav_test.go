package audio

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestEncodeWAVHeader(t *testing.T) {
	pcm := pattern(640, 3)
	data, err := EncodeWAV(pcm, Format{SampleRate: 16000, Channels: 2})
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	if len(data) != wavHeaderSize+len(pcm) {
		t.Fatalf("Expected %d bytes, got %d", wavHeaderSize+len(pcm), len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" || string(data[36:40]) != "data" {
		t.Error("missing RIFF/WAVE/data markers")
	}
	if ch := binary.LittleEndian.Uint16(data[22:24]); ch != 2 {
		t.Errorf("Expected 2 channels, got %d", ch)
	}
	if rate := binary.LittleEndian.Uint32(data[24:28]); rate != 16000 {
		t.Errorf("Expected 16000 Hz, got %d", rate)
	}
	if byteRate := binary.LittleEndian.Uint32(data[28:32]); byteRate != 16000*2*2 {
		t.Errorf("Expected byte rate %d, got %d", 16000*2*2, byteRate)
	}
	if bits := binary.LittleEndian.Uint16(data[34:36]); bits != 16 {
		t.Errorf("Expected 16 bits per sample, got %d", bits)
	}

	f, payload, err := DecodeWAVHeader(data)
	if err != nil {
		t.Fatalf("DecodeWAVHeader: %v", err)
	}
	if f != (Format{SampleRate: 16000, Channels: 2}) {
		t.Errorf("decoded format %+v", f)
	}
	if !bytes.Equal(payload, pcm) {
		t.Error("payload differs from input")
	}
}

func TestEncodeWAVErrors(t *testing.T) {
	cases := []struct {
		name string
		pcm  []byte
		f    Format
	}{
		{"empty", nil, Format{SampleRate: 8000, Channels: 1}},
		{"zero rate", make([]byte, 4), Format{SampleRate: 0, Channels: 1}},
		{"misaligned", make([]byte, 6), Format{SampleRate: 8000, Channels: 2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := EncodeWAV(tc.pcm, tc.f); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestDecodeWAVHeaderRejectsGarbage(t *testing.T) {
	if _, _, err := DecodeWAVHeader([]byte("short")); err == nil {
		t.Error("Expected error for short input")
	}
	junk := make([]byte, 64)
	if _, _, err := DecodeWAVHeader(junk); err == nil {
		t.Error("Expected error for missing RIFF header")
	}
}
