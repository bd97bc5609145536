package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// WAVHeader represents the header structure of a canonical PCM WAV file
type WAVHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // File size - 8 bytes
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32 // SampleRate * NumChannels * BitsPerSample / 8
	BlockAlign    uint16 // NumChannels * BitsPerSample / 8
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32
}

const wavHeaderSize = 44

// EncodeWAV wraps interleaved PCM16 bytes into a WAV container.
func EncodeWAV(pcm []byte, f Format) ([]byte, error) {
	if len(pcm) == 0 {
		return nil, fmt.Errorf("cannot encode empty audio window")
	}
	if f.SampleRate <= 0 || f.Channels <= 0 {
		return nil, fmt.Errorf("invalid audio format %d Hz x %d ch", f.SampleRate, f.Channels)
	}
	if len(pcm)%(SampleWidthBytes*f.Channels) != 0 {
		return nil, fmt.Errorf("window of %d bytes is not frame aligned for %d channels", len(pcm), f.Channels)
	}

	bitsPerSample := uint16(SampleWidthBytes * 8)
	channels := uint16(f.Channels)
	dataSize := uint32(len(pcm))

	header := WAVHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   channels,
		SampleRate:    uint32(f.SampleRate),
		ByteRate:      uint32(f.SampleRate) * uint32(channels) * uint32(bitsPerSample) / 8,
		BlockAlign:    channels * bitsPerSample / 8,
		BitsPerSample: bitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, wavHeaderSize+len(pcm)))
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("failed to write WAV header: %w", err)
	}
	buf.Write(pcm)
	return buf.Bytes(), nil
}

// DecodeWAVHeader reads the format and payload back from a canonical WAV file.
func DecodeWAVHeader(data []byte) (Format, []byte, error) {
	if len(data) < wavHeaderSize {
		return Format{}, nil, fmt.Errorf("WAV data too short: need at least %d bytes, got %d", wavHeaderSize, len(data))
	}
	var h WAVHeader
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &h); err != nil {
		return Format{}, nil, fmt.Errorf("failed to read WAV header: %w", err)
	}
	if string(h.ChunkID[:]) != "RIFF" || string(h.Format[:]) != "WAVE" {
		return Format{}, nil, fmt.Errorf("invalid WAV file: missing RIFF/WAVE header")
	}
	if h.AudioFormat != 1 || h.BitsPerSample != 16 {
		return Format{}, nil, fmt.Errorf("unsupported WAV encoding: format=%d bits=%d", h.AudioFormat, h.BitsPerSample)
	}
	end := wavHeaderSize + int(h.Subchunk2Size)
	if end > len(data) {
		return Format{}, nil, fmt.Errorf("WAV data chunk truncated: want %d bytes, have %d", h.Subchunk2Size, len(data)-wavHeaderSize)
	}
	return Format{SampleRate: int(h.SampleRate), Channels: int(h.NumChannels)}, data[wavHeaderSize:end], nil
}
