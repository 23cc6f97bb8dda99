package wav

// WAV Container Handling
//
// This package is the only place in the codebase that understands audio
// containers. Everything downstream of it works on mono float64 PCM samples
// in the range [-1, 1].
//
// Two paths produce those samples:
//
//  1. Native path: the input is already a PCM16 WAV file, parsed directly
//     from memory with no external tooling.
//  2. Conversion path: any other container/codec is shelled out to ffmpeg,
//     which emits a PCM16 WAV at the requested channel count and sample rate.
//
// The PCM16 restriction is deliberate: a single sample format keeps the
// float conversion exact and the feature pipeline deterministic.

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
)

const wavHeaderSize = 44

// WavInfo describes a parsed WAV file.
type WavInfo struct {
	Channels      int
	SampleRate    int
	BitsPerSample int
	Data          []byte
	Duration      float64
}

type wavHeader struct {
	ChunkID       [4]byte
	ChunkSize     uint32
	Format        [4]byte
	Subchunk1ID   [4]byte
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte
	Subchunk2Size uint32
}

// WriteWavFile writes raw PCM data to filename with a standard 44-byte header.
func WriteWavFile(filename string, data []byte, sampleRate, channels, bitsPerSample int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", sampleRate)
	}
	if channels < 1 || channels > 2 {
		return fmt.Errorf("invalid channel count: %d", channels)
	}
	if bitsPerSample != 16 {
		return fmt.Errorf("unsupported bits per sample: %d", bitsPerSample)
	}

	buf, err := encodeWav(data, sampleRate, channels, bitsPerSample)
	if err != nil {
		return err
	}

	return os.WriteFile(filename, buf, 0o644)
}

// EncodeSamples converts float64 samples in [-1, 1] into a complete in-memory
// mono PCM16 WAV file.
func EncodeSamples(samples []float64, sampleRate int) ([]byte, error) {
	if len(samples) == 0 {
		return nil, errors.New("cannot encode empty sample slice")
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", sampleRate)
	}

	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		clamped := math.Max(-1.0, math.Min(1.0, s))
		value := int16(math.Round(clamped * 32767.0))
		binary.LittleEndian.PutUint16(data[i*2:], uint16(value))
	}

	return encodeWav(data, sampleRate, 1, 16)
}

func encodeWav(data []byte, sampleRate, channels, bitsPerSample int) ([]byte, error) {
	blockAlign := channels * bitsPerSample / 8
	header := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     uint32(36 + len(data)),
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   uint16(channels),
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate * blockAlign),
		BlockAlign:    uint16(blockAlign),
		BitsPerSample: uint16(bitsPerSample),
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: uint32(len(data)),
	}

	buf := bytes.NewBuffer(make([]byte, 0, wavHeaderSize+len(data)))
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("failed to write wav header: %v", err)
	}
	if _, err := buf.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write wav data: %v", err)
	}

	return buf.Bytes(), nil
}

// ReadWavInfo parses the WAV file at filename.
func ReadWavInfo(filename string) (*WavInfo, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read wav file: %v", err)
	}
	return ParseWavBytes(data)
}

// ParseWavBytes parses an in-memory WAV file. Only uncompressed PCM16 is
// accepted; everything else must go through ConvertToWAV first.
func ParseWavBytes(data []byte) (*WavInfo, error) {
	if len(data) < wavHeaderSize {
		return nil, fmt.Errorf("wav data too short: %d bytes", len(data))
	}

	var header wavHeader
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to parse wav header: %v", err)
	}

	if string(header.ChunkID[:]) != "RIFF" || string(header.Format[:]) != "WAVE" {
		return nil, errors.New("not a RIFF/WAVE file")
	}
	if string(header.Subchunk1ID[:]) != "fmt " {
		return nil, errors.New("missing fmt chunk")
	}
	if header.AudioFormat != 1 {
		return nil, fmt.Errorf("unsupported audio format %d, expected PCM", header.AudioFormat)
	}
	if header.BitsPerSample != 16 {
		return nil, fmt.Errorf("unsupported bit depth %d, expected 16", header.BitsPerSample)
	}
	if header.NumChannels < 1 || header.NumChannels > 2 {
		return nil, fmt.Errorf("unsupported channel count %d", header.NumChannels)
	}
	if header.SampleRate == 0 {
		return nil, errors.New("invalid sample rate 0")
	}

	// Locate the data chunk. Encoders sometimes insert LIST or fact chunks
	// between fmt and data, so walk the chunk list instead of trusting a
	// fixed offset.
	payload, err := findDataChunk(data)
	if err != nil {
		return nil, err
	}

	bytesPerSample := int(header.BitsPerSample) / 8
	frameSize := bytesPerSample * int(header.NumChannels)
	numFrames := len(payload) / frameSize

	return &WavInfo{
		Channels:      int(header.NumChannels),
		SampleRate:    int(header.SampleRate),
		BitsPerSample: int(header.BitsPerSample),
		Data:          payload,
		Duration:      float64(numFrames) / float64(header.SampleRate),
	}, nil
}

func findDataChunk(data []byte) ([]byte, error) {
	// Chunks start after the 12-byte RIFF descriptor.
	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8

		if id == "data" {
			if size < 0 || body+size > len(data) {
				size = len(data) - body
			}
			return data[body : body+size], nil
		}

		// Chunks are word aligned.
		if size%2 != 0 {
			size++
		}
		offset = body + size
	}
	return nil, errors.New("missing data chunk")
}

// WavBytesToSamples converts little-endian PCM16 bytes into float64 samples
// in [-1, 1].
func WavBytesToSamples(input []byte) ([]float64, error) {
	if len(input) == 0 {
		return nil, errors.New("empty PCM data")
	}
	if len(input)%2 != 0 {
		return nil, errors.New("invalid PCM data length")
	}

	output := make([]float64, len(input)/2)
	for i := 0; i < len(input); i += 2 {
		sample := int16(binary.LittleEndian.Uint16(input[i : i+2]))
		output[i/2] = float64(sample) / 32768.0
	}

	return output, nil
}

// DownmixToMono averages interleaved stereo samples into a mono signal.
// Mono input is returned unchanged.
func DownmixToMono(samples []float64, channels int) []float64 {
	if channels <= 1 || len(samples) < 2 {
		return samples
	}

	mono := make([]float64, len(samples)/channels)
	for i := range mono {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += samples[i*channels+c]
		}
		mono[i] = sum / float64(channels)
	}
	return mono
}
