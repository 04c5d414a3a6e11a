// Package wav wraps 16-bit PCM samples in a RIFF/WAVE container.
package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const headerSize = 44

// Format describes the PCM layout of the samples.
type Format struct {
	SampleRate int
	Channels   int
}

// Encode returns a complete WAV file holding little-endian 16-bit pcm.
func Encode(format Format, pcm []byte) ([]byte, error) {
	if format.SampleRate <= 0 || format.Channels <= 0 {
		return nil, errors.New("invalid wav format")
	}
	if len(pcm)%2 != 0 {
		return nil, errors.New("pcm data is not 16-bit aligned")
	}

	const bitsPerSample = 16
	blockAlign := format.Channels * bitsPerSample / 8
	byteRate := format.SampleRate * blockAlign

	buf := bytes.NewBuffer(make([]byte, 0, headerSize+len(pcm)))
	buf.WriteString("RIFF")
	writeLE(buf, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	writeLE(buf, uint32(16))
	writeLE(buf, uint16(1))
	writeLE(buf, uint16(format.Channels))
	writeLE(buf, uint32(format.SampleRate))
	writeLE(buf, uint32(byteRate))
	writeLE(buf, uint16(blockAlign))
	writeLE(buf, uint16(bitsPerSample))

	buf.WriteString("data")
	writeLE(buf, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes(), nil
}

func writeLE(buf *bytes.Buffer, v any) {
	// bytes.Buffer writes never fail.
	_ = binary.Write(buf, binary.LittleEndian, v)
}

// FloatToPCM16 converts normalized float samples to little-endian 16-bit pcm.
func FloatToPCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(s*32767)))
	}
	return out
}
