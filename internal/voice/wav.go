package voice

import (
	"bytes"
	"encoding/binary"

	"reelstudio/internal/pkg/errors"
)

// EncodeWAV wraps raw little-endian PCM in a canonical 44-byte RIFF header.
func EncodeWAV(pcm []byte, sampleRate, channels, bitsPerSample int) []byte {
	blockAlign := channels * bitsPerSample / 8
	byteRate := sampleRate * blockAlign

	var b bytes.Buffer
	b.Grow(44 + len(pcm))
	b.WriteString("RIFF")
	_ = binary.Write(&b, binary.LittleEndian, uint32(36+len(pcm)))
	b.WriteString("WAVE")

	b.WriteString("fmt ")
	_ = binary.Write(&b, binary.LittleEndian, uint32(16))
	_ = binary.Write(&b, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&b, binary.LittleEndian, uint16(channels))
	_ = binary.Write(&b, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&b, binary.LittleEndian, uint32(byteRate))
	_ = binary.Write(&b, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(&b, binary.LittleEndian, uint16(bitsPerSample))

	b.WriteString("data")
	_ = binary.Write(&b, binary.LittleEndian, uint32(len(pcm)))
	b.Write(pcm)
	return b.Bytes()
}

// WAVDuration walks the RIFF chunks and returns data length / byte rate.
func WAVDuration(wav []byte) (float64, error) {
	if len(wav) < 12 || string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		return 0, errors.Validation("audio is not a RIFF/WAVE file")
	}

	var byteRate uint32
	for off := 12; off+8 <= len(wav); {
		id := string(wav[off : off+4])
		size := int(binary.LittleEndian.Uint32(wav[off+4 : off+8]))
		body := off + 8

		switch id {
		case "fmt ":
			if size < 16 || body+16 > len(wav) {
				return 0, errors.Validation("truncated fmt chunk")
			}
			byteRate = binary.LittleEndian.Uint32(wav[body+8 : body+12])
		case "data":
			if byteRate == 0 {
				return 0, errors.Validation("data chunk before fmt chunk")
			}
			if size > len(wav)-body {
				size = len(wav) - body
			}
			return float64(size) / float64(byteRate), nil
		}

		off = body + size + size%2
	}
	return 0, errors.Validation("wav has no data chunk")
}
