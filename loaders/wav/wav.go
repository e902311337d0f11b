// Package wav decodes WAV (RIFF) data into the interleaved stereo float32
// format used by playback devices.
package wav

import (
	"bytes"
	"fmt"

	gowav "github.com/go-audio/wav"
)

// LoadWav decodes 16-bit linear PCM WAV data. Mono input is duplicated
// onto both output channels; stereo is passed through. Input with any
// other channel count, bit depth or a sample rate different from
// wantedSampleRate is rejected.
func LoadWav(data []byte, wantedSampleRate int) ([]float32, error) {
	d := gowav.NewDecoder(bytes.NewReader(data))
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wav: %w", err)
	}
	if d.BitDepth != 16 {
		return nil, fmt.Errorf("wav: bits per sample must be 16 but was %d", d.BitDepth)
	}
	if buf.Format.SampleRate != wantedSampleRate {
		return nil, fmt.Errorf("wav: sample rate must be %d but was %d", wantedSampleRate, buf.Format.SampleRate)
	}

	const scale = 1.0 / (1 << 15)
	switch buf.Format.NumChannels {
	case 1:
		out := make([]float32, 2*len(buf.Data))
		for i, v := range buf.Data {
			s := float32(v) * scale
			out[2*i] = s
			out[2*i+1] = s
		}
		return out, nil
	case 2:
		out := make([]float32, len(buf.Data))
		for i, v := range buf.Data {
			out[i] = float32(v) * scale
		}
		return out, nil
	default:
		return nil, fmt.Errorf("wav: number of channels must be 1 or 2 but was %d", buf.Format.NumChannels)
	}
}
