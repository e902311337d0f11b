// Package oggvorbis decodes Ogg Vorbis data into the interleaved stereo
// float32 format used by playback devices.
package oggvorbis

import (
	"bytes"
	"fmt"

	"github.com/jfreymuth/oggvorbis"
)

// Load decodes Ogg Vorbis data. Mono input is duplicated onto both output
// channels; stereo is passed through. Input with any other channel count
// or a sample rate different from expectedSampleRate is rejected.
func Load(oggData []byte, expectedSampleRate int) ([]float32, error) {
	data, format, err := oggvorbis.ReadAll(bytes.NewReader(oggData))
	if err != nil {
		return nil, err
	}
	if format.SampleRate != expectedSampleRate {
		return nil, fmt.Errorf("sample rate must be %d but was %d", expectedSampleRate, format.SampleRate)
	}
	switch format.Channels {
	case 1:
		out := make([]float32, 2*len(data))
		for i, s := range data {
			out[2*i] = s
			out[2*i+1] = s
		}
		return out, nil
	case 2:
		return data, nil
	default:
		return nil, fmt.Errorf("number of channels must be 1 or 2 but was %d", format.Channels)
	}
}
