// Copyright 2021 The Oto Authors
// Copyright 2026 Lundis
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package softmix

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/ebitengine/oto/v3"
)

type output interface {
	close()
}

// otoOutput streams the device mix to the operating system through oto.
// oto pulls from Read on its own goroutine.
type otoOutput struct {
	dev    *Device
	ctx    *oto.Context
	player *oto.Player
	buf    []float32
}

func newOtoOutput(dev *Device, sampleRate int, bufferSize time.Duration) (*otoOutput, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: ChannelCount,
		Format:       oto.FormatFloat32LE,
		BufferSize:   bufferSize,
	})
	if err != nil {
		return nil, fmt.Errorf("softmix: failed to open audio output: %w", err)
	}
	<-ready

	o := &otoOutput{dev: dev, ctx: ctx}
	o.player = ctx.NewPlayer(o)
	o.player.Play()
	return o, nil
}

func (o *otoOutput) Read(p []byte) (int, error) {
	numSamples := len(p) / 4
	if len(o.buf) < numSamples {
		o.buf = make([]float32, numSamples)
	}
	samples := o.buf[:numSamples]
	o.dev.ReadFloat32s(samples)
	for i, v := range samples {
		binary.LittleEndian.PutUint32(p[4*i:], math.Float32bits(v))
	}
	return numSamples * 4, nil
}

func (o *otoOutput) close() {
	if o.player != nil {
		_ = o.player.Close()
		o.player = nil
	}
}
