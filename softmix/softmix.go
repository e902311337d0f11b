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

// Package softmix is a software implementation of the audio.Device
// playback collaborator: a bounded table of playback channels mixed
// additively into an interleaved stereo float32 stream, with per-channel
// distance attenuation and panning derived from world positions.
package softmix

import (
	"math"
	"sync"
	"time"

	"github.com/Lundis/go-spatialaudio/audio"
	"github.com/Lundis/go-spatialaudio/vec"
)

const ChannelCount = 2

// unitScale converts world units to device units, three decimal orders
// of magnitude apart.
const unitScale = 0.001

// DefaultMaxChannels is the device-side channel limit. It is deliberately
// lower than the mixer's own default ceiling so that the mixer's
// self-tuning path is exercised on heavy scenes.
const DefaultMaxChannels = 64

// Options configures a Device.
type Options struct {
	// SampleRate of the output stream. Defaults to 44100.
	SampleRate int

	// MaxChannels is the hard limit on simultaneously allocated playback
	// channels. Defaults to DefaultMaxChannels.
	MaxChannels int

	// BufferSize of the underlying output device. Zero selects the
	// driver default. Bigger buffers add latency, smaller ones risk
	// glitching.
	BufferSize time.Duration
}

type playbackChannel struct {
	samples []float32
	pos     int
	looping bool
	playing bool
	left    float32
	right   float32
}

// Device mixes playback channels in software. It implements audio.Device.
// All methods are safe for concurrent use; the output goroutine pulls
// mixed samples while the mixer goroutine mutates channels.
type Device struct {
	mu          sync.Mutex
	sampleRate  int
	gain        float32
	maxChannels int

	buffers  map[audio.BufferID][]float32
	nextBuf  audio.BufferID
	channels map[audio.ChannelID]*playbackChannel
	nextChan audio.ChannelID

	out output
}

// New opens a Device playing through the operating system's audio output.
// Failure to open the output is fatal: the caller gets an error and no
// Device.
func New(opts *Options) (*Device, error) {
	d := newDevice(opts)
	var bufferSize time.Duration
	if opts != nil {
		bufferSize = opts.BufferSize
	}
	out, err := newOtoOutput(d, d.sampleRate, bufferSize)
	if err != nil {
		return nil, err
	}
	d.out = out
	return d, nil
}

// NewSilent returns a Device with no operating system output, for tests
// and headless use. Callers drive it by calling ReadFloat32s themselves.
func NewSilent(opts *Options) *Device {
	return newDevice(opts)
}

func newDevice(opts *Options) *Device {
	sampleRate := 44100
	maxChannels := DefaultMaxChannels
	if opts != nil {
		if opts.SampleRate > 0 {
			sampleRate = opts.SampleRate
		}
		if opts.MaxChannels > 0 {
			maxChannels = opts.MaxChannels
		}
	}
	return &Device{
		sampleRate:  sampleRate,
		gain:        1,
		maxChannels: maxChannels,
		buffers:     make(map[audio.BufferID][]float32),
		channels:    make(map[audio.ChannelID]*playbackChannel),
	}
}

func (d *Device) SampleRate() int { return d.sampleRate }

func (d *Device) CreateBuffer(samples []float32) (audio.BufferID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextBuf++
	d.buffers[d.nextBuf] = samples
	return d.nextBuf, nil
}

func (d *Device) FreeBuffer(buf audio.BufferID) {
	d.mu.Lock()
	delete(d.buffers, buf)
	d.mu.Unlock()
}

func (d *Device) AllocChannel() (audio.ChannelID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.channels) >= d.maxChannels {
		return 0, audio.ErrNoChannels
	}
	d.nextChan++
	d.channels[d.nextChan] = &playbackChannel{left: 1, right: 1}
	return d.nextChan, nil
}

func (d *Device) FreeChannel(ch audio.ChannelID) {
	d.mu.Lock()
	delete(d.channels, ch)
	d.mu.Unlock()
}

func (d *Device) BindChannel(ch audio.ChannelID, buf audio.BufferID, looping bool) {
	d.mu.Lock()
	if c := d.channels[ch]; c != nil {
		c.samples = d.buffers[buf]
		c.looping = looping
		c.pos = 0
		c.playing = false
	}
	d.mu.Unlock()
}

// SetChannelSpatial derives the channel's stereo gains from a
// listener-relative world position: inverse-square attenuation over the
// scaled distance and a constant-power pan from the horizontal direction.
// Velocity is accepted for Doppler but currently unused.
//
// TODO: Doppler shift from the velocity needs a resampling playback path.
func (d *Device) SetChannelSpatial(ch audio.ChannelID, pos, vel vec.Point) {
	p := pos.Mul(unitScale)
	dist := p.Length()
	attenuation := 1 / (1 + dist*dist)
	pan := 0.0
	if dist > 0 {
		pan = p.X / dist
	}
	left := attenuation * math.Sqrt((1-pan)/2)
	right := attenuation * math.Sqrt((1+pan)/2)
	if dist == 0 {
		// A source on top of the listener is a non-spatialized cue.
		left, right = 1, 1
	}

	d.mu.Lock()
	if c := d.channels[ch]; c != nil {
		c.left = float32(left)
		c.right = float32(right)
	}
	d.mu.Unlock()
}

func (d *Device) StartChannel(ch audio.ChannelID) {
	d.mu.Lock()
	if c := d.channels[ch]; c != nil && c.samples != nil {
		c.playing = true
	}
	d.mu.Unlock()
}

func (d *Device) StopChannel(ch audio.ChannelID) {
	d.mu.Lock()
	if c := d.channels[ch]; c != nil {
		c.playing = false
	}
	d.mu.Unlock()
}

func (d *Device) ChannelPlaying(ch audio.ChannelID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if c := d.channels[ch]; c != nil {
		return c.playing
	}
	return false
}

func (d *Device) SetGain(level float64) {
	d.mu.Lock()
	d.gain = float32(level)
	d.mu.Unlock()
}

// ReadFloat32s fills buf with the mixed output of all playing channels.
// One-shot channels that reach the end of their samples stop playing;
// looping channels wrap around.
func (d *Device) ReadFloat32s(buf []float32) {
	for i := range buf {
		buf[i] = 0
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	frames := len(buf) / ChannelCount
	for _, c := range d.channels {
		if !c.playing || len(c.samples) == 0 {
			continue
		}
		total := len(c.samples) / ChannelCount
		for i := 0; i < frames; i++ {
			if c.pos >= total {
				if !c.looping {
					c.playing = false
					break
				}
				c.pos = 0
			}
			buf[2*i] += c.samples[2*c.pos] * c.left * d.gain
			buf[2*i+1] += c.samples[2*c.pos+1] * c.right * d.gain
			c.pos++
		}
	}
}

// Close stops the output and drops all buffers and channels.
func (d *Device) Close() {
	if d.out != nil {
		d.out.close()
		d.out = nil
	}
	d.mu.Lock()
	clear(d.buffers)
	clear(d.channels)
	d.mu.Unlock()
}
