package audio

import (
	"github.com/Lundis/go-spatialaudio/vec"
)

// DefaultMaxChannels is the initial capacity ceiling of a channel pool.
// The pool lowers it to the real device limit on the first allocation
// failure.
const DefaultMaxChannels = 255

// channel pairs a device playback channel with the sound bound to it.
// The looping flag is captured at bind time; the Sound may be reloaded
// later without affecting channels already playing.
type channel struct {
	sound   *Sound
	id      ChannelID
	looping bool
}

func (c *channel) move(dev Device, position, velocity vec.Point) {
	dev.SetChannelSpatial(c.id, position, velocity)
}

// pool owns the live channels, the free-list of recyclable channel ids,
// and the self-tuning capacity ceiling. It is confined to the mixer
// goroutine.
type pool struct {
	dev    Device
	active []channel
	free   []ChannelID
	max    int
}

func newPool(dev Device, maxChannels int) *pool {
	if maxChannels <= 0 {
		maxChannels = DefaultMaxChannels
	}
	return &pool{dev: dev, max: maxChannels}
}

// acquire returns a channel id from the free-list, or a freshly allocated
// one. It returns false when the pool is at capacity; if the device itself
// refused the allocation, the ceiling is permanently lowered to the
// current active count so the pool never asks again.
func (p *pool) acquire() (ChannelID, bool) {
	if n := len(p.free); n > 0 {
		id := p.free[n-1]
		p.free = p.free[:n-1]
		return id, true
	}
	if len(p.active) >= p.max {
		return 0, false
	}
	id, err := p.dev.AllocChannel()
	if err != nil {
		p.max = len(p.active)
		return 0, false
	}
	return id, true
}

// recycle stops a channel and returns its id to the free-list.
func (p *pool) recycle(id ChannelID) {
	p.dev.StopChannel(id)
	p.free = append(p.free, id)
}

// releaseAll stops every active channel and frees every channel id, both
// active and recycled.
func (p *pool) releaseAll() {
	for _, c := range p.active {
		p.dev.StopChannel(c.id)
		p.dev.FreeChannel(c.id)
	}
	p.active = p.active[:0]
	for _, id := range p.free {
		p.dev.FreeChannel(id)
	}
	p.free = p.free[:0]
}
