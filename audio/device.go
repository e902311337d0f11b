package audio

import (
	"errors"

	"github.com/Lundis/go-spatialaudio/vec"
)

// BufferID is an opaque handle to sample data owned by a Device.
// The zero value means "no buffer".
type BufferID uint32

// ChannelID is an opaque handle to one unit of device playback capacity.
type ChannelID uint32

// ErrNoChannels is returned by Device.AllocChannel when the device cannot
// provide any more playback channels. The mixer reacts by permanently
// lowering its capacity ceiling.
var ErrNoChannels = errors.New("audio: out of playback channels")

// Device is the playback hardware collaborator. One channel plays one
// buffer at a time. All methods are called from the mixer goroutine only,
// except CreateBuffer and FreeBuffer, which the asset loader may call from
// its worker goroutine; implementations must allow that.
//
// Spatial parameters are in world units; implementations are expected to
// scale them to their native unit (softmix uses a factor of 0.001).
type Device interface {
	// CreateBuffer uploads interleaved stereo float32 samples and returns
	// a handle to them.
	CreateBuffer(samples []float32) (BufferID, error)
	FreeBuffer(BufferID)

	// AllocChannel reserves a playback channel. It returns ErrNoChannels
	// (possibly wrapped) when the device limit is reached.
	AllocChannel() (ChannelID, error)
	FreeChannel(ChannelID)

	// BindChannel attaches a buffer to a channel and fixes its looping
	// behavior until the next bind.
	BindChannel(ch ChannelID, buf BufferID, looping bool)
	SetChannelSpatial(ch ChannelID, pos, vel vec.Point)
	StartChannel(ch ChannelID)
	StopChannel(ch ChannelID)
	// ChannelPlaying reports whether a one-shot bound to the channel is
	// still audible. Looping channels report true until stopped.
	ChannelPlaying(ch ChannelID) bool

	// SetGain sets the master output gain, in [0, 1].
	SetGain(level float64)

	Close()
}

// AssetLoader is the asset decoding collaborator. Given a file path it
// produces a device buffer and reports whether the sound should loop
// (derived from a trailing '~' marker in the file name).
//
// Load is called from the mixer's background loading goroutine.
type AssetLoader interface {
	Load(path string) (buf BufferID, looping bool, err error)
}
