package audio

import "sync/atomic"

// Sound identifies one logical sound asset. Identity is pointer identity:
// two lookups of the same name on the same Mixer return the same *Sound.
//
// A Sound starts out as an empty placeholder and becomes playable once the
// background loader publishes its buffer. The state pointer is swapped
// atomically so the mixer goroutine and emitters never observe a
// half-loaded sound.
type Sound struct {
	name  string
	state atomic.Pointer[soundData]
}

type soundData struct {
	buffer  BufferID
	looping bool
}

// NewSound wraps an already-created device buffer in a Sound, for assets
// loaded outside the mixer's own loading queue (music tracks, generated
// cues).
func NewSound(name string, buf BufferID, looping bool) *Sound {
	s := &Sound{name: name}
	s.setLoaded(buf, looping)
	return s
}

func (s *Sound) Name() string { return s.name }

// Buffer returns the device buffer, or zero if the sound is not loaded yet.
func (s *Sound) Buffer() BufferID {
	if d := s.state.Load(); d != nil {
		return d.buffer
	}
	return 0
}

// Looping reports whether playback of this sound repeats until it stops
// being requested.
func (s *Sound) Looping() bool {
	if d := s.state.Load(); d != nil {
		return d.looping
	}
	return false
}

func (s *Sound) setLoaded(buf BufferID, looping bool) {
	s.state.Store(&soundData{buffer: buf, looping: looping})
}
