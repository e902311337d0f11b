// Package audio implements a positional audio mixer for games. Sounds are
// requested at world positions every simulation tick; requests for the
// same sound are coalesced into one playback, mapped onto a bounded pool
// of device channels, and reconciled tick over tick.
//
// A Mixer is driven from one goroutine, conventionally the game loop:
// UpdateListener, Play, Step and Shutdown must never run concurrently
// with each other. Other goroutines submit requests through the handle
// returned by Emitter, at the cost of up to one tick of latency.
package audio

import (
	"math"
	"sync"

	"github.com/Lundis/go-spatialaudio/vec"
)

// Options configures a Mixer.
type Options struct {
	// MaxChannels caps the number of simultaneously active playback
	// channels. Defaults to DefaultMaxChannels. The mixer lowers the cap
	// on its own if the device runs out of channels earlier.
	MaxChannels int
}

// Mixer owns the request queues, the sound registry and the channel pool
// for one playback device.
type Mixer struct {
	dev    Device
	loader AssetLoader

	// mu guards everything shared with emitters and the load worker:
	// the deferred queue, the sound registry, the load queue and the
	// listener snapshot.
	mu         sync.Mutex
	deferred   map[*Sound]*queueEntry
	sounds     map[string]*Sound
	pending    []string
	loaded     int
	workerDone chan struct{}
	volume     float64

	listener    vec.Point
	listenerVel vec.Point

	stop     chan struct{}
	stopOnce sync.Once

	// mixer-goroutine only
	queue map[*Sound]*queueEntry
	pool  *pool
}

// New creates a Mixer on top of an opened playback device. The loader is
// only consulted by LoadSounds; it may be nil if every Sound is registered
// through NewSound and Register.
func New(dev Device, loader AssetLoader, opts *Options) *Mixer {
	maxChannels := 0
	if opts != nil {
		maxChannels = opts.MaxChannels
	}
	m := &Mixer{
		dev:      dev,
		loader:   loader,
		deferred: make(map[*Sound]*queueEntry),
		sounds:   make(map[string]*Sound),
		queue:    make(map[*Sound]*queueEntry),
		pool:     newPool(dev, maxChannels),
		volume:   1,
		stop:     make(chan struct{}),
	}
	dev.SetGain(1)
	return m
}

// Get returns the sound registered under name, creating an empty
// placeholder if it has not been loaded yet. Playing a placeholder is a
// no-op until its asset arrives.
//
// Get is safe to call from any goroutine.
func (m *Mixer) Get(name string) *Sound {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookupLocked(name)
}

func (m *Mixer) lookupLocked(name string) *Sound {
	s := m.sounds[name]
	if s == nil {
		s = &Sound{name: name}
		m.sounds[name] = s
	}
	return s
}

// Register adds an externally loaded sound to the registry so that
// Shutdown releases its buffer. An existing placeholder with the same
// name is replaced.
func (m *Mixer) Register(s *Sound) {
	m.mu.Lock()
	m.sounds[s.name] = s
	m.mu.Unlock()
}

// Volume returns the master volume, in [0, 1].
func (m *Mixer) Volume() float64 {
	return m.volume
}

// SetVolume sets the master volume. The level is clamped to [0, 1]. At
// zero, play requests become no-ops.
func (m *Mixer) SetVolume(level float64) {
	level = math.Min(1, math.Max(0, level))
	m.mu.Lock()
	m.volume = level
	m.mu.Unlock()
	m.dev.SetGain(level)
}

// UpdateListener sets the listener's position and velocity for the coming
// tick and folds requests emitted from other goroutines since the last
// call into the live queue. Call it once per tick, before emitting and
// before Step.
func (m *Mixer) UpdateListener(position, velocity vec.Point) {
	m.mu.Lock()
	m.listener = position
	m.listenerVel = velocity
	for s, e := range m.deferred {
		m.mergeLive(s, e)
	}
	clear(m.deferred)
	m.mu.Unlock()
}

func (m *Mixer) mergeLive(s *Sound, e *queueEntry) {
	if live := m.queue[s]; live != nil {
		live.merge(e)
	} else {
		m.queue[s] = e
	}
}

// Play requests playback of a sound at the listener's own position: a
// non-spatialized, full-volume cue.
func (m *Mixer) Play(s *Sound) {
	m.PlayAt(s, m.listener, vec.Point{})
}

// PlayAt requests playback of a sound at a world position and velocity.
// The offset relative to the listener is captured now; moving the
// listener later in the tick does not shift this request.
//
// A nil sound, an unloaded sound or zero master volume make this a no-op.
func (m *Mixer) PlayAt(s *Sound, position, velocity vec.Point) {
	if s == nil || s.Buffer() == 0 || m.volume == 0 {
		return
	}
	e := m.queue[s]
	if e == nil {
		e = &queueEntry{}
		m.queue[s] = e
	}
	e.add(position.Sub(m.listener), velocity.Sub(m.listenerVel))
}

// Emitter returns a handle for submitting play requests from goroutines
// other than the one driving the mixer. Requests become audible on the
// tick after the next UpdateListener call.
func (m *Mixer) Emitter() Emitter {
	return Emitter{m}
}

// Emitter queues play requests from any goroutine. The zero value is not
// usable; obtain one from Mixer.Emitter.
type Emitter struct {
	m *Mixer
}

// Play requests playback at the listener's position.
func (e Emitter) Play(s *Sound) {
	m := e.m
	m.mu.Lock()
	m.playDeferredLocked(s, m.listener, vec.Point{})
	m.mu.Unlock()
}

// PlayAt requests playback at a world position and velocity.
func (e Emitter) PlayAt(s *Sound, position, velocity vec.Point) {
	m := e.m
	m.mu.Lock()
	m.playDeferredLocked(s, position, velocity)
	m.mu.Unlock()
}

func (m *Mixer) playDeferredLocked(s *Sound, position, velocity vec.Point) {
	if s == nil || s.Buffer() == 0 || m.volume == 0 {
		return
	}
	e := m.deferred[s]
	if e == nil {
		e = &queueEntry{}
		m.deferred[s] = e
	}
	e.add(position.Sub(m.listener), velocity.Sub(m.listenerVel))
}

// Step reconciles the live request queue against the channel pool:
// looping channels still requested this tick are moved in place, looping
// channels no longer requested are recycled, finished one-shots are
// recycled, and whatever remains in the queue is started on free or new
// channels. The queue is cleared afterwards; requests that could not be
// started are dropped, not carried over.
func (m *Mixer) Step() {
	// First pass: decide the fate of every active channel.
	kept := make([]channel, 0, len(m.pool.active))
	for _, c := range m.pool.active {
		if c.looping {
			// A loop lives exactly as long as it keeps being requested.
			if e, ok := m.queue[c.sound]; ok {
				c.move(m.dev, e.position(), e.velocity())
				kept = append(kept, c)
				delete(m.queue, c.sound)
			} else {
				m.pool.recycle(c.id)
			}
		} else if m.dev.ChannelPlaying(c.id) {
			// One-shots are fire-and-forget; a new request for the same
			// sound starts a second instance below rather than touching
			// this one.
			kept = append(kept, c)
		} else {
			m.pool.recycle(c.id)
		}
	}
	m.pool.active = kept

	// Second pass: everything left in the queue needs a channel. On the
	// first failed allocation the remaining requests are dropped for this
	// tick; the pool has already lowered its ceiling.
	for s, e := range m.queue {
		id, ok := m.pool.acquire()
		if !ok {
			break
		}
		c := channel{sound: s, id: id, looping: s.Looping()}
		m.dev.BindChannel(id, s.Buffer(), c.looping)
		c.move(m.dev, e.position(), e.velocity())
		m.dev.StartChannel(id)
		m.pool.active = append(m.pool.active, c)
	}
	clear(m.queue)
}

// Shutdown stops all playback, releases every channel and buffer, waits
// for the background loader to exit and closes the device. The Mixer must
// not be used afterwards.
func (m *Mixer) Shutdown() {
	m.stopOnce.Do(func() { close(m.stop) })

	m.pool.releaseAll()

	m.mu.Lock()
	done := m.workerDone
	m.pending = nil
	m.mu.Unlock()
	if done != nil {
		<-done
	}

	// Buffers are freed only after the worker has exited, so a load that
	// completed during shutdown cannot leak.
	m.mu.Lock()
	for _, s := range m.sounds {
		if buf := s.Buffer(); buf != 0 {
			m.dev.FreeBuffer(buf)
		}
	}
	clear(m.sounds)
	clear(m.deferred)
	m.mu.Unlock()
	clear(m.queue)

	m.dev.Close()
}
