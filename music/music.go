// Package music plays background track lists through the mixer. A track
// is kept alive by re-requesting it every tick, so it occupies exactly
// one looping channel and stops as soon as it is no longer the current
// track.
package music

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"golang.org/x/tools/godoc/vfs"

	"github.com/Lundis/go-spatialaudio/assets"
	"github.com/Lundis/go-spatialaudio/audio"
	"github.com/Lundis/go-spatialaudio/loaders/oggvorbis"
)

// Id identifies a playlist from the registry.
type Id string

type Playlist struct {
	Id      Id
	Tracks  []*Track
	current int
}

type Track struct {
	Path   string
	Name   string
	Author string
	sound  *audio.Sound
}

// Manager owns the loaded playlists and the currently playing one.
// It is driven from the mixer goroutine.
type Manager struct {
	mixer     *audio.Mixer
	playlists map[Id]*Playlist
	active    *Playlist
}

// Load reads the "music.json" registry from a virtual filesystem and
// decodes every referenced Ogg Vorbis track into a device buffer. Tracks
// that fail to load are logged and skipped.
func Load(fileSystem vfs.Opener, dev audio.Device, mixer *audio.Mixer, sampleRate int) (*Manager, error) {
	start := time.Now()
	registry, err := loadRegistry(fileSystem, "music.json")
	if err != nil {
		return nil, err
	}

	playlists := make(map[Id]*Playlist, len(registry))
	for _, pl := range registry {
		tracks := pl.Tracks[:0]
		for _, track := range pl.Tracks {
			raw, err := assets.ReadFile(fileSystem, track.Path)
			if err != nil {
				log.Println("music: failed to read track", track.Path, ":", err.Error())
				continue
			}
			mem, err := oggvorbis.Load(raw, sampleRate)
			if err != nil {
				log.Println("music: failed to decompress track", track.Path, ":", err.Error())
				continue
			}
			buf, err := dev.CreateBuffer(mem)
			if err != nil {
				log.Println("music: failed to upload track", track.Path, ":", err.Error())
				continue
			}
			track.sound = audio.NewSound("music/"+track.Name, buf, true)
			mixer.Register(track.sound)
			tracks = append(tracks, track)
		}
		pl.Tracks = tracks
		playlists[pl.Id] = pl
	}

	log.Printf("music: loaded %d playlists in %.2fs\n", len(playlists), time.Since(start).Seconds())
	return &Manager{mixer: mixer, playlists: playlists}, nil
}

// Play switches to the named playlist, starting with its first unplayed
// track. Playing the already active playlist is a no-op.
func (m *Manager) Play(id Id) {
	if m.active != nil && m.active.Id == id {
		return
	}
	m.active = m.playlists[id]
}

// Stop silences music from the next tick on.
func (m *Manager) Stop() {
	m.active = nil
}

// Next advances the active playlist to its next track.
func (m *Manager) Next() {
	if m.active != nil && len(m.active.Tracks) > 0 {
		m.active.current = (m.active.current + 1) % len(m.active.Tracks)
	}
}

// Current returns the track that is playing, or nil.
func (m *Manager) Current() *Track {
	if m.active == nil || len(m.active.Tracks) == 0 {
		return nil
	}
	return m.active.Tracks[m.active.current]
}

// Step requests the current track from the mixer. Call once per tick,
// between UpdateListener and the mixer's Step; the mixer keeps the track
// on one looping channel for as long as the requests continue.
func (m *Manager) Step() {
	if t := m.Current(); t != nil {
		m.mixer.Play(t.sound)
	}
}

func loadRegistry(fsys vfs.Opener, path string) (registry []*Playlist, err error) {
	data, err := assets.ReadFile(fsys, path)
	if err != nil {
		err = fmt.Errorf("music: failed to open %s: %w", path, err)
		return
	}
	err = json.Unmarshal(data, &registry)
	if err != nil {
		err = fmt.Errorf("music: failed to parse %s: %w", path, err)
	}
	return
}
