package music

import (
	"testing"

	"golang.org/x/tools/godoc/vfs/mapfs"

	"github.com/Lundis/go-spatialaudio/audio"
	"github.com/Lundis/go-spatialaudio/vec"
)

// countingDevice implements audio.Device and counts channel starts.
type countingDevice struct {
	nextBuf  audio.BufferID
	nextChan audio.ChannelID
	playing  map[audio.ChannelID]bool
	starts   int
}

func newCountingDevice() *countingDevice {
	return &countingDevice{playing: make(map[audio.ChannelID]bool)}
}

func (d *countingDevice) CreateBuffer([]float32) (audio.BufferID, error) {
	d.nextBuf++
	return d.nextBuf, nil
}

func (d *countingDevice) FreeBuffer(audio.BufferID) {}

func (d *countingDevice) AllocChannel() (audio.ChannelID, error) {
	d.nextChan++
	return d.nextChan, nil
}

func (d *countingDevice) FreeChannel(audio.ChannelID)                       {}
func (d *countingDevice) BindChannel(audio.ChannelID, audio.BufferID, bool) {}

func (d *countingDevice) SetChannelSpatial(audio.ChannelID, vec.Point, vec.Point) {}

func (d *countingDevice) StartChannel(ch audio.ChannelID) {
	d.playing[ch] = true
	d.starts++
}

func (d *countingDevice) StopChannel(ch audio.ChannelID) {
	d.playing[ch] = false
}

func (d *countingDevice) ChannelPlaying(ch audio.ChannelID) bool { return d.playing[ch] }
func (d *countingDevice) SetGain(float64)                        {}
func (d *countingDevice) Close()                                 {}

func testManager(mixer *audio.Mixer, tracks ...*Track) *Manager {
	pl := &Playlist{Id: "battle", Tracks: tracks}
	return &Manager{
		mixer:     mixer,
		playlists: map[Id]*Playlist{pl.Id: pl},
	}
}

func testTrack(dev *countingDevice, mixer *audio.Mixer, name string) *Track {
	buf, _ := dev.CreateBuffer(nil)
	sound := audio.NewSound("music/"+name, buf, true)
	mixer.Register(sound)
	return &Track{Path: name + ".ogg", Name: name, sound: sound}
}

func TestLoadRegistry(t *testing.T) {
	fsys := mapfs.New(map[string]string{
		"music.json": `[
			{"Id": "ambient", "Tracks": [
				{"Path": "music/drift.ogg", "Name": "Drift", "Author": "A. Composer"}
			]}
		]`,
	})
	registry, err := loadRegistry(fsys, "/music.json")
	if err != nil {
		t.Fatalf("loadRegistry: %s", err.Error())
	}
	if len(registry) != 1 || registry[0].Id != "ambient" {
		t.Fatalf("unexpected registry: %+v", registry)
	}
	if len(registry[0].Tracks) != 1 || registry[0].Tracks[0].Name != "Drift" {
		t.Fatalf("unexpected tracks: %+v", registry[0].Tracks)
	}
}

func TestLoadSkipsBrokenTracks(t *testing.T) {
	dev := newCountingDevice()
	mixer := audio.New(dev, nil, nil)
	fsys := mapfs.New(map[string]string{
		"music.json": `[
			{"Id": "ambient", "Tracks": [
				{"Path": "music/missing.ogg", "Name": "Missing"},
				{"Path": "music/broken.ogg", "Name": "Broken"}
			]}
		]`,
		"music/broken.ogg": "not an ogg stream",
	})
	mgr, err := Load(fsys, dev, mixer, 44100)
	if err != nil {
		t.Fatalf("Load: %s", err.Error())
	}
	mgr.Play("ambient")
	if mgr.Current() != nil {
		t.Fatalf("playlist with only broken tracks should have no current track")
	}
	mgr.Step() // must not panic with nothing playable
}

func TestTrackOccupiesOneLoopingChannel(t *testing.T) {
	dev := newCountingDevice()
	mixer := audio.New(dev, nil, nil)
	mgr := testManager(mixer, testTrack(dev, mixer, "drift"))

	mgr.Play("battle")
	for i := 0; i < 3; i++ {
		mixer.UpdateListener(vec.Point{}, vec.Point{})
		mgr.Step()
		mixer.Step()
	}
	if dev.starts != 1 {
		t.Fatalf("looping track was started %d times over 3 ticks, want 1", dev.starts)
	}

	// Stopping the music stops the channel on the next tick.
	mgr.Stop()
	mixer.UpdateListener(vec.Point{}, vec.Point{})
	mgr.Step()
	mixer.Step()
	for ch, playing := range dev.playing {
		if playing {
			t.Fatalf("channel %d still playing after Stop", ch)
		}
	}
}

func TestNextCyclesTracks(t *testing.T) {
	dev := newCountingDevice()
	mixer := audio.New(dev, nil, nil)
	a := testTrack(dev, mixer, "a")
	b := testTrack(dev, mixer, "b")
	mgr := testManager(mixer, a, b)

	mgr.Play("battle")
	if mgr.Current() != a {
		t.Fatalf("expected first track to start")
	}
	mgr.Next()
	if mgr.Current() != b {
		t.Fatalf("expected second track after Next")
	}
	mgr.Next()
	if mgr.Current() != a {
		t.Fatalf("expected Next to wrap around")
	}

	// Re-playing the active playlist must not reset its position.
	mgr.Next()
	mgr.Play("battle")
	if mgr.Current() != b {
		t.Fatalf("re-playing the active playlist reset the track position")
	}
}
