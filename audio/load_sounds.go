package audio

import (
	"log"
	pathpkg "path"
	"strings"
	"time"

	"golang.org/x/tools/godoc/vfs"
)

// soundDirMarker separates the on-disk location of sound assets from
// their logical names: everything after the last "sounds/" in a path,
// minus the extension and the loop marker, is the name.
const soundDirMarker = "sounds/"

// loopMarker at the end of a file name (before the extension) marks the
// sound as looping and is stripped from the logical name.
const loopMarker = '~'

// LoadSounds queues every file under dir for background loading and
// starts the load worker. Files that do not yield a sound name (wrong
// extension, no "sounds/" path component) are skipped silently; files
// that fail to decode are logged and skipped.
//
// Progress reports how far the worker has come. LoadSounds may be called
// again to queue more files.
func (m *Mixer) LoadSounds(fsys vfs.FileSystem, dir string) error {
	var paths []string
	if err := listFiles(fsys, dir, &paths); err != nil {
		return err
	}

	m.mu.Lock()
	m.pending = append(m.pending, paths...)
	start := false
	if len(m.pending) > 0 {
		if m.workerDone != nil {
			// A previous worker may have drained the queue and exited.
			select {
			case <-m.workerDone:
				m.workerDone = nil
			default:
			}
		}
		if m.workerDone == nil {
			m.workerDone = make(chan struct{})
			start = true
		}
	}
	done := m.workerDone
	m.mu.Unlock()

	if start {
		go m.loadWorker(done)
	}
	return nil
}

// Progress returns the fraction of queued sounds that have finished
// loading, in [0, 1]. With nothing pending it returns 1.
func (m *Mixer) Progress() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.pending) == 0 {
		return 1
	}
	done := float64(m.loaded)
	total := done + float64(len(m.pending))
	return done / total
}

// loadWorker drains the pending queue one file at a time. It exits when
// the queue is empty or the mixer is shutting down; a path is only popped
// once its load attempt is over, so Progress counts it as remaining while
// it decodes.
func (m *Mixer) loadWorker(done chan struct{}) {
	start := time.Now()
	count := 0
	for {
		select {
		case <-m.stop:
			close(done)
			return
		default:
		}

		m.mu.Lock()
		n := len(m.pending)
		if n == 0 {
			// Retire and close in the same critical section as the
			// emptiness check, so a concurrent LoadSounds either appends
			// before it (keeping this worker alive) or finds no worker
			// registered and starts a fresh one. Deciding to exit,
			// unlocking and closing afterwards would let an append slip
			// into the gap and strand its paths with no worker.
			if m.workerDone == done {
				m.workerDone = nil
			}
			close(done)
			m.mu.Unlock()
			break
		}
		path := m.pending[n-1]
		m.mu.Unlock()

		if name := soundName(path); name != "" {
			buf, looping, err := m.loader.Load(path)
			if err != nil {
				log.Println("audio: failed to load", path, ":", err.Error())
			} else {
				m.mu.Lock()
				m.lookupLocked(name).setLoaded(buf, looping)
				m.loaded++
				m.mu.Unlock()
				count++
			}
		}

		// LoadSounds may have appended more paths in the meantime; remove
		// exactly the one that was just processed.
		m.mu.Lock()
		if len(m.pending) >= n {
			m.pending = append(m.pending[:n-1], m.pending[n:]...)
		} else if len(m.pending) > 0 {
			m.pending = m.pending[:len(m.pending)-1]
		}
		m.mu.Unlock()
	}

	log.Printf("audio: loaded %d sounds in %.2fs\n", count, time.Since(start).Seconds())
}

// soundName derives the logical name of a sound from its path:
// "assets/sounds/engine/hum~.wav" becomes "engine/hum". It returns ""
// for paths that are not .wav files under a "sounds/" directory.
func soundName(path string) string {
	if !strings.HasSuffix(path, ".wav") {
		return ""
	}
	i := strings.LastIndex(path, soundDirMarker)
	if i < 0 {
		return ""
	}
	name := path[i+len(soundDirMarker) : len(path)-len(".wav")]
	if name == "" {
		return ""
	}
	if name[len(name)-1] == loopMarker {
		name = name[:len(name)-1]
	}
	return name
}

func listFiles(fsys vfs.FileSystem, dir string, out *[]string) error {
	infos, err := fsys.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, fi := range infos {
		p := pathpkg.Join(dir, fi.Name())
		if fi.IsDir() {
			if err := listFiles(fsys, p, out); err != nil {
				return err
			}
		} else {
			*out = append(*out, p)
		}
	}
	return nil
}
