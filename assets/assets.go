// Package assets provides the default asset loader: it reads sound files
// from a virtual filesystem, decodes them and uploads the samples to a
// playback device.
package assets

import (
	"fmt"
	"io"
	pathpkg "path"
	"strings"

	"golang.org/x/tools/godoc/vfs"

	"github.com/Lundis/go-spatialaudio/audio"
	"github.com/Lundis/go-spatialaudio/loaders/oggvorbis"
	"github.com/Lundis/go-spatialaudio/loaders/wav"
)

// FileLoader implements audio.AssetLoader on top of a virtual filesystem.
// The format is chosen by file extension (.wav or .ogg), and a '~' at the
// end of the file name, before the extension, marks the sound as looping.
type FileLoader struct {
	FS         vfs.Opener
	Device     audio.Device
	SampleRate int
}

func (l *FileLoader) Load(path string) (audio.BufferID, bool, error) {
	data, err := ReadFile(l.FS, path)
	if err != nil {
		return 0, false, fmt.Errorf("assets: %s: %w", path, err)
	}

	var samples []float32
	switch ext := pathpkg.Ext(path); ext {
	case ".wav":
		samples, err = wav.LoadWav(data, l.SampleRate)
	case ".ogg":
		samples, err = oggvorbis.Load(data, l.SampleRate)
	default:
		return 0, false, fmt.Errorf("assets: %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return 0, false, fmt.Errorf("assets: %s: %w", path, err)
	}

	buf, err := l.Device.CreateBuffer(samples)
	if err != nil {
		return 0, false, fmt.Errorf("assets: %s: %w", path, err)
	}
	return buf, Looping(path), nil
}

// Looping reports whether the file name carries the trailing '~' loop
// marker, as in "engine/hum~.wav".
func Looping(path string) bool {
	base := pathpkg.Base(path)
	base = strings.TrimSuffix(base, pathpkg.Ext(base))
	return strings.HasSuffix(base, "~")
}

// ReadFile reads a whole file from a virtual filesystem.
func ReadFile(fsys vfs.Opener, path string) (data []byte, err error) {
	file, err := fsys.Open(path)
	if err != nil {
		return
	}
	data, err = io.ReadAll(file)
	_ = file.Close()
	return
}
