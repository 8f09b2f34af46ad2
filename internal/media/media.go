// Package media provides file classification, directory enumeration and
// resolution grouping for the pipeline.
package media

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Kind classifies a file by extension.
type Kind string

const (
	KindVideo   Kind = "video"
	KindImage   Kind = "image"
	KindAudio   Kind = "audio"
	KindUnknown Kind = "unknown"
)

var extKinds = map[string]Kind{
	// Video
	".mp4": KindVideo, ".mov": KindVideo, ".mkv": KindVideo, ".avi": KindVideo,
	".flv": KindVideo, ".webm": KindVideo, ".ts": KindVideo, ".m4v": KindVideo,
	".wmv": KindVideo, ".mpg": KindVideo, ".mpeg": KindVideo,

	// Image
	".jpg": KindImage, ".jpeg": KindImage, ".png": KindImage, ".bmp": KindImage,
	".webp": KindImage, ".gif": KindImage, ".tif": KindImage, ".tiff": KindImage,

	// Audio
	".mp3": KindAudio, ".wav": KindAudio, ".aac": KindAudio, ".flac": KindAudio,
	".m4a": KindAudio, ".ogg": KindAudio, ".wma": KindAudio, ".opus": KindAudio,
}

// Classify returns the media kind for a path based on its extension.
func Classify(path string) Kind {
	ext := strings.ToLower(filepath.Ext(path))
	if kind, ok := extKinds[ext]; ok {
		return kind
	}
	return KindUnknown
}

// Item is an identified media file on disk. Probed attributes are cached
// after the first probe; the item is otherwise immutable.
type Item struct {
	Path      string  `json:"path"`
	Kind      Kind    `json:"kind"`
	SizeBytes int64   `json:"size_bytes"`
	Width     int     `json:"width,omitempty"`
	Height    int     `json:"height,omitempty"`
	Duration  float64 `json:"duration,omitempty"`
	Codec     string  `json:"codec,omitempty"`
	PixFmt    string  `json:"pix_fmt,omitempty"`
	FPS       float64 `json:"fps,omitempty"`
}

// NewItem creates an Item for the given path, resolving it to absolute
// form and stat'ing it for size.
func NewItem(path string) (*Item, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	return &Item{
		Path:      abs,
		Kind:      Classify(abs),
		SizeBytes: info.Size(),
	}, nil
}

// ListOptions controls directory enumeration.
type ListOptions struct {
	// Recursive descends into subdirectories.
	Recursive bool
	// Kinds filters results; empty means all known media kinds.
	Kinds []Kind
}

// List enumerates media files under dir. Unknown-kind files are skipped.
// Results are sorted by path for deterministic downstream grouping.
func List(dir string, opts ListOptions) ([]*Item, error) {
	wanted := make(map[Kind]bool, len(opts.Kinds))
	for _, k := range opts.Kinds {
		wanted[k] = true
	}

	var items []*Item
	appendItem := func(path string) error {
		kind := Classify(path)
		if kind == KindUnknown {
			return nil
		}
		if len(wanted) > 0 && !wanted[kind] {
			return nil
		}
		item, err := NewItem(path)
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		items = append(items, item)
		return nil
	}

	if opts.Recursive {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			return appendItem(path)
		})
		if err != nil {
			return nil, err
		}
	} else {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if err := appendItem(filepath.Join(dir, e.Name())); err != nil {
				return nil, err
			}
		}
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Path < items[j].Path })
	return items, nil
}
