package media

import (
	"context"
	"fmt"
	"sort"
)

// Resolution is the (width, height) key a group is bucketed by.
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// String formats the resolution as "WxH", the form used for the
// normalized output tree.
func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// Area returns the pixel count, used as the grouping tie-break.
func (r Resolution) Area() int {
	return r.Width * r.Height
}

// Group is a bucket of files sharing one resolution. Groups over a scan
// are mutually disjoint and their counts sum to the scanned file count.
type Group struct {
	Resolution Resolution `json:"resolution"`
	Count      int        `json:"count"`
	Files      []string   `json:"files"`
}

// ResolutionProber is the probe dependency for grouping. Satisfied by
// *ffmpeg.Prober.
type ResolutionProber interface {
	Resolution(ctx context.Context, path string) (int, int, bool)
}

// GroupByResolution scans dir for videos and buckets them by (W, H).
// Files whose resolution cannot be probed are dropped from all groups.
// The result is sorted by (count desc, area desc) so the ordering is
// deterministic for a given input set.
func GroupByResolution(ctx context.Context, prober ResolutionProber, dir string, recursive bool) ([]Group, error) {
	items, err := List(dir, ListOptions{Recursive: recursive, Kinds: []Kind{KindVideo}})
	if err != nil {
		return nil, err
	}
	return GroupItems(ctx, prober, items), nil
}

// GroupItems buckets already-enumerated items by probed resolution.
func GroupItems(ctx context.Context, prober ResolutionProber, items []*Item) []Group {
	buckets := make(map[Resolution]*Group)
	for _, item := range items {
		w, h := item.Width, item.Height
		if w == 0 || h == 0 {
			var ok bool
			w, h, ok = prober.Resolution(ctx, item.Path)
			if !ok {
				continue
			}
			item.Width, item.Height = w, h
		}
		key := Resolution{Width: w, Height: h}
		g, exists := buckets[key]
		if !exists {
			g = &Group{Resolution: key}
			buckets[key] = g
		}
		g.Count++
		g.Files = append(g.Files, item.Path)
	}

	groups := make([]Group, 0, len(buckets))
	for _, g := range buckets {
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Resolution.Area() > groups[j].Resolution.Area()
	})
	return groups
}

// TopGroups returns the first n groups (all when n <= 0 or exceeds the
// group count).
func TopGroups(groups []Group, n int) []Group {
	if n <= 0 || n >= len(groups) {
		return groups
	}
	return groups[:n]
}
