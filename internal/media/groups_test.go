package media

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProber maps path suffixes to resolutions.
type fakeProber struct {
	resolutions map[string][2]int
}

func (p *fakeProber) Resolution(ctx context.Context, path string) (int, int, bool) {
	r, ok := p.resolutions[path]
	if !ok {
		return 0, 0, false
	}
	return r[0], r[1], true
}

func TestGroupItems(t *testing.T) {
	prober := &fakeProber{resolutions: map[string][2]int{
		"a.mp4": {1920, 1080},
		"b.mp4": {1920, 1080},
		"c.mp4": {1280, 720},
		"d.mp4": {1920, 1080},
	}}
	items := []*Item{
		{Path: "a.mp4"}, {Path: "b.mp4"}, {Path: "c.mp4"}, {Path: "d.mp4"},
		{Path: "broken.mp4"}, // unprobeable, dropped
	}

	groups := GroupItems(context.Background(), prober, items)
	require.Len(t, groups, 2)
	assert.Equal(t, Resolution{1920, 1080}, groups[0].Resolution)
	assert.Equal(t, 3, groups[0].Count)
	assert.Equal(t, []string{"a.mp4", "b.mp4", "d.mp4"}, groups[0].Files)
	assert.Equal(t, 1, groups[1].Count)
}

func TestGroupItemsAreaTieBreak(t *testing.T) {
	prober := &fakeProber{resolutions: map[string][2]int{
		"small.mp4": {640, 360},
		"big.mp4":   {3840, 2160},
	}}
	items := []*Item{{Path: "small.mp4"}, {Path: "big.mp4"}}

	groups := GroupItems(context.Background(), prober, items)
	require.Len(t, groups, 2)
	// Equal counts: larger area first.
	assert.Equal(t, Resolution{3840, 2160}, groups[0].Resolution)
}

func TestGroupItemsUsesCachedResolution(t *testing.T) {
	prober := &fakeProber{resolutions: map[string][2]int{}}
	items := []*Item{{Path: "cached.mp4", Width: 1920, Height: 1080}}

	groups := GroupItems(context.Background(), prober, items)
	require.Len(t, groups, 1)
	assert.Equal(t, Resolution{1920, 1080}, groups[0].Resolution)
}

func TestTopGroups(t *testing.T) {
	groups := []Group{
		{Count: 3}, {Count: 2}, {Count: 1},
	}
	assert.Len(t, TopGroups(groups, 2), 2)
	assert.Len(t, TopGroups(groups, 0), 3)
	assert.Len(t, TopGroups(groups, 10), 3)
}

func TestResolutionString(t *testing.T) {
	assert.Equal(t, "1920x1080", Resolution{1920, 1080}.String())
	assert.Equal(t, 2073600, Resolution{1920, 1080}.Area())
}
