package slicer

import (
	"fmt"
	"sort"
	"strings"
)

// Profile is a named parameter bundle for one business vertical. The
// slicer receives the selected record as plain data.
type Profile struct {
	Name string

	// PreRoll/PostRoll expand each anchor into a window, in seconds.
	PreRoll  float64
	PostRoll float64
	// MinDur and MaxHard bound the duration of a surviving window.
	MinDur  float64
	MaxHard float64
	// MinHits is the minimum keyword hits a window needs to survive.
	MinHits int

	// HighKeywords create anchors; MidKeywords only count toward hits.
	HighKeywords []string
	MidKeywords  []string
	// VisualKeywords drive the optional vision filter.
	VisualKeywords []string

	// EnergyAnchors injects anchors at audio energy peaks.
	EnergyAnchors bool

	// Jumpcut selects the sentence-cluster strategy instead of windows.
	Jumpcut bool
	// MaxClusterGap is the largest silence between clustered sentences.
	MaxClusterGap float64
	// MaxOutputDuration caps one cluster's rendered length.
	MaxOutputDuration float64
}

var profiles = map[string]Profile{
	"ecommerce": {
		Name:    "ecommerce",
		PreRoll: 3.0, PostRoll: 5.0,
		MinDur: 5.0, MaxHard: 60.0, MinHits: 2,
		HighKeywords:   []string{"买", "下单", "优惠", "秒杀", "价格", "链接", "deal", "discount", "buy now"},
		MidKeywords:    []string{"质量", "推荐", "喜欢", "好用", "品牌", "free shipping"},
		VisualKeywords: []string{"product", "box", "bottle", "holding"},
	},
	"game": {
		Name:    "game",
		PreRoll: 8.0, PostRoll: 5.0,
		MinDur: 5.0, MaxHard: 60.0, MinHits: 1,
		HighKeywords:   []string{"五杀", "团灭", "超神", "逆转", "绝杀", "ace", "clutch", "pentakill"},
		MidKeywords:    []string{"操作", "细节", "节奏", "gg", "nice"},
		VisualKeywords: []string{"game", "screen", "character"},
		EnergyAnchors:  true,
	},
	"entertainment": {
		Name:    "entertainment",
		PreRoll: 5.0, PostRoll: 10.0,
		MinDur: 10.0, MaxHard: 60.0, MinHits: 1,
		HighKeywords:   []string{"笑死", "太好笑", "名场面", "高能", "震惊", "hilarious", "insane"},
		MidKeywords:    []string{"真的", "离谱", "经典", "wow"},
		VisualKeywords: []string{"person", "face", "stage"},
	},
	"jumpcut": {
		Name:              "jumpcut",
		MinDur:            1.0,
		HighKeywords:      []string{"重点", "关键", "总结", "注意", "first", "finally", "important"},
		MidKeywords:       []string{"所以", "因为", "其实", "because", "so"},
		Jumpcut:           true,
		MaxClusterGap:     2.0,
		MaxOutputDuration: 90.0,
	},
}

// ProfileFor returns the named profile.
func ProfileFor(name string) (Profile, error) {
	p, ok := profiles[strings.ToLower(name)]
	if !ok {
		return Profile{}, fmt.Errorf("unknown slice profile %q", name)
	}
	return p, nil
}

// ProfileNames lists the available profiles.
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
