package slicer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jumpcutProfile(t *testing.T) Profile {
	t.Helper()
	p, err := ProfileFor("jumpcut")
	require.NoError(t, err)
	return p
}

func TestBuildClustersSelectsNeighbors(t *testing.T) {
	p := jumpcutProfile(t)
	transcript := &Transcript{Segments: []Segment{
		{Start: 0, End: 1, Text: "铺垫"},
		{Start: 1, End: 2, Text: "重点来了"},
		{Start: 2, End: 3, Text: "展开"},
	}}

	clusters := BuildClusters(transcript, p)
	require.Len(t, clusters, 1)
	// The keyword sentence plus both immediate neighbors.
	assert.Len(t, clusters[0].Segments, 3)
}

func TestBuildClustersSplitsOnGap(t *testing.T) {
	p := jumpcutProfile(t)
	transcript := &Transcript{Segments: []Segment{
		{Start: 0, End: 1, Text: "第一个重点"},
		{Start: 50, End: 51, Text: "第二个关键内容"},
	}}

	clusters := BuildClusters(transcript, p)
	require.Len(t, clusters, 2)
	assert.Len(t, clusters[0].Segments, 1)
	assert.Len(t, clusters[1].Segments, 1)
}

func TestBuildClustersKeepsSmallGaps(t *testing.T) {
	p := jumpcutProfile(t)
	transcript := &Transcript{Segments: []Segment{
		{Start: 0, End: 1, Text: "重点一"},
		{Start: 2, End: 3, Text: "重点二"}, // 1s gap, under MaxClusterGap
	}}

	clusters := BuildClusters(transcript, p)
	require.Len(t, clusters, 1)
	assert.Len(t, clusters[0].Segments, 2)
}

func TestBuildClustersNoMatches(t *testing.T) {
	p := jumpcutProfile(t)
	transcript := &Transcript{Segments: []Segment{
		{Start: 0, End: 1, Text: "普通内容"},
	}}

	assert.Empty(t, BuildClusters(transcript, p))
	assert.Empty(t, BuildClusters(&Transcript{}, p))
}

func TestCapCluster(t *testing.T) {
	c := Cluster{Segments: []Segment{
		{Start: 0, End: 40},
		{Start: 41, End: 80},
		{Start: 81, End: 120},
	}}

	capped := capCluster(c, 90)
	require.Len(t, capped.Segments, 2)
	assert.InDelta(t, 79, capped.Duration(), 1e-9)
}

func TestCapClusterKeepsAtLeastOne(t *testing.T) {
	c := Cluster{Segments: []Segment{{Start: 0, End: 500}}}
	capped := capCluster(c, 90)
	assert.Len(t, capped.Segments, 1)
}

func TestClusterDuration(t *testing.T) {
	c := Cluster{Segments: []Segment{
		{Start: 0, End: 2},
		{Start: 5, End: 8},
	}}
	assert.InDelta(t, 5, c.Duration(), 1e-9)
}
