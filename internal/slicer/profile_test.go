package slicer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileFor(t *testing.T) {
	p, err := ProfileFor("Ecommerce")
	require.NoError(t, err)
	assert.Equal(t, "ecommerce", p.Name)
	assert.Equal(t, 3.0, p.PreRoll)
	assert.Equal(t, 5.0, p.PostRoll)
	assert.Equal(t, 2, p.MinHits)
	assert.False(t, p.EnergyAnchors)

	_, err = ProfileFor("unknown")
	assert.Error(t, err)
}

func TestProfileTable(t *testing.T) {
	game, err := ProfileFor("game")
	require.NoError(t, err)
	assert.Equal(t, 8.0, game.PreRoll)
	assert.True(t, game.EnergyAnchors)
	assert.Equal(t, 1, game.MinHits)

	ent, err := ProfileFor("entertainment")
	require.NoError(t, err)
	assert.Equal(t, 10.0, ent.PostRoll)
	assert.Equal(t, 10.0, ent.MinDur)
	assert.Equal(t, 60.0, ent.MaxHard)

	jc, err := ProfileFor("jumpcut")
	require.NoError(t, err)
	assert.True(t, jc.Jumpcut)
	assert.Equal(t, 2.0, jc.MaxClusterGap)
	assert.Equal(t, 90.0, jc.MaxOutputDuration)
}

func TestProfileNames(t *testing.T) {
	names := ProfileNames()
	assert.Equal(t, []string{"ecommerce", "entertainment", "game", "jumpcut"}, names)
}
