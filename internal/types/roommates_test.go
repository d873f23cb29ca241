package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifestyleLevels_Valid(t *testing.T) {
	assert.True(t, CleanlinessVeryClean.Valid())
	assert.True(t, NoiseModerate.Valid())
	assert.True(t, SocialIntroverted.Valid())

	assert.False(t, CleanlinessLevel("SPOTLESS").Valid())
	assert.False(t, NoiseLevel("quiet").Valid())
	assert.False(t, SocialLevel("").Valid())
}

func TestLifestyleLevels_Scan(t *testing.T) {
	var c CleanlinessLevel
	require.NoError(t, c.Scan("CLEAN"))
	assert.Equal(t, CleanlinessClean, c)

	var n NoiseLevel
	require.NoError(t, n.Scan([]byte("LOUD")))
	assert.Equal(t, NoiseLoud, n)

	var s SocialLevel
	assert.Error(t, s.Scan("PARTY"))
	assert.Error(t, s.Scan(42))
	assert.Empty(t, s)

	_, err := NoiseLevel("BLARING").Value()
	assert.Error(t, err)
	v, err := SocialSocial.Value()
	require.NoError(t, err)
	assert.Equal(t, "SOCIAL", v)
}
