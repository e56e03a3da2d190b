package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveInterval(t *testing.T) {
	d, err := resolveInterval("", 0)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, d)

	d, err = resolveInterval("long", 0)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, d)

	d, err = resolveInterval("", 30*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, d)

	_, err = resolveInterval("forever", 0)
	assert.Error(t, err)

	_, err = resolveInterval("short", time.Second)
	assert.Error(t, err)

	_, err = resolveInterval("", -time.Second)
	assert.Error(t, err)
}
