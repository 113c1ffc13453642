package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup(t *testing.T) {
	for _, name := range []string{"slopemap", "info", "preview", "help"} {
		c, ok := lookup(name)
		assert.True(t, ok, name)
		assert.Equal(t, name, c.name)
		assert.NotNil(t, c.run)
	}

	_, ok := lookup("terrainrgb")
	assert.False(t, ok)
}

func TestPrintUsage(t *testing.T) {
	var b strings.Builder
	printUsage(&b)

	for _, c := range subCommands {
		assert.Contains(t, b.String(), c.name)
		assert.Contains(t, b.String(), c.description)
	}
}
