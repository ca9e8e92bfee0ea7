package rustic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopHandler(_ context.Context, _ *Invocation) error {
	return nil
}

func TestRegistryLookup(t *testing.T) {
	registry := NewRegistry(
		&Command{Name: "ping", Run: noopHandler},
		&Command{
			Name:    "eightball",
			Aliases: []string{"8ball", "8b"},
			Run:     noopHandler,
		},
	)

	ping := registry.Lookup("ping")
	require.NotNil(t, ping)
	assert.Equal(t, "ping", ping.Name)

	// lookups are case-insensitive
	assert.Same(t, ping, registry.Lookup("PING"))
	assert.Same(t, ping, registry.Lookup("Ping"))

	// aliases resolve to the canonical command
	eightball := registry.Lookup("eightball")
	require.NotNil(t, eightball)
	assert.Same(t, eightball, registry.Lookup("8ball"))
	assert.Same(t, eightball, registry.Lookup("8B"))

	assert.Nil(t, registry.Lookup("nope"))
}

func TestRegistryDuplicatePanics(t *testing.T) {
	assert.Panics(
		t, func() {
			NewRegistry(
				&Command{Name: "ping", Run: noopHandler},
				&Command{Name: "pong", Aliases: []string{"ping"}, Run: noopHandler},
			)
		},
	)
}

func TestRegistryCommandsSorted(t *testing.T) {
	registry := NewRegistry(
		&Command{Name: "urban", Run: noopHandler},
		&Command{Name: "about", Run: noopHandler},
		&Command{Name: "ping", Run: noopHandler},
	)
	names := registry.Names()
	assert.Equal(t, []string{"about", "ping", "urban"}, names)

	commands := registry.Commands()
	require.Len(t, commands, 3)
	assert.Equal(t, "about", commands[0].Name)
	assert.Equal(t, "urban", commands[2].Name)
}

func TestRegistrySuggest(t *testing.T) {
	registry := NewRegistry(
		&Command{Name: "ping", Run: noopHandler},
		&Command{Name: "prefix", Run: noopHandler},
		&Command{
			Name:    "grayscale",
			Aliases: []string{"gray", "grey", "greyscale"},
			Run:     noopHandler,
		},
	)

	testCases := []struct {
		input    string
		expected string
	}{
		{"pingg", "ping"},
		{"pnig", "ping"},
		{"PREFIX", "prefix"},
		{"prefi", "prefix"},
		// matching an alias still suggests the canonical name
		{"grye", "grayscale"},
		{"zzzzzz", ""},
		{"p", ""},
	}
	for _, tc := range testCases {
		t.Run(
			tc.input, func(t *testing.T) {
				assert.Equal(
					t,
					tc.expected,
					registry.Suggest(tc.input, DefaultSuggestionMax),
				)
			},
		)
	}
}
