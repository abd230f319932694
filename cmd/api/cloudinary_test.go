package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPublicIDFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://res.cloudinary.com/demo/image/upload/v1740815725/hotels/hotel_3_1.png", "hotels/hotel_3_1"},
		{"https://res.cloudinary.com/demo/image/upload/hotels/hotel_3_1.jpg", "hotels/hotel_3_1"},
		{"https://res.cloudinary.com/demo/image/upload/v12/lobby", "lobby"},
	}
	for _, tt := range tests {
		got, err := extractPublicIDFromURL(tt.url)
		require.NoError(t, err, tt.url)
		assert.Equal(t, tt.want, got)
	}

	_, err := extractPublicIDFromURL("https://example.com/images/lobby.png")
	assert.Error(t, err)
}

func TestIsVersionSegment(t *testing.T) {
	assert.True(t, isVersionSegment("v1740815725"))
	assert.False(t, isVersionSegment("v"))
	assert.False(t, isVersionSegment("version"))
	assert.False(t, isVersionSegment("hotels"))
}
