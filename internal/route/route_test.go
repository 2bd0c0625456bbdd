// ABOUTME: Tests for deep-link parsing and rendering
// ABOUTME: Includes the unknown-link fallback and round trips for every screen

package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		uri  string
		want Route
	}{
		{"cheatsignal://conversations", Conversations()},
		{"cheatsignal://settings", Settings()},
		{"cheatsignal://chat/1", Chat("1")},
		{"CHEATSIGNAL://chat/abc-123/", Chat("abc-123")},
		{"cheatsignal://chat/with%20space", Chat("with space")},
		{"cheatsignal://unknown", Route{Screen: ScreenConversations, Fallback: true}},
		{"cheatsignal://invalid", Route{Screen: ScreenConversations, Fallback: true}},
		{"cheatsignal://chat", Route{Screen: ScreenConversations, Fallback: true}},
		{"cheatsignal://chat/1/extra", Route{Screen: ScreenConversations, Fallback: true}},
		{"cheatsignal://settings/deep", Route{Screen: ScreenConversations, Fallback: true}},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			got, err := Parse(tt.uri)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_RejectsOtherSchemes(t *testing.T) {
	for _, uri := range []string{"https://example.com/chat/1", "chat/1", ""} {
		_, err := Parse(uri)
		assert.ErrorIs(t, err, ErrUnsupportedScheme, uri)
	}
}

func TestRoute_Render(t *testing.T) {
	tests := []struct {
		route    Route
		deepLink string
		path     string
	}{
		{Conversations(), "cheatsignal://conversations", "conversationList"},
		{Chat("1"), "cheatsignal://chat/1", "chat/1"},
		{Settings(), "cheatsignal://settings", "settings"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.deepLink, tt.route.DeepLink())
			assert.Equal(t, tt.path, tt.route.Path())

			back, err := Parse(tt.route.DeepLink())
			require.NoError(t, err)
			assert.Equal(t, tt.route, back)
		})
	}
}

func TestChat_RoundTripsReservedCharacters(t *testing.T) {
	for _, id := range []string{"a%b", "a/b", "100%", "with space", "a%2Fb", "é-1"} {
		t.Run(id, func(t *testing.T) {
			got, err := Parse(Chat(id).DeepLink())
			require.NoError(t, err)
			assert.Equal(t, Chat(id), got)
		})
	}
}
