// ABOUTME: Tests for deep-link resolution
// ABOUTME: Covers known screens, chat existence, fallback and foreign schemes

package api

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/cheatsignal/internal/route"
)

func TestResolveLink(t *testing.T) {
	env := newTestEnv(t)

	resolve := func(uri string) (int, ResolveLinkResponse, errorResponse) {
		rec := env.do(t, http.MethodGet, "/api/links/resolve?uri="+url.QueryEscape(uri), nil)
		if rec.Code != http.StatusOK {
			return rec.Code, ResolveLinkResponse{}, decodeJSON[errorResponse](t, rec)
		}
		return rec.Code, decodeJSON[ResolveLinkResponse](t, rec), errorResponse{}
	}

	code, resp, _ := resolve("cheatsignal://chat/1")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, route.ScreenChat, resp.Screen)
	assert.Equal(t, "1", resp.ChatID)
	assert.Equal(t, "chat/1", resp.Path)
	assert.Equal(t, "cheatsignal://chat/1", resp.DeepLink)
	require.NotNil(t, resp.Exists)
	assert.True(t, *resp.Exists)

	_, resp, _ = resolve("cheatsignal://chat/404")
	require.NotNil(t, resp.Exists)
	assert.False(t, *resp.Exists)

	_, resp, _ = resolve("cheatsignal://settings")
	assert.Equal(t, route.ScreenSettings, resp.Screen)
	assert.Nil(t, resp.Exists)

	_, resp, _ = resolve("cheatsignal://somewhere/else")
	assert.Equal(t, route.ScreenConversations, resp.Screen)
	assert.True(t, resp.Fallback)

	code, _, errResp := resolve("https://example.com/chat/1")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "unsupported deep link scheme", errResp.Error)

	rec := env.do(t, http.MethodGet, "/api/links/resolve", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
