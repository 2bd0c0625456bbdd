// ABOUTME: Deep-link addressing for the conversation list, chat and settings screens
// ABOUTME: Unknown cheatsignal:// links fall back to the conversation list

package route

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Scheme is the deep-link URI scheme.
const Scheme = "cheatsignal"

// ErrUnsupportedScheme is returned for URIs outside the cheatsignal scheme.
var ErrUnsupportedScheme = errors.New("unsupported deep link scheme")

// Screen identifies a destination.
type Screen string

const (
	ScreenConversations Screen = "conversations"
	ScreenChat          Screen = "chat"
	ScreenSettings      Screen = "settings"
)

// Route is a resolved destination. ChatID is set only for ScreenChat.
// Fallback marks a link that was not recognised and was sent to the list.
type Route struct {
	Screen   Screen `json:"screen"`
	ChatID   string `json:"chat_id,omitempty"`
	Fallback bool   `json:"fallback,omitempty"`
}

// Conversations is the conversation list route.
func Conversations() Route { return Route{Screen: ScreenConversations} }

// Chat is the route for one conversation.
func Chat(id string) Route { return Route{Screen: ScreenChat, ChatID: id} }

// Settings is the settings route.
func Settings() Route { return Route{Screen: ScreenSettings} }

// Parse resolves a deep link such as cheatsignal://chat/1.
func Parse(uri string) (Route, error) {
	u, err := url.Parse(strings.TrimSpace(uri))
	if err != nil {
		return Route{}, fmt.Errorf("parsing deep link: %w", err)
	}
	if !strings.EqualFold(u.Scheme, Scheme) {
		return Route{}, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	// In cheatsignal://chat/1 the screen is the host and the ID the path.
	// Segments are split on the escaped path so an encoded "/" stays
	// inside the ID, then unescaped exactly once.
	segments := []string{u.Host}
	for _, seg := range strings.Split(strings.Trim(u.EscapedPath(), "/"), "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}

	switch {
	case segments[0] == string(ScreenConversations) && len(segments) == 1:
		return Conversations(), nil
	case segments[0] == string(ScreenSettings) && len(segments) == 1:
		return Settings(), nil
	case segments[0] == string(ScreenChat) && len(segments) == 2:
		id, err := url.PathUnescape(segments[1])
		if err != nil || id == "" {
			break
		}
		return Chat(id), nil
	}

	fallback := Conversations()
	fallback.Fallback = true
	return fallback, nil
}

// DeepLink renders the route as a cheatsignal:// URI.
func (r Route) DeepLink() string {
	switch r.Screen {
	case ScreenChat:
		return Scheme + "://chat/" + url.PathEscape(r.ChatID)
	case ScreenSettings:
		return Scheme + "://settings"
	default:
		return Scheme + "://conversations"
	}
}

// Path renders the route as an in-app navigation path.
func (r Route) Path() string {
	switch r.Screen {
	case ScreenChat:
		return "chat/" + url.PathEscape(r.ChatID)
	case ScreenSettings:
		return "settings"
	default:
		return "conversationList"
	}
}

func (r Route) String() string {
	return r.Path()
}
