// ABOUTME: Conversation handlers: list, get, send with request_id dedupe, viewed flag
// ABOUTME: Also streams conversation snapshots to clients as server-sent events

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/2389/cheatsignal/internal/conversation"
)

const (
	sseKeepAlive = 25 * time.Second

	// detachedSendTimeout bounds a send that carries a request_id once the
	// client that started it is gone.
	detachedSendTimeout = 2 * time.Minute
)

// SendMessageRequest is the JSON request body for POST /api/conversations/{id}/messages.
type SendMessageRequest struct {
	Content   string `json:"content"`
	RequestID string `json:"request_id,omitempty"`
}

// SendMessageResponse reports what the send appended. Replayed is true
// when the result was remembered from an earlier request with the same
// request_id.
type SendMessageResponse struct {
	Outgoing *conversation.Message `json:"outgoing"`
	Reply    *conversation.Message `json:"reply,omitempty"`
	Replayed bool                  `json:"replayed,omitempty"`
}

// SetViewedRequest is the JSON request body for PUT /api/conversations/{id}/viewed.
type SetViewedRequest struct {
	Viewed *bool `json:"viewed"`
}

// handleListConversations returns every conversation, most recent activity first.
func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	convs := s.conversations.Store().List()
	conversation.SortByActivity(convs)
	s.writeJSON(w, http.StatusOK, convs)
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	conv, ok := s.conversations.Store().Get(r.PathValue("id"))
	if !ok {
		s.sendJSONError(w, http.StatusNotFound, "conversation not found")
		return
	}
	s.writeJSON(w, http.StatusOK, conv)
}

// handleSendMessage appends the user's message and, for AI-backed
// conversations, waits for the reply.
//
// A request_id seen within the dedupe window returns the first result
// without appending again. Concurrent retries share a single send.
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req SendMessageRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := id + "\x00" + req.RequestID
	if req.RequestID != "" {
		if result, ok := s.sends.Lookup(key); ok {
			s.writeSendResult(w, result, true)
			return
		}
	}

	if _, ok := s.conversations.Store().Get(id); !ok {
		s.sendJSONError(w, http.StatusNotFound, "conversation not found")
		return
	}

	var (
		result   *conversation.SendResult
		replayed bool
		err      error
	)
	if req.RequestID == "" {
		result, err = s.conversations.SendUserMessage(r.Context(), id, req.Content)
	} else {
		result, replayed, err = s.dedupedSend(r.Context(), key, id, req.Content)
	}

	switch {
	case errors.Is(err, conversation.ErrEmptyMessage):
		s.sendJSONError(w, http.StatusBadRequest, "content is required")
		return
	case err != nil && r.Context().Err() != nil:
		// Client went away; the outgoing message is already committed.
		s.logger.Debug("send cancelled by client", "conversation_id", id, "error", err)
		return
	case err != nil:
		s.logger.Error("failed to send message", "conversation_id", id, "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	s.writeSendResult(w, result, replayed)
}

// dedupedSend runs the send once per key. The send is detached from the
// request that started it, so a client that disconnects mid-reply leaves a
// complete result behind for its retry. A caller whose own request ends
// first stops waiting and gets its context error.
func (s *Server) dedupedSend(ctx context.Context, key, id, content string) (*conversation.SendResult, bool, error) {
	type outcome struct {
		result   *conversation.SendResult
		replayed bool
		err      error
	}
	done := make(chan outcome, 1)

	go func() {
		result, replayed, err := s.sends.Do(key, func() (*conversation.SendResult, error) {
			sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), detachedSendTimeout)
			defer cancel()
			return s.conversations.SendUserMessage(sendCtx, id, content)
		})
		done <- outcome{result, replayed, err}
	}()

	select {
	case o := <-done:
		return o.result, o.replayed, o.err
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

func (s *Server) writeSendResult(w http.ResponseWriter, result *conversation.SendResult, replayed bool) {
	if result.Outgoing == nil {
		// Removed between the lookup and the append.
		s.sendJSONError(w, http.StatusNotFound, "conversation not found")
		return
	}

	s.writeJSON(w, http.StatusOK, SendMessageResponse{
		Outgoing: result.Outgoing,
		Reply:    result.Reply,
		Replayed: replayed,
	})
}

func (s *Server) handleSetViewed(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req SetViewedRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Viewed == nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  "validation failed",
			Fields: map[string]string{"viewed": "viewed is required"},
		})
		return
	}

	if !s.conversations.Store().SetViewed(id, *req.Viewed) {
		s.sendJSONError(w, http.StatusNotFound, "conversation not found")
		return
	}

	conv, _ := s.conversations.Store().Get(id)
	s.writeJSON(w, http.StatusOK, conv)
}

// handleConversationEvents streams the conversation as "conversation"
// events, starting with its current state. Updates are conflated: a slow
// client sees the latest snapshot, not every intermediate one.
func (s *Server) handleConversationEvents(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.conversations.Store().Get(id); !ok {
		s.sendJSONError(w, http.StatusNotFound, "conversation not found")
		return
	}

	// Check streaming support before subscribing (fail fast)
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.logger.Error("streaming not supported")
		s.sendJSONError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	ctx := r.Context()
	updates := s.conversations.Store().Watch(ctx, id)

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepAlive := time.NewTicker(sseKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case conv, ok := <-updates:
			if !ok {
				return
			}
			if conv == nil {
				continue
			}
			if err := s.writeSSEEvent(w, "conversation", conv); err != nil {
				s.logger.Debug("event stream write failed", "conversation_id", id, "error", err)
				return
			}
			flusher.Flush()

		case <-keepAlive.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
