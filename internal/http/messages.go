package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"aulago/backend/internal/authz"
	"aulago/backend/internal/model"
)

type messageResponse struct {
	ID         string `json:"id"`
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Subject    string `json:"subject"`
	Content    string `json:"content"`
	Read       bool   `json:"read"`
	SentAt     int64  `json:"sentAt"`
}

func toMessageResponse(message model.Message) messageResponse {
	return messageResponse{
		ID:         message.ID,
		SenderID:   message.SenderID,
		ReceiverID: message.ReceiverID,
		Subject:    message.Subject,
		Content:    message.Content,
		Read:       message.Read,
		SentAt:     message.SentAt.Unix(),
	}
}

type sendMessageRequest struct {
	ReceiverID string `json:"receiverId"`
	Subject    string `json:"subject"`
	Content    string `json:"content"`
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	principal := principalFromContext(r.Context())

	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil || req.ReceiverID == "" || req.Content == "" {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.ReceiverID == principal.UserID {
		writeError(w, http.StatusBadRequest, "invalid_receiver")
		return
	}

	if _, err := s.store.GetUserByID(r.Context(), req.ReceiverID); err != nil {
		storeError(w, err)
		return
	}

	message := model.Message{
		ID:         uuid.NewString(),
		SenderID:   principal.UserID,
		ReceiverID: req.ReceiverID,
		Subject:    req.Subject,
		Content:    req.Content,
		SentAt:     time.Now().UTC(),
	}
	if err := s.store.CreateMessage(r.Context(), message); err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMessageResponse(message))
}

func (s *Server) handleInbox(w http.ResponseWriter, r *http.Request) {
	principal := principalFromContext(r.Context())
	messages, err := s.store.ListInbox(r.Context(), principal.UserID)
	if err != nil {
		storeError(w, err)
		return
	}
	resp := make([]messageResponse, 0, len(messages))
	for _, message := range messages {
		resp = append(resp, toMessageResponse(message))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	principal := principalFromContext(r.Context())
	count, err := s.store.CountUnread(r.Context(), principal.UserID)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"unread": count})
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	principal := principalFromContext(r.Context())

	message, err := s.store.GetMessage(r.Context(), chi.URLParam(r, "messageID"))
	if err != nil {
		storeError(w, err)
		return
	}
	// Only the receiver decides a message has been read.
	if err := authz.RequireOwner(principal, message.ReceiverID); err != nil {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	if err := s.store.MarkMessageRead(r.Context(), message.ID); err != nil {
		storeError(w, err)
		return
	}
	message.Read = true
	writeJSON(w, http.StatusOK, toMessageResponse(message))
}
