package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"batchchat/internal/entity"
	"batchchat/internal/usecase"

	"github.com/go-chi/chi/v5"
)

type Response struct {
	Message string `json:"message"`
}

// MessageHandler exposes the history and search reads plus the read-state
// mutations over HTTP. Sends never happen here; messages are created only
// by the websocket send path.
type MessageHandler struct {
	historyUc usecase.HistoryUsecase
}

func NewMessageHandler(historyUc usecase.HistoryUsecase) *MessageHandler {
	return &MessageHandler{
		historyUc: historyUc,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, usecase.ErrUserNotFound), errors.Is(err, usecase.ErrMessageNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrEmptyContent),
		errors.Is(err, entity.ErrContentTooLong),
		errors.Is(err, entity.ErrMissingRecipient),
		errors.Is(err, entity.ErrMissingScopeId),
		errors.Is(err, usecase.ErrInvalidDestination):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func pathId(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func pageParams(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	return page, size
}

func (h *MessageHandler) GetDirectMessages(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	otherUserId, err := pathId(r, "otherUserId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	page, size := pageParams(r)
	result, err := h.historyUc.GetDirectMessages(r.Context(), claims.UserId, otherUserId, page, size)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *MessageHandler) GetChallengeMessages(w http.ResponseWriter, r *http.Request) {
	challengeId, err := pathId(r, "challengeId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid challenge id")
		return
	}

	page, size := pageParams(r)
	result, err := h.historyUc.GetChallengeMessages(r.Context(), challengeId, page, size)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *MessageHandler) GetMentorshipMessages(w http.ResponseWriter, r *http.Request) {
	mentorshipId, err := pathId(r, "mentorshipId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid mentorship id")
		return
	}

	page, size := pageParams(r)
	result, err := h.historyUc.GetMentorshipMessages(r.Context(), mentorshipId, page, size)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *MessageHandler) GetLastConversations(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	conversations, err := h.historyUc.GetLastConversations(r.Context(), claims.UserId)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, conversations)
}

func (h *MessageHandler) GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	count, err := h.historyUc.GetUnreadCount(r.Context(), claims.UserId)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": count})
}

func (h *MessageHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	messageId, err := pathId(r, "messageId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid message id")
		return
	}

	if err := h.historyUc.MarkAsRead(r.Context(), messageId, claims.UserId); err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, Response{Message: "ok"})
}

func (h *MessageHandler) MarkConversationAsRead(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	peerId, err := pathId(r, "userId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	updated, err := h.historyUc.MarkConversationAsRead(r.Context(), claims.UserId, peerId)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}

func (h *MessageHandler) Search(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	query := r.URL.Query().Get("q")
	challengeId, _ := strconv.ParseInt(r.URL.Query().Get("challengeId"), 10, 64)
	mentorshipId, _ := strconv.ParseInt(r.URL.Query().Get("mentorshipId"), 10, 64)

	page, size := pageParams(r)
	result, err := h.historyUc.Search(r.Context(), query, claims.UserId, challengeId, mentorshipId, page, size)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}
