package chat

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	chatService "github.com/zhouzirui/chat-widget/backend/internal/service/chat"
	"github.com/zhouzirui/chat-widget/backend/pkg/utils"
)

// Handler 聊天服务的HTTP处理器
type Handler struct {
	chatSvc *chatService.Service
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions", h.handleCreateSession)
	r.Route("/sessions/{sessionID}", func(sr chi.Router) {
		sr.Get("/", h.handleGetSession)
		sr.Delete("/", h.handleCloseSession)
		sr.Put("/credential", h.handleSetCredential)
		sr.Get("/messages", h.handleHistory)
		sr.Post("/messages", h.handleSubmit)
		sr.Delete("/messages", h.handleClear)
	})
}

type credentialPayload struct {
	Credential string `json:"credential"`
}

type submitPayload struct {
	Prompt     string `json:"prompt"`
	Credential string `json:"credential"`
}

// handleCreateSession 创建会话
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload credentialPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.chatSvc.CreateSession(r.Context(), strings.TrimSpace(payload.Credential))
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, session.View())
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, session.View())
}

func (h *Handler) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.chatSvc.CloseSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		respondSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSetCredential(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	var payload credentialPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session.SetCredential(strings.TrimSpace(payload.Credential))
	utils.RespondJSON(w, http.StatusOK, session.View())
}

// handleHistory 返回会话记录
func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, session.History())
}

// handleSubmit 发送用户消息并返回模型回复
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	var payload submitPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(payload.Prompt) == "" {
		utils.RespondError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	credential := strings.TrimSpace(payload.Credential)
	if credential == "" {
		credential = session.Credential()
	}

	reply, err := session.Submit(r.Context(), payload.Prompt, credential)
	if err != nil {
		respondSubmitError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusCreated, reply)
}

// handleClear 清空会话记录
func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	session.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) lookupSession(w http.ResponseWriter, r *http.Request) (*chatService.Session, bool) {
	session, err := h.chatSvc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondSessionError(w, err)
		return nil, false
	}
	return session, true
}

func respondSessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, chatService.ErrSessionNotFound) {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	utils.RespondError(w, http.StatusInternalServerError, err.Error())
}

// respondSubmitError maps a submission failure to a status code.
func respondSubmitError(w http.ResponseWriter, err error) {
	var chatErr *chatService.Error
	if !errors.As(err, &chatErr) {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	status := http.StatusBadGateway
	if chatErr.Kind == chatService.KindMissingCredential {
		status = http.StatusBadRequest
	}

	utils.RespondErrorKind(w, status, string(chatErr.Kind), chatErr.Message)
}
