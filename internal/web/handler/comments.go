package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/mcoot/relayview/internal/model"
	"github.com/mcoot/relayview/internal/services/study"
	"github.com/mcoot/relayview/internal/web/env"
	"github.com/mcoot/relayview/internal/web/templates/components"
)

// CommentsHandler serves the comment thread of a study node
type CommentsHandler struct {
	study  *study.Service
	logger *slog.Logger
}

// NewCommentsHandler creates a new CommentsHandler
func NewCommentsHandler(studyService *study.Service, logger *slog.Logger) *CommentsHandler {
	return &CommentsHandler{study: studyService, logger: logger}
}

func commentsQuery(r *http.Request) study.Query {
	q := r.URL.Query()
	return study.Query{
		StudyID:       pathVar(r, "studyId"),
		ChapterID:     model.ChapterID(pathVar(r, "chapterId")),
		Path:          q.Get("path"),
		UserID:        env.From(r.Context()).UserID,
		IncludingMine: q.Get("mine") == "true",
		Write:         q.Get("write") == "true",
	}
}

// Thread renders the comments of a node. An empty thread renders nothing.
func (h *CommentsHandler) Thread(w http.ResponseWriter, r *http.Request) {
	t, err := h.study.Comments(r.Context(), commentsQuery(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render(w, r, h.logger, http.StatusOK, components.CommentThread(t))
}

// Delete removes a comment and renders the remaining thread
func (h *CommentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	q := commentsQuery(r)
	if err := h.study.Delete(r.Context(), q, pathVar(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}

	q.Write = true
	t, err := h.study.Comments(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render(w, r, h.logger, http.StatusOK, components.CommentThread(t))
}

func (h *CommentsHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, model.ErrNotContributor):
		fragmentError(w, http.StatusForbidden, "Only contributors can delete comments")
	case errors.Is(err, model.ErrNotFound):
		fragmentError(w, http.StatusNotFound, "Not found")
	default:
		requestLogger(r, h.logger).Error("study comments request failed", slog.String("error", err.Error()))
		fragmentError(w, http.StatusBadGateway, "Could not reach the study server")
	}
}
