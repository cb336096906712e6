package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/linnoak/teamboard-api/internal/middleware"
	"github.com/linnoak/teamboard-api/internal/model"
	"github.com/linnoak/teamboard-api/internal/payload"
	"github.com/linnoak/teamboard-api/internal/usecase"
	sharedvalidator "github.com/linnoak/teamboard-api/shared/validator"
)

// CommentHandler serves the comment endpoints. The auth gate runs before
// these handlers, so verified claims are always present in the context.
type CommentHandler struct {
	commentUsecase usecase.CommentUsecase
	validator      *sharedvalidator.Validator
	logger         *zerolog.Logger
}

// NewCommentHandler creates a new CommentHandler instance.
func NewCommentHandler(
	commentUsecase usecase.CommentUsecase,
	validator *sharedvalidator.Validator,
	logger *zerolog.Logger,
) *CommentHandler {
	return &CommentHandler{
		commentUsecase: commentUsecase,
		validator:      validator,
		logger:         logger,
	}
}

// Routes mounts the handler under /api/comments.
func (h *CommentHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Delete("/{id}", h.Delete)
}

func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(r)
	if !ok {
		respondJSON(w, http.StatusUnauthorized, payload.CreateCommentResponse{Error: "not authenticated"})
		return
	}

	var req payload.CreateCommentRequest
	if err := decodeAndValidate(r, h.validator, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, payload.CreateCommentResponse{Error: err.Error()})
		return
	}

	comment, err := h.commentUsecase.CreateComment(r.Context(), usecase.CreateCommentParams{
		Page:  req.Page,
		Body:  req.Body,
		Actor: actor,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create comment")
		respondJSON(w, http.StatusInternalServerError, payload.CreateCommentResponse{Error: "something went wrong"})
		return
	}

	resp := toCommentResponse(comment)
	respondJSON(w, http.StatusCreated, payload.CreateCommentResponse{Success: true, Comment: &resp})
}

func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	page := r.URL.Query().Get("page")
	if page == "" {
		respondJSON(w, http.StatusBadRequest, payload.ListCommentsResponse{Error: "missing page parameter"})
		return
	}

	limit, _ := strconv.ParseUint(r.URL.Query().Get("limit"), 10, 64)
	offset, _ := strconv.ParseUint(r.URL.Query().Get("offset"), 10, 64)

	comments, err := h.commentUsecase.ListComments(r.Context(), page, limit, offset)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list comments")
		respondJSON(w, http.StatusInternalServerError, payload.ListCommentsResponse{Error: "something went wrong"})
		return
	}

	resp := payload.ListCommentsResponse{
		Success:  true,
		Comments: make([]payload.CommentResponse, 0, len(comments)),
	}
	for _, comment := range comments {
		resp.Comments = append(resp.Comments, toCommentResponse(comment))
	}

	respondJSON(w, http.StatusOK, resp)
}

func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(r)
	if !ok {
		respondJSON(w, http.StatusUnauthorized, payload.StatusResponse{Error: "not authenticated"})
		return
	}

	err := h.commentUsecase.DeleteComment(r.Context(), chi.URLParam(r, "id"), actor)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrCommentNotFound):
			respondJSON(w, http.StatusNotFound, payload.StatusResponse{Error: "comment not found"})
		case errors.Is(err, usecase.ErrNotCommentOwner):
			respondJSON(w, http.StatusForbidden, payload.StatusResponse{Error: "not allowed to delete this comment"})
		default:
			h.logger.Error().Err(err).Msg("failed to delete comment")
			respondJSON(w, http.StatusInternalServerError, payload.StatusResponse{Error: "something went wrong"})
		}
		return
	}

	respondJSON(w, http.StatusOK, payload.StatusResponse{Success: true})
}

func toCommentResponse(comment *model.Comment) payload.CommentResponse {
	return payload.CommentResponse{
		ID:          comment.ID.Hex(),
		Page:        comment.Page,
		AuthorEmail: comment.AuthorEmail,
		Body:        comment.Body,
		CreatedAt:   comment.CreatedAt,
	}
}

// requestActor builds the usecase actor from the gate's verified claims.
func requestActor(r *http.Request) (usecase.Actor, bool) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		return usecase.Actor{}, false
	}

	return usecase.Actor{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
	}, true
}
