package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/UkralStul/content-approval-service/internal/domain"
	"github.com/UkralStul/content-approval-service/internal/feed"
	"github.com/UkralStul/content-approval-service/internal/identity"
	"github.com/UkralStul/content-approval-service/internal/review"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Engine - операции движка согласования, которые нужны транспорту.
type Engine interface {
	Create(ctx context.Context, in review.CreateInput) (*domain.Post, error)
	Edit(ctx context.Context, postID, content, category string) error
	SetApproval(ctx context.Context, postID, reviewerID string, decision domain.Status) error
	AddComment(ctx context.Context, postID, authorID, text string) (*domain.Comment, error)
	Delete(ctx context.Context, postID string) error
	Get(ctx context.Context, postID string) (*domain.Post, error)
	Snapshot(ctx context.Context) ([]domain.Post, error)
	Subscribe(ctx context.Context) (<-chan feed.Snapshot, error)
}

// Handler содержит все зависимости HTTP-слоя.
type Handler struct {
	engine       Engine
	issuer       *identity.Issuer
	validate     *validator.Validate
	upgrader     websocket.Upgrader
	pingInterval time.Duration
	log          logrus.FieldLogger
}

// NewHandler - конструктор. pingInterval <= 0 отключает keep-alive пинги.
func NewHandler(engine Engine, issuer *identity.Issuer, pingInterval time.Duration, log logrus.FieldLogger) *Handler {
	return &Handler{
		engine:       engine,
		issuer:       issuer,
		validate:     validator.New(),
		pingInterval: pingInterval,
		log:          log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

type sessionResponse struct {
	Token  string      `json:"token"`
	UserID string      `json:"userId"`
	Role   domain.Role `json:"role"`
}

type createPostRequest struct {
	Content        string `json:"content" validate:"required,max=10000"`
	Category       string `json:"category" validate:"omitempty,oneof='Tweet' 'LinkedIn Post' 'Telegram' 'Blog Promo'"`
	IdempotencyKey string `json:"idempotencyKey" validate:"omitempty,max=255"`
}

type editPostRequest struct {
	Content  string `json:"content" validate:"required,max=10000"`
	Category string `json:"category" validate:"omitempty,oneof='Tweet' 'LinkedIn Post' 'Telegram' 'Blog Promo'"`
}

type approvalRequest struct {
	Decision string `json:"decision" validate:"required,oneof=Approved Rejected"`
}

type commentRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

// === Session ===

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) error {
	tok, id, err := h.issuer.IssueAnonymous()
	if err != nil {
		return err
	}
	writeJSON(w, sessionResponse{Token: tok, UserID: id.UserID, Role: id.Role}, http.StatusCreated)
	return nil
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) error {
	writeJSON(w, map[string]any{"categories": domain.Categories, "default": domain.DefaultCategory}, http.StatusOK)
	return nil
}

// === Query ===

func (h *Handler) listPosts(w http.ResponseWriter, r *http.Request) error {
	posts, err := h.engine.Snapshot(r.Context())
	if err != nil {
		return err
	}
	writeJSON(w, map[string]any{"posts": posts}, http.StatusOK)
	return nil
}

func (h *Handler) getPost(w http.ResponseWriter, r *http.Request) error {
	post, err := h.engine.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	writeJSON(w, post, http.StatusOK)
	return nil
}

// === Writer mutations ===

func (h *Handler) createPost(w http.ResponseWriter, r *http.Request) error {
	var req createPostRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}
	key := req.IdempotencyKey
	if hk := strings.TrimSpace(r.Header.Get("Idempotency-Key")); hk != "" {
		key = hk
	}
	post, err := h.engine.Create(r.Context(), review.CreateInput{
		Content:        req.Content,
		Category:       req.Category,
		IdempotencyKey: key,
	})
	if err != nil {
		return err
	}
	writeJSON(w, post, http.StatusCreated)
	return nil
}

func (h *Handler) editPost(w http.ResponseWriter, r *http.Request) error {
	var req editPostRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}
	if err := h.engine.Edit(r.Context(), chi.URLParam(r, "id"), req.Content, req.Category); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *Handler) deletePost(w http.ResponseWriter, r *http.Request) error {
	if err := h.engine.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// === Reviewer mutations ===

func (h *Handler) setApproval(w http.ResponseWriter, r *http.Request) error {
	var req approvalRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}
	id, _ := identity.FromContext(r.Context())
	if err := h.engine.SetApproval(r.Context(), chi.URLParam(r, "id"), id.UserID, domain.Status(req.Decision)); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *Handler) addComment(w http.ResponseWriter, r *http.Request) error {
	var req commentRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}
	id, _ := identity.FromContext(r.Context())
	comment, err := h.engine.AddComment(r.Context(), chi.URLParam(r, "id"), id.UserID, req.Text)
	if err != nil {
		return err
	}
	writeJSON(w, comment, http.StatusCreated)
	return nil
}

// requireRole пропускает только сессии с указанной ролью.
func (h *Handler) requireRole(role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := identity.FromContext(r.Context())
			if !ok {
				h.writeError(w, r, domain.ErrAuthNotReady)
				return
			}
			if id.Role != role {
				h.writeError(w, r, domain.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
