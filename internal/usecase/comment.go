package usecase

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/linnoak/teamboard-api/internal/model"
	"github.com/linnoak/teamboard-api/internal/repository"
)

// CommentUsecase defines the business logic for page comments.
type CommentUsecase interface {
	CreateComment(ctx context.Context, params CreateCommentParams) (*model.Comment, error)
	ListComments(ctx context.Context, page string, limit, offset uint64) ([]*model.Comment, error)

	// DeleteComment removes a comment. Only the author or an admin role may
	// delete.
	DeleteComment(ctx context.Context, id string, actor Actor) error
}

// CreateCommentParams defines the parameters for creating a comment.
type CreateCommentParams struct {
	Page  string
	Body  string
	Actor Actor
}

// Actor identifies the authenticated user performing an operation, as taken
// from the request's verified claims.
type Actor struct {
	UserID string
	Email  string
	Role   string
}

func (a Actor) isAdmin() bool {
	return a.Role == model.RoleAdmin || a.Role == model.RoleSuperadmin
}

var (
	ErrCommentNotFound = errors.New("comment not found")
	ErrNotCommentOwner = errors.New("comment belongs to another user")
)

type commentUsecase struct {
	commentRepo repository.CommentRepository
	notifier    Notifier
}

// Notifier is the slice of the notification usecase the comment flow needs.
type Notifier interface {
	NotifyCommentReply(ctx context.Context, comment *model.Comment)
}

// NewCommentUsecase creates a new instance of CommentUsecase. The notifier
// may be nil when push is disabled.
func NewCommentUsecase(commentRepo repository.CommentRepository, notifier Notifier) CommentUsecase {
	return &commentUsecase{
		commentRepo: commentRepo,
		notifier:    notifier,
	}
}

func (u *commentUsecase) CreateComment(ctx context.Context, params CreateCommentParams) (*model.Comment, error) {
	comment, err := u.commentRepo.CreateComment(ctx, &model.Comment{
		Page:        params.Page,
		AuthorID:    params.Actor.UserID,
		AuthorEmail: params.Actor.Email,
		Body:        params.Body,
	})
	if err != nil {
		return nil, err
	}

	if u.notifier != nil {
		u.notifier.NotifyCommentReply(ctx, comment)
	}

	return comment, nil
}

func (u *commentUsecase) ListComments(
	ctx context.Context,
	page string,
	limit, offset uint64,
) ([]*model.Comment, error) {
	return u.commentRepo.ListCommentsByPage(ctx, page, limit, offset)
}

func (u *commentUsecase) DeleteComment(ctx context.Context, id string, actor Actor) error {
	comment, err := u.commentRepo.GetComment(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrCommentNotFound
		}
		return err
	}

	if comment.AuthorID != actor.UserID && !actor.isAdmin() {
		return ErrNotCommentOwner
	}

	return u.commentRepo.DeleteComment(ctx, id)
}
