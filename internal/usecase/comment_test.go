package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/linnoak/teamboard-api/internal/model"
)

type fakeCommentRepo struct {
	byID map[string]*model.Comment
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{byID: map[string]*model.Comment{}}
}

func (r *fakeCommentRepo) CreateComment(_ context.Context, c *model.Comment) (*model.Comment, error) {
	c.ID = bson.NewObjectID()
	r.byID[c.ID.Hex()] = c
	return c, nil
}

func (r *fakeCommentRepo) GetComment(_ context.Context, id string) (*model.Comment, error) {
	if c, ok := r.byID[id]; ok {
		return c, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeCommentRepo) ListCommentsByPage(_ context.Context, page string, _, _ uint64) ([]*model.Comment, error) {
	var out []*model.Comment
	for _, c := range r.byID {
		if c.Page == page {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCommentRepo) DeleteComment(_ context.Context, id string) error {
	delete(r.byID, id)
	return nil
}

func TestCommentUsecase(t *testing.T) {
	ctx := context.Background()
	author := Actor{UserID: "author-1", Email: "author@example.com", Role: model.RoleMember}

	t.Run("create and list", func(t *testing.T) {
		repo := newFakeCommentRepo()
		uc := NewCommentUsecase(repo, nil)

		comment, err := uc.CreateComment(ctx, CreateCommentParams{
			Page:  "/dashboard",
			Body:  "first!",
			Actor: author,
		})
		require.NoError(t, err)
		assert.Equal(t, "author-1", comment.AuthorID)

		comments, err := uc.ListComments(ctx, "/dashboard", 0, 0)
		require.NoError(t, err)
		assert.Len(t, comments, 1)
	})

	t.Run("author can delete their own comment", func(t *testing.T) {
		repo := newFakeCommentRepo()
		uc := NewCommentUsecase(repo, nil)

		comment, err := uc.CreateComment(ctx, CreateCommentParams{Page: "/p", Body: "b", Actor: author})
		require.NoError(t, err)

		require.NoError(t, uc.DeleteComment(ctx, comment.ID.Hex(), author))
		assert.Empty(t, repo.byID)
	})

	t.Run("another member cannot delete it", func(t *testing.T) {
		repo := newFakeCommentRepo()
		uc := NewCommentUsecase(repo, nil)

		comment, err := uc.CreateComment(ctx, CreateCommentParams{Page: "/p", Body: "b", Actor: author})
		require.NoError(t, err)

		other := Actor{UserID: "other-1", Role: model.RoleMember}
		err = uc.DeleteComment(ctx, comment.ID.Hex(), other)
		assert.ErrorIs(t, err, ErrNotCommentOwner)
	})

	t.Run("an admin can delete any comment", func(t *testing.T) {
		repo := newFakeCommentRepo()
		uc := NewCommentUsecase(repo, nil)

		comment, err := uc.CreateComment(ctx, CreateCommentParams{Page: "/p", Body: "b", Actor: author})
		require.NoError(t, err)

		admin := Actor{UserID: "admin-1", Role: model.RoleAdmin}
		require.NoError(t, uc.DeleteComment(ctx, comment.ID.Hex(), admin))
	})

	t.Run("deleting a missing comment", func(t *testing.T) {
		uc := NewCommentUsecase(newFakeCommentRepo(), nil)

		err := uc.DeleteComment(ctx, bson.NewObjectID().Hex(), author)
		assert.ErrorIs(t, err, ErrCommentNotFound)
	})
}
