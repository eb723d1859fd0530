// Package service implements the post lifecycle: create, list, update and
// owner-gated delete, keeping each user's post index in step with the posts
// collection.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"omiit/database"
	"omiit/metrics"
	"omiit/models"
	"omiit/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post lifecycle event types.
const (
	EventPostCreated = "post_created"
	EventPostUpdated = "post_updated"
	EventPostDeleted = "post_deleted"
)

// EventPublisher receives post lifecycle events after they are persisted.
type EventPublisher interface {
	Publish(eventType string, payload interface{})
}

// listInvalidator is implemented by post stores that cache the listing.
type listInvalidator interface {
	Invalidate(ctx context.Context)
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, interface{}) {}

// PostService orchestrates the post and user stores.
//
// There is no per-post locking: concurrent updates to the same post are
// last-write-wins, and without a transactional TxRunner the paired
// post/index writes of Create and Delete can interleave with other requests.
type PostService struct {
	posts  repository.PostStore
	users  repository.UserStore
	tx     database.TxRunner
	events EventPublisher
	now    func() time.Time
}

// NewPostService wires the stores. A nil tx runs mutations sequentially and a
// nil publisher drops events.
func NewPostService(posts repository.PostStore, users repository.UserStore, tx database.TxRunner, events EventPublisher) *PostService {
	if tx == nil {
		tx = database.Sequential{}
	}
	if events == nil {
		events = noopPublisher{}
	}
	return &PostService{
		posts:  posts,
		users:  users,
		tx:     tx,
		events: events,
		now:    time.Now,
	}
}

// Create stores a new post owned by creatorID and indexes it under that user.
func (s *PostService) Create(ctx context.Context, creatorID string, in models.PostInput) (post *models.Post, err error) {
	defer func() { observe("create", err) }()

	userID, err := primitive.ObjectIDFromHex(creatorID)
	if err != nil {
		return nil, models.NewNotFoundError("user")
	}

	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, models.NewNotFoundError("user")
		}
		return nil, models.NewInternalError(fmt.Errorf("find user %s: %w", creatorID, err))
	}

	ts := s.now().Unix()
	post = &models.Post{
		Category:    in.Category,
		Title:       in.Title,
		Cover:       in.Cover,
		ReadTime:    models.ReadTime{Value: in.ReadTime.Value, Unit: in.ReadTime.Unit},
		Author:      models.Author{Name: in.Author.Name, Avatar: in.Author.Avatar},
		Content:     in.Content,
		CommentRefs: in.CommentRefs,
		CreatorID:   userID,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}

	var created bool
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		created = false
		if err := s.posts.Create(ctx, post); err != nil {
			return fmt.Errorf("insert post: %w", err)
		}
		created = true
		if err := s.users.AppendPost(ctx, userID, post.ID); err != nil {
			return fmt.Errorf("index post under user: %w", err)
		}
		return nil
	})
	s.invalidateList(ctx)
	if err != nil {
		if created {
			slog.ErrorContext(ctx, "post stored but not indexed under its owner",
				"post_id", post.ID.Hex(), "user_id", creatorID, "error", err)
		}
		return nil, models.NewInternalError(err)
	}

	s.events.Publish(EventPostCreated, post)
	return post, nil
}

// List returns every post with its comments resolved.
func (s *PostService) List(ctx context.Context) (posts []models.Post, err error) {
	defer func() { observe("list", err) }()

	posts, err = s.posts.FindAllWithComments(ctx)
	if err != nil {
		return nil, models.NewInternalError(fmt.Errorf("list posts: %w", err))
	}
	return posts, nil
}

// Update merges patch onto the stored post. A non-empty uploadedCover always
// replaces whatever cover the patch carries.
func (s *PostService) Update(ctx context.Context, postID string, patch models.PostPatch, uploadedCover string) (post *models.Post, err error) {
	defer func() { observe("update", err) }()

	id, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return nil, models.NewNotFoundError("post")
	}

	existing, err := s.posts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, models.NewNotFoundError("post")
		}
		return nil, models.NewInternalError(fmt.Errorf("find post %s: %w", postID, err))
	}

	if uploadedCover != "" {
		patch.Cover = &uploadedCover
	}
	if patch.IsEmpty() {
		return existing, nil
	}

	post, err = s.posts.UpdateByID(ctx, id, patch, s.now().Unix())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, models.NewNotFoundError("post")
		}
		return nil, models.NewInternalError(fmt.Errorf("update post %s: %w", postID, err))
	}

	s.events.Publish(EventPostUpdated, post)
	return post, nil
}

// Delete removes postID from posterID's index and deletes the post. Only the
// post's creator, as verified by the authenticator, may do so; posterID
// alone grants nothing.
func (s *PostService) Delete(ctx context.Context, posterID, postID, requesterID string) (err error) {
	defer func() { observe("delete", err) }()

	ownerID, err := primitive.ObjectIDFromHex(posterID)
	if err != nil {
		return models.NewNotFoundError("user")
	}

	user, err := s.users.FindByIDWithPosts(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.NewNotFoundError("user")
		}
		return models.NewInternalError(fmt.Errorf("find user %s: %w", posterID, err))
	}

	id, err := primitive.ObjectIDFromHex(postID)
	if err != nil || !user.HasPost(id) {
		return models.NewNotFoundError("post")
	}
	post, ok := user.FindPost(id)
	if !ok {
		// Indexed but the document is gone.
		slog.WarnContext(ctx, "user indexes a missing post", "post_id", postID, "user_id", posterID)
		return models.NewNotFoundError("post")
	}

	if post.CreatorID.Hex() != requesterID {
		return models.NewForbiddenError("Unauthorized to delete this post")
	}

	var unindexed bool
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		unindexed = false
		if err := s.users.RemovePost(ctx, ownerID, id); err != nil {
			return fmt.Errorf("remove post from user index: %w", err)
		}
		unindexed = true
		if err := s.posts.DeleteByID(ctx, id); err != nil {
			return fmt.Errorf("delete post: %w", err)
		}
		return nil
	})
	s.invalidateList(ctx)
	if err != nil {
		if unindexed {
			slog.ErrorContext(ctx, "post removed from owner index but not deleted",
				"post_id", postID, "user_id", posterID, "error", err)
		}
		if errors.Is(err, repository.ErrNotFound) {
			if unindexed {
				return models.NewNotFoundError("post")
			}
			return models.NewNotFoundError("user")
		}
		return models.NewInternalError(err)
	}

	s.events.Publish(EventPostDeleted, map[string]string{"_id": postID, "postCreator": post.CreatorID.Hex()})
	return nil
}

// invalidateList drops a cached listing once a transaction has settled.
// Invalidation inside the transaction can race a List that caches the
// pre-commit state.
func (s *PostService) invalidateList(ctx context.Context) {
	if inv, ok := s.posts.(listInvalidator); ok {
		inv.Invalidate(ctx)
	}
}

func observe(operation string, err error) {
	result := "ok"
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			result = appErr.Code
		} else {
			result = models.CodeInternal
		}
	}
	metrics.PostOperations.WithLabelValues(operation, result).Inc()
}
