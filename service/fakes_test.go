package service

import (
	"context"
	"sync"

	"omiit/models"
	"omiit/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memPostStore and memUserStore mimic the Mongo stores closely enough to
// check that users and posts keep pointing at each other.
type memPostStore struct {
	mu        sync.Mutex
	posts     map[primitive.ObjectID]models.Post
	order     []primitive.ObjectID
	createErr error
	deleteErr error
	listErr   error
}

func newMemPostStore() *memPostStore {
	return &memPostStore{posts: map[primitive.ObjectID]models.Post{}}
}

func (s *memPostStore) Create(ctx context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	s.posts[post.ID] = *post
	s.order = append(s.order, post.ID)
	return nil
}

func (s *memPostStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (s *memPostStore) FindAllWithComments(ctx context.Context) ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := []models.Post{}
	for _, id := range s.order {
		if p, ok := s.posts[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memPostStore) UpdateByID(ctx context.Context, id primitive.ObjectID, patch models.PostPatch, updatedAt int64) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	patch.Apply(&p)
	p.UpdatedAt = updatedAt
	s.posts[id] = p
	return &p, nil
}

func (s *memPostStore) DeleteByID(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if _, ok := s.posts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.posts, id)
	return nil
}

type memUserStore struct {
	mu        sync.Mutex
	users     map[primitive.ObjectID]*models.User
	posts     *memPostStore
	appendErr error
}

func newMemUserStore(posts *memPostStore) *memUserStore {
	return &memUserStore{users: map[primitive.ObjectID]*models.User{}, posts: posts}
}

func (s *memUserStore) add() primitive.ObjectID {
	u := &models.User{ID: primitive.NewObjectID(), PostIDs: []primitive.ObjectID{}}
	_ = s.Save(context.Background(), u)
	return u.ID
}

func (s *memUserStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	cp.PostIDs = append([]primitive.ObjectID{}, u.PostIDs...)
	return &cp, nil
}

func (s *memUserStore) FindByIDWithPosts(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, pid := range u.PostIDs {
		if p, err := s.posts.FindByID(ctx, pid); err == nil {
			u.Posts = append(u.Posts, *p)
		}
	}
	return u, nil
}

func (s *memUserStore) AppendPost(ctx context.Context, userID, postID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	u, ok := s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	if !u.HasPost(postID) {
		u.PostIDs = append(u.PostIDs, postID)
	}
	return nil
}

func (s *memUserStore) RemovePost(ctx context.Context, userID, postID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	kept := u.PostIDs[:0]
	for _, id := range u.PostIDs {
		if id != postID {
			kept = append(kept, id)
		}
	}
	u.PostIDs = kept
	return nil
}

func (s *memUserStore) Save(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *user
	cp.Posts = nil
	s.users[user.ID] = &cp
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(eventType string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
}

type countingTx struct {
	runs int
}

func (c *countingTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	c.runs++
	return fn(ctx)
}

type postState struct {
	posts map[primitive.ObjectID]models.Post
	order []primitive.ObjectID
}

func (s *memPostStore) snapshot() postState {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := postState{posts: map[primitive.ObjectID]models.Post{}, order: append([]primitive.ObjectID{}, s.order...)}
	for id, p := range s.posts {
		cp.posts[id] = p
	}
	return cp
}

func (s *memPostStore) swap(state postState) postState {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := postState{posts: s.posts, order: s.order}
	s.posts, s.order = state.posts, state.order
	return prev
}

// commitGapTx runs fn, then calls inGap while readers outside the
// transaction still see the state from before it, then commits.
type commitGapTx struct {
	posts *memPostStore
	inGap func()
}

func (g *commitGapTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	before := g.posts.snapshot()
	if err := fn(ctx); err != nil {
		return err
	}
	staged := g.posts.swap(before)
	g.inGap()
	g.posts.swap(staged)
	return nil
}
