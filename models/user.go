package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// User is the owning side of a post. Its lifecycle is managed elsewhere;
// this service only maintains PostIDs.
type User struct {
	ID      primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Name    string               `bson:"name,omitempty" json:"name,omitempty"`
	Email   string               `bson:"email,omitempty" json:"email,omitempty"`
	Avatar  string               `bson:"avatar,omitempty" json:"avatar,omitempty"`
	PostIDs []primitive.ObjectID `bson:"userPosts" json:"userPosts"`

	Posts []Post `bson:"posts,omitempty" json:"-"` // Resolved PostIDs, populated on demand
}

// HasPost reports whether id is indexed under the user.
func (u *User) HasPost(id primitive.ObjectID) bool {
	for _, p := range u.PostIDs {
		if p == id {
			return true
		}
	}
	return false
}

// FindPost returns the resolved post with the given id, if it was populated.
func (u *User) FindPost(id primitive.ObjectID) (*Post, bool) {
	for i := range u.Posts {
		if u.Posts[i].ID == id {
			return &u.Posts[i], true
		}
	}
	return nil, false
}
