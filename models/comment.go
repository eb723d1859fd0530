package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Comment is opaque to the post service; it is only resolved for display.
type Comment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Author    string             `bson:"author,omitempty" json:"author,omitempty"`
	Content   string             `bson:"content,omitempty" json:"content,omitempty"`
	CreatedAt int64              `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
}
