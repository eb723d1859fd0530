package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type ReadTime struct {
	Value float64 `bson:"value" json:"value" validate:"gt=0"`
	Unit  string  `bson:"unit" json:"unit" validate:"required"`
}

type Author struct {
	Name   string `bson:"name" json:"name" validate:"required"`
	Avatar string `bson:"avatar" json:"avatar" validate:"omitempty,url"`
}

type Post struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Category    string               `bson:"category" json:"category"`
	Title       string               `bson:"title" json:"title"`
	Cover       string               `bson:"cover" json:"cover"`
	ReadTime    ReadTime             `bson:"readTime" json:"readTime"`
	Author      Author               `bson:"author" json:"author"`
	Content     string               `bson:"content" json:"content"`
	CommentRefs []primitive.ObjectID `bson:"postComments" json:"postComments"`
	CreatorID   primitive.ObjectID   `bson:"postCreator" json:"postCreator"`
	CreatedAt   int64                `bson:"createdAt" json:"createdAt"`
	UpdatedAt   int64                `bson:"updatedAt" json:"updatedAt"`

	Comments []Comment `bson:"comments,omitempty" json:"comments,omitempty"` // Populated on List only
}

// PostInput is the caller-supplied body of a create request. The creator
// always comes from the route, never from the body.
type PostInput struct {
	Category    string               `json:"category" validate:"required"`
	Title       string               `json:"title" validate:"required,max=200"`
	Cover       string               `json:"cover" validate:"required,url"`
	ReadTime    ReadTime             `json:"readTime"`
	Author      Author               `json:"author"`
	Content     string               `json:"content" validate:"required"`
	CommentRefs []primitive.ObjectID `json:"postComments"`
}

type ReadTimePatch struct {
	Value *float64 `json:"value,omitempty"`
	Unit  *string  `json:"unit,omitempty"`
}

type AuthorPatch struct {
	Name   *string `json:"name,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
}

// PostPatch lists the fields an update may touch. A nil field is left as stored.
type PostPatch struct {
	Category *string        `json:"category,omitempty"`
	Title    *string        `json:"title,omitempty"`
	Cover    *string        `json:"cover,omitempty"`
	ReadTime *ReadTimePatch `json:"readTime,omitempty"`
	Author   *AuthorPatch   `json:"author,omitempty"`
	Content  *string        `json:"content,omitempty"`
}

// Fields flattens the patch into dotted document paths, so nested records
// merge per sub-field instead of being replaced whole.
func (p PostPatch) Fields() map[string]interface{} {
	set := map[string]interface{}{}
	if p.Category != nil {
		set["category"] = *p.Category
	}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Cover != nil {
		set["cover"] = *p.Cover
	}
	if p.Content != nil {
		set["content"] = *p.Content
	}
	if rt := p.ReadTime; rt != nil {
		if rt.Value != nil {
			set["readTime.value"] = *rt.Value
		}
		if rt.Unit != nil {
			set["readTime.unit"] = *rt.Unit
		}
	}
	if a := p.Author; a != nil {
		if a.Name != nil {
			set["author.name"] = *a.Name
		}
		if a.Avatar != nil {
			set["author.avatar"] = *a.Avatar
		}
	}
	return set
}

// IsEmpty reports whether the patch changes nothing.
func (p PostPatch) IsEmpty() bool {
	return len(p.Fields()) == 0
}

// Apply merges the patch onto post in memory, mirroring what Fields does in the store.
func (p PostPatch) Apply(post *Post) {
	if p.Category != nil {
		post.Category = *p.Category
	}
	if p.Title != nil {
		post.Title = *p.Title
	}
	if p.Cover != nil {
		post.Cover = *p.Cover
	}
	if p.Content != nil {
		post.Content = *p.Content
	}
	if rt := p.ReadTime; rt != nil {
		if rt.Value != nil {
			post.ReadTime.Value = *rt.Value
		}
		if rt.Unit != nil {
			post.ReadTime.Unit = *rt.Unit
		}
	}
	if a := p.Author; a != nil {
		if a.Name != nil {
			post.Author.Name = *a.Name
		}
		if a.Avatar != nil {
			post.Author.Avatar = *a.Avatar
		}
	}
}
