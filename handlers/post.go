package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"omiit/middleware"
	"omiit/models"
	"omiit/validation"

	"github.com/gin-gonic/gin"
)

const requestTimeout = 10 * time.Second

// PostService is the post lifecycle the handlers drive.
type PostService interface {
	Create(ctx context.Context, creatorID string, in models.PostInput) (*models.Post, error)
	List(ctx context.Context) ([]models.Post, error)
	Update(ctx context.Context, postID string, patch models.PostPatch, uploadedCover string) (*models.Post, error)
	Delete(ctx context.Context, posterID, postID, requesterID string) error
}

type PostHandler struct {
	posts     PostService
	validator validation.PostValidator
	uploads   *UploadHandler
}

func NewPostHandler(posts PostService, validator validation.PostValidator, uploads *UploadHandler) *PostHandler {
	return &PostHandler{posts: posts, validator: validator, uploads: uploads}
}

// GetPosts handles GET /posts.
func (h *PostHandler) GetPosts(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	posts, err := h.posts.List(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	if posts == nil {
		posts = []models.Post{}
	}
	respond(c, http.StatusOK, gin.H{"posts": posts})
}

// CreatePost handles POST /:userId/add-post. The body is either JSON or a
// multipart form whose payload field holds the JSON and whose cover field
// optionally carries the image.
func (h *PostHandler) CreatePost(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	var in models.PostInput
	if isMultipart(c) {
		if err := h.uploads.parseForm(c); err != nil {
			respondError(c, err)
			return
		}
		if err := json.Unmarshal([]byte(c.PostForm("payload")), &in); err != nil {
			respondError(c, models.NewValidationError("payload must be a JSON post body", err))
			return
		}
		cover, err := h.uploads.storeOptional(ctx, c, h.uploads.cover)
		if err != nil {
			respondError(c, err)
			return
		}
		if cover != "" {
			in.Cover = cover
		}
	} else if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, models.NewValidationError("Invalid JSON body", err))
		return
	}

	if err := h.validator.ValidatePost(&in); err != nil {
		respondError(c, err)
		return
	}

	post, err := h.posts.Create(ctx, c.Param("userId"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"post": post})
}

// UpdatePost handles PATCH /posts/update/:postId with a JSON patch or
// multipart form fields plus an optional cover file.
func (h *PostHandler) UpdatePost(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	var (
		patch models.PostPatch
		cover string
	)
	if isMultipart(c) {
		if err := h.uploads.parseForm(c); err != nil {
			respondError(c, err)
			return
		}
		var err error
		if patch, err = patchFromForm(c); err != nil {
			respondError(c, err)
			return
		}
		if cover, err = h.uploads.storeOptional(ctx, c, h.uploads.cover); err != nil {
			respondError(c, err)
			return
		}
	} else if c.Request.Body != nil {
		// An empty body, chunked or not, is an empty patch.
		if err := c.ShouldBindJSON(&patch); err != nil && !errors.Is(err, io.EOF) {
			respondError(c, models.NewValidationError("Invalid JSON body", err))
			return
		}
	}

	post, err := h.posts.Update(ctx, c.Param("postId"), patch, cover)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"result": post})
}

// DeletePost handles DELETE /:posterId/posts/:postId. The requester comes
// from the verified token only.
func (h *PostHandler) DeletePost(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	requesterID := c.GetString(middleware.UserIDKey)
	if err := h.posts.Delete(ctx, c.Param("posterId"), c.Param("postId"), requesterID); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// patchFromForm reads the updatable fields from a multipart form. Absent keys
// stay nil so the stored values are kept.
func patchFromForm(c *gin.Context) (models.PostPatch, error) {
	var patch models.PostPatch
	str := func(key string) *string {
		if v, ok := c.GetPostForm(key); ok {
			return &v
		}
		return nil
	}

	patch.Category = str("category")
	patch.Title = str("title")
	patch.Cover = str("cover")
	patch.Content = str("content")

	if v, ok := c.GetPostForm("readTime.value"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return patch, models.NewValidationError("readTime.value must be a number", err)
		}
		patch.ReadTime = &models.ReadTimePatch{Value: &f}
	}
	if unit := str("readTime.unit"); unit != nil {
		if patch.ReadTime == nil {
			patch.ReadTime = &models.ReadTimePatch{}
		}
		patch.ReadTime.Unit = unit
	}

	name, avatar := str("author.name"), str("author.avatar")
	if name != nil || avatar != nil {
		patch.Author = &models.AuthorPatch{Name: name, Avatar: avatar}
	}
	return patch, nil
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
