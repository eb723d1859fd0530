package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"omiit/metrics"
	"omiit/models"
	"omiit/storage"

	"github.com/gin-gonic/gin"
)

// multipartMemory is how much of a form is held in memory before spilling to
// temp files.
const multipartMemory = 8 << 20

// UploadHandler turns the cover field of a multipart request into a URL.
type UploadHandler struct {
	local    storage.AttachmentStore
	remote   storage.AttachmentStore
	cover    storage.AttachmentStore
	maxBytes int64
	proxies  []*net.IPNet
}

// NewUploadHandler wires both stores; cover is the one used when Create or
// Update carry a file.
func NewUploadHandler(local, remote, cover storage.AttachmentStore, maxBytes int64) *UploadHandler {
	return &UploadHandler{local: local, remote: remote, cover: cover, maxBytes: maxBytes}
}

// TrustProxies sets the IPs or CIDRs whose X-Forwarded-Proto is believed.
// Requests from anywhere else get their scheme from the connection alone.
func (h *UploadHandler) TrustProxies(proxies []string) error {
	nets := make([]*net.IPNet, 0, len(proxies))
	for _, p := range proxies {
		if !strings.Contains(p, "/") {
			ip := net.ParseIP(p)
			if ip == nil {
				return fmt.Errorf("invalid proxy address %q", p)
			}
			bits := 128
			if ip.To4() != nil {
				ip, bits = ip.To4(), 32
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, cidr, err := net.ParseCIDR(p)
		if err != nil {
			return fmt.Errorf("invalid proxy range %q: %w", p, err)
		}
		nets = append(nets, cidr)
	}
	h.proxies = nets
	return nil
}

// UploadLocal handles POST /posts/upload.
func (h *UploadHandler) UploadLocal(c *gin.Context) {
	h.upload(c, h.local)
}

// UploadRemote handles POST /posts/cloudUpload.
func (h *UploadHandler) UploadRemote(c *gin.Context) {
	h.upload(c, h.remote)
}

func (h *UploadHandler) upload(c *gin.Context, store storage.AttachmentStore) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.parseForm(c); err != nil {
		respondError(c, err)
		return
	}

	url, err := h.storeOptional(ctx, c, store)
	if err != nil {
		respondError(c, err)
		return
	}
	if url == "" {
		respondError(c, &models.AppError{Code: models.CodeUploadIO, Message: "No cover file uploaded"})
		return
	}
	respond(c, http.StatusOK, gin.H{"cover": url})
}

// parseForm caps the body at maxBytes and parses it as multipart.
func (h *UploadHandler) parseForm(c *gin.Context) error {
	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)
	}
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		if isTooLarge(err) {
			return models.NewTooLargeError(h.maxBytes)
		}
		return models.NewValidationError("Invalid multipart form", err)
	}
	return nil
}

// storeOptional stores the cover file if the form has one. It returns an
// empty URL when the field is absent.
func (h *UploadHandler) storeOptional(ctx context.Context, c *gin.Context, store storage.AttachmentStore) (string, error) {
	header, err := c.FormFile(storage.CoverField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", models.NewValidationError("Invalid cover file", err)
	}

	f, err := header.Open()
	if err != nil {
		return "", models.NewUploadIOError(err)
	}
	defer f.Close()

	url, err := store.Store(ctx, h.origin(c), storage.File{
		FieldName: storage.CoverField,
		Filename:  header.Filename,
		Body:      f,
	})
	metrics.CoverUploads.WithLabelValues(store.Name(), metrics.Result(err)).Inc()
	if err != nil {
		return "", err
	}

	slog.InfoContext(ctx, "cover stored", "backend", store.Name(), "filename", header.Filename, "size", header.Size)
	return url, nil
}

// origin is the scheme and host the client used to reach us. X-Forwarded-Proto
// only counts from a trusted proxy, and only its first hop, which must be
// http or https.
func (h *UploadHandler) origin(c *gin.Context) storage.Origin {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if h.fromTrustedProxy(c) {
		hop, _, _ := strings.Cut(c.GetHeader("X-Forwarded-Proto"), ",")
		switch proto := strings.ToLower(strings.TrimSpace(hop)); proto {
		case "http", "https":
			scheme = proto
		}
	}
	return storage.Origin{Scheme: scheme, Host: c.Request.Host}
}

func (h *UploadHandler) fromTrustedProxy(c *gin.Context) bool {
	ip := net.ParseIP(c.RemoteIP())
	if ip == nil {
		return false
	}
	for _, n := range h.proxies {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
