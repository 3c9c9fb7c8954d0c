package handler

import (
	"mime"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"resolveit/backend/internal/apperr"
	"resolveit/backend/internal/upload"
)

// scriptable lists media types a browser may execute when rendered
// inline. They are always sent as downloads.
var scriptable = []string{
	"image/svg+xml",
	"text/html",
	"application/xhtml+xml",
	"text/xml",
	"application/xml",
}

func forcesDownload(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return true
	}
	return slices.Contains(scriptable, strings.ToLower(mt))
}

// ServeAttachment streams a complaint attachment to a reader allowed to
// view the complaint. ?download=true forces a save dialog.
func (h *Handler) ServeAttachment(c *gin.Context) {
	name := strings.TrimPrefix(c.Param("path"), "/")
	if name == "" || h.Uploads == nil {
		respondError(c, apperr.NewNotFoundError("file", name))
		return
	}

	if _, err := h.Complaints.CanViewAttachment(c.Request.Context(), actorFrom(c), name); err != nil {
		respondError(c, err)
		return
	}

	f, contentType, err := h.Uploads.Open(name)
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		respondError(c, err)
		return
	}

	disposition := "inline"
	if formBool(c.Query("download")) || forcesDownload(contentType) {
		disposition = "attachment"
	}
	c.Header("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{
		"filename": upload.OriginalName(name),
	}))
	c.Header("Content-Type", contentType)
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("Content-Security-Policy", "default-src 'none'; sandbox")
	http.ServeContent(c.Writer, c.Request, name, info.ModTime(), f)
}
