package http

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"lessonhub/pkg/logger"
	"lessonhub/pkg/models"
)

// listMaterials returns a lesson's materials annotated with access modes
func (s *Server) listMaterials(c *gin.Context) {
	requester, ok := GetUser(c)
	if !ok {
		abortUnauthorized(c, "unauthorized")
		return
	}

	resp, err := s.materialSvc.ListMaterials(c.Request.Context(), requester, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "", resp)
}

// getMaterialURL issues a time-limited signed URL for one material
func (s *Server) getMaterialURL(c *gin.Context) {
	requester, ok := GetUser(c)
	if !ok {
		abortUnauthorized(c, "unauthorized")
		return
	}

	resp, err := s.materialSvc.IssueViewerURL(c.Request.Context(), requester, c.Param("id"), c.Param("material_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "", resp)
}

// streamMaterial proxies the PDF bytes through the backend. The storage
// URL is signed per request and never reaches the client.
func (s *Server) streamMaterial(c *gin.Context) {
	requester, ok := GetUser(c)
	if !ok {
		abortUnauthorized(c, "unauthorized")
		return
	}

	stream, err := s.materialSvc.StreamMaterial(c.Request.Context(), requester, c.Param("id"), c.Param("material_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	defer stream.Body.Close()

	h := c.Writer.Header()
	h.Set("Content-Type", stream.ContentType)
	if stream.ContentLength > 0 {
		h.Set("Content-Length", strconv.FormatInt(stream.ContentLength, 10))
	}
	h.Set("Content-Disposition", contentDisposition(stream.FileName))
	h.Set("Cache-Control", "no-store")
	h.Set("Pragma", "no-cache")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Frame-Options", "SAMEORIGIN")

	c.Status(200)
	if _, err := io.Copy(c.Writer, stream.Body); err != nil {
		// headers are already out; all we can do is note the broken pipe
		logger.Warnf("material stream aborted: %v", err)
	}
}

// contentDisposition builds an inline disposition with an RFC 5987
// filename* parameter so non-ASCII names survive byte-exactly, plus an
// ASCII fallback for old user agents.
func contentDisposition(fileName string) string {
	fallback := make([]rune, 0, len(fileName))
	for _, r := range fileName {
		if r >= 0x20 && r < 0x7f && r != '"' && r != '\\' {
			fallback = append(fallback, r)
		} else {
			fallback = append(fallback, '_')
		}
	}
	return fmt.Sprintf(`inline; filename="%s"; filename*=UTF-8''%s`,
		string(fallback), rfc5987Encode(fileName))
}

// rfc5987Encode percent-encodes a UTF-8 string down to the attr-char set
// of RFC 5987 §3.2.1. Stricter than URL path escaping: characters such as
// ':', '=', and '@' must be encoded inside a filename* value.
func rfc5987Encode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			b.WriteByte(c)
		case strings.IndexByte("!#$&+-.^_`|~", c) >= 0:
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

// signURL re-signs an arbitrary stored object reference
func (s *Server) signURL(c *gin.Context) {
	var req models.SignURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	resp, err := s.materialSvc.ResignURL(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "", resp)
}

// uploadMaterial accepts one multipart PDF and stores it
func (s *Server) uploadMaterial(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondBadRequest(c, "a single 'file' form field is required")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		respondBadRequest(c, "failed to read uploaded file")
		return
	}
	defer f.Close()

	resp, err := s.materialSvc.ProcessUpload(c.Request.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		fileHeader.Size,
		f,
	)
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, "file uploaded", resp)
}
