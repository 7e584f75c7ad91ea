package documents

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"contadoc-backend/internal/access"
	"contadoc-backend/internal/audit"
	"contadoc-backend/internal/classify"
	"contadoc-backend/internal/companies"
	"contadoc-backend/internal/shared/server/respond"
	"contadoc-backend/internal/users"
)

const (
	maxUploadSize  = 50 << 20 // 50MB per file
	maxUploadFiles = 100
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches document routes to the router group. Audit action
// tags are bound here, at registration, so the recorded action never depends
// on how the request turned out.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents/upload", audit.Tag(audit.ActionUploadDocument), access.RequireRole(users.RoleAdmin), h.upload)
	rg.GET("/documents", audit.Tag(audit.ActionViewDocument), h.list)
	rg.GET("/documents/:id", audit.Tag(audit.ActionViewDocument), h.get)
	rg.GET("/documents/:id/download", audit.Tag(audit.ActionDownloadDocument), h.download)
	rg.GET("/documents/:id/protocols", audit.Tag(audit.ActionViewDocument), h.protocols)
	rg.POST("/documents/:id/reprocess", audit.Tag(audit.ActionOther), access.RequireRole(users.RoleAdmin), h.reprocess)
	rg.DELETE("/documents/:id", audit.Tag(audit.ActionDeleteDocument), access.RequireRole(users.RoleAdmin), h.delete)
}

func (h *Handler) upload(c *gin.Context) {
	actor := access.IdentityFromContext(c)

	form, err := c.MultipartForm()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "multipart form is required", nil)
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "no files sent", nil)
		return
	}
	if len(files) > maxUploadFiles {
		respond.Error(c, http.StatusBadRequest, "validation_error", fmt.Sprintf("at most %d files per upload", maxUploadFiles), nil)
		return
	}

	companyID := strings.TrimSpace(c.PostForm("companyId"))
	if companyID == "" {
		companyID = actor.CompanyID
	}
	if _, err := h.Svc.Companies.GetByID(c.Request.Context(), companyID); err != nil {
		if err == companies.ErrNotFound {
			respond.Error(c, http.StatusNotFound, "not_found", "company not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to resolve company", nil)
		return
	}

	results := make([]uploadResult, 0, len(files))
	succeeded := 0
	for _, fileHeader := range files {
		data, err := readUploadFile(fileHeader)
		if err != nil {
			results = append(results, uploadResult{FileName: fileHeader.Filename, Error: err.Error()})
			continue
		}

		doc, jobID, err := h.Svc.Upload(c.Request.Context(), UploadInput{
			CompanyID:    companyID,
			UploadedBy:   actor.Name,
			OriginalName: fileHeader.Filename,
			MimeType:     fileHeader.Header.Get("Content-Type"),
			Data:         data,
		})
		if err != nil {
			results = append(results, uploadResult{FileName: fileHeader.Filename, Error: uploadErrorMessage(err)})
			continue
		}
		succeeded++
		results = append(results, uploadResult{
			Success:    true,
			DocumentID: doc.ID,
			JobID:      jobID,
			FileName:   fileHeader.Filename,
		})
	}

	respond.JSON(c, http.StatusCreated, gin.H{
		"message": fmt.Sprintf("%d of %d files accepted", succeeded, len(files)),
		"results": results,
	})
}

func readUploadFile(fileHeader *multipart.FileHeader) ([]byte, error) {
	if fileHeader.Size > maxUploadSize {
		return nil, fmt.Errorf("file exceeds %d bytes", int64(maxUploadSize))
	}
	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("unable to read file")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("unable to read file")
	}
	if int64(len(data)) > maxUploadSize {
		return nil, fmt.Errorf("file exceeds %d bytes", int64(maxUploadSize))
	}
	return data, nil
}

func uploadErrorMessage(err error) string {
	if errors.Is(err, ErrInvalidInput) {
		return err.Error()
	}
	return "failed to upload document"
}

func (h *Handler) list(c *gin.Context) {
	actor := access.IdentityFromContext(c)

	filter, err := listFilterFromQuery(c)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}
	filter, err = scopeFilter(actor, filter)
	if err != nil {
		respond.Error(c, http.StatusForbidden, "forbidden", "filter outside allowed scope", nil)
		return
	}

	docs, total, err := h.Svc.List(c.Request.Context(), filter)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list documents", nil)
		return
	}

	items := make([]documentResponse, 0, len(docs))
	for _, doc := range docs {
		items = append(items, toResponse(doc))
	}
	respond.OK(c, listResponse{
		Items:  items,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

func (h *Handler) get(c *gin.Context) {
	doc, ok := h.fetchVisible(c)
	if !ok {
		return
	}
	respond.OK(c, toResponse(doc))
}

func (h *Handler) download(c *gin.Context) {
	doc, ok := h.fetchVisible(c)
	if !ok {
		return
	}
	actor := access.IdentityFromContext(c)

	result, err := h.Svc.Download(c.Request.Context(), doc, DownloadInput{
		UserID:    actor.UserID,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNotAvailable):
			respond.Error(c, http.StatusConflict, "not_available", err.Error(), nil)
		case errors.Is(err, ErrIntegrity):
			respond.Error(c, http.StatusInternalServerError, "integrity_error", "stored content failed verification", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to retrieve document", nil)
		}
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.FileName))
	c.Header("X-Protocol-Id", result.Protocol.ID)
	mimeType := result.MimeType
	if mimeType == "" {
		mimeType = "application/pdf"
	}
	c.Data(http.StatusOK, mimeType, result.Data)
}

func (h *Handler) protocols(c *gin.Context) {
	doc, ok := h.fetchVisible(c)
	if !ok {
		return
	}

	protocols, err := h.Svc.ListProtocols(c.Request.Context(), doc.ID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list protocols", nil)
		return
	}

	items := make([]protocolResponse, 0, len(protocols))
	for _, p := range protocols {
		items = append(items, toProtocolResponse(p))
	}
	respond.OK(c, gin.H{"items": items})
}

func (h *Handler) reprocess(c *gin.Context) {
	jobID, err := h.Svc.Reprocess(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		case errors.Is(err, ErrNotReprocessable):
			respond.Error(c, http.StatusConflict, "not_reprocessable", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to reprocess document", nil)
		}
		return
	}
	respond.JSON(c, http.StatusAccepted, gin.H{"jobId": jobID})
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete document", nil)
		}
		return
	}
	c.Status(http.StatusNoContent)
}

// fetchVisible loads the document and applies the visibility rule. A
// document outside the caller's scope reads as not found, so the response
// does not reveal whether it exists.
func (h *Handler) fetchVisible(c *gin.Context) (Document, bool) {
	doc, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch document", nil)
		}
		return Document{}, false
	}
	if !access.DocumentVisible(access.IdentityFromContext(c), doc.CompanyID, doc.Category) {
		respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		return Document{}, false
	}
	c.Set("documentId", doc.ID)
	return doc, true
}

// scopeFilter narrows a list filter to the caller's scope. A filter that
// explicitly asks for something outside that scope is rejected rather than
// silently narrowed.
func scopeFilter(actor access.Identity, filter ListFilter) (ListFilter, error) {
	scope, err := access.ScopeFor(actor)
	if err != nil {
		return ListFilter{}, err
	}
	if scope.Unrestricted {
		return filter, nil
	}
	if filter.CompanyID != "" && filter.CompanyID != scope.CompanyID {
		return ListFilter{}, access.ErrForbidden
	}
	filter.CompanyID = scope.CompanyID
	if scope.Category != "" {
		if filter.Category != "" && filter.Category != scope.Category {
			return ListFilter{}, access.ErrForbidden
		}
		filter.Category = scope.Category
	}
	return filter, nil
}

func listFilterFromQuery(c *gin.Context) (ListFilter, error) {
	filter := ListFilter{Limit: 20}

	if v := c.Query("category"); v != "" {
		category := classify.Category(v)
		if !category.Valid() {
			return ListFilter{}, fmt.Errorf("unknown category %q", v)
		}
		filter.Category = category
	}
	if v := c.Query("status"); v != "" {
		status := Status(v)
		if !status.Valid() {
			return ListFilter{}, fmt.Errorf("unknown status %q", v)
		}
		filter.Status = status
	}
	filter.CompanyID = c.Query("companyId")

	if v := c.Query("from"); v != "" {
		from, err := parseDate(v)
		if err != nil {
			return ListFilter{}, err
		}
		filter.From = &from
	}
	if v := c.Query("to"); v != "" {
		to, err := parseDate(v)
		if err != nil {
			return ListFilter{}, err
		}
		filter.To = &to
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return ListFilter{}, fmt.Errorf("invalid limit %q", v)
		}
		if limit > 100 {
			limit = 100
		}
		filter.Limit = limit
	}
	if v := c.Query("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return ListFilter{}, fmt.Errorf("invalid offset %q", v)
		}
		filter.Offset = offset
	}
	return filter, nil
}

func parseDate(v string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", v)
}
