package audit

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"contadoc-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the audit repository.
type Handler struct {
	Repo Repo
}

// NewHandler constructs a Handler.
func NewHandler(repo Repo) *Handler {
	return &Handler{Repo: repo}
}

// RegisterRoutes attaches the log routes to the router group. The caller is
// expected to gate the group to ADMIN.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/logs", Tag(ActionAccessLogs), h.list)
	rg.GET("/logs/export", Tag(ActionAccessLogs), h.export)
	rg.GET("/logs/stats", Tag(ActionAccessLogs), h.stats)
}

func (h *Handler) list(c *gin.Context) {
	filter, err := filterFromQuery(c)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}

	entries, total, err := h.Repo.List(c.Request.Context(), filter)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list logs", nil)
		return
	}

	items := make([]entryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, toEntryResponse(entry))
	}
	respond.OK(c, gin.H{
		"items":  items,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

func (h *Handler) export(c *gin.Context) {
	filter, err := filterFromQuery(c)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}
	// Exports are unpaged within the date window.
	filter.Limit = exportLimit
	filter.Offset = 0

	entries, _, err := h.Repo.List(c.Request.Context(), filter)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to export logs", nil)
		return
	}

	stamp := time.Now().UTC().Format("20060102150405")
	if c.Query("format") == "xlsx" {
		payload, err := ExportXLSX(entries)
		if err != nil {
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to render workbook", nil)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "logs_"+stamp+".xlsx"))
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", payload)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "logs_"+stamp+".csv"))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", ExportCSV(entries))
}

func (h *Handler) stats(c *gin.Context) {
	filter, err := filterFromQuery(c)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}

	stats, err := h.Repo.Stats(c.Request.Context(), filter)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to compute stats", nil)
		return
	}
	respond.OK(c, stats)
}

// exportLimit bounds a single export so a runaway window cannot exhaust
// memory.
const exportLimit = 100_000

func filterFromQuery(c *gin.Context) (ListFilter, error) {
	filter := ListFilter{
		UserID: c.Query("userId"),
		Limit:  50,
	}

	if v := c.Query("action"); v != "" {
		action := Action(v)
		if !action.Valid() {
			return ListFilter{}, fmt.Errorf("unknown action %q", v)
		}
		filter.Action = action
	}
	if v := c.Query("success"); v != "" {
		success, err := strconv.ParseBool(v)
		if err != nil {
			return ListFilter{}, fmt.Errorf("invalid success flag %q", v)
		}
		filter.Success = &success
	}
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
		if limit > 500 {
			limit = 500
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

type entryResponse struct {
	ID           string `json:"id"`
	UserID       string `json:"userId,omitempty"`
	UserName     string `json:"userName,omitempty"`
	UserEmail    string `json:"userEmail,omitempty"`
	UserRole     string `json:"userRole,omitempty"`
	Action       string `json:"action"`
	Description  string `json:"description"`
	ResourceID   string `json:"resourceId,omitempty"`
	IPAddress    string `json:"ipAddress"`
	UserAgent    string `json:"userAgent"`
	Success      bool   `json:"success"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	CreatedAt    string `json:"createdAt"`
}

func toEntryResponse(entry Entry) entryResponse {
	return entryResponse{
		ID:           entry.ID,
		UserID:       entry.UserID,
		UserName:     entry.UserName,
		UserEmail:    entry.UserEmail,
		UserRole:     entry.UserRole,
		Action:       string(entry.Action),
		Description:  entry.Description,
		ResourceID:   entry.ResourceID,
		IPAddress:    entry.IPAddress,
		UserAgent:    entry.UserAgent,
		Success:      entry.Success,
		ErrorMessage: entry.ErrorMessage,
		CreatedAt:    entry.CreatedAt.UTC().Format(time.RFC3339),
	}
}
