package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/testvault-io/testvault-backend/internal/auth"
	projdomain "github.com/testvault-io/testvault-backend/internal/projects/domain"
	"github.com/testvault-io/testvault-backend/internal/testcases/domain"
)

func (h *Handler) create(c *gin.Context) {
	projectID, ok := pathID(c, "project_id")
	if !ok {
		return
	}

	var req domain.CreateTestCase
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	tc, err := h.svc.Create(c.Request.Context(), &req, projectID, auth.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "test_case": tc})
}

func (h *Handler) get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	tc, err := h.svc.Get(c.Request.Context(), id, auth.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "test_case": tc})
}

func (h *Handler) list(c *gin.Context) {
	projectID, ok := pathID(c, "project_id")
	if !ok {
		return
	}

	query, err := parseSearchQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}

	page, err := h.svc.List(c.Request.Context(), projectID, auth.UserID(c), query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req domain.UpdateTestCase
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	tc, err := h.svc.Update(c.Request.Context(), id, auth.UserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "test_case": tc})
}

func (h *Handler) delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	deleted, err := h.svc.Delete(c.Request.Context(), id, auth.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "test case not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) stats(c *gin.Context) {
	projectID, ok := pathID(c, "project_id")
	if !ok {
		return
	}

	stats, err := h.svc.Stats(c.Request.Context(), projectID, auth.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) similar(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	items, err := h.svc.Similar(c.Request.Context(), id, auth.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "test_cases": items})
}

func (h *Handler) listByStatus(c *gin.Context) {
	h.listBy(c, func(projectID, userID int64) ([]domain.TestCase, error) {
		return h.svc.ListByStatus(c.Request.Context(), projectID, userID, c.Param("status"))
	})
}

func (h *Handler) listByPriority(c *gin.Context) {
	h.listBy(c, func(projectID, userID int64) ([]domain.TestCase, error) {
		return h.svc.ListByPriority(c.Request.Context(), projectID, userID, c.Param("priority"))
	})
}

func (h *Handler) listByType(c *gin.Context) {
	h.listBy(c, func(projectID, userID int64) ([]domain.TestCase, error) {
		return h.svc.ListByType(c.Request.Context(), projectID, userID, c.Param("type"))
	})
}

func (h *Handler) listBy(c *gin.Context, fetch func(projectID, userID int64) ([]domain.TestCase, error)) {
	projectID, ok := pathID(c, "project_id")
	if !ok {
		return
	}

	items, err := fetch(projectID, auth.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "test_cases": items})
}

func (h *Handler) bulkStatus(c *gin.Context) {
	projectID, ok := pathID(c, "project_id")
	if !ok {
		return
	}

	var req bulkStatusReq
	if err := c.ShouldBindJSON(&req); err != nil || len(req.TestCaseIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	result, err := h.svc.BulkSetStatus(c.Request.Context(), projectID, req.TestCaseIDs, req.Status, auth.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func parseSearchQuery(c *gin.Context) (*domain.SearchQuery, error) {
	query := &domain.SearchQuery{
		Title:    c.Query("title"),
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		Type:     c.Query("type"),
	}

	var err error
	if query.Page, err = intQuery(c, "page", 1); err != nil {
		return nil, err
	}
	if query.Size, err = intQuery(c, "size", 10); err != nil {
		return nil, err
	}

	if raw := c.Query("created_by"); raw != "" {
		if query.CreatedBy, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return nil, errors.New("invalid created_by")
		}
	}
	if query.CreatedAfter, err = timeQuery(c, "created_after"); err != nil {
		return nil, err
	}
	if query.CreatedBefore, err = timeQuery(c, "created_before"); err != nil {
		return nil, err
	}

	if raw := c.Query("tags"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				query.Tags = append(query.Tags, tag)
			}
		}
	}
	return query, nil
}

func intQuery(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("invalid " + name)
	}
	return n, nil
}

func timeQuery(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, errors.New("invalid " + name + ", want RFC3339")
	}
	return &t, nil
}

// respondError maps the core error taxonomy onto HTTP statuses. The
// Forbidden/NotFound distinction is preserved here; blurring it further
// is the proxy layer's call, not ours.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, projdomain.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, projdomain.ErrAccessDenied):
		c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, domain.ErrNotFound) || errors.Is(err, projdomain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
	}
}
