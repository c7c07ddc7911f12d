// Package handlers exposes the message board over HTTP.
//
// Handlers are transport-thin: they bind and validate input, call the board
// services, and translate results and sentinel errors into responses. The
// caller's identity comes from middleware.Identity (X-User-ID).
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-message-board/internal/domain"
	"github.com/tbourn/go-message-board/internal/http/middleware"
	"github.com/tbourn/go-message-board/internal/services"
	"github.com/tbourn/go-message-board/internal/utils"
)

//
// Service contracts (context-aware)
//

// MessageService defines the message lifecycle consumed by the handlers.
type MessageService interface {
	Submit(ctx context.Context, author, text string) (int64, error)
	Retrieve(ctx context.Context, author string, page, pageSize int) (*services.Page, error)
	Search(ctx context.Context, q string, page, pageSize int) (*services.Page, error)
	Edit(ctx context.Context, actor string, id int64, text string) error
	Delete(ctx context.Context, actor string, id int64) error
}

// ReactionService defines likes, dislikes and emoji reactions.
type ReactionService interface {
	Like(ctx context.Context, actor string, id int64) (int, error)
	Dislike(ctx context.Context, actor string, id int64) (int, error)
	Unset(ctx context.Context, actor string, id int64, kind string) (int, error)
	React(ctx context.Context, actor string, id int64, emoji string) (domain.Emoji, error)
}

// ReportService defines user reporting.
type ReportService interface {
	Report(ctx context.Context, reporter, target string) error
}

//
// Handler wiring
//

// Handlers groups the board endpoints.
type Handlers struct {
	msgSvc    MessageService
	reactSvc  ReactionService
	reportSvc ReportService
}

// New constructs Handlers bound to the given services.
func New(msgSvc MessageService, reactSvc ReactionService, reportSvc ReportService) *Handlers {
	return &Handlers{msgSvc: msgSvc, reactSvc: reactSvc, reportSvc: reportSvc}
}

//
// DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

func newPagination(p *services.Page) Pagination {
	total := int64(p.Total)
	totalPages := 0
	if p.PageSize > 0 {
		totalPages = int((total + int64(p.PageSize) - 1) / int64(p.PageSize))
	}
	return Pagination{
		Page:       p.Page,
		PageSize:   p.PageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    p.Page < totalPages,
	}
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
		maxPage         = 1_000_000
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// messageID parses the :id path parameter. On failure it writes a 400 and
// returns false.
func messageID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message id must be a non-negative integer")
		return 0, false
	}
	return id, true
}

// userID returns the caller identity resolved by middleware.Identity.
func userID(c *gin.Context) string { return middleware.UserID(c) }
