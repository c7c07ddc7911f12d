// Message HTTP handlers.
//
// This file exposes REST endpoints for board messages:
//   - POST   /messages           (submit as the caller)
//   - GET    /messages           (list, optionally by author)
//   - GET    /messages/search    (case-insensitive text/author search)
//   - PUT    /messages/{id}      (edit own message)
//   - DELETE /messages/{id}      (delete own message)
//
// Text is trimmed and length-checked by the service; the handler only binds.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-message-board/internal/domain"
	"github.com/tbourn/go-message-board/internal/services"
)

// MessageTextRequest is the JSON payload for submitting or editing a message.
type MessageTextRequest struct {
	// Text is the message body. It must be non-blank.
	Text string `json:"text" binding:"required" example:"hello board"`
}

// PostMessageResponse carries the id the store assigned.
type PostMessageResponse struct {
	ID int64 `json:"id" example:"0"`
}

// ListMessagesResponse contains a page of messages and pagination metadata.
type ListMessagesResponse struct {
	Messages   []*domain.UserMessage `json:"messages"`
	Pagination Pagination            `json:"pagination"`
}

// PostMessage godoc
// @ID          postMessage
// @Summary     Submit a message
// @Description Posts a message authored by the caller. Posting text identical to one of
// @Description the caller's existing messages fails with 409.
// @Description Supports idempotency via the Idempotency-Key header (same key → same result).
// @Tags        Messages
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  true  "Caller identity"  example(alice)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"
// @Param       body             body    handlers.MessageTextRequest  true  "Message payload"
//
// @Success     201  {object}  handlers.PostMessageResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Caller is banned"
// @Failure     409  {object}  handlers.ErrorResponse  "Duplicate message"
// @Failure     503  {object}  handlers.ErrorResponse  "Store unavailable"
// @Router      /messages [post]
func (h *Handlers) PostMessage(c *gin.Context) {
	var req MessageTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "text required")
		return
	}
	id, err := h.msgSvc.Submit(c.Request.Context(), userID(c), req.Text)
	if err != nil {
		failService(c, err)
		return
	}
	created(c, id)
}

// ListMessages godoc
// @ID          listMessages
// @Summary     List messages
// @Description Returns messages in posting order. With author set, only that author's
// @Description messages (exact match) are returned.
// @Tags        Messages
// @Produce     json
//
// @Param       author     query  string  false "Exact author identity"
// @Param       page       query  int     false "Page number"     minimum(1) default(1)
// @Param       page_size  query  int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListMessagesResponse
// @Failure     503  {object} handlers.ErrorResponse "Store unavailable"
// @Router      /messages [get]
func (h *Handlers) ListMessages(c *gin.Context) {
	page, pageSize := clampPagination(c)
	ctx := c.Request.Context()

	var (
		res *services.Page
		err error
	)
	if author := strings.TrimSpace(c.Query("author")); author != "" {
		res, err = h.msgSvc.Retrieve(ctx, author, page, pageSize)
	} else {
		res, err = h.msgSvc.Search(ctx, "", page, pageSize)
	}
	if err != nil {
		failService(c, err)
		return
	}
	listed(c, res)
}

// SearchMessages godoc
// @ID          searchMessages
// @Summary     Search messages
// @Description Returns messages whose author or text contains q, ignoring case.
// @Tags        Messages
// @Produce     json
//
// @Param       q          query  string  true  "Search text"
// @Param       page       query  int     false "Page number"     minimum(1) default(1)
// @Param       page_size  query  int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListMessagesResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     503  {object} handlers.ErrorResponse "Store unavailable"
// @Router      /messages/search [get]
func (h *Handlers) SearchMessages(c *gin.Context) {
	q := c.Query("q")
	if strings.TrimSpace(q) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "q required")
		return
	}
	page, pageSize := clampPagination(c)

	res, err := h.msgSvc.Search(c.Request.Context(), q, page, pageSize)
	if err != nil {
		failService(c, err)
		return
	}
	listed(c, res)
}

// EditMessage godoc
// @ID          editMessage
// @Summary     Edit a message
// @Description Replaces the text of one of the caller's messages. The id is kept.
// @Description Editing to text identical to any of the caller's messages fails with 409.
// @Tags        Messages
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "Caller identity"  example(alice)
// @Param       id         path    int     true  "Message ID"
// @Param       body       body    handlers.MessageTextRequest  true  "New text"
//
// @Success     204  "Edited"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Caller is banned"
// @Failure     409  {object}  handlers.ErrorResponse  "Not found, not the author, or duplicate text"
// @Failure     503  {object}  handlers.ErrorResponse  "Store unavailable"
// @Router      /messages/{id} [put]
func (h *Handlers) EditMessage(c *gin.Context) {
	id, valid := messageID(c)
	if !valid {
		return
	}
	var req MessageTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "text required")
		return
	}
	if err := h.msgSvc.Edit(c.Request.Context(), userID(c), id, req.Text); err != nil {
		failService(c, err)
		return
	}
	acked(c)
}

// DeleteMessage godoc
// @ID          deleteMessage
// @Summary     Delete a message
// @Description Deletes one of the caller's messages. Ids are never reused.
// @Tags        Messages
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "Caller identity"  example(alice)
// @Param       id         path    int     true  "Message ID"
//
// @Success     204  "Deleted"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Caller is banned"
// @Failure     409  {object}  handlers.ErrorResponse  "Not found or not the author"
// @Failure     503  {object}  handlers.ErrorResponse  "Store unavailable"
// @Router      /messages/{id} [delete]
func (h *Handlers) DeleteMessage(c *gin.Context) {
	id, valid := messageID(c)
	if !valid {
		return
	}
	if err := h.msgSvc.Delete(c.Request.Context(), userID(c), id); err != nil {
		failService(c, err)
		return
	}
	acked(c)
}
