// Reaction HTTP handlers: likes, dislikes and emoji reactions on messages.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-message-board/internal/domain"
)

// PointsResponse carries a message's score after a like-family change.
type PointsResponse struct {
	Points int `json:"points" example:"1"`
}

// ReactionRequest is the JSON payload for adding an emoji reaction.
type ReactionRequest struct {
	// Emoji is one of SMILEY, LAUGHING, FROWN, CRYING, HORROR, SURPRISE,
	// SKEPTICAL, COOL (case-insensitive).
	Emoji string `json:"emoji" binding:"required" example:"SMILEY"`
}

// ReactionResponse echoes the reaction that was added.
type ReactionResponse struct {
	Emoji domain.Emoji `json:"emoji" example:"SMILEY"`
}

// LikeMessage godoc
// @ID          likeMessage
// @Summary     Like a message
// @Description Adds the caller's like, replacing an existing dislike. Returns the new score.
// @Tags        Reactions
// @Produce     json
// @Param       X-User-ID  header  string  true  "Caller identity"  example(bob)
// @Param       id         path    int     true  "Message ID"
// @Success     200  {object}  handlers.PointsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Caller is banned"
// @Failure     409  {object}  handlers.ErrorResponse  "Not found or already liked"
// @Failure     503  {object}  handlers.ErrorResponse  "Store unavailable"
// @Router      /messages/{id}/likes [post]
func (h *Handlers) LikeMessage(c *gin.Context) {
	h.points(c, func(id int64) (int, error) {
		return h.reactSvc.Like(c.Request.Context(), userID(c), id)
	})
}

// DislikeMessage godoc
// @ID          dislikeMessage
// @Summary     Dislike a message
// @Description Adds the caller's dislike, replacing an existing like. Returns the new score.
// @Tags        Reactions
// @Produce     json
// @Param       X-User-ID  header  string  true  "Caller identity"  example(bob)
// @Param       id         path    int     true  "Message ID"
// @Success     200  {object}  handlers.PointsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Caller is banned"
// @Failure     409  {object}  handlers.ErrorResponse  "Not found or already disliked"
// @Failure     503  {object}  handlers.ErrorResponse  "Store unavailable"
// @Router      /messages/{id}/dislikes [post]
func (h *Handlers) DislikeMessage(c *gin.Context) {
	h.points(c, func(id int64) (int, error) {
		return h.reactSvc.Dislike(c.Request.Context(), userID(c), id)
	})
}

// UnlikeMessage godoc
// @ID          unlikeMessage
// @Summary     Withdraw a like
// @Tags        Reactions
// @Produce     json
// @Param       X-User-ID  header  string  true  "Caller identity"  example(bob)
// @Param       id         path    int     true  "Message ID"
// @Success     200  {object}  handlers.PointsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Caller is banned"
// @Failure     409  {object}  handlers.ErrorResponse  "Not found or not liked"
// @Failure     503  {object}  handlers.ErrorResponse  "Store unavailable"
// @Router      /messages/{id}/likes [delete]
func (h *Handlers) UnlikeMessage(c *gin.Context) {
	h.points(c, func(id int64) (int, error) {
		return h.reactSvc.Unset(c.Request.Context(), userID(c), id, string(domain.Like))
	})
}

// UndislikeMessage godoc
// @ID          undislikeMessage
// @Summary     Withdraw a dislike
// @Tags        Reactions
// @Produce     json
// @Param       X-User-ID  header  string  true  "Caller identity"  example(bob)
// @Param       id         path    int     true  "Message ID"
// @Success     200  {object}  handlers.PointsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Caller is banned"
// @Failure     409  {object}  handlers.ErrorResponse  "Not found or not disliked"
// @Failure     503  {object}  handlers.ErrorResponse  "Store unavailable"
// @Router      /messages/{id}/dislikes [delete]
func (h *Handlers) UndislikeMessage(c *gin.Context) {
	h.points(c, func(id int64) (int, error) {
		return h.reactSvc.Unset(c.Request.Context(), userID(c), id, string(domain.Dislike))
	})
}

// ReactToMessage godoc
// @ID          reactToMessage
// @Summary     Add an emoji reaction
// @Description Attaches an emoji from the caller. The same emoji twice fails with 409;
// @Description different emoji from the same caller accumulate.
// @Tags        Reactions
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string  true  "Caller identity"  example(bob)
// @Param       id         path    int     true  "Message ID"
// @Param       body       body    handlers.ReactionRequest  true  "Reaction payload"
// @Success     200  {object}  handlers.ReactionResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Caller is banned"
// @Failure     409  {object}  handlers.ErrorResponse  "Not found or duplicate reaction"
// @Failure     503  {object}  handlers.ErrorResponse  "Store unavailable"
// @Router      /messages/{id}/reactions [post]
func (h *Handlers) ReactToMessage(c *gin.Context) {
	id, valid := messageID(c)
	if !valid {
		return
	}
	var req ReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "emoji required")
		return
	}
	e, err := h.reactSvc.React(c.Request.Context(), userID(c), id, req.Emoji)
	if err != nil {
		failService(c, err)
		return
	}
	reacted(c, e)
}

// points runs a like-family operation against the :id message and writes
// the resulting score.
func (h *Handlers) points(c *gin.Context, op func(id int64) (int, error)) {
	id, valid := messageID(c)
	if !valid {
		return
	}
	pts, err := op(id)
	if err != nil {
		failService(c, err)
		return
	}
	scored(c, pts)
}
