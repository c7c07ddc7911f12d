// Report HTTP handler.
package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// ReportUser godoc
// @ID          reportUser
// @Summary     Report a user
// @Description Records that the caller reported the named user. A user reported by more
// @Description than five distinct identities is banned from every mutating operation.
// @Description Reporting the same user twice fails with 409.
// @Tags        Moderation
// @Produce     json
// @Param       X-User-ID  header  string  true  "Caller identity"  example(alice)
// @Param       name       path    string  true  "Reported identity"
// @Success     204  "Reported"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Caller is banned"
// @Failure     409  {object}  handlers.ErrorResponse  "Already reported"
// @Failure     503  {object}  handlers.ErrorResponse  "Store unavailable"
// @Router      /users/{name}/reports [post]
func (h *Handlers) ReportUser(c *gin.Context) {
	target := strings.TrimSpace(c.Param("name"))
	if err := h.reportSvc.Report(c.Request.Context(), userID(c), target); err != nil {
		failService(c, err)
		return
	}
	acked(c)
}
