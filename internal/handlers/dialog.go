package handlers

import (
	"net/http"
	"strings"

	"bookshelf/internal/controller"
	"bookshelf/internal/dto"

	"github.com/gin-gonic/gin"
)

type DialogHandler struct {
	ctl *controller.Controller
}

func NewDialogHandler(ctl *controller.Controller) *DialogHandler {
	return &DialogHandler{ctl: ctl}
}

// Get godoc
// @Summary      Show the current prompt of a dialog
// @Tags         dialogs
// @Produce      json
// @Param        token  path      string  true  "Dialog token"
// @Success      200    {object}  dto.DialogResponse
// @Failure      404    {object}  map[string]string
// @Router       /dialogs/{token} [get]
func (h *DialogHandler) Get(c *gin.Context) {
	d, ok := h.ctl.Pending(c.Param("token"))
	if !ok {
		writeError(c, controller.ErrDialogNotFound)
		return
	}
	c.JSON(http.StatusOK, dialogResponse(c, d))
}

// Respond godoc
// @Summary      Answer the current prompt of a dialog
// @Description  accept=false cancels the dialog. Returns the next prompt (202) or done (200).
// @Tags         dialogs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        token  path      string             true  "Dialog token"
// @Param        body   body      dto.AnswerRequest  true  "Answer"
// @Success      200    {object}  dto.DialogDoneResponse
// @Success      202    {object}  dto.DialogResponse
// @Failure      400    {object}  map[string]string
// @Failure      404    {object}  map[string]string
// @Failure      500    {object}  map[string]string
// @Router       /dialogs/{token} [post]
func (h *DialogHandler) Respond(c *gin.Context) {
	var req dto.AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	next, done, err := h.ctl.Respond(c.Request.Context(), c.Param("token"), controller.Answer{
		Accept: req.Accept,
		Value:  req.Value,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	if done {
		c.JSON(http.StatusOK, dto.DialogDoneResponse{Done: true})
		return
	}
	c.JSON(http.StatusAccepted, dialogResponse(c, next))
}

// Cancel godoc
// @Summary      Cancel a dialog
// @Tags         dialogs
// @Security     BearerAuth
// @Param        token  path  string  true  "Dialog token"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /dialogs/{token} [delete]
func (h *DialogHandler) Cancel(c *gin.Context) {
	if err := h.ctl.Cancel(c.Param("token")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// dialogResponse points the client at the answer endpoint under the same API prefix.
func dialogResponse(c *gin.Context, d controller.Dialog) dto.DialogResponse {
	prefix := c.FullPath()
	if i := strings.Index(prefix, "/books"); i >= 0 {
		prefix = prefix[:i]
	} else if i := strings.Index(prefix, "/dialogs"); i >= 0 {
		prefix = prefix[:i]
	}
	return dto.NewDialogResponse(d, prefix+"/dialogs/"+d.Token)
}
