package handlers

import (
	"net/http"
	"strconv"

	"bookshelf/internal/controller"
	"bookshelf/internal/dto"
	"bookshelf/internal/service"

	"github.com/gin-gonic/gin"
)

type ShelfHandler struct {
	shelves *service.ShelfService
	notices *controller.NoticeLog
}

func NewShelfHandler(shelves *service.ShelfService, notices *controller.NoticeLog) *ShelfHandler {
	return &ShelfHandler{shelves: shelves, notices: notices}
}

// Shelves godoc
// @Summary      Both shelves, filtered by title
// @Tags         shelves
// @Produce      json
// @Param        q    query     string  false  "Case-insensitive title filter"
// @Success      200  {object}  dto.ShelvesResponse
// @Failure      500  {object}  map[string]string
// @Router       /shelves [get]
func (h *ShelfHandler) Shelves(c *gin.Context) {
	s, err := h.shelves.Shelves(c.Request.Context(), c.Query("q"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewShelvesResponse(s))
}

// Notices godoc
// @Summary      Recent notices, newest last
// @Tags         notices
// @Produce      json
// @Param        active  query     bool  false  "Only notices that have not dismissed themselves yet"
// @Success      200     {object}  dto.ListNoticesResponse
// @Failure      400     {object}  map[string]string
// @Router       /notices [get]
func (h *ShelfHandler) Notices(c *gin.Context) {
	active := false
	if raw := c.Query("active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "active must be true or false"})
			return
		}
		active = v
	}
	list := h.notices.Recent()
	if active {
		list = h.notices.Active()
	}
	c.JSON(http.StatusOK, dto.ListNoticesResponse{Items: dto.NewNoticeResponses(list)})
}
