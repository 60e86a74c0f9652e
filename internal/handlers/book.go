package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"bookshelf/internal/controller"
	"bookshelf/internal/dto"
	"bookshelf/internal/service"

	"github.com/gin-gonic/gin"
)

type BookHandler struct {
	books *service.BookService
	ctl   *controller.Controller
}

func NewBookHandler(books *service.BookService, ctl *controller.Controller) *BookHandler {
	return &BookHandler{books: books, ctl: ctl}
}

// Create godoc
// @Summary      Add a book
// @Tags         books
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      dto.CreateBookRequest  true  "Book body"
// @Success      201   {object}  dto.BookResponse
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /books [post]
func (h *BookHandler) Create(c *gin.Context) {
	var req dto.CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b, err := h.ctl.SubmitAdd(c.Request.Context(), controller.AddInput{
		Title:      req.Title,
		Author:     req.Author,
		Year:       req.Year.String(),
		IsComplete: req.IsComplete,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewBookResponse(b))
}

// List godoc
// @Summary      List all books in collection order
// @Tags         books
// @Produce      json
// @Success      200  {object}  dto.ListBooksResponse
// @Router       /books [get]
func (h *BookHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, dto.ListBooksResponse{Items: dto.NewBookResponses(h.books.List())})
}

// GetByID godoc
// @Summary      Get a book by ID
// @Tags         books
// @Produce      json
// @Param        id   path      int  true  "Book ID"
// @Success      200  {object}  dto.BookResponse
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /books/{id} [get]
func (h *BookHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	b, found := h.books.FindByID(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, dto.NewBookResponse(b))
}

// Update godoc
// @Summary      Update a book in one request
// @Tags         books
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int  true  "Book ID"
// @Param        body  body      dto.UpdateBookRequest  true  "Partial update"
// @Success      200   {object}  dto.BookResponse
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /books/{id} [patch]
func (h *BookHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in := controller.EditInput{Title: req.Title, Author: req.Author}
	if req.Year != nil {
		year := req.Year.String()
		in.Year = &year
	}
	b, err := h.ctl.Edit(c.Request.Context(), id, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewBookResponse(b))
}

// Toggle godoc
// @Summary      Move a book to the other shelf
// @Tags         books
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Book ID"
// @Success      200  {object}  dto.BookResponse
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /books/{id}/toggle [post]
func (h *BookHandler) Toggle(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	b, err := h.ctl.Toggle(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewBookResponse(b))
}

// Delete godoc
// @Summary      Ask to delete a book
// @Description  Opens a confirmation dialog. The book is removed once the dialog is accepted.
// @Tags         books
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Book ID"
// @Success      202  {object}  dto.DialogResponse
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /books/{id} [delete]
func (h *BookHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	d, err := h.ctl.RequestDelete(id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, dialogResponse(c, d))
}

// Edit godoc
// @Summary      Start the edit wizard for a book
// @Description  Opens a three step dialog: title, author, year. Each answer is posted to the dialog.
// @Tags         books
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Book ID"
// @Success      202  {object}  dto.DialogResponse
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /books/{id}/edit [post]
func (h *BookHandler) Edit(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	d, err := h.ctl.RequestEdit(id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, dialogResponse(c, d))
}

func parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, controller.ErrDialogNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidYear), errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
