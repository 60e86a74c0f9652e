package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"bookshelf/internal/controller"
	dom "bookshelf/internal/domain"
	"bookshelf/internal/view"
)

// YearInput accepts the year as a JSON number (1965) or as the raw text a form
// would send ("1965"). The text is validated by the service, not here.
type YearInput struct{ raw string }

func (y *YearInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		y.raw = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		y.raw = s
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("year: use a number or a string")
	}
	if _, err := strconv.Atoi(n.String()); err != nil {
		return fmt.Errorf("year: %q is not a whole number", n.String())
	}
	y.raw = n.String()
	return nil
}

// String returns the year as entered.
func (y YearInput) String() string { return y.raw }

// Year builds a YearInput from text, for callers outside JSON decoding.
func Year(s string) YearInput { return YearInput{raw: s} }

type CreateBookRequest struct {
	Title      string    `json:"title" binding:"max=200"`
	Author     string    `json:"author" binding:"max=200"`
	Year       YearInput `json:"year" swaggertype:"string" example:"1965"`
	IsComplete bool      `json:"isComplete"`
}

type UpdateBookRequest struct {
	Title  *string    `json:"title" binding:"omitempty,max=200"`
	Author *string    `json:"author" binding:"omitempty,max=200"`
	Year   *YearInput `json:"year" swaggertype:"string"` // nil = keep
}

type BookResponse struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Author     string `json:"author"`
	Year       int    `json:"year"`
	IsComplete bool   `json:"isComplete"`
	Shelf      string `json:"shelf"`
}

type ListBooksResponse struct {
	Items []BookResponse `json:"items"`
}

type ShelvesResponse struct {
	Query      string         `json:"query"`
	Incomplete []BookResponse `json:"incomplete"`
	Complete   []BookResponse `json:"complete"`
}

type DialogResponse struct {
	Token   string            `json:"token"`
	Kind    string            `json:"kind"`
	BookID  int64             `json:"bookId"`
	Step    int               `json:"step"`
	Steps   int               `json:"steps"`
	Prompt  controller.Prompt `json:"prompt"`
	Respond string            `json:"respond"`
}

type AnswerRequest struct {
	Accept bool   `json:"accept"`
	Value  string `json:"value"`
}

type DialogDoneResponse struct {
	Done bool `json:"done"`
}

type NoticeResponse struct {
	Message  string    `json:"message"`
	Severity string    `json:"severity"`
	At       time.Time `json:"at"`
	Expires  time.Time `json:"expires"`
}

type ListNoticesResponse struct {
	Items []NoticeResponse `json:"items"`
}

func NewBookResponse(b dom.Book) BookResponse {
	return BookResponse{
		ID:         b.ID,
		Title:      b.Title,
		Author:     b.Author,
		Year:       b.Year,
		IsComplete: b.IsComplete,
		Shelf:      b.Shelf(),
	}
}

func NewBookResponses(list []dom.Book) []BookResponse {
	out := make([]BookResponse, len(list))
	for i := range list {
		out[i] = NewBookResponse(list[i])
	}
	return out
}

func NewShelvesResponse(s view.Shelves) ShelvesResponse {
	return ShelvesResponse{
		Query:      s.Query,
		Incomplete: NewBookResponses(s.Incomplete),
		Complete:   NewBookResponses(s.Complete),
	}
}

// NewDialogResponse renders d; respondPath is where the answer is posted.
func NewDialogResponse(d controller.Dialog, respondPath string) DialogResponse {
	return DialogResponse{
		Token:   d.Token,
		Kind:    d.Kind,
		BookID:  d.BookID,
		Step:    d.Step,
		Steps:   d.Steps,
		Prompt:  d.Prompt,
		Respond: respondPath,
	}
}

func NewNoticeResponses(list []controller.Notice) []NoticeResponse {
	out := make([]NoticeResponse, len(list))
	for i, n := range list {
		out[i] = NoticeResponse{
			Message:  n.Message,
			Severity: string(n.Severity),
			At:       n.At,
			Expires:  n.At.Add(n.Duration),
		}
	}
	return out
}
