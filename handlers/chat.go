package handlers

import (
	"net/http"

	"marketplace_console_go/services/faq"

	"github.com/labstack/echo/v4"
)

type chatRequest struct {
	Messages []faq.Message `json:"messages"`
}

type chatResponse struct {
	Text string `json:"text"`
}

// Chat answers the latest user message from the FAQ table
// POST /chat
func (h *Handler) Chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	return c.JSON(http.StatusOK, chatResponse{Text: h.faq.Respond(req.Messages)})
}

// ChatPreflight answers a CORS preflight that the CORS middleware did not short-circuit
// OPTIONS /chat
func (h *Handler) ChatPreflight(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}
