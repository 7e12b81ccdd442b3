package giphy

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Handler exposes GIF search to authenticated clients.
type Handler struct {
	searcher Searcher
	logger   zerolog.Logger
}

func NewHandler(searcher Searcher, logger zerolog.Logger) *Handler {
	return &Handler{searcher: searcher, logger: logger}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/gifs", h.handleSearch)
}

// handleSearch returns trending GIFs when q is empty, search results
// otherwise.
func (h *Handler) handleSearch(c echo.Context) error {
	query := c.QueryParam("q")
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	gifs, err := h.searcher.Search(c.Request().Context(), query, limit)
	if err != nil {
		h.logger.Error().Err(err).Str("query", query).Msg("gif search failed")
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "gif search is unavailable"})
	}

	return c.JSON(http.StatusOK, map[string]any{"data": gifs})
}
