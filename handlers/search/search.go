package search

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/simplelms/api/services"
	"github.com/simplelms/api/utils/response"
)

// SearchHandler handles the composite course/content search endpoint
type SearchHandler struct {
	search *services.SearchService
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(search *services.SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

func parseIDList(raw string) []uint {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]uint, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32)
		if err != nil || id == 0 {
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids
}

// Search runs the composite search over courses and contents
func (h *SearchHandler) Search(c *fiber.Ctx) error {
	params := services.SearchParams{
		Query:       strings.TrimSpace(c.Query("q")),
		CategoryIDs: parseIDList(c.Query("category_ids")),
		TagIDs:      parseIDList(c.Query("tag_ids")),
	}

	if raw := c.Query("min_price"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return response.BadRequest(c, "Invalid min_price")
		}
		params.MinPrice = &v
	}
	if raw := c.Query("max_price"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return response.BadRequest(c, "Invalid max_price")
		}
		params.MaxPrice = &v
	}
	if params.MinPrice != nil && params.MaxPrice != nil && *params.MinPrice > *params.MaxPrice {
		return response.BadRequest(c, "min_price cannot exceed max_price")
	}

	if raw := c.Query("teacher_id"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || v == 0 {
			return response.BadRequest(c, "Invalid teacher_id")
		}
		id := uint(v)
		params.TeacherID = &id
	}

	if raw := c.Query("published"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return response.BadRequest(c, "Invalid published flag")
		}
		params.Published = &v
	}

	if raw := c.Query("has_available_slots"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return response.BadRequest(c, "Invalid has_available_slots flag")
		}
		params.HasAvailableSlots = &v
	}

	result, err := h.search.Search(c.Context(), params)
	if err != nil {
		return response.InternalServerError(c, "Search failed")
	}

	return response.Success(c, result)
}
