package rest

import (
	"net/http"

	"github.com/KevinKickass/OpenStompCore/internal/types"
	"github.com/gin-gonic/gin"
)

// GET /api/v1/pages
func (s *Server) listPages(c *gin.Context) {
	book := s.lm.Book()

	response := make([]gin.H, 0)
	for _, id := range book.IDs() {
		page, _ := book.Page(id)

		switches := gin.H{}
		for _, sw := range page.Switches() {
			switches[itoa(sw)] = page.Commands(sw)
		}

		response = append(response, gin.H{
			"id":       page.ID,
			"name":     page.Name,
			"switches": switches,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"pages":   response,
		"current": s.lm.Navigator().Current(),
	})
}

// GET /api/v1/pages/current
func (s *Server) getCurrentPage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"page": s.lm.Navigator().Current(),
	})
}

// PUT /api/v1/pages/current
func (s *Server) openPage(c *gin.Context) {
	var req struct {
		Page *types.PageID `json:"page" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.CodeInvalidCommand, "Invalid request body", err.Error()))
		return
	}

	if !s.lm.Navigator().Open(*req.Page) {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.CodeInvalidCommand, "Page not defined", *req.Page))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"page": s.lm.Navigator().Current(),
	})
}
