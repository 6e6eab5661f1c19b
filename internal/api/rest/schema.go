package rest

import (
	"net/http"

	"github.com/KevinKickass/OpenStompCore/internal/devices"
	"github.com/KevinKickass/OpenStompCore/internal/drivers"
	"github.com/KevinKickass/OpenStompCore/internal/types"
	"github.com/gin-gonic/gin"
)

// GET /api/v1/models
func (s *Server) listModels(c *gin.Context) {
	models := drivers.Models()

	response := make([]gin.H, 0, len(models))
	for _, model := range models {
		driver, err := drivers.New(model)
		if err != nil {
			continue
		}
		def := driver.Defaults()

		supported := make([]types.Opcode, 0)
		for _, op := range types.Opcodes {
			if driver.CheckCommandEnabled(op) {
				supported = append(supported, op)
			}
		}

		response = append(response, gin.H{
			"model":      model,
			"name":       def.Name,
			"full_name":  def.FullName,
			"patch_min":  def.PatchMin,
			"patch_max":  def.PatchMax,
			"parameters": driver.ParameterCount(),
			"opcodes":    supported,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"models": response,
		"count":  len(response),
	})
}

// GET /api/v1/menu
func (s *Server) getMenu(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"record_length": devices.RecordLength,
		"fields":        devices.Menu(),
	})
}

// GET /api/v1/opcodes
func (s *Server) listOpcodes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"opcodes": types.Opcodes,
	})
}
