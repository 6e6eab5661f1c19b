package rest

import (
	"net/http"
	"strconv"

	"github.com/KevinKickass/OpenStompCore/internal/types"
	"github.com/gin-gonic/gin"
)

// POST /api/v1/commands
func (s *Server) dispatchCommand(c *gin.Context) {
	var cmd types.Command
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.CodeInvalidCommand, "Invalid request body", err.Error()))
		return
	}
	if !cmd.Opcode.Valid() {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.CodeInvalidCommand, "Unknown opcode", cmd.Opcode))
		return
	}

	action, err := s.lm.Dispatcher().Dispatch(cmd)
	if err != nil {
		c.JSON(http.StatusBadGateway, types.NewErrorResponse(types.CodeInvalidCommand, "Command not delivered", err.Error()))
		return
	}

	c.JSON(http.StatusOK, action)
}

// GET /api/v1/controller/status
func (s *Server) getControllerStatus(c *gin.Context) {
	ctrl := s.lm.Controller()
	if ctrl == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "controller not started"})
		return
	}
	c.JSON(http.StatusOK, ctrl.Status())
}

// POST /api/v1/switches/:id/press
func (s *Server) pressSwitch(c *gin.Context) {
	s.simulateSwitch(c, true)
}

// POST /api/v1/switches/:id/release
func (s *Server) releaseSwitch(c *gin.Context) {
	s.simulateSwitch(c, false)
}

func (s *Server) simulateSwitch(c *gin.Context, press bool) {
	simulator := s.lm.Simulator()
	if simulator == nil {
		c.JSON(http.StatusConflict, types.NewErrorResponse(types.CodeSwitchSimulator, "Switch matrix is not simulated", nil))
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 8)
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.CodeSwitchSimulator, "Invalid switch id", c.Param("id")))
		return
	}

	if press {
		err = simulator.PressSwitch(uint8(id))
	} else {
		err = simulator.ReleaseSwitch(uint8(id))
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.CodeSwitchSimulator, "Invalid switch", err.Error()))
		return
	}

	kind := types.SwitchReleased
	if press {
		kind = types.SwitchPressed
	}
	c.JSON(http.StatusAccepted, gin.H{
		"switch": id,
		"kind":   kind,
	})
}

func itoa(id uint8) string {
	return strconv.Itoa(int(id))
}
