package rest

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/KevinKickass/OpenStompCore/internal/api/websocket"
	"github.com/KevinKickass/OpenStompCore/internal/devices"
	"github.com/KevinKickass/OpenStompCore/internal/drivers"
	"github.com/KevinKickass/OpenStompCore/internal/types"
	"github.com/gin-gonic/gin"
)

func (s *Server) deviceFromParam(c *gin.Context) (*devices.Device, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 8)
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.CodeInvalidDevice, "Invalid device id", c.Param("id")))
		return nil, false
	}

	device, ok := s.lm.Registry().Get(uint8(id))
	if !ok {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.CodeDeviceNotFound, "Device not found", id))
		return nil, false
	}
	return device, true
}

func (s *Server) deviceView(device *devices.Device) gin.H {
	view := gin.H{
		"id":        device.ID,
		"model":     device.Model,
		"name":      device.Name,
		"full_name": device.FullName,
		"patch_min": device.PatchMin,
		"patch_max": device.PatchMax,
		"enabled":   device.Enabled().String(),
		"connected": device.Connected(),
		"bank":      device.Bank(),
		"settings":  device.Settings(),
	}

	if patch, ok := s.lm.Dispatcher().State().Patch(device.ID); ok {
		view["patch"] = patch
		view["patch_label"] = device.Driver().FormatPatchLabel(patch)
	}
	return view
}

// GET /api/v1/devices
func (s *Server) listDevices(c *gin.Context) {
	list := s.lm.Registry().List()

	response := make([]gin.H, 0, len(list))
	for _, device := range list {
		response = append(response, s.deviceView(device))
	}

	c.JSON(http.StatusOK, gin.H{
		"devices": response,
		"count":   len(response),
	})
}

// GET /api/v1/devices/:id
func (s *Server) getDevice(c *gin.Context) {
	device, ok := s.deviceFromParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.deviceView(device))
}

// GET /api/v1/devices/:id/settings
func (s *Server) getSettings(c *gin.Context) {
	device, ok := s.deviceFromParam(c)
	if !ok {
		return
	}

	record, err := s.lm.Registry().ReadSettings(device.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.CodeInvalidSettings, "Failed to read settings", err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":       device.ID,
		"record":   recordView(record),
		"settings": device.Settings(),
	})
}

// PUT /api/v1/devices/:id/settings
//
// The body carries either a complete record or single values by menu key,
// which are applied on top of the current record.
func (s *Server) applySettings(c *gin.Context) {
	device, ok := s.deviceFromParam(c)
	if !ok {
		return
	}

	var req struct {
		Record []int            `json:"record"`
		Values map[string]uint8 `json:"values"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.CodeInvalidSettings, "Invalid request body", err.Error()))
		return
	}

	record, err := s.buildRecord(device.ID, req.Record, req.Values)
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.CodeInvalidSettings, "Invalid settings", err.Error()))
		return
	}

	if err := s.lm.Registry().ApplySettings(device.ID, record); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, devices.ErrRecordLength) {
			status = http.StatusBadRequest
		}
		c.JSON(status, types.NewErrorResponse(types.CodeInvalidSettings, "Failed to apply settings", err.Error()))
		return
	}

	s.wsHub.Broadcast(websocket.NewMessage(websocket.MessageTypeDeviceSettings, gin.H{
		"id":       device.ID,
		"settings": device.Settings(),
	}))

	applied, _ := s.lm.Registry().ReadSettings(device.ID)
	c.JSON(http.StatusOK, gin.H{
		"id":       device.ID,
		"record":   recordView(applied),
		"settings": device.Settings(),
	})
}

func (s *Server) buildRecord(id uint8, raw []int, values map[string]uint8) ([]byte, error) {
	if raw == nil && len(values) == 0 {
		return nil, errors.New("record or values required")
	}

	var record []byte
	if raw != nil {
		record = make([]byte, len(raw))
		for i, v := range raw {
			if v < 0 || v > 255 {
				return nil, fmt.Errorf("record byte %d out of range: %d", i, v)
			}
			record[i] = byte(v)
		}
	} else {
		current, err := s.lm.Registry().ReadSettings(id)
		if err != nil {
			return nil, err
		}
		record = current
	}

	if len(values) == 0 {
		return record, nil
	}
	if len(record) != devices.RecordLength {
		return nil, devices.ErrRecordLength
	}

	offsets := make(map[string]int)
	for _, field := range devices.Menu() {
		offsets[field.Key] = field.Offset
	}
	for key, v := range values {
		offset, ok := offsets[key]
		if !ok {
			return nil, fmt.Errorf("unknown setting %q", key)
		}
		record[offset] = v
	}
	return record, nil
}

// recordView keeps the record a JSON array of numbers instead of base64.
func recordView(record []byte) []int {
	view := make([]int, len(record))
	for i, b := range record {
		view[i] = int(b)
	}
	return view
}

// GET /api/v1/devices/:id/parameters
func (s *Server) listParameters(c *gin.Context) {
	device, ok := s.deviceFromParam(c)
	if !ok {
		return
	}

	state := s.lm.Dispatcher().State()
	parameters := drivers.Describe(device.Driver(), func(index uint16) uint8 {
		return state.ParameterValue(device.ID, index)
	})

	c.JSON(http.StatusOK, gin.H{
		"id":         device.ID,
		"parameters": parameters,
		"count":      len(parameters),
	})
}
