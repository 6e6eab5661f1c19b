package websocket

import "time"

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Switch matrix messages
	MessageTypeSwitchEvent MessageType = "switch_event"

	// Dispatch messages
	MessageTypeCommandDispatched MessageType = "command_dispatched"
	MessageTypePageChanged       MessageType = "page_changed"

	// Device messages
	MessageTypeDeviceDetected MessageType = "device_detected"
	MessageTypeDeviceLost     MessageType = "device_lost"
	MessageTypeDeviceSettings MessageType = "device_settings"

	// Controller and system messages
	MessageTypeControllerState MessageType = "controller_state"
	MessageTypeSystemStatus    MessageType = "system_status"
)

// Message represents a WebSocket message
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      any         `json:"data"`
}

// SwitchEventData is sent for every debounced switch transition
type SwitchEventData struct {
	Switch uint8  `json:"switch"`
	Kind   string `json:"kind"`
	Page   uint8  `json:"page"`
}

// DeviceData identifies a device in device messages
type DeviceData struct {
	ID   uint8  `json:"id"`
	Name string `json:"name"`
}

// PageData carries the page now shown on the controller
type PageData struct {
	Page     uint8 `json:"page"`
	Previous uint8 `json:"previous"`
}

// ControllerStateData represents a controller state change
type ControllerStateData struct {
	State    string `json:"state"`
	Previous string `json:"previous_state"`
}

// NewMessage creates a new message with current timestamp
func NewMessage(msgType MessageType, data any) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

func NewSwitchEventMessage(id uint8, kind string, page uint8) Message {
	return NewMessage(MessageTypeSwitchEvent, SwitchEventData{
		Switch: id,
		Kind:   kind,
		Page:   page,
	})
}

func NewDeviceMessage(msgType MessageType, id uint8, name string) Message {
	return NewMessage(msgType, DeviceData{ID: id, Name: name})
}

func NewPageMessage(page, previous uint8) Message {
	return NewMessage(MessageTypePageChanged, PageData{Page: page, Previous: previous})
}

func NewControllerStateMessage(newState, previousState string) Message {
	return NewMessage(MessageTypeControllerState, ControllerStateData{
		State:    newState,
		Previous: previousState,
	})
}
