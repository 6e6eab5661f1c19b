package interfaces

import (
	"context"

	"github.com/KevinKickass/OpenStompCore/internal/config"
	"github.com/KevinKickass/OpenStompCore/internal/controller"
	"github.com/KevinKickass/OpenStompCore/internal/devices"
	"github.com/KevinKickass/OpenStompCore/internal/dispatch"
	"github.com/KevinKickass/OpenStompCore/internal/pages"
)

// SystemStatus represents the current system state
type SystemStatus struct {
	State            string `json:"state"`
	SetupRevision    string `json:"setup_revision"`
	Backend          string `json:"backend"`
	Page             uint8  `json:"page"`
	DeviceCount      int    `json:"device_count"`
	ConnectedDevices int    `json:"connected_devices"`
	Error            string `json:"error,omitempty"`
}

// SwitchSimulator closes and opens matrix switches without hardware.
type SwitchSimulator interface {
	PressSwitch(id uint8) error
	ReleaseSwitch(id uint8) error
}

type LifecycleManager interface {
	Config() *config.Config
	Registry() *devices.Registry
	Dispatcher() *dispatch.Dispatcher
	Book() *pages.Book
	Navigator() *pages.Navigator
	Controller() *controller.Controller
	// Simulator returns nil when the matrix is real hardware
	Simulator() SwitchSimulator
	GetCurrentStatus() SystemStatus
	Shutdown(ctx context.Context) error
}
