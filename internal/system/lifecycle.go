package system

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/KevinKickass/OpenStompCore/internal/api/rest"
	"github.com/KevinKickass/OpenStompCore/internal/api/websocket"
	"github.com/KevinKickass/OpenStompCore/internal/config"
	"github.com/KevinKickass/OpenStompCore/internal/controller"
	"github.com/KevinKickass/OpenStompCore/internal/detect"
	"github.com/KevinKickass/OpenStompCore/internal/devices"
	"github.com/KevinKickass/OpenStompCore/internal/dispatch"
	"github.com/KevinKickass/OpenStompCore/internal/editor"
	"github.com/KevinKickass/OpenStompCore/internal/interfaces"
	"github.com/KevinKickass/OpenStompCore/internal/matrix"
	"github.com/KevinKickass/OpenStompCore/internal/pages"
	"github.com/KevinKickass/OpenStompCore/internal/transport"
	"github.com/KevinKickass/OpenStompCore/internal/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Hardware opens the switch matrix lines. It is replaced in tests.
type Hardware func(cfg config.MatrixConfig, logger *zap.Logger) (matrix.Lines, func() error, error)

type LifecycleManager struct {
	config *config.Config
	logger *zap.Logger

	setupRevision uuid.UUID
	registry      *devices.Registry
	book          *pages.Book
	navigator     *pages.Navigator
	ports         *transport.Ports
	inputs        *transport.Inputs
	dispatcher    *dispatch.Dispatcher
	detector      *detect.Detector
	editorLink    *editor.Link
	wsHub         *websocket.Hub

	hardware   Hardware
	simulator  *matrix.SimulatedLines
	closeLines func() error
	controller *controller.Controller
	restServer *rest.Server

	stateMu      sync.RWMutex
	currentState SystemState
	lastError    string

	shutdownChan chan struct{}
	shutdownOnce sync.Once
}

// Option configures a LifecycleManager.
type Option func(*LifecycleManager)

// WithHardware replaces the GPIO backend.
func WithHardware(h Hardware) Option {
	return func(lm *LifecycleManager) {
		lm.hardware = h
	}
}

// WithMIDI replaces the system MIDI ports.
func WithMIDI(open transport.OpenFunc, listen transport.ListenFunc) Option {
	return func(lm *LifecycleManager) {
		lm.ports = transport.NewPorts(lm.config.MIDI.Outputs.Names(), open, lm.logger)
		lm.inputs = transport.NewInputs(lm.config.MIDI.Inputs.Names(), listen, lm.logger)
	}
}

// NewLifecycleManager loads the setup file and builds every component. No
// hardware or port is opened before Start.
func NewLifecycleManager(cfg *config.Config, logger *zap.Logger, opts ...Option) (*LifecycleManager, error) {
	loader, err := devices.NewSetupLoader()
	if err != nil {
		return nil, err
	}

	setup, err := loader.Load(cfg.Setup.Path)
	if err != nil {
		return nil, fmt.Errorf("setup %s: %w", cfg.Setup.Path, err)
	}

	return NewLifecycleManagerFromSetup(cfg, setup, logger, opts...)
}

func NewLifecycleManagerFromSetup(cfg *config.Config, setup *types.Setup, logger *zap.Logger, opts ...Option) (*LifecycleManager, error) {
	registry, err := devices.NewRegistry(setup.Devices, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create device registry: %w", err)
	}

	book, err := pages.NewBook(setup.Pages)
	if err != nil {
		return nil, fmt.Errorf("failed to load pages: %w", err)
	}

	lm := &LifecycleManager{
		config:        cfg,
		logger:        logger,
		setupRevision: uuid.New(),
		registry:      registry,
		book:          book,
		navigator:     pages.NewNavigator(book, logger),
		ports:         transport.NewPorts(cfg.MIDI.Outputs.Names(), nil, logger),
		inputs:        transport.NewInputs(cfg.MIDI.Inputs.Names(), nil, logger),
		editorLink:    editor.NewLink(registry, logger),
		wsHub:         websocket.NewHub(logger),
		hardware:      openHardware,
		currentState:  StateStopped,
		shutdownChan:  make(chan struct{}),
	}

	for _, opt := range opts {
		opt(lm)
	}

	lm.dispatcher = dispatch.NewDispatcher(registry, lm.ports, lm.navigator, dispatch.NewState(), logger)
	lm.dispatcher.OnAction(func(action dispatch.Action) {
		lm.wsHub.Broadcast(websocket.NewMessage(websocket.MessageTypeCommandDispatched, action))
	})

	lm.detector = detect.NewDetector(registry, lm.ports, cfg.MIDI.DetectInterval, cfg.MIDI.DetectTimeout, logger)
	lm.detector.OnChange(lm.deviceChanged)

	logger.Info("Setup loaded",
		zap.String("revision", lm.setupRevision.String()),
		zap.Int("devices", registry.Len()),
		zap.Int("pages", len(book.IDs())))

	return lm, nil
}

func openHardware(cfg config.MatrixConfig, logger *zap.Logger) (matrix.Lines, func() error, error) {
	lines, err := matrix.OpenRPIO(cfg.EdgePollInterval, logger)
	if err != nil {
		return nil, nil, err
	}
	return lines, lines.Close, nil
}

// deviceChanged forgets what was sent to a device that reappears; it may have
// been changed by hand in the meantime.
func (lm *LifecycleManager) deviceChanged(device *devices.Device, detected bool) {
	msgType := websocket.MessageTypeDeviceLost
	if detected {
		lm.dispatcher.State().Forget(device.ID)
		msgType = websocket.MessageTypeDeviceDetected
	}
	lm.wsHub.Broadcast(websocket.NewDeviceMessage(msgType, device.ID, device.Name))
}

// Start opens the hardware and ports and starts all loops.
func (lm *LifecycleManager) Start() error {
	lm.logger.Info("Starting OpenStompCore")
	lm.setState(StateInitializing)

	go lm.wsHub.Run()

	lines, err := lm.openLines()
	if err != nil {
		lm.setError(fmt.Errorf("failed to open switch matrix: %w", err))
		return err
	}

	scanner, err := matrix.NewScanner(lines,
		pins(lm.config.Matrix.RowPins),
		pins(lm.config.Matrix.ColumnPins),
		lm.config.Matrix.Debounce,
		matrix.WithLogger(lm.logger))
	if err != nil {
		lm.setError(err)
		return err
	}

	lm.controller = controller.NewController(lm.logger, scanner, lm.navigator, lm.dispatcher, lm.wsHub, lm.config.Matrix.PollInterval)

	listening := lm.inputs.Start(lm.detector.Observe)
	lm.logger.Info("MIDI inputs listening", zap.Int("ports", listening))

	if err := lm.detector.Start(); err != nil {
		lm.setError(fmt.Errorf("failed to start detection: %w", err))
		return err
	}

	if lm.config.MIDI.EditorIn != "" && lm.config.MIDI.EditorOut != "" {
		if err := lm.editorLink.Start(lm.config.MIDI.EditorIn, lm.config.MIDI.EditorOut, nil, nil); err != nil {
			// The controller works without the editor.
			lm.logger.Warn("Editor link not available", zap.Error(err))
		}
	}

	if err := lm.controller.Start(); err != nil {
		lm.setError(err)
		return err
	}

	if lm.config.Server.Enabled {
		lm.restServer = rest.NewServer(lm.config, lm, lm.logger, lm.wsHub)
		if err := lm.restServer.Start(); err != nil {
			lm.setError(fmt.Errorf("failed to start REST API: %w", err))
			return err
		}
	}

	lm.setState(StateRunning)
	lm.broadcastStatus()

	lm.logger.Info("System started successfully",
		zap.String("backend", lm.config.Matrix.Backend),
		zap.Int("switches", scanner.NumSwitches()),
		zap.Int("http_port", lm.config.Server.HTTPPort))

	return nil
}

func (lm *LifecycleManager) openLines() (matrix.Lines, error) {
	if lm.config.Matrix.Backend == config.BackendSimulated {
		lm.simulator = matrix.NewSimulatedLines(pins(lm.config.Matrix.RowPins), pins(lm.config.Matrix.ColumnPins))
		return lm.simulator, nil
	}

	lines, closeLines, err := lm.hardware(lm.config.Matrix, lm.logger)
	if err != nil {
		return nil, err
	}
	lm.closeLines = closeLines
	return lines, nil
}

func pins(numbers []uint8) []matrix.Pin {
	out := make([]matrix.Pin, len(numbers))
	for i, n := range numbers {
		out[i] = matrix.Pin(n)
	}
	return out
}

// Done is closed when the system has shut down.
func (lm *LifecycleManager) Done() <-chan struct{} {
	return lm.shutdownChan
}

// Shutdown gracefully shuts down the system
func (lm *LifecycleManager) Shutdown(ctx context.Context) error {
	var shutdownErr error

	lm.shutdownOnce.Do(func() {
		lm.logger.Info("Shutting down system")

		lm.setState(StateStopping)
		lm.broadcastStatus()

		shutdownErr = lm.gracefulShutdown(ctx)

		lm.setState(StateStopped)
		close(lm.shutdownChan)
	})

	return shutdownErr
}

func (lm *LifecycleManager) gracefulShutdown(ctx context.Context) error {
	// The loop stops first so no command is dispatched to closed ports.
	if lm.controller != nil {
		lm.controller.Stop()
	}
	lm.detector.Stop()
	lm.editorLink.Stop()
	lm.inputs.Stop()

	var wg sync.WaitGroup
	errChan := make(chan error, 2)

	if lm.restServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			shutdownCtx, cancel := context.WithTimeout(ctx, lm.config.Server.ShutdownTimeout)
			defer cancel()

			if err := lm.restServer.Shutdown(shutdownCtx); err != nil {
				errChan <- fmt.Errorf("rest api shutdown failed: %w", err)
			}
		}()
	}

	if lm.closeLines != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := lm.closeLines(); err != nil {
				errChan <- fmt.Errorf("switch matrix close failed: %w", err)
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
		lm.logger.Info("Graceful shutdown completed")
	case <-ctx.Done():
		lm.logger.Warn("Shutdown timeout, forcing stop")
		err = fmt.Errorf("shutdown timeout exceeded")
	}

	lm.wsHub.Stop()

	select {
	case e := <-errChan:
		if err == nil {
			err = e
		}
	default:
	}
	return err
}

func (lm *LifecycleManager) setState(state SystemState) {
	lm.stateMu.Lock()
	defer lm.stateMu.Unlock()

	if err := ValidateTransition(lm.currentState, state); err != nil {
		lm.logger.Warn("Unexpected state transition", zap.Error(err))
	}
	lm.currentState = state
}

func (lm *LifecycleManager) setError(err error) {
	lm.logger.Error("System error", zap.Error(err))

	lm.stateMu.Lock()
	lm.currentState = StateError
	lm.lastError = err.Error()
	lm.stateMu.Unlock()

	lm.broadcastStatus()
}

// GetCurrentStatus returns current system status (Interface implementation)
func (lm *LifecycleManager) GetCurrentStatus() interfaces.SystemStatus {
	connected := 0
	for _, d := range lm.registry.List() {
		if d.Connected() {
			connected++
		}
	}

	lm.stateMu.RLock()
	defer lm.stateMu.RUnlock()

	return interfaces.SystemStatus{
		State:            lm.currentState.String(),
		SetupRevision:    lm.setupRevision.String(),
		Backend:          lm.config.Matrix.Backend,
		Page:             uint8(lm.navigator.Current()),
		DeviceCount:      lm.registry.Len(),
		ConnectedDevices: connected,
		Error:            lm.lastError,
	}
}

func (lm *LifecycleManager) broadcastStatus() {
	status := lm.GetCurrentStatus()
	msg := websocket.NewMessage(websocket.MessageTypeSystemStatus, status)
	msg.Timestamp = time.Now()
	lm.wsHub.Broadcast(msg)
}

// Config returns the configuration
func (lm *LifecycleManager) Config() *config.Config {
	return lm.config
}

func (lm *LifecycleManager) Registry() *devices.Registry {
	return lm.registry
}

func (lm *LifecycleManager) Dispatcher() *dispatch.Dispatcher {
	return lm.dispatcher
}

func (lm *LifecycleManager) Book() *pages.Book {
	return lm.book
}

func (lm *LifecycleManager) Navigator() *pages.Navigator {
	return lm.navigator
}

func (lm *LifecycleManager) Controller() *controller.Controller {
	return lm.controller
}

// Simulator returns the simulated matrix, or nil on hardware.
func (lm *LifecycleManager) Simulator() interfaces.SwitchSimulator {
	if lm.simulator == nil {
		return nil
	}
	return lm.simulator
}
