package controller

import (
	"fmt"
	"sync"
	"time"

	"github.com/KevinKickass/OpenStompCore/internal/api/websocket"
	"github.com/KevinKickass/OpenStompCore/internal/dispatch"
	"github.com/KevinKickass/OpenStompCore/internal/types"
	"go.uber.org/zap"
)

// Scanner reports debounced switch matrix changes.
type Scanner interface {
	Initialize() error
	Poll() bool
	Pressed() uint8
	Released() uint8
}

// Pages resolves a switch to the commands of the current page.
type Pages interface {
	Current() types.PageID
	Commands(switchID uint8) []types.Command
}

type Dispatcher interface {
	Dispatch(cmd types.Command) (dispatch.Action, error)
}

type Broadcaster interface {
	Broadcast(msg websocket.Message)
}

// Controller runs the main loop of the foot controller: it polls the switch
// matrix and turns every reported press into the commands assigned to that
// switch on the current page. Only the loop goroutine touches the scanner.
type Controller struct {
	logger     *zap.Logger
	scanner    Scanner
	pages      Pages
	dispatcher Dispatcher
	hub        Broadcaster
	interval   time.Duration

	mu              sync.RWMutex
	currentState    State
	lastEvent       types.SwitchEvent
	switchEvents    int
	commands        int
	errorMessage    string
	lastStateChange time.Time

	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewController(
	logger *zap.Logger,
	scanner Scanner,
	pages Pages,
	dispatcher Dispatcher,
	hub Broadcaster,
	interval time.Duration,
) *Controller {
	return &Controller{
		logger:          logger,
		scanner:         scanner,
		pages:           pages,
		dispatcher:      dispatcher,
		hub:             hub,
		interval:        interval,
		currentState:    StateStopped,
		lastStateChange: time.Now(),
	}
}

// Start initializes the switch matrix and starts the poll loop.
func (c *Controller) Start() error {
	c.mu.Lock()
	if c.currentState == StateRunning {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	if err := c.scanner.Initialize(); err != nil {
		c.setState(StateError, err.Error())
		return fmt.Errorf("failed to initialize switch matrix: %w", err)
	}

	c.stopChan = make(chan struct{})
	c.wg.Add(1)
	go c.pollLoop()

	c.setState(StateRunning, "")
	c.logger.Info("Controller started", zap.Duration("poll_interval", c.interval))
	return nil
}

// Stop ends the poll loop and waits for it.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.currentState != StateRunning {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	close(c.stopChan)
	c.wg.Wait()

	c.setState(StateStopped, "")
	c.logger.Info("Controller stopped")
}

func (c *Controller) pollLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.Step()
		}
	}
}

// Step polls the matrix once and handles a reported change. It returns the
// event when there was one.
func (c *Controller) Step() (types.SwitchEvent, bool) {
	if !c.scanner.Poll() {
		return types.SwitchEvent{}, false
	}

	var event types.SwitchEvent
	if pressed := c.scanner.Pressed(); pressed != 0 {
		event = types.SwitchEvent{ID: pressed, Kind: types.SwitchPressed}
	} else {
		event = types.SwitchEvent{ID: c.scanner.Released(), Kind: types.SwitchReleased}
	}

	// A change from one pressed switch to another carries no release id.
	if event.ID == 0 {
		return types.SwitchEvent{}, false
	}

	c.HandleEvent(event)
	return event, true
}

// HandleEvent dispatches the commands of a pressed switch on the current page.
// Releases are only reported.
func (c *Controller) HandleEvent(event types.SwitchEvent) {
	page := c.pages.Current()

	c.mu.Lock()
	c.lastEvent = event
	c.switchEvents++
	c.mu.Unlock()

	c.logger.Debug("Switch event",
		zap.Uint8("switch", event.ID),
		zap.String("kind", string(event.Kind)),
		zap.Uint8("page", uint8(page)))

	c.hub.Broadcast(websocket.NewSwitchEventMessage(event.ID, string(event.Kind), uint8(page)))

	if event.Kind != types.SwitchPressed {
		return
	}

	commands := c.pages.Commands(event.ID)
	for _, cmd := range commands {
		// Errors are logged by the dispatcher; the remaining commands still run.
		c.dispatcher.Dispatch(cmd)
	}

	c.mu.Lock()
	c.commands += len(commands)
	c.mu.Unlock()

	if current := c.pages.Current(); current != page {
		c.hub.Broadcast(websocket.NewPageMessage(uint8(current), uint8(page)))
	}
}

func (c *Controller) setState(state State, errorMessage string) {
	c.mu.Lock()
	previous := c.currentState
	c.currentState = state
	c.errorMessage = errorMessage
	c.lastStateChange = time.Now()
	c.mu.Unlock()

	if previous != state {
		c.logger.Info("Controller state changed",
			zap.String("from", string(previous)),
			zap.String("to", string(state)))
		c.hub.Broadcast(websocket.NewControllerStateMessage(string(state), string(previous)))
	}
}

// Status returns the current controller status.
func (c *Controller) Status() Status {
	page := c.pages.Current()

	c.mu.RLock()
	defer c.mu.RUnlock()

	status := Status{
		State:           c.currentState,
		Page:            uint8(page),
		LastSwitch:      c.lastEvent.ID,
		LastKind:        string(c.lastEvent.Kind),
		SwitchEvents:    c.switchEvents,
		Commands:        c.commands,
		ErrorMessage:    c.errorMessage,
		LastStateChange: c.lastStateChange,
	}
	if c.lastEvent.Kind == types.SwitchPressed {
		status.Pressed = c.lastEvent.ID
	}
	return status
}
