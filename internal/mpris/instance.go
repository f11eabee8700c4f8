package mpris

import (
	"fmt"

	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"
)

// Coordinator enforces the single-instance rule: the first launch claims the
// well-known bus name and becomes the instance of record; every later launch
// forwards its raw status text to it and exits without registering.
type Coordinator struct {
	logger *zap.Logger
	bus    BusConn
}

// NewCoordinator creates a coordinator on the given bus connection.
func NewCoordinator(logger *zap.Logger, bus BusConn) *Coordinator {
	return &Coordinator{logger: logger, bus: bus}
}

// Register claims the well-known name. It returns primary=false when another
// instance already owns it; that is the expected second-launch path, not an
// error.
func (c *Coordinator) Register() (primary bool, err error) {
	reply, err := c.bus.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return false, fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		c.logger.Info("Another instance owns the bus name", zap.String("name", BusName))
		return false, nil
	}
	c.logger.Info("Registered as instance of record", zap.String("name", BusName))
	return true, nil
}

// Forward hands raw status text to the instance of record through its
// SetStatus intake. Empty text is nothing to forward.
func (c *Coordinator) Forward(raw string) error {
	if raw == "" {
		return nil
	}
	obj := c.bus.Object(BusName, ObjectPath)
	call := obj.Call(rootInterface+".SetStatus", 0, raw)
	if call.Err != nil {
		return fmt.Errorf("failed to forward status: %w", call.Err)
	}
	c.logger.Info("Forwarded status to running instance")
	return nil
}

// Release gives the well-known name back on shutdown.
func (c *Coordinator) Release() error {
	if _, err := c.bus.ReleaseName(BusName); err != nil {
		return fmt.Errorf("failed to release bus name: %w", err)
	}
	return nil
}
