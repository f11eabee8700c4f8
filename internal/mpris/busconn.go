package mpris

import (
	"github.com/godbus/dbus/v5"
)

// BusConn defines the session-bus operations the bridge needs.
// This abstraction allows us to mock D-Bus interactions in tests.
//
//go:generate mockgen -destination=mocks/bus_conn_mock.go -package=mocks github.com/nucleusis/soundbridge/internal/mpris BusConn
type BusConn interface {
	// Export publishes the methods of v under path and interface name
	Export(v interface{}, path dbus.ObjectPath, iface string) error

	// Emit sends a signal from path
	Emit(path dbus.ObjectPath, name string, values ...interface{}) error

	// RequestName claims a well-known bus name
	RequestName(name string, flags dbus.RequestNameFlags) (dbus.RequestNameReply, error)

	// ReleaseName gives a well-known bus name back
	ReleaseName(name string) (dbus.ReleaseNameReply, error)

	// Object returns a proxy for a remote object
	Object(dest string, path dbus.ObjectPath) dbus.BusObject

	// Close closes the D-Bus connection
	Close() error
}

// StdBusConn is the real implementation using godbus
type StdBusConn struct {
	conn *dbus.Conn
}

// NewStdBusConn connects to the session bus
func NewStdBusConn() (*StdBusConn, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, err
	}
	return &StdBusConn{conn: conn}, nil
}

// Export publishes the methods of v under path and interface name
func (c *StdBusConn) Export(v interface{}, path dbus.ObjectPath, iface string) error {
	return c.conn.Export(v, path, iface)
}

// Emit sends a signal from path
func (c *StdBusConn) Emit(path dbus.ObjectPath, name string, values ...interface{}) error {
	return c.conn.Emit(path, name, values...)
}

// RequestName claims a well-known bus name
func (c *StdBusConn) RequestName(name string, flags dbus.RequestNameFlags) (dbus.RequestNameReply, error) {
	return c.conn.RequestName(name, flags)
}

// ReleaseName gives a well-known bus name back
func (c *StdBusConn) ReleaseName(name string) (dbus.ReleaseNameReply, error) {
	return c.conn.ReleaseName(name)
}

// Object returns a proxy for a remote object
func (c *StdBusConn) Object(dest string, path dbus.ObjectPath) dbus.BusObject {
	return c.conn.Object(dest, path)
}

// Close closes the D-Bus connection
func (c *StdBusConn) Close() error {
	return c.conn.Close()
}
