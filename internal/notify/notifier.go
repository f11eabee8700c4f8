package notify

import (
	"strings"

	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"
)

const (
	notifyDest   = "org.freedesktop.Notifications"
	notifyPath   = dbus.ObjectPath("/org/freedesktop/Notifications")
	notifyMethod = notifyDest + ".Notify"

	appName = "cmus"

	urgencyLow = byte(0)
)

// bodyEscaper neutralizes markup in notification bodies. The server
// interprets the body (and only the body) as a markup subset, so tag values
// containing angle brackets, ampersands or slashes would otherwise render
// mangled or vanish.
var bodyEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
	"/", "&#47;",
)

// DBusNotifier shows now-playing notifications through the freedesktop
// notification service on the session bus.
type DBusNotifier struct {
	logger *zap.Logger
	obj    dbus.BusObject

	// lastID makes each notification replace the previous one instead of
	// stacking a popup per track change.
	lastID uint32
}

// NewDBus creates a notifier talking to the given notification service
// object, normally conn.Object(notifyDest, notifyPath).
func NewDBus(logger *zap.Logger, obj dbus.BusObject) *DBusNotifier {
	return &DBusNotifier{logger: logger, obj: obj}
}

// objectResolver is the slice of the bus connection the notifier needs to
// locate the notification service.
type objectResolver interface {
	Object(dest string, path dbus.ObjectPath) dbus.BusObject
}

// NewFromBus creates a notifier resolving the notification service on the
// given bus connection.
func NewFromBus(logger *zap.Logger, bus objectResolver) *DBusNotifier {
	return NewDBus(logger, bus.Object(notifyDest, notifyPath))
}

// Send displays a notification with the given summary and body, replacing
// the previously shown one. imagePath, when non-empty, is a local file shown
// as the notification image.
func (n *DBusNotifier) Send(title, body, imagePath string, timeoutMs int32) error {
	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(urgencyLow),
	}
	if imagePath != "" {
		hints["image-path"] = dbus.MakeVariant(imagePath)
	}

	call := n.obj.Call(notifyMethod, 0,
		appName,
		n.lastID,
		"", // app icon, the image-path hint carries the artwork
		title,
		bodyEscaper.Replace(body),
		[]string{},
		hints,
		timeoutMs,
	)
	if call.Err != nil {
		return call.Err
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		n.logger.Debug("Notification id not returned", zap.Error(err))
		return nil
	}
	n.lastID = id
	return nil
}

// Close releases nothing: the bus connection is shared and owned elsewhere.
func (n *DBusNotifier) Close() error {
	return nil
}
