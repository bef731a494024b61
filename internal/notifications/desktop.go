package notifications

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
)

var errDesktopNotConnected = errors.New("desktop notifications not connected")

var newFyneApp = func(id string) fyne.App {
	return app.NewWithID(id)
}

// DesktopProvider raises OS-level notifications through fyne.
type DesktopProvider struct {
	appID string
	app   fyne.App
	mu    sync.RWMutex
}

func NewDesktopProvider(appID string) *DesktopProvider {
	return &DesktopProvider{appID: appID}
}

func (d *DesktopProvider) Name() string {
	return "desktop"
}

func (d *DesktopProvider) IsConfigured() bool {
	return d.appID != ""
}

func (d *DesktopProvider) Connect(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.app == nil {
		d.app = newFyneApp(d.appID)
	}
	slog.Debug("Desktop notification provider ready", "appID", d.appID)
	return nil
}

func (d *DesktopProvider) Disconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.app = nil
	return nil
}

// Send shows the notification. fyne notifications carry no icon, so the
// avatar is only used by providers that support images.
func (d *DesktopProvider) Send(_ context.Context, notification Notification) error {
	d.mu.RLock()
	a := d.app
	d.mu.RUnlock()

	if a == nil {
		return errDesktopNotConnected
	}

	a.SendNotification(fyne.NewNotification(notification.Title, notification.Message))
	return nil
}
