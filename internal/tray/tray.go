// Package tray provides a system tray menu for the Mudra sign language translator.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/mudra/internal/ai"
	"github.com/ayusman/mudra/internal/capture"
)

// maxLabelLen keeps menu titles short enough for a tray menu.
const maxLabelLen = 40

// Tray represents the system tray application.
type Tray struct {
	onToggle  func(start bool)
	onCapture func()
	onOpen    func()
	onQuit    func()
	status    capture.Status
	last      string
	mu        sync.RWMutex

	// Menu items stored for later updates
	menuCamera  *systray.MenuItem
	menuCapture *systray.MenuItem
	menuLast    *systray.MenuItem
}

// New creates a new Tray instance showing an idle camera.
func New() *Tray {
	return &Tray{
		status: capture.Status{State: capture.StateIdle, IsSupported: true},
	}
}

// OnToggle sets the callback called with true to start the camera and false
// to stop it.
func (t *Tray) OnToggle(fn func(start bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnCapture sets the callback function to be called when the capture menu item is clicked.
func (t *Tray) OnCapture(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onCapture = fn
}

// OnOpen sets the callback function to be called when the open menu item is clicked.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray menu and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Mudra")
	systray.SetTooltip("Mudra Sign Language Translator")

	t.mu.Lock()
	t.menuCamera = systray.AddMenuItem(cameraLabel(t.status), "Start or stop the camera")
	t.menuCapture = systray.AddMenuItem("Capture & Translate", "Translate the current sign")
	systray.AddSeparator()

	t.menuLast = systray.AddMenuItem(lastLabel(t.last), "Last translation")
	t.menuLast.Disable()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open Mudra...", "Open the translator in the browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Mudra")
	t.applyStatus()
	t.mu.Unlock()

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuCamera.ClickedCh:
				t.handleToggle()
			case <-t.menuCapture.ClickedCh:
				t.handle(func() func() { return t.onCapture })
			case <-menuOpen.ClickedCh:
				t.handle(func() func() { return t.onOpen })
			case <-menuQuit.ClickedCh:
				t.handle(func() func() { return t.onQuit })
				systray.Quit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

// handleToggle asks for the opposite of the current camera state. The label
// only changes when the new status arrives through SetCameraStatus.
func (t *Tray) handleToggle() {
	t.mu.RLock()
	start := !t.status.IsActive
	callback := t.onToggle
	t.mu.RUnlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(start)
	}
}

func (t *Tray) handle(get func() func()) {
	t.mu.RLock()
	callback := get()
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// SetCameraStatus updates the camera menu item.
func (t *Tray) SetCameraStatus(s capture.Status) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status = s
	t.applyStatus()
}

// applyStatus must be called with t.mu held.
func (t *Tray) applyStatus() {
	if t.menuCamera == nil {
		return
	}

	t.menuCamera.SetTitle(cameraLabel(t.status))
	if t.status.IsSupported {
		t.menuCamera.Enable()
	} else {
		t.menuCamera.Disable()
	}
	if t.status.IsActive {
		t.menuCapture.Enable()
	} else {
		t.menuCapture.Disable()
	}
}

// SetLastResult updates the last translation display in the menu.
func (t *Tray) SetLastResult(r ai.TranslationResult) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.last = fmt.Sprintf("%s (%d%%)", r.Translation, r.Confidence)
	if t.menuLast != nil {
		t.menuLast.SetTitle(lastLabel(t.last))
	}
}

func cameraLabel(s capture.Status) string {
	switch {
	case !s.IsSupported:
		return "Camera unavailable"
	case s.IsActive:
		return "● Camera on"
	case s.State == capture.StateRequesting, s.State == capture.StateRetrying:
		return "◌ Starting camera..."
	case s.State == capture.StateFailed:
		return truncate("⚠ " + s.Error + " (retry)")
	default:
		return "○ Camera off"
	}
}

func lastLabel(text string) string {
	if text == "" {
		return "Last: none"
	}
	return truncate("Last: " + text)
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxLabelLen {
		return s
	}
	return string(r[:maxLabelLen-1]) + "…"
}
