package session

import (
	"time"

	"github.com/mvidal/rewatch/internal/surface"
)

// Play resumes playback of the active item.
func (c *Controller) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.ControlsEnabled() {
		return nil
	}
	if err := c.surface.Play(); err != nil {
		return err
	}
	if c.surface.Transport().Playing {
		c.setStateLocked(StatePlaying)
	}
	return nil
}

// Pause pauses playback.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.ControlsEnabled() {
		return
	}
	c.surface.Pause()
	if c.state == StatePlaying {
		c.setStateLocked(StatePaused)
	}
}

// Toggle toggles between playing and paused.
func (c *Controller) Toggle() error {
	if c.State() == StatePlaying {
		c.Pause()
		return nil
	}
	return c.Play()
}

// Next navigates to the next playlist item under the active policy.
func (c *Controller) Next() {
	c.nav.Next()
}

// Previous steps back one item in sequential traversal.
func (c *Controller) Previous() {
	c.nav.Previous()
}

// ToggleShuffle flips the navigator's shuffle mode.
func (c *Controller) ToggleShuffle() bool {
	return c.nav.ToggleShuffle()
}

// Seek moves the active decode path to an absolute position.
func (c *Controller) Seek(pos time.Duration) {
	if c.State().ControlsEnabled() {
		c.surface.Seek(pos)
	}
}

// Skip moves the active decode path by a relative delta.
func (c *Controller) Skip(delta time.Duration) {
	if c.State().ControlsEnabled() {
		c.surface.Skip(delta)
	}
}

// SetVolume mirrors the level onto both decode paths.
func (c *Controller) SetVolume(level float64) {
	c.surface.SetVolume(level)
}

// SetMuted mirrors the mute flag onto both decode paths.
func (c *Controller) SetMuted(muted bool) {
	c.surface.SetMuted(muted)
}

// SetMode switches the active decode path.
func (c *Controller) SetMode(mode surface.Mode) error {
	return c.surface.SetMode(mode)
}

// Transport returns a snapshot of the surface's transport state.
func (c *Controller) Transport() surface.Transport {
	return c.surface.Transport()
}

// StartSleepTimer arms the auto-stop countdown. Navigation never resets it:
// switching items must not silently disable an in-progress auto-stop.
func (c *Controller) StartSleepTimer(d time.Duration) {
	c.timer.Start(d)
}

// CancelSleepTimer disarms the countdown.
func (c *Controller) CancelSleepTimer() {
	c.timer.Cancel()
	c.mu.Lock()
	c.sleepStopped = false
	c.mu.Unlock()
}

// SleepTimerActive reports whether the countdown is running.
func (c *Controller) SleepTimerActive() bool {
	return c.timer.Active()
}

// SleepTimerRemaining returns the whole seconds left on the countdown.
func (c *Controller) SleepTimerRemaining() int {
	return c.timer.Remaining()
}
