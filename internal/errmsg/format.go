// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Playback operations
	OpPlaybackStart Op = "start playback"
	OpPlaybackSeek  Op = "seek"
	OpModeSwitch    Op = "switch audio-only mode"
	OpSourceLoad    Op = "load media source"

	// Item operations
	OpItemResolve Op = "resolve item metadata"
	OpItemOpen    Op = "open item"

	// Playlist operations
	OpPlaylistLoad Op = "load playlist"
	OpPlaylistSeed Op = "seed playlist"

	// Progress operations
	OpProgressRead  Op = "read saved position"
	OpProgressWrite Op = "save playback position"

	// Initialization
	OpInitialize Op = "initialize session"
	OpStoreOpen  Op = "open local store"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
