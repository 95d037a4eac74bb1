package status

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// 🎨 Display configuration
const (
	fileIndent  = 4  // spaces to indent file entries
	nameWidth   = 45 // Base width for filename
	statusWidth = 15 // Width for status text
)

// Formatter defines how per-file results are rendered for the console
type Formatter interface {
	// FormatFile formats one path with its status and optional activity
	FormatFile(path string, st FileStatus, activity string) string

	// FormatError formats an error message
	FormatError(err error) string
}

// DefaultFormatter renders colored single-line entries
type DefaultFormatter struct{}

// NewDefaultFormatter creates a new DefaultFormatter
func NewDefaultFormatter() *DefaultFormatter {
	return &DefaultFormatter{}
}

// Symbol returns the marker printed in front of a path with status st.
func Symbol(st FileStatus) string {
	switch st {
	case StatusNew, StatusNotAnElement:
		return color.GreenString("✓")
	case StatusCheckedOut, StatusHijacked:
		return color.YellowString("⟳")
	case StatusMergeConflict:
		return color.MagentaString("!")
	case StatusDeleted:
		return color.RedString("✗")
	default:
		return color.HiBlackString("-")
	}
}

// 🎯 FormatFile formats a file status line
func (f *DefaultFormatter) FormatFile(path string, st FileStatus, activity string) string {
	line := fmt.Sprintf("%s%s %s %s",
		strings.Repeat(" ", fileIndent),
		Symbol(st),
		fmt.Sprintf("%-*s", nameWidth, path),
		fmt.Sprintf("%-*s", statusWidth, st.String()),
	)
	if activity != "" {
		line += " " + color.CyanString("[%s]", activity)
	}
	return strings.TrimRight(line, " ")
}

// FormatError formats an error message with emoji
func (f *DefaultFormatter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("❌ Error: %v", err)
}
