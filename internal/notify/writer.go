package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

const bell = "\a"

var (
	titleStyles = map[Color]lipgloss.Style{
		ColorRed:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")),
		ColorYellow: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFD93D")),
		ColorBlue:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00BFFF")),
	}
	timeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C757D"))
)

// WriterNotifier prints notifications to a terminal, ringing the bell
type WriterNotifier struct {
	mu   sync.Mutex
	w    io.Writer
	Bell bool
}

// NewWriterNotifier creates a WriterNotifier that rings the bell
func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w, Bell: true}
}

// Notify implements Notifier
func (t *WriterNotifier) Notify(ctx context.Context, n Notification) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.Bell {
		if _, err := io.WriteString(t.w, bell); err != nil {
			return fmt.Errorf("writing notification: %w", err)
		}
	}
	if _, err := fmt.Fprintln(t.w, Render(n)); err != nil {
		return fmt.Errorf("writing notification: %w", err)
	}
	return nil
}

// Render formats a notification as a single styled line
func Render(n Notification) string {
	style, ok := titleStyles[n.Color]
	if !ok {
		style = titleStyles[ColorBlue]
	}
	line := timeStyle.Render(n.SentAt.Local().Format("15:04")) + " " + style.Render(n.Title)
	if n.Body != "" {
		line += ": " + n.Body
	}
	return line
}
