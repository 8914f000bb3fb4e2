package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ConfirmationDialog represents a yes/no confirmation dialog
type ConfirmationDialog struct {
	Title       string
	Message     string
	YesSelected bool
	OnConfirm   func() tea.Cmd
	OnCancel    func() tea.Cmd
}

// NewConfirmationDialog creates a new confirmation dialog with No selected.
func NewConfirmationDialog(title, message string) ConfirmationDialog {
	return ConfirmationDialog{
		Title:   title,
		Message: message,
	}
}

// Update handles confirmation dialog updates
func (d *ConfirmationDialog) Update(msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	switch key.String() {
	case "left", "h":
		d.YesSelected = true
	case "right", "l":
		d.YesSelected = false
	case "y":
		d.YesSelected = true
		return d.confirm()
	case "n", "esc", "q":
		d.YesSelected = false
		return d.cancel()
	case "enter":
		if d.YesSelected {
			return d.confirm()
		}
		return d.cancel()
	}
	return nil
}

func (d *ConfirmationDialog) confirm() tea.Cmd {
	if d.OnConfirm != nil {
		return d.OnConfirm()
	}
	return nil
}

func (d *ConfirmationDialog) cancel() tea.Cmd {
	if d.OnCancel != nil {
		return d.OnCancel()
	}
	return nil
}

func (d ConfirmationDialog) view(s styles) string {
	var b strings.Builder

	b.WriteString(s.title.Render(d.Title))
	b.WriteString("\n\n")
	b.WriteString(d.Message)
	b.WriteString("\n\n")

	yes := s.button.Render("Yes")
	no := s.button.Render("No")
	if d.YesSelected {
		yes = s.activeButton.Render("Yes")
	} else {
		no = s.activeButton.Render("No")
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Left, yes, "  ", no))
	b.WriteString("\n")
	b.WriteString(s.help.Render(s.key("←/→", "choose") + " • " + s.key("enter", "confirm") + " • " + s.key("esc", "cancel")))

	return s.box.Render(b.String())
}

// pagerView renders "Page 2 of 7" and the page-number window.
func pagerView(s styles, page, total, matched int, window []int) string {
	nums := make([]string, len(window))
	for i, n := range window {
		if n == page {
			nums[i] = s.currentPage.Render(fmt.Sprint(n))
		} else {
			nums[i] = s.muted.Render(fmt.Sprint(n))
		}
	}
	return fmt.Sprintf("Page %d of %d %s  %s", page, total, s.muted.Render(fmt.Sprintf("(%d matching)", matched)), strings.Join(nums, " "))
}
