package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jwebster45206/dialogue-engine/internal/storage"
	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
	"github.com/jwebster45206/dialogue-engine/pkg/playback"
	"github.com/jwebster45206/dialogue-engine/pkg/profile"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	Title    = "DIALOGUE ENGINE"
	HelpText = "Enter/Space: advance or skip • 1-9 or ↑/↓ + Enter: choose • r: restart • c: copy transcript • Esc: quit"
)

// ConsoleUI is the BubbleTea model that plays dialogue in the terminal.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	runtime  *playback.Runtime
	sink     *consoleSink
	profile  *profile.Profile
	store    storage.Storage
	logger   *slog.Logger
	interval time.Duration

	viewport viewport.Model
	width    int
	height   int
	ready    bool

	selected int
	lastTick time.Time
	status   string
}

type tickMsg time.Time

type profileSavedMsg struct {
	err error
}

type clipboardMsg struct {
	err error
}

var (
	panelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingLeft(3).
			PaddingRight(3)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	largeSpeakerStyle = speakerStyle.
				Underline(true)

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	selectedChoiceStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)

	waitingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey
)

var sideCaser = cases.Title(language.English)

// NewConsoleUI creates the model and starts the first available conversation.
func NewConsoleUI(rt *playback.Runtime, sink *consoleSink, p *profile.Profile, store storage.Storage, logger *slog.Logger, interval time.Duration) ConsoleUI {
	m := ConsoleUI{
		runtime:  rt,
		sink:     sink,
		profile:  p,
		store:    store,
		logger:   logger,
		interval: interval,
		viewport: viewport.New(playback.DefaultCharsPerLine, 10),
	}
	m.restart()
	m.handleNotifications()
	return m
}

func (m ConsoleUI) Init() tea.Cmd {
	return m.tick()
}

func (m ConsoleUI) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = m.contentWidth()
		m.viewport.Height = max(m.height-14, 3)
		m.ready = true
		m.refresh()
		return m, nil

	case tickMsg:
		now := time.Time(msg)
		elapsed := m.interval
		if !m.lastTick.IsZero() {
			elapsed = max(now.Sub(m.lastTick), 0)
		}
		m.lastTick = now

		m.runtime.Tick(elapsed)
		cmd := m.handleNotifications()
		m.refresh()
		return m, tea.Batch(m.tick(), cmd)

	case profileSavedMsg:
		if msg.err != nil {
			m.logger.Error("Failed to save profile", "error", msg.err)
			m.status = "Failed to save profile: " + msg.err.Error()
		}
		return m, nil

	case clipboardMsg:
		if msg.err != nil {
			m.status = "Copy failed: " + msg.err.Error()
		} else {
			m.status = "Transcript copied to clipboard"
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m ConsoleUI) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "ctrl+c", "esc":
		return m, tea.Quit

	case "enter", " ", "space":
		if key == "enter" && m.runtime.State() == playback.StateAwaitingChoice {
			m.choose(m.selected)
			break
		}
		if err := m.runtime.SignalAdvance(); errors.Is(err, playback.ErrNotPlaying) {
			m.status = "Nothing is playing. Press r to start again."
		}

	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}

	case "down", "j":
		if m.selected < len(m.runtime.OfferedChoices())-1 {
			m.selected++
		}

	case "r":
		m.restart()

	case "c":
		return m, copyTranscript(m.sink.Transcript())

	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			m.choose(int(key[0] - '1'))
		}
	}

	cmd := m.handleNotifications()
	m.refresh()
	return m, cmd
}

// choose takes the i-th offered choice, counting from zero.
func (m *ConsoleUI) choose(i int) {
	offered := m.runtime.OfferedChoices()
	if i < 0 || i >= len(offered) {
		return
	}

	choice := offered[i]
	if err := m.runtime.SignalChoice(choice.LinkIndex); err != nil {
		if !errors.Is(err, playback.ErrNotAwaitingChoice) {
			m.status = err.Error()
		}
		return
	}
	m.sink.note("> " + choice.Label)
	m.selected = 0
}

func (m *ConsoleUI) restart() {
	m.selected = 0
	m.status = ""
	if err := m.runtime.StartConversation(); err != nil {
		m.logger.Warn("Could not start a conversation", "error", err)
	}
}

// handleNotifications turns drained playback notifications into status
// text, and saves the profile when a conversation ends.
func (m *ConsoleUI) handleNotifications() tea.Cmd {
	var cmds []tea.Cmd
	for _, n := range m.sink.drain() {
		switch n.Type {
		case playback.NotifyConversationStarted:
			m.status = "Playing " + n.Conversation
		case playback.NotifyConversationEnded:
			m.status = fmt.Sprintf("%s ended. Press r to play again.", n.Conversation)
			cmds = append(cmds, m.saveProfile())
		case playback.NotifyPlaybackFailed:
			m.status = "Playback stopped: " + n.Error
		}
	}
	return tea.Batch(cmds...)
}

// saveProfile saves a snapshot of the profile in the background.
func (m *ConsoleUI) saveProfile() tea.Cmd {
	if m.store == nil {
		return nil
	}
	snapshot := m.profile.Clone()
	store := m.store
	return func() tea.Msg {
		return profileSavedMsg{err: store.SaveProfile(context.Background(), snapshot)}
	}
}

func copyTranscript(text string) tea.Cmd {
	return func() tea.Msg {
		return clipboardMsg{err: clipboard.WriteAll(text)}
	}
}

func (m *ConsoleUI) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.sink.text.String())
	m.viewport.GotoBottom()
}

func (m ConsoleUI) contentWidth() int {
	if m.width == 0 {
		return playback.DefaultCharsPerLine
	}
	return max(m.width-6, 10) // Account for left(3) + right(3) padding
}

func (m ConsoleUI) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	width := m.contentWidth()
	separator := separatorStyle.Render(strings.Repeat("─", width))

	var content strings.Builder
	content.WriteString(titleStyle.Render(Title) + "\n\n")
	content.WriteString(m.renderPortraits(width) + "\n")
	content.WriteString(separator + "\n")
	content.WriteString(m.viewport.View() + "\n")
	if m.sink.waiting {
		content.WriteString(waitingStyle.Render("▼"))
	}
	content.WriteString("\n")
	content.WriteString(m.renderChoices(width))
	content.WriteString(separator + "\n")
	if m.status != "" {
		content.WriteString(statusStyle.Render(m.status) + "\n")
	}
	content.WriteString(promptStyle.Render(wordwrap.String(HelpText, width)))

	return panelStyle.Render(content.String())
}

func (m ConsoleUI) renderPortraits(width int) string {
	half := width / 2
	cells := make([]string, 0, len(dialogue.Sides))
	for _, side := range dialogue.Sides {
		cell := lipgloss.NewStyle().Width(half)
		if side == dialogue.SideRight {
			cell = cell.Align(lipgloss.Right)
		}
		cells = append(cells, cell.Render(m.portraitLabel(side)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

func (m ConsoleUI) portraitLabel(side dialogue.Side) string {
	p := m.sink.portraits[side]
	if !p.visible {
		return ""
	}

	name := p.settings.DisplayName
	if name == "" {
		name = p.settings.Image
	}
	if name == "" {
		name = "?"
	}

	style := speakerStyle
	if p.settings.Large {
		style = largeSpeakerStyle
	}
	label := fmt.Sprintf("%s: %s", sideCaser.String(side.String()), style.Render(name))
	if p.settings.IdleAnimation != "" {
		label += promptStyle.Render(" (" + p.settings.IdleAnimation + ")")
	}
	return label
}

func (m ConsoleUI) renderChoices(width int) string {
	visible := m.sink.visibleChoices()
	if len(visible) == 0 {
		return ""
	}

	awaiting := m.runtime.State() == playback.StateAwaitingChoice
	var content strings.Builder
	for i, c := range visible {
		label := wordwrap.String(fmt.Sprintf("%d. %s", i+1, c.label), width-2)
		if awaiting && i == m.selected {
			content.WriteString(selectedChoiceStyle.Render("▶ "+label) + "\n")
		} else {
			content.WriteString(choiceStyle.Render("  "+label) + "\n")
		}
	}
	return content.String()
}
