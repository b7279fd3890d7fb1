// Package tui implements the interactive `browse` screen: a background scan
// with a spinner, then a selectable list of devices with a detail view.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/ubnt-discover/internal/discovery"
	"github.com/muurk/ubnt-discover/internal/protocol"
	"github.com/muurk/ubnt-discover/internal/render"
)

// ScanFunc runs one discovery scan
type ScanFunc func(ctx context.Context) ([]*protocol.Packet, error)

type scanCompleteMsg struct {
	packets []*protocol.Packet
	err     error
}

// browseKeyMap defines key bindings for the device list
type browseKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Detail key.Binding
	Rescan key.Binding
	Quit   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k browseKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Detail, k.Rescan, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k browseKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Detail},
		{k.Rescan, k.Quit},
	}
}

// scanningKeyMap is active while a scan runs
type scanningKeyMap struct {
	Quit key.Binding
}

func (k scanningKeyMap) ShortHelp() []key.Binding  { return []key.Binding{k.Quit} }
func (k scanningKeyMap) FullHelp() [][]key.Binding { return [][]key.Binding{{k.Quit}} }

func newBrowseKeyMap() browseKeyMap {
	return browseKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "move down"),
		),
		Detail: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "details"),
		),
		Rescan: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rescan"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// deviceItem wraps a Device for use with bubbles/list
type deviceItem struct {
	device *discovery.Device
}

func (d deviceItem) FilterValue() string {
	return d.device.Hostname + " " + d.device.IPv4 + " " + d.device.HWAddr
}

func (d deviceItem) Title() string {
	if d.device.Hostname == "" {
		return "(unnamed)"
	}
	return d.device.Hostname
}

func (d deviceItem) Description() string {
	parts := []string{d.device.IPv4, d.device.HWAddr}
	if d.device.Model != "" {
		parts = append(parts, d.device.Model)
	}
	if d.device.Uptime != "" {
		parts = append(parts, "up "+d.device.Uptime)
	}
	return strings.Join(nonEmpty(parts), " • ")
}

func nonEmpty(in []string) []string {
	out := in[:0:0]
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Model is the browse screen state
type Model struct {
	ctx     context.Context
	scan    ScanFunc
	timeout time.Duration

	Scanning  bool
	ScanStart time.Time
	Detail    bool
	Err       error

	Devices list.Model

	Width        int
	Height       int
	Spinner      spinner.Model
	Progress     progress.Model
	Help         help.Model
	Keys         browseKeyMap
	ScanningKeys scanningKeyMap
}

// New creates the browse model with its first scan pending. timeout is only
// used to draw progress; scan is expected to honour it itself. Scans run
// under ctx.
func New(ctx context.Context, scan ScanFunc, timeout time.Duration) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40

	devices := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	devices.Title = "Discovered Devices"
	devices.SetShowStatusBar(false)
	devices.SetFilteringEnabled(false)
	devices.SetShowHelp(false)
	devices.Styles.Title = TitleStyle

	keys := newBrowseKeyMap()
	return Model{
		ctx:          ctx,
		scan:         scan,
		timeout:      timeout,
		Scanning:     true,
		ScanStart:    time.Now(),
		Devices:      devices,
		Spinner:      s,
		Progress:     bar,
		Help:         help.New(),
		Keys:         keys,
		ScanningKeys: scanningKeyMap{Quit: keys.Quit},
	}
}

// Init starts the first scan
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.scanCmd(), m.Spinner.Tick)
}

func (m Model) scanCmd() tea.Cmd {
	ctx, scan := m.ctx, m.scan
	return func() tea.Msg {
		packets, err := scan(ctx)
		return scanCompleteMsg{packets: packets, err: err}
	}
}

// startScan resets the screen for a new scan
func (m Model) startScan() (Model, tea.Cmd) {
	m.Scanning = true
	m.ScanStart = time.Now()
	m.Detail = false
	m.Err = nil
	m.Devices.SetItems([]list.Item{})
	return m, tea.Batch(m.scanCmd(), m.Spinner.Tick)
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.updateKeys(msg)

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Devices.SetWidth(msg.Width - 4)
		m.Devices.SetHeight(max(msg.Height-6, 3))
		return m, nil

	case scanCompleteMsg:
		m.Scanning = false
		m.Err = msg.err
		items := make([]list.Item, 0, len(msg.packets))
		for _, d := range discovery.NewDevices(msg.packets) {
			items = append(items, deviceItem{device: d})
		}
		cmd := m.Devices.SetItems(items)
		return m, cmd

	case spinner.TickMsg:
		if !m.Scanning {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.Keys.Quit) {
		if m.Detail && msg.String() == "esc" {
			m.Detail = false
			return m, nil
		}
		return m, tea.Quit
	}
	if m.Scanning {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.Keys.Rescan):
		return m.startScan()

	case key.Matches(msg, m.Keys.Detail):
		if m.Devices.SelectedItem() != nil {
			m.Detail = !m.Detail
		}
		return m, nil
	}

	if m.Detail {
		return m, nil
	}
	var cmd tea.Cmd
	m.Devices, cmd = m.Devices.Update(msg)
	return m, cmd
}

// SelectedDevice returns the highlighted device, if any
func (m Model) SelectedDevice() *discovery.Device {
	if item, ok := m.Devices.SelectedItem().(deviceItem); ok {
		return item.device
	}
	return nil
}

// View renders the browse screen
func (m Model) View() string {
	var content string
	var helpText string

	switch {
	case m.Scanning:
		content = m.renderScanning()
		helpText = m.Help.View(m.ScanningKeys)
	case m.Detail:
		content = m.renderDetail()
		helpText = m.Help.View(m.Keys)
	default:
		content = m.renderResults()
		helpText = m.Help.View(m.Keys)
	}

	return content + "\n" + HelpStyle.Render(helpText)
}

func (m Model) renderScanning() string {
	elapsed := time.Since(m.ScanStart)
	fraction := 0.0
	if m.timeout > 0 {
		fraction = min(1, float64(elapsed)/float64(m.timeout))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		TitleStyle.Render(m.Spinner.View()+" Searching for devices"),
		SubtitleStyle.Render("Sent discovery request to broadcast and multicast, collecting replies..."),
		"",
		m.Progress.ViewAs(fraction),
		"",
		SubtitleStyle.Render(fmt.Sprintf("Elapsed: %ds", int(elapsed.Seconds()))),
	)
}

func (m Model) renderResults() string {
	if m.Err != nil {
		return ErrorStyle.Render("✗ Scan failed: " + m.Err.Error())
	}
	if len(m.Devices.Items()) == 0 {
		return WarningStyle.Render("⚠ No devices found") + "\n\n" +
			SubtitleStyle.Render("Devices must share a broadcast domain or be reachable via 233.89.188.1. Press r to rescan.")
	}
	return m.Devices.View()
}

func (m Model) renderDetail() string {
	d := m.SelectedDevice()
	if d == nil {
		return m.renderResults()
	}
	title := TitleStyle.Render(d.String())
	return title + "\n" + DetailBoxStyle.Render(strings.TrimRight(render.Everything(d.Packet), "\n"))
}

// Run shows the browse screen until the user quits
func Run(ctx context.Context, scan ScanFunc, timeout time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(New(ctx, scan, timeout), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("browse failed: %w", err)
	}
	return nil
}
