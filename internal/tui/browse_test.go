package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/ubnt-discover/internal/protocol"
)

func reply(hostname string, last byte) *protocol.Packet {
	mac := []byte{0, 0x27, 0x22, 0, 0, last}
	return protocol.NewPacket().
		Add(protocol.TypeMAC, mac).
		Add(protocol.TypeAddress, append(append([]byte{}, mac...), 10, 0, 0, last)).
		Add(protocol.TypeHostname, []byte(hostname)).
		Add(protocol.TypeModel, []byte("ER-X"))
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update() returned %T, want Model", next)
	}
	return nm, cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func loadedModel(t *testing.T, packets ...*protocol.Packet) Model {
	t.Helper()
	m := New(context.Background(), nil, time.Second)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	m, _ = update(t, m, scanCompleteMsg{packets: packets})
	return m
}

func TestNewStartsScanning(t *testing.T) {
	m := New(context.Background(), nil, time.Second)
	if !m.Scanning {
		t.Error("new model should be scanning")
	}
	if !strings.Contains(m.View(), "Searching for devices") {
		t.Errorf("scanning view = %q", m.View())
	}
}

func TestInitRunsScan(t *testing.T) {
	called := make(chan context.Context, 1)
	scan := func(ctx context.Context) ([]*protocol.Packet, error) {
		called <- ctx
		return []*protocol.Packet{reply("a", 1)}, nil
	}
	m := New(context.Background(), scan, time.Second)

	msg := m.scanCmd()()
	done, ok := msg.(scanCompleteMsg)
	if !ok {
		t.Fatalf("scanCmd() produced %T", msg)
	}
	if len(done.packets) != 1 {
		t.Errorf("scan returned %d packets", len(done.packets))
	}
	select {
	case <-called:
	default:
		t.Error("scan function not called")
	}
}

func TestScanComplete(t *testing.T) {
	m := loadedModel(t, reply("gw", 1), reply("ap", 2))

	if m.Scanning {
		t.Error("still scanning after completion")
	}
	if got := len(m.Devices.Items()); got != 2 {
		t.Fatalf("list has %d items, want 2", got)
	}
	if d := m.SelectedDevice(); d == nil || d.Hostname != "gw" {
		t.Errorf("SelectedDevice() = %v, want gw", d)
	}
	view := m.View()
	if !strings.Contains(view, "gw") || !strings.Contains(view, "10.0.0.2") {
		t.Errorf("list view misses devices:\n%s", view)
	}
}

func TestNavigationAndDetail(t *testing.T) {
	m := loadedModel(t, reply("gw", 1), reply("ap", 2))

	m, _ = update(t, m, keyMsg("down"))
	if d := m.SelectedDevice(); d == nil || d.Hostname != "ap" {
		t.Fatalf("SelectedDevice() after down = %v, want ap", d)
	}

	m, _ = update(t, m, keyMsg("enter"))
	if !m.Detail {
		t.Fatal("enter should open the detail view")
	}
	if view := m.View(); !strings.Contains(view, "hostname (11)") || !strings.Contains(view, "ap") {
		t.Errorf("detail view:\n%s", view)
	}

	m, _ = update(t, m, keyMsg("enter"))
	if m.Detail {
		t.Error("enter should close the detail view")
	}

	m, _ = update(t, m, keyMsg("enter"))
	m, cmd := update(t, m, keyMsg("esc"))
	if m.Detail || isQuit(cmd) {
		t.Error("esc in detail view should go back, not quit")
	}
}

func TestRescan(t *testing.T) {
	m := loadedModel(t, reply("gw", 1))
	m.scan = func(context.Context) ([]*protocol.Packet, error) { return nil, nil }

	m, cmd := update(t, m, keyMsg("r"))
	if !m.Scanning {
		t.Error("r should start a new scan")
	}
	if cmd == nil {
		t.Error("r should return the scan command")
	}
	if len(m.Devices.Items()) != 0 {
		t.Error("rescan should clear the list")
	}

	// Keys other than quit are ignored while scanning
	m, cmd = update(t, m, keyMsg("r"))
	if cmd != nil {
		t.Error("rescan while scanning should be ignored")
	}
}

func TestQuit(t *testing.T) {
	for _, k := range []string{"q", "esc"} {
		m := loadedModel(t)
		_, cmd := update(t, m, keyMsg(k))
		if !isQuit(cmd) {
			t.Errorf("%q should quit", k)
		}
	}

	scanning := New(context.Background(), nil, time.Second)
	if _, cmd := update(t, scanning, keyMsg("q")); !isQuit(cmd) {
		t.Error("q should quit while scanning")
	}
}

func TestEmptyAndErrorViews(t *testing.T) {
	m := loadedModel(t)
	if !strings.Contains(m.View(), "No devices found") {
		t.Errorf("empty view:\n%s", m.View())
	}

	m, _ = update(t, m, scanCompleteMsg{err: errors.New("socket closed")})
	if !strings.Contains(m.View(), "socket closed") {
		t.Errorf("error view:\n%s", m.View())
	}

	m, _ = update(t, m, keyMsg("enter"))
	if m.Detail {
		t.Error("detail view opened with no devices")
	}
}

func TestDeviceItem(t *testing.T) {
	m := loadedModel(t, reply("gw", 1))
	item := m.Devices.Items()[0].(deviceItem)

	if item.Title() != "gw" {
		t.Errorf("Title() = %q", item.Title())
	}
	if want := "10.0.0.1 • 00:27:22:00:00:01 • ER-X"; item.Description() != want {
		t.Errorf("Description() = %q, want %q", item.Description(), want)
	}
	if !strings.Contains(item.FilterValue(), "10.0.0.1") {
		t.Errorf("FilterValue() = %q", item.FilterValue())
	}
}
