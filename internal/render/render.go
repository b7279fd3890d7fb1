// Package render prints discovery results in the supported display modes.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/muurk/ubnt-discover/internal/discovery"
	"github.com/muurk/ubnt-discover/internal/protocol"
)

// Mode selects an output format
type Mode string

// Display modes
const (
	ModeOneline    Mode = "oneline"
	ModeEdge       Mode = "edge"
	ModeEverything Mode = "everything"
	ModeJSON       Mode = "json"
)

// Modes lists every supported mode, in help order
var Modes = []Mode{ModeOneline, ModeEdge, ModeEverything, ModeJSON}

// ParseMode validates a mode name
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == strings.ToLower(s) {
			return m, nil
		}
	}
	return "", fmt.Errorf("invalid display mode %q: must be one of %s", s, modeList())
}

func modeList() string {
	names := make([]string, len(Modes))
	for i, m := range Modes {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

// Options controls presentation details
type Options struct {
	// Color enables ANSI styling of headings and labels
	Color bool
}

// Color palette
var (
	PrimaryColor = lipgloss.Color("#7D56F4") // headings
	MutedColor   = lipgloss.Color("#626262") // labels
)

type styles struct {
	enabled bool
	header  lipgloss.Style
	label   lipgloss.Style
}

func newStyles(w io.Writer, opts Options) styles {
	if !opts.Color {
		return styles{}
	}
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(termenv.ANSI256)
	return styles{
		enabled: true,
		header:  r.NewStyle().Foreground(PrimaryColor).Bold(true),
		label:   r.NewStyle().Foreground(MutedColor),
	}
}

func (st styles) heading(s string) string {
	if !st.enabled {
		return s
	}
	return st.header.Render(s)
}

func (st styles) name(s string) string {
	if !st.enabled {
		return s
	}
	return st.label.Render(s)
}

// Write renders packets to w in the given mode
func Write(w io.Writer, mode Mode, packets []*protocol.Packet, opts Options) error {
	if mode == ModeJSON {
		return WriteJSON(w, discovery.NewDevices(packets))
	}

	st := newStyles(w, opts)
	var b strings.Builder
	b.WriteString(st.heading(fmt.Sprintf("Discovered %d devices:", len(packets))))
	b.WriteByte('\n')

	switch mode {
	case ModeOneline, "":
		writeOneline(&b, st, packets)
	case ModeEdge:
		for _, p := range packets {
			writeEdge(&b, st, p)
			b.WriteByte('\n')
		}
	case ModeEverything:
		for _, p := range packets {
			writeEverything(&b, st, p)
			b.WriteByte('\n')
		}
	default:
		return fmt.Errorf("invalid display mode %q", mode)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeOneline(b *strings.Builder, st styles, packets []*protocol.Packet) {
	b.WriteString(st.heading(fmt.Sprintf("%-17s  %-15s  %-10s hostname", "Hardware Address", "IP address", "Model")))
	b.WriteByte('\n')
	for _, p := range packets {
		d := discovery.NewDevice(p)
		fmt.Fprintf(b, "%-17s  %-15s  %-10s '%s'\n", d.HWAddr, d.IPv4, d.Model, d.Hostname)
	}
}

// writeEdge mimics the EdgeOS "show ubnt discovery detail" layout
func writeEdge(b *strings.Builder, st styles, p *protocol.Packet) {
	d := discovery.NewDevice(p)
	field := func(name, value string) {
		b.WriteString(st.name(name+":") + " " + value + "\n")
	}
	field("hostname", d.Hostname)
	field("hwaddr", d.HWAddr)
	field("ipv4", d.IPv4)
	field("product", d.Model)
	field("fwversion", d.Firmware)
	field("uptime", d.Uptime)
	b.WriteString(st.name("addresses:"))
	for _, a := range d.Addresses {
		b.WriteString("\n    " + a)
	}
	b.WriteByte('\n')
}

// labelWidth aligns the values in everything mode
const labelWidth = 26

func writeEverything(b *strings.Builder, st styles, p *protocol.Packet) {
	for _, t := range p.TLVs {
		label := protocol.Label(t.Type)
		b.WriteString(st.name(label))
		if pad := labelWidth - len(label); pad > 0 {
			b.WriteString(strings.Repeat(" ", pad))
		}
		b.WriteString(": " + t.ValueString() + "\n")
	}
}

// Everything returns the per-tuple dump of one packet without styling
func Everything(p *protocol.Packet) string {
	var b strings.Builder
	writeEverything(&b, styles{}, p)
	return b.String()
}

// WriteJSON writes devices as an indented JSON array
func WriteJSON(w io.Writer, devices []*discovery.Device) error {
	if devices == nil {
		devices = []*discovery.Device{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(devices); err != nil {
		return fmt.Errorf("failed to encode devices: %w", err)
	}
	return nil
}
