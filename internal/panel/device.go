package panel

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"codeberg.org/mutker/perfscope/internal/errors"
	"codeberg.org/mutker/perfscope/internal/session"
)

// Device is one row of the device list.
type Device struct {
	Addr      string
	Name      string
	Info      string
	LastSeen  time.Time
	Freshness session.Freshness
	Frames    int
	Current   bool
	// Saved is true when the address book knows the device.
	Saved bool
	ID    int64
}

// Ago renders how long ago the device was last seen.
func (d Device) Ago(now time.Time) string {
	if d.LastSeen.IsZero() {
		return "never"
	}
	return Ago(now.Sub(d.LastSeen))
}

// Ago formats a duration coarsely: "12s", "5m", "3h", "2d".
func Ago(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(max(0, d.Seconds())))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

// ValidateIPv4 accepts four dot separated decimal octets in 0-255.
func ValidateIPv4(addr string) error {
	errFactory := errors.New()

	parts := strings.Split(addr, ".")
	if len(parts) != 4 {
		return errFactory.WithData(ErrInvalidAddr, addr)
	}
	for _, part := range parts {
		if part == "" || len(part) > 3 {
			return errFactory.WithData(ErrInvalidAddr, addr)
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > 255 || strings.HasPrefix(part, "+") {
			return errFactory.WithData(ErrInvalidAddr, addr)
		}
	}

	return nil
}

// Devices lists the saved devices most recently active first, followed by
// live devices that are not saved.
func (p *Panel) Devices() []Device {
	now := p.now()
	current := p.registry.CurrentAddress()

	var out []Device
	seen := make(map[string]bool)

	entries, err := p.book.List()
	if err != nil {
		p.log.Warn().Err(err).Msg("Failed to list saved devices")
	}
	for _, e := range entries {
		d := Device{
			ID:       e.ID,
			Addr:     e.Addr,
			Name:     e.Name,
			Info:     e.Info,
			Saved:    true,
			LastSeen: e.ActiveAt,
		}
		p.fillLive(&d, now)
		d.Current = d.Addr == current
		out = append(out, d)
		seen[e.Addr] = true
	}

	var live []Device
	for _, addr := range p.registry.Addresses() {
		if seen[addr] {
			continue
		}
		d := Device{Addr: addr, Name: addr, Current: addr == current}
		p.fillLive(&d, now)
		live = append(live, d)
	}
	slices.SortStableFunc(live, func(a, b Device) int {
		return b.LastSeen.Compare(a.LastSeen)
	})

	return append(out, live...)
}

// fillLive prefers the session's last update over the saved activity time.
func (p *Panel) fillLive(d *Device, now time.Time) {
	if s, ok := p.registry.Get(d.Addr); ok {
		d.Frames = s.Len()
		if t, ok := s.LastUpdate(); ok {
			d.LastSeen = t
		}
	}

	d.Freshness = session.FreshnessUnknown
	if !d.LastSeen.IsZero() {
		d.Freshness = session.FreshnessOf(now.Sub(d.LastSeen))
	}
}
