package tui

import (
	"fmt"
	"strings"
	"time"

	"codeberg.org/mutker/perfscope/internal/panel"
	"codeberg.org/mutker/perfscope/internal/render"
	"codeberg.org/mutker/perfscope/internal/session"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const scalerBarWidth = 10

func freshnessMark(f session.Freshness) string {
	switch f {
	case session.FreshnessFresh:
		return "[green]●[-]"
	case session.FreshnessStale:
		return "[orange]●[-]"
	case session.FreshnessVeryStale:
		return "[red]●[-]"
	default:
		return "[gray]●[-]"
	}
}

func deviceLabel(d panel.Device, now time.Time) (main, secondary string) {
	main = fmt.Sprintf("%s %s %s ago", freshnessMark(d.Freshness), d.Addr, d.Ago(now))
	if d.Current {
		main += " [::b]*[::-]"
	}

	secondary = fmt.Sprintf("%d frames", d.Frames)
	if d.Info != "" {
		secondary += ", " + d.Info
	}

	return main, secondary
}

func colorTag(c drawing.Color) string {
	return fmt.Sprintf("[#%02x%02x%02x]", c.R, c.G, c.B)
}

// statsText lists every field's mean, the bottleneck and, when the cursor
// is set, the sample under it.
func statsText(p render.Plan, palette render.Palette) string {
	if !p.HasFrame && len(p.Stats) == 0 {
		return "[gray]waiting for data[-]"
	}

	var b strings.Builder
	for _, st := range p.Stats {
		fmt.Fprintf(&b, "%s%s[-]: %s\n", colorTag(palette.Color(st.Field)), st.Title, st.Text)
	}
	if p.HasFrame {
		fmt.Fprintf(&b, "\nBottleneck: [::b]%s[::-]\n", p.Latest.Bottleneck)
	}
	if p.Cursor != nil {
		fmt.Fprintf(&b, "\n[white]Cursor[-] (%d back)\n", p.Cursor.Age)
		for _, fv := range p.Cursor.Values {
			fmt.Fprintf(&b, "%s%s[-]\n", colorTag(palette.Color(fv.Field)), fv.Text)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// scalersText shows each scaler of the newest (or cursor) frame as a bar.
func scalersText(p render.Plan) string {
	if !p.HasFrame || len(p.Latest.Scalers) == 0 {
		return "[gray]no scalers[-]"
	}

	var b strings.Builder
	for _, s := range p.Latest.Scalers {
		pct := s.Percent()
		n := pct * scalerBarWidth / 100
		state := "[gray]off[-]"
		if s.Active {
			state = "[green]on[-]"
		}
		fmt.Fprintf(&b, "%-14s %s%s %3d%% %d/%d %s\n",
			s.Name,
			strings.Repeat("█", n),
			strings.Repeat("░", scalerBarWidth-n),
			pct, s.Level, s.MaxLevel, state)
	}

	return strings.TrimRight(b.String(), "\n")
}

func headerText(addr string, port int, paused bool) string {
	if addr == "" {
		addr = "no device"
	}
	state := "[green]live[-]"
	if paused {
		state = "[yellow]paused[-]"
	}

	return fmt.Sprintf("[::b]perfscope[::-]  udp/%d  %s  %s", port, addr, state)
}

const helpText = "[yellow]space[-] pause  [yellow]r[-] reset  [yellow]←/→[-] cursor  " +
	"[yellow]esc[-] clear cursor  [yellow]1-6[-] highlight  [yellow]0[-] all  " +
	"[yellow]c[-] connect  [yellow]d[-] forget  [yellow]p[-] probe  [yellow]q[-] quit"
