package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/lucasjlepore/ridechat"
	"github.com/lucasjlepore/ridechat/internal/history"
	"github.com/lucasjlepore/ridechat/metrics"
	"github.com/lucasjlepore/ridechat/units"
)

// Headline renders the twelve headline metrics as a two-column block.
func Headline(title string, r metrics.Record, policy units.Policy) string {
	var b strings.Builder
	b.WriteString(StyleHeader.Render(title))
	b.WriteString("\n")
	for _, f := range r.Fields(policy) {
		value := fmt.Sprintf("%.1f", f.Value)
		if f.Unit != "" {
			value += " " + f.Unit
		}
		b.WriteString(StyleLabel.Render(f.Label))
		b.WriteString(StyleValue.Render(value))
		b.WriteString("\n")
	}
	return b.String()
}

// Reply renders an answer. Markdown bold markers are styled, or stripped when
// colour is off.
func Reply(reply ridechat.Reply) string {
	var b strings.Builder
	for i, line := range strings.Split(reply.Text, "\n") {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(emphasize(line))
	}
	return b.String()
}

// emphasize renders **bold** spans. An unpaired marker is left as text.
func emphasize(line string) string {
	parts := strings.Split(line, "**")
	if len(parts)%2 == 0 {
		return line
	}
	var b strings.Builder
	for i, part := range parts {
		if i%2 == 1 {
			b.WriteString(StyleEmphasis.Render(part))
			continue
		}
		b.WriteString(part)
	}
	return b.String()
}

// History renders stored rides as a table, distances and speeds in policy units.
func History(rides []history.Ride, policy units.Policy) string {
	if len(rides) == 0 {
		return StyleMuted.Render("No rides recorded yet.") + "\n"
	}
	t := NewTable("LOADED", "SOURCE", "POINTS",
		"DIST ("+policy.DistanceLabel()+")", "SPEED ("+policy.SpeedLabel()+")", "POWER (W)")
	for _, r := range rides {
		t.AddRow(
			r.LoadedAt.Local().Format(time.DateTime),
			r.Source,
			fmt.Sprintf("%d", r.DataPoints),
			fmt.Sprintf("%.1f", policy.Distance(r.DistanceM)),
			fmt.Sprintf("%.1f", policy.Speed(r.AvgSpeedMPS)),
			fmt.Sprintf("%.0f", r.AvgPower),
		)
	}
	return t.Render()
}

// Error renders an error line.
func Error(err error) string {
	return StyleError.Render("error: " + err.Error())
}
