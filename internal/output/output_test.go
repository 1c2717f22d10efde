package output

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lucasjlepore/ridechat"
	"github.com/lucasjlepore/ridechat/internal/history"
	"github.com/lucasjlepore/ridechat/metrics"
	"github.com/lucasjlepore/ridechat/table"
	"github.com/lucasjlepore/ridechat/units"
)

func init() {
	SetNoColor(true)
}

func TestTableAlignsColumns(t *testing.T) {
	tbl := NewTable("A", "LONGER")
	tbl.AddRow("wide value", "x")
	tbl.AddRow("y")

	lines := strings.Split(strings.TrimRight(tbl.Render(), "\n"), "\n")
	assert.Len(t, lines, 4)
	assert.Equal(t, "A           LONGER", lines[0])
	assert.Equal(t, "wide value  x     ", lines[2])
	assert.Equal(t, "y                 ", lines[3])
}

func TestHeadline(t *testing.T) {
	rec := metrics.Extract(table.Summary{table.TotalDistance: 10000, table.AvgPower: 180}, units.Metric())
	out := Headline("Ride", rec, units.Metric())

	assert.True(t, strings.HasPrefix(out, "Ride\n"))
	assert.Contains(t, out, "10.0 km")
	assert.Contains(t, out, "180.0 W")
	assert.Equal(t, 13, strings.Count(out, "\n"))
}

func TestReplyStripsMarkersWithoutColor(t *testing.T) {
	out := Reply(ridechat.Reply{Text: "**First Half of Your Ride:**\n- Average power: 200 W"})
	assert.Equal(t, "First Half of Your Ride:\n- Average power: 200 W", out)

	assert.Equal(t, "a ** b", emphasize("a ** b"))
}

func TestHistory(t *testing.T) {
	assert.Contains(t, History(nil, units.Imperial()), "No rides recorded yet.")

	out := History([]history.Ride{{
		LoadedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.Local),
		Source:      "demo",
		DataPoints:  3600,
		DistanceM:   25000,
		AvgSpeedMPS: 6.9,
		AvgPower:    210,
	}}, units.Metric())
	assert.Contains(t, out, "DIST (km)")
	assert.Contains(t, out, "2026-01-02 03:04:05")
	assert.Contains(t, out, "25.0")
	assert.Contains(t, out, "24.8")
}
