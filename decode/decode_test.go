package decode

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tormoder/fit"

	"github.com/lucasjlepore/ridechat/table"
)

func buildTestFIT(t *testing.T) []byte {
	t.Helper()

	header := fit.NewHeader(fit.V20, true)
	file, err := fit.NewFile(fit.FileTypeActivity, header)
	require.NoError(t, err)

	activity, err := file.Activity()
	require.NoError(t, err)

	start := time.Date(2026, 4, 12, 7, 30, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		rec := fit.NewRecordMsg()
		rec.Timestamp = start.Add(time.Duration(i) * time.Second)
		rec.Distance = uint32(i * 800)                     // 8 m steps, scale 100
		rec.EnhancedSpeed = 8000                           // 8 m/s, scale 1000
		rec.EnhancedAltitude = uint32((120 + i + 500) * 5) // scale 5, offset 500
		rec.HeartRate = uint8(140 + i)
		if i != 2 {
			rec.Power = uint16(200 + 10*i)
		}
		rec.Cadence = 90
		rec.Temperature = 21
		activity.Records = append(activity.Records, rec)
	}

	session := fit.NewSessionMsg()
	session.Timestamp = start.Add(4 * time.Second)
	session.StartTime = start
	session.TotalDistance = 2400  // 24 m
	session.TotalTimerTime = 4000 // 4 s
	session.EnhancedAvgSpeed = 8000
	session.EnhancedMaxSpeed = 8500
	session.AvgHeartRate = 141
	session.MaxHeartRate = 143
	session.AvgPower = 210
	session.MaxPower = 230
	session.TotalAscent = 3
	activity.Sessions = append(activity.Sessions, session)

	var buf bytes.Buffer
	require.NoError(t, fit.Encode(&buf, file, binary.LittleEndian))
	return buf.Bytes()
}

func zipped(t *testing.T, members map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range members {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestDecodeBytesFIT(t *testing.T) {
	act, err := DecodeBytes("morning.fit", buildTestFIT(t))
	require.NoError(t, err)
	assert.Equal(t, "morning.fit", act.Source)

	samples := act.Samples
	require.Equal(t, 4, samples.Len())
	assert.True(t, samples.Has(table.EnhancedSpeed))
	assert.True(t, samples.Has(table.EnhancedAltitude))
	assert.False(t, samples.Has(table.Speed), "invalid plain speed stays absent")

	dist, _ := samples.Column(table.Distance)
	assert.InDeltaSlice(t, []float64{0, 8, 16, 24}, dist, 1e-9)
	alt, _ := samples.Column(table.EnhancedAltitude)
	assert.InDelta(t, 123.0, alt[3], 1e-9)
	speed, _ := samples.Column(table.EnhancedSpeed)
	assert.InDelta(t, 8.0, speed[0], 1e-9)

	power, _ := samples.Column(table.Power)
	assert.Equal(t, []float64{200, 210}, power[:2])
	assert.Len(t, table.Present(power), 3)

	temp, _ := samples.Column(table.Temperature)
	assert.Equal(t, 21.0, temp[0])
	assert.Len(t, samples.Timestamps(), 4)

	s := act.Summary
	assert.InDelta(t, 24.0, s[table.TotalDistance], 1e-9)
	assert.InDelta(t, 4.0, s[table.TotalTimerTime], 1e-9)
	assert.InDelta(t, 8.0, s[table.EnhancedAvgSpeed], 1e-9)
	assert.InDelta(t, 8.5, s[table.EnhancedMaxSpeed], 1e-9)
	assert.Equal(t, 141.0, s[table.AvgHeartRate])
	assert.Equal(t, 230.0, s[table.MaxPower])
	assert.Equal(t, 3.0, s[table.TotalAscent])
	assert.False(t, s.Has(table.NormalizedPower))
	assert.False(t, s.Has(table.TotalDescent))
	assert.False(t, s.Has(table.AvgSpeed))
}

func TestDecodeBytesZip(t *testing.T) {
	archive := zipped(t, map[string][]byte{
		"readme.txt":      []byte("not a ride"),
		"export/RIDE.FIT": buildTestFIT(t),
	})

	act, err := DecodeBytes("garmin-export.zip", archive)
	require.NoError(t, err)
	assert.Equal(t, "garmin-export.zip/export/RIDE.FIT", act.Source)
	assert.Equal(t, 4, act.Samples.Len())
}

func TestDecodeBytesSniffsContent(t *testing.T) {
	act, err := DecodeBytes("upload", buildTestFIT(t))
	require.NoError(t, err)
	assert.Equal(t, 4, act.Samples.Len())

	act, err = DecodeBytes("upload", zipped(t, map[string][]byte{"a.fit": buildTestFIT(t)}))
	require.NoError(t, err)
	assert.Equal(t, 4, act.Samples.Len())
}

func TestDecodeBytesZipWithoutFIT(t *testing.T) {
	_, err := DecodeBytes("photos.zip", zipped(t, map[string][]byte{"a.jpg": {1, 2, 3}}))
	assert.ErrorIs(t, err, ErrNoFITInArchive)
}

func TestDecodeBytesUnsupported(t *testing.T) {
	_, err := DecodeBytes("notes.txt", []byte("hello"))
	assert.ErrorIs(t, err, ErrUnsupportedFile)
}

func TestDecodeBytesCorruptFIT(t *testing.T) {
	_, err := DecodeBytes("broken.fit", []byte("definitely not a fit file"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode FIT file")
}

func TestDecodeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ride.fit")
	require.NoError(t, os.WriteFile(path, buildTestFIT(t), 0o644))

	act, err := DecodeFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ride.fit", act.Source)

	_, err = DecodeFile(filepath.Join(t.TempDir(), "missing.fit"))
	assert.Error(t, err)
}

func TestDecodeWithoutSessionDerivesSummary(t *testing.T) {
	file, err := fit.NewFile(fit.FileTypeActivity, fit.NewHeader(fit.V20, true))
	require.NoError(t, err)
	activity, err := file.Activity()
	require.NoError(t, err)

	start := time.Date(2026, 4, 12, 7, 30, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		rec := fit.NewRecordMsg()
		rec.Timestamp = start.Add(time.Duration(i*2) * time.Second)
		rec.Distance = uint32(i * 1000)
		rec.HeartRate = uint8(130 + 10*i)
		rec.Power = 200
		activity.Records = append(activity.Records, rec)
	}
	var buf bytes.Buffer
	require.NoError(t, fit.Encode(&buf, file, binary.LittleEndian))

	act, err := DecodeBytes("nosession.fit", buf.Bytes())
	require.NoError(t, err)
	s := act.Summary
	assert.InDelta(t, 20.0, s[table.TotalDistance], 1e-9)
	assert.InDelta(t, 4.0, s[table.TotalTimerTime], 1e-9)
	assert.InDelta(t, 140.0, s[table.AvgHeartRate], 1e-9)
	assert.Equal(t, 150.0, s[table.MaxHeartRate])
	assert.Equal(t, 200.0, s[table.NormalizedPower])
	assert.False(t, s.Has(table.AvgSpeed))
}
