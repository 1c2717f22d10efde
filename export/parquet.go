package export

import (
	"math"

	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
)

type sampleParquetRow struct {
	TSUTCISO     string  `parquet:"name=ts_utc_iso, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	ElapsedS     float64 `parquet:"name=elapsed_s, type=DOUBLE"`
	DistanceM    float64 `parquet:"name=distance_m, type=DOUBLE"`
	SpeedMPS     float64 `parquet:"name=speed_mps, type=DOUBLE"`
	AltitudeM    float64 `parquet:"name=altitude_m, type=DOUBLE"`
	HRBPM        float64 `parquet:"name=hr_bpm, type=DOUBLE"`
	PowerW       float64 `parquet:"name=power_w, type=DOUBLE"`
	CadenceRPM   float64 `parquet:"name=cadence_rpm, type=DOUBLE"`
	TemperatureC float64 `parquet:"name=temperature_c, type=DOUBLE"`
	GradePct     float64 `parquet:"name=grade_pct, type=DOUBLE"`
	ValidPower   bool    `parquet:"name=valid_power, type=BOOLEAN"`
	ValidHR      bool    `parquet:"name=valid_hr, type=BOOLEAN"`
}

// MarshalParquet renders the samples as a snappy-compressed parquet file in memory.
func MarshalParquet(rows []Sample) ([]byte, error) {
	fw := parquetbuffer.NewBufferFile()
	if err := encodeParquet(fw, rows); err != nil {
		return nil, err
	}
	return fw.Bytes(), nil
}

func writeParquet(path string, rows []Sample) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	if err := encodeParquet(fw, rows); err != nil {
		_ = fw.Close()
		return err
	}
	return fw.Close()
}

func encodeParquet(fw source.ParquetFile, rows []Sample) error {
	pw, err := writer.NewParquetWriter(fw, new(sampleParquetRow), 4)
	if err != nil {
		return err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, s := range rows {
		row := sampleParquetRow{
			TSUTCISO:     s.TSUTCISO,
			ElapsedS:     s.ElapsedS,
			DistanceM:    valueOrNaN(s.DistanceM),
			SpeedMPS:     valueOrNaN(s.SpeedMPS),
			AltitudeM:    valueOrNaN(s.AltitudeM),
			HRBPM:        valueOrNaN(s.HRBPM),
			PowerW:       valueOrNaN(s.PowerW),
			CadenceRPM:   valueOrNaN(s.CadenceRPM),
			TemperatureC: valueOrNaN(s.TemperatureC),
			GradePct:     valueOrNaN(s.GradePct),
			ValidPower:   s.PowerW != nil,
			ValidHR:      s.HRBPM != nil,
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			return err
		}
	}
	return pw.WriteStop()
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
