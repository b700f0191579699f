package analysis

import (
	"stockanalysis/internal/format"
	"stockanalysis/internal/indicator"
	"stockanalysis/internal/model"
)

// VolumeSMAPeriod is the look-back of the volume average behind VolumeRatio.
const VolumeSMAPeriod = 20

// BuildTechnicalData computes the indicator snapshot and the volume and
// price figures for series. symbol is the name the caller asked for.
func BuildTechnicalData(symbol string, series *model.Series) model.TechnicalData {
	td := model.TechnicalData{
		Symbol:     symbol,
		Variant:    series.Variant,
		Exchange:   series.Exchange,
		Currency:   series.Currency,
		Bars:       series.Len(),
		Indicators: indicator.Compute(series),
	}

	td.Indicators.PivotPoints = roundPivots(td.Indicators.PivotPoints)

	last, ok := series.Last()
	if !ok {
		td.VolumeRatio = 1.0
		td.PriceDisplay = format.Price(0, series.Currency)
		return td
	}

	td.CurrentPrice = last.Close
	td.PriceDisplay = format.Price(last.Close, series.Currency)
	td.Volume = last.Volume
	td.VolumeSMA20 = indicator.SMA(series.Volumes(), VolumeSMAPeriod)
	td.VolumeRatio = 1.0
	if td.VolumeSMA20 > 0 {
		td.VolumeRatio = float64(last.Volume) / td.VolumeSMA20
	}
	return td
}

// roundPivots rounds the pivot levels to cents for display and storage.
func roundPivots(p model.PivotPoints) model.PivotPoints {
	return model.PivotPoints{
		Pivot: format.Round(p.Pivot, 2),
		R1:    format.Round(p.R1, 2),
		R2:    format.Round(p.R2, 2),
		S1:    format.Round(p.S1, 2),
		S2:    format.Round(p.S2, 2),
	}
}
