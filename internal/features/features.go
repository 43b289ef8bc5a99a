package features

import (
	"fmt"
	"math"
	"time"

	"StockPulse/internal/domain/models"
)

const eps = 1e-9

// Columns is the fixed feature layout, in emission order.
var Columns = []string{
	"Return_1", "Return_5", "Return_10", "Return_20",
	"LogReturn1",
	"Volatility_10", "Volatility_20",
	"SMA_10", "SMA_20", "SMA_50",
	"EMA_10", "EMA_20",
	"RSI14",
	"MACD", "MACD_Signal",
	"Stochastic_K", "Stochastic_D",
	"BB_Upper", "BB_Lower", "BB_Width",
	"ATR14",
	"HL_Range", "Gap",
	"Volume_Change", "Volume_SMA20", "Volume_Ratio",
}

// Frame is the engineered feature table. Data has one row per input
// bar; warm-up rows carry NaN cells until every rolling window is
// populated. Target is the next-bar direction label (last row 0).
type Frame struct {
	Times  []time.Time
	Data   [][]float64
	Target []float64
	Closes []float64
}

// Rows returns the number of rows in the frame.
func (f *Frame) Rows() int { return len(f.Data) }

// rowValid reports whether a row has no NaN cell.
func rowValid(row []float64) bool {
	for _, v := range row {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Valid returns a new frame containing only fully-populated rows.
func (f *Frame) Valid() *Frame {
	out := &Frame{}
	for i, row := range f.Data {
		if !rowValid(row) {
			continue
		}
		out.Times = append(out.Times, f.Times[i])
		out.Data = append(out.Data, row)
		out.Target = append(out.Target, f.Target[i])
		out.Closes = append(out.Closes, f.Closes[i])
	}
	return out
}

// Engineer transforms an ordered OHLCV series into the fixed feature
// table. Input must be chronological with no duplicate timestamps.
func Engineer(bars []models.Bar) (*Frame, error) {
	n := len(bars)
	if n == 0 {
		return nil, fmt.Errorf("no bars")
	}
	for i := 1; i < n; i++ {
		if !bars[i].Time.After(bars[i-1].Time) {
			return nil, fmt.Errorf("bars not strictly increasing at index %d", i)
		}
	}

	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	opens := make([]float64, n)
	volumes := make([]float64, n)
	for i, b := range bars {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
		opens[i] = b.Open
		volumes[i] = b.Volume
	}

	ret1 := pctChange(closes, 1)
	ret5 := pctChange(closes, 5)
	ret10 := pctChange(closes, 10)
	ret20 := pctChange(closes, 20)

	logRet := make([]float64, n)
	logRet[0] = math.NaN()
	for i := 1; i < n; i++ {
		logRet[i] = math.Log(closes[i] / closes[i-1])
	}

	vol10 := rollingStd(ret1, 10)
	vol20 := rollingStd(ret1, 20)

	sma10 := rollingMean(closes, 10)
	sma20 := rollingMean(closes, 20)
	sma50 := rollingMean(closes, 50)

	ema10 := ema(closes, 10)
	ema20 := ema(closes, 20)

	rsi14 := rsi(closes, 14)

	ema12 := ema(closes, 12)
	ema26 := ema(closes, 26)
	macd := make([]float64, n)
	for i := range macd {
		macd[i] = ema12[i] - ema26[i]
	}
	macdSignal := ema(macd, 9)

	stochK, stochD := stochastic(highs, lows, closes, 14, 3)

	std20 := rollingStd(closes, 20)
	bbUpper := make([]float64, n)
	bbLower := make([]float64, n)
	bbWidth := make([]float64, n)
	for i := 0; i < n; i++ {
		bbUpper[i] = sma20[i] + 2*std20[i]
		bbLower[i] = sma20[i] - 2*std20[i]
		bbWidth[i] = (bbUpper[i] - bbLower[i]) / (sma20[i] + eps)
	}

	atr14 := atr(highs, lows, closes, 14)

	hlRange := make([]float64, n)
	gap := make([]float64, n)
	gap[0] = math.NaN()
	for i := 0; i < n; i++ {
		hlRange[i] = (highs[i] - lows[i]) / (closes[i] + eps)
		if i > 0 {
			gap[i] = (opens[i] - closes[i-1]) / (closes[i-1] + eps)
		}
	}

	volChange := pctChange(volumes, 1)
	volSMA20 := rollingMean(volumes, 20)
	volRatio := make([]float64, n)
	for i := 0; i < n; i++ {
		volRatio[i] = volumes[i] / (volSMA20[i] + eps)
	}

	target := make([]float64, n)
	for i := 0; i < n-1; i++ {
		if closes[i+1] > closes[i] {
			target[i] = 1
		}
	}

	frame := &Frame{
		Times:  make([]time.Time, n),
		Data:   make([][]float64, n),
		Target: target,
		Closes: closes,
	}
	for i := 0; i < n; i++ {
		frame.Times[i] = bars[i].Time
		frame.Data[i] = []float64{
			ret1[i], ret5[i], ret10[i], ret20[i],
			logRet[i],
			vol10[i], vol20[i],
			sma10[i], sma20[i], sma50[i],
			ema10[i], ema20[i],
			rsi14[i],
			macd[i], macdSignal[i],
			stochK[i], stochD[i],
			bbUpper[i], bbLower[i], bbWidth[i],
			atr14[i],
			hlRange[i], gap[i],
			volChange[i], volSMA20[i], volRatio[i],
		}
	}
	return frame, nil
}

// pctChange returns v[i]/v[i-k] - 1 with NaN for the first k rows.
func pctChange(v []float64, k int) []float64 {
	out := make([]float64, len(v))
	for i := range v {
		if i < k || v[i-k] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = v[i]/v[i-k] - 1
	}
	return out
}

// rollingMean is a trailing simple mean; NaN until the window fills,
// and NaN if any input inside the window is NaN.
func rollingMean(v []float64, w int) []float64 {
	out := make([]float64, len(v))
	for i := range v {
		if i < w-1 {
			out[i] = math.NaN()
			continue
		}
		sum := 0.0
		valid := true
		for j := i - w + 1; j <= i; j++ {
			if math.IsNaN(v[j]) {
				valid = false
				break
			}
			sum += v[j]
		}
		if !valid {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(w)
	}
	return out
}

// rollingStd is the trailing sample standard deviation (ddof=1).
func rollingStd(v []float64, w int) []float64 {
	out := make([]float64, len(v))
	for i := range v {
		if i < w-1 {
			out[i] = math.NaN()
			continue
		}
		sum := 0.0
		valid := true
		for j := i - w + 1; j <= i; j++ {
			if math.IsNaN(v[j]) {
				valid = false
				break
			}
			sum += v[j]
		}
		if !valid {
			out[i] = math.NaN()
			continue
		}
		mean := sum / float64(w)
		ss := 0.0
		for j := i - w + 1; j <= i; j++ {
			d := v[j] - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(w-1))
	}
	return out
}

// ema is an exponential moving average with alpha = 2/(w+1), seeded by
// the first finite value (no bias adjustment). NaN inputs before the
// seed stay NaN.
func ema(v []float64, w int) []float64 {
	out := make([]float64, len(v))
	alpha := 2.0 / (float64(w) + 1.0)
	seeded := false
	var prev float64
	for i, x := range v {
		if !seeded {
			if math.IsNaN(x) {
				out[i] = math.NaN()
				continue
			}
			prev = x
			seeded = true
			out[i] = x
			continue
		}
		if math.IsNaN(x) {
			out[i] = math.NaN()
			continue
		}
		prev = alpha*x + (1-alpha)*prev
		out[i] = prev
	}
	return out
}

// rsi computes the 14-style relative strength index using trailing
// simple means of gains and losses.
func rsi(closes []float64, period int) []float64 {
	n := len(closes)
	gains := make([]float64, n)
	losses := make([]float64, n)
	gains[0] = math.NaN()
	losses[0] = math.NaN()
	for i := 1; i < n; i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gains[i] = d
		} else {
			losses[i] = -d
		}
	}

	avgGain := rollingMean(gains, period)
	avgLoss := rollingMean(losses, period)

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(avgGain[i]) || math.IsNaN(avgLoss[i]) {
			out[i] = math.NaN()
			continue
		}
		rs := avgGain[i] / (avgLoss[i] + eps)
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// stochastic computes %K over kPeriod and %D as an SMA of %K.
func stochastic(highs, lows, closes []float64, kPeriod, dPeriod int) (k, d []float64) {
	n := len(closes)
	k = make([]float64, n)
	for i := 0; i < n; i++ {
		if i < kPeriod-1 {
			k[i] = math.NaN()
			continue
		}
		lo := math.Inf(1)
		hi := math.Inf(-1)
		for j := i - kPeriod + 1; j <= i; j++ {
			if lows[j] < lo {
				lo = lows[j]
			}
			if highs[j] > hi {
				hi = highs[j]
			}
		}
		k[i] = 100 * (closes[i] - lo) / (hi - lo + eps)
	}
	d = rollingMean(k, dPeriod)
	return k, d
}

// atr computes average true range as a trailing mean of the true
// range. TR is NaN on the first row (no previous close).
func atr(highs, lows, closes []float64, period int) []float64 {
	n := len(closes)
	tr := make([]float64, n)
	tr[0] = math.NaN()
	for i := 1; i < n; i++ {
		hl := highs[i] - lows[i]
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}
	return rollingMean(tr, period)
}
