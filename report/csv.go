package report

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/rustyeddy/notes/curve"
	"github.com/rustyeddy/notes/schedule"
)

// WriteCurveCSV writes one row per curve point.
func WriteCurveCSV(w io.Writer, points []curve.Point) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"x", "redemption_pct", "coupon_pct", "total_pct", "note"}); err != nil {
		return err
	}
	for _, p := range points {
		err := cw.Write([]string{
			f(p.X),
			f(p.RedemptionPct),
			f(p.CouponPct),
			f(p.TotalPct),
			p.Note,
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteScheduleCSV writes numbered dates, one per row.
func WriteScheduleCSV(w io.Writer, dates []time.Time) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"period", "date"}); err != nil {
		return err
	}
	for i, d := range dates {
		if err := cw.Write([]string{strconv.Itoa(i + 1), d.Format(schedule.DateLayout)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteObservationsCSV writes an autocall schedule with its trigger levels.
func WriteObservationsCSV(w io.Writer, obs []schedule.Observation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"period", "date", "autocall_level"}); err != nil {
		return err
	}
	for _, o := range obs {
		if err := cw.Write([]string{strconv.Itoa(o.Index + 1), o.Date.Format(schedule.DateLayout), f(o.AutocallLevel)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
