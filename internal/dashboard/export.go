package dashboard

import (
	"encoding/csv"
	"io"
	"strconv"

	"EquityPulse/internal/model"
)

// projectRow keeps date, ticker and the selected metrics of row.
func projectRow(row model.EnrichedRow, metrics []model.MetricInfo) map[string]any {
	out := make(map[string]any, len(metrics)+2)
	out["date"] = row.Date.Format(model.DateLayout)
	out["ticker"] = row.Ticker
	for _, m := range metrics {
		v, _ := row.Metric(m.Key)
		out[m.Key] = v
	}
	return out
}

// writeCSV writes rows with display labels as headers. No-value cells are
// empty fields.
func writeCSV(w io.Writer, rows []model.EnrichedRow, metrics []model.MetricInfo) error {
	cw := csv.NewWriter(w)
	header := []string{"date", "ticker"}
	for _, m := range metrics {
		header = append(header, m.Label)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	rec := make([]string, len(header))
	for _, row := range rows {
		rec[0] = row.Date.Format(model.DateLayout)
		rec[1] = row.Ticker
		for i, m := range metrics {
			v, _ := row.Metric(m.Key)
			if v.Valid {
				rec[i+2] = strconv.FormatFloat(v.Float64, 'f', -1, 64)
			} else {
				rec[i+2] = ""
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
