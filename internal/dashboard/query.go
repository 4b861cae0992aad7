package dashboard

import (
	"fmt"
	"strings"
	"time"

	"EquityPulse/internal/model"
)

// priceQuery is the parsed form of /prices query parameters.
type priceQuery struct {
	Start   time.Time // zero means the ticker's first stored date
	End     time.Time // zero means the ticker's last stored date
	Metrics []model.MetricInfo
	Desc    bool
	Format  string
}

type queryParams interface {
	DefaultQuery(key, def string) string
}

func parseDate(name, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(model.DateLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q, want YYYY-MM-DD", name, v)
	}
	return t, nil
}

func parsePriceQuery(q queryParams) (*priceQuery, error) {
	var pq priceQuery
	var err error

	if pq.Start, err = parseDate("start", q.DefaultQuery("start", "")); err != nil {
		return nil, err
	}
	if pq.End, err = parseDate("end", q.DefaultQuery("end", "")); err != nil {
		return nil, err
	}
	if !pq.Start.IsZero() && !pq.End.IsZero() && pq.Start.After(pq.End) {
		return nil, fmt.Errorf("start %s is after end %s",
			pq.Start.Format(model.DateLayout), pq.End.Format(model.DateLayout))
	}

	keys := model.DefaultMetrics
	if raw := q.DefaultQuery("metrics", ""); raw != "" {
		keys = nil
		for _, k := range strings.Split(raw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				keys = append(keys, k)
			}
		}
		if len(keys) == 0 {
			return nil, fmt.Errorf("metrics %q names no metric", raw)
		}
	}
	seen := map[string]bool{}
	for _, k := range keys {
		info, ok := model.LookupMetric(k)
		if !ok {
			return nil, fmt.Errorf("unknown metric %q", k)
		}
		if !seen[k] {
			seen[k] = true
			pq.Metrics = append(pq.Metrics, info)
		}
	}

	switch order := strings.ToLower(q.DefaultQuery("order", "desc")); order {
	case "desc":
		pq.Desc = true
	case "asc":
	default:
		return nil, fmt.Errorf("invalid order %q, want asc or desc", order)
	}

	switch pq.Format = strings.ToLower(q.DefaultQuery("format", "json")); pq.Format {
	case "json", "csv":
	default:
		return nil, fmt.Errorf("invalid format %q, want json or csv", pq.Format)
	}
	return &pq, nil
}
