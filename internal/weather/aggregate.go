package weather

import (
	"sort"
	"time"
)

// AggregateSeries combines daily series from several providers into one.
// Values reported for the same date are averaged; a value stays missing only
// when no provider reported it. The result is sorted by date ascending.
func AggregateSeries(all []DailySeries) DailySeries {
	type acc struct {
		precip, tmax, tmin    float64
		nPrecip, nTmax, nTmin int
	}

	byDay := make(map[time.Time]*acc)
	for _, series := range all {
		for _, r := range series {
			day := Day(r.Date)
			a, ok := byDay[day]
			if !ok {
				a = &acc{}
				byDay[day] = a
			}
			if r.Precipitation != nil {
				a.precip += *r.Precipitation
				a.nPrecip++
			}
			if r.TemperatureMax != nil {
				a.tmax += *r.TemperatureMax
				a.nTmax++
			}
			if r.TemperatureMin != nil {
				a.tmin += *r.TemperatureMin
				a.nTmin++
			}
		}
	}

	days := make([]time.Time, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	out := make(DailySeries, 0, len(days))
	for _, d := range days {
		a := byDay[d]
		rec := DailyRecord{Date: d}
		if a.nPrecip > 0 {
			rec.Precipitation = Float(a.precip / float64(a.nPrecip))
		}
		if a.nTmax > 0 {
			rec.TemperatureMax = Float(a.tmax / float64(a.nTmax))
		}
		if a.nTmin > 0 {
			rec.TemperatureMin = Float(a.tmin / float64(a.nTmin))
		}
		out = append(out, rec)
	}
	return out
}
