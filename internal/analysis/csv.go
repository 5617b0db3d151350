package analysis

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/i474232898/farm-weather/internal/weather"
)

// ColumnRollingAverage is the CSV header of the smoothed precipitation column.
const ColumnRollingAverage = "RollingAverage"

// WriteSummaryCSV writes a summarized series as Date,Precipitation,RollingAverage.
func WriteSummaryCSV(w io.Writer, series SummarizedSeries) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{weather.ColumnDate, weather.ColumnPrecipitation, ColumnRollingAverage}); err != nil {
		return err
	}
	for _, r := range series {
		if err := cw.Write([]string{
			r.Date.Format(weather.DateLayout),
			strconv.FormatFloat(r.Precipitation, 'f', -1, 64),
			strconv.FormatFloat(r.RollingAverage, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
