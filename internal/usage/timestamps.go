package usage

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Layouts of normalized timestamp and day values.
const (
	TimestampLayout = "2006-01-02 15:04:05"
	DayLayout       = "2006-01-02"
)

var timestampLayouts = []string{
	TimestampLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"01/02/2006 15:04:05",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/06 15:04",
	DayLayout,
	"01/02/2006",
	"1/2/2006",
}

// ParseTimestamp reads a workbook or CSV timestamp, accepting Excel serial dates and common text layouts.
func ParseTimestamp(rawValue string) (time.Time, bool) {
	trimmedValue := strings.TrimSpace(rawValue)
	if len(trimmedValue) == 0 {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if parsedTime, parseError := time.Parse(layout, trimmedValue); parseError == nil {
			return parsedTime, true
		}
	}
	serialValue, serialError := strconv.ParseFloat(trimmedValue, 64)
	if serialError != nil || serialValue <= 0 {
		return time.Time{}, false
	}
	convertedTime, conversionError := excelize.ExcelDateToTime(serialValue, false)
	if conversionError != nil {
		return time.Time{}, false
	}
	return convertedTime.Round(time.Second), true
}

func normalizeTimestamp(rawValue string) string {
	parsedTime, parsed := ParseTimestamp(rawValue)
	if !parsed {
		return rawValue
	}
	return parsedTime.Format(TimestampLayout)
}

func dayOf(rawValue string) string {
	parsedTime, parsed := ParseTimestamp(rawValue)
	if !parsed {
		return ""
	}
	return parsedTime.Format(DayLayout)
}
