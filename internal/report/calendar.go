package report

import (
	"fmt"
	"strconv"
	"strings"
)

var monthLabels = [12]string{"Jan", "Fev", "Mar", "Abr", "Mai", "Jun", "Jul", "Ago", "Set", "Out", "Nov", "Dez"}

// MonthLabel returns the short Portuguese label for a 1-based month.
func MonthLabel(month int) string {
	if month < 1 || month > 12 {
		return strconv.Itoa(month)
	}
	return monthLabels[month-1]
}

// PeriodLabel turns a "2025-03" key into "Mar/2025". Unrecognised keys are returned as is.
func PeriodLabel(period string) string {
	year, month, ok := strings.Cut(period, "-")
	if !ok {
		return period
	}
	m, err := strconv.Atoi(month)
	if err != nil {
		return period
	}
	return fmt.Sprintf("%s/%s", MonthLabel(m), year)
}

// monthKeyLabel turns a zero-padded "03" month key into its label.
func monthKeyLabel(key string) string {
	m, err := strconv.Atoi(key)
	if err != nil {
		return key
	}
	return MonthLabel(m)
}
