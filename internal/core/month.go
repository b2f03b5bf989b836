package core

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// MonthKey identifies a calendar month as "YYYY-MM".
type MonthKey string

var monthKeyPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

var monthNames = [12]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

var shortMonthNames = [12]string{
	"Jan", "Fev", "Mar", "Abr", "Mai", "Jun",
	"Jul", "Ago", "Set", "Out", "Nov", "Dez",
}

// ParseMonthKey validates s and returns it as a MonthKey.
func ParseMonthKey(s string) (MonthKey, error) {
	k := MonthKey(s)
	if err := k.Validate(); err != nil {
		return "", err
	}
	return k, nil
}

// MonthOf returns the month key of t in t's location.
func MonthOf(t time.Time) MonthKey {
	return MonthKey(fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month())))
}

// CurrentMonth returns the month key for the local current time.
func CurrentMonth() MonthKey {
	return MonthOf(time.Now())
}

// Validate checks the strict zero-padded format.
func (k MonthKey) Validate() error {
	if !monthKeyPattern.MatchString(string(k)) {
		return ErrInvalidMonth
	}
	return nil
}

func (k MonthKey) String() string { return string(k) }

// YearMonth splits a valid key. Invalid keys yield (0, 0).
func (k MonthKey) YearMonth() (int, time.Month) {
	if k.Validate() != nil {
		return 0, 0
	}
	year, _ := strconv.Atoi(string(k[:4]))
	month, _ := strconv.Atoi(string(k[5:]))
	return year, time.Month(month)
}

// AddMonths moves the key by n months (negative goes back).
func (k MonthKey) AddMonths(n int) MonthKey {
	year, month := k.YearMonth()
	if year == 0 {
		return k
	}
	return MonthOf(time.Date(year, month+time.Month(n), 1, 0, 0, 0, 0, time.UTC))
}

// Label renders the key for display, e.g. "Março 2024".
func (k MonthKey) Label() string {
	year, month := k.YearMonth()
	if year == 0 {
		return string(k)
	}
	return fmt.Sprintf("%s %d", monthNames[month-1], year)
}

// ShortName returns the abbreviated month name, e.g. "Mar".
func (k MonthKey) ShortName() string {
	_, month := k.YearMonth()
	if month == 0 {
		return ""
	}
	return shortMonthNames[month-1]
}

// FormatDate renders t as DD/MM/YYYY in t's location.
func FormatDate(t time.Time) string {
	return t.Format("02/01/2006")
}
