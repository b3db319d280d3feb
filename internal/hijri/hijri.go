// Package hijri converts Gregorian dates to the Umm al-Qura calendar and
// formats both for the date line.
//
// Dates outside the Umm al-Qura tables (1937 to 2077) use the arithmetical
// calendar, which can differ by a day.
package hijri

import (
	"fmt"
	"time"

	gohijri "github.com/hablullah/go-hijri"
)

// Date is a day in the Islamic calendar. Month is 1-12.
type Date struct {
	Year  int
	Month int
	Day   int
}

var monthsEn = [12]string{
	"Muharram", "Safar", "Rabi al-Awwal", "Rabi al-Thani",
	"Jumada al-Ula", "Jumada al-Akhira", "Rajab", "Shaban",
	"Ramadan", "Shawwal", "Dhu al-Qadah", "Dhu al-Hijjah",
}

var monthsAr = [12]string{
	"محرم", "صفر", "ربيع الأول", "ربيع الآخر",
	"جمادى الأولى", "جمادى الآخرة", "رجب", "شعبان",
	"رمضان", "شوال", "ذو القعدة", "ذو الحجة",
}

var gregorianAr = [12]string{
	"يناير", "فبراير", "مارس", "أبريل", "مايو", "يونيو",
	"يوليو", "أغسطس", "سبتمبر", "أكتوبر", "نوفمبر", "ديسمبر",
}

// FromTime converts the calendar date of t, read in t's location. The zero
// Date is returned for days before the Islamic epoch.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	noon := time.Date(y, m, d, 12, 0, 0, 0, time.UTC)

	if uq, err := gohijri.CreateUmmAlQuraDate(noon); err == nil {
		return Date{Year: int(uq.Year), Month: int(uq.Month), Day: int(uq.Day)}
	}
	h, err := gohijri.CreateHijriDate(noon, gohijri.Default)
	if err != nil {
		return Date{}
	}
	return Date{Year: int(h.Year), Month: int(h.Month), Day: int(h.Day)}
}

// MonthName returns the month name in "en" or "ar".
func (d Date) MonthName(lang string) string {
	if d.Month < 1 || d.Month > 12 {
		return ""
	}
	if lang == "ar" {
		return monthsAr[d.Month-1]
	}
	return monthsEn[d.Month-1]
}

// Format renders "11 Ramadan 1447 AH", or "11 رمضان 1447" for lang "ar".
func (d Date) Format(lang string) string {
	if lang == "ar" {
		return fmt.Sprintf("%d %s %d", d.Day, d.MonthName(lang), d.Year)
	}
	return fmt.Sprintf("%d %s %d AH", d.Day, d.MonthName(lang), d.Year)
}

func (d Date) String() string {
	return d.Format("en")
}

// FormatGregorian renders "28 February 2026", or "28 فبراير 2026" for lang "ar".
func FormatGregorian(t time.Time, lang string) string {
	if lang == "ar" {
		return fmt.Sprintf("%d %s %d", t.Day(), gregorianAr[t.Month()-1], t.Year())
	}
	return t.Format("2 January 2006")
}
