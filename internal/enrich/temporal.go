package enrich

import (
	"time"

	"ecomflow/internal/model"
)

var dayNames = [7]string{"Lundi", "Mardi", "Mercredi", "Jeudi", "Vendredi", "Samedi", "Dimanche"}

var monthNames = [12]string{"Jan", "Fév", "Mar", "Avr", "Mai", "Jun", "Jul", "Aoû", "Sep", "Oct", "Nov", "Déc"}

// Calendar derives the calendar columns of d. The zero time yields zero columns.
func Calendar(d time.Time) model.Temporal {
	if d.IsZero() {
		return model.Temporal{}
	}
	wd := (int(d.Weekday()) + 6) % 7
	_, week := d.ISOWeek()
	return model.Temporal{
		Year:      int64(d.Year()),
		Month:     int64(d.Month()),
		Day:       int64(d.Day()),
		Weekday:   int64(wd),
		Week:      int64(week),
		Quarter:   int64((d.Month()-1)/3 + 1),
		IsWeekend: wd >= 5,
		DayName:   dayNames[wd],
		MonthName: monthNames[d.Month()-1],
	}
}
