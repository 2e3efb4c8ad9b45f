package events

import (
	"fmt"
	"time"
)

// intervalsOverlap compara dos intervalos UTC con semántica half-open:
// [aStart, aEnd) vs [bStart, bEnd). Tocar bordes no es overlap.
func intervalsOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// localWindowOverlap compara un intervalo candidato (en minutos locales
// desde medianoche) contra una ventana recurrente local. Si la ventana
// cruza medianoche (start > end, ej 22:00-07:00) el overlap se evalúa
// contra ambos tramos.
func localWindowOverlap(candStart, candEnd, winStart, winEnd int) bool {
	if winStart <= winEnd {
		return candStart < winEnd && candEnd > winStart
	}
	// Ventana overnight
	return candStart < winEnd || candEnd > winStart
}

func minutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// parseClock acepta "HH:MM" (24h) y devuelve minutos desde medianoche.
func parseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid clock %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid clock %q", s)
	}
	return h*60 + m, nil
}
