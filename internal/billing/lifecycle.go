package billing

import (
	"math"
	"time"
)

const day = 24 * time.Hour

// DueSoonDays порог, после которого продление считается близким
const DueSoonDays = 7

// DaysRemaining возвращает число дней до end, округленное вверх и не меньше нуля.
func DaysRemaining(end, now time.Time) int {
	diff := end.Sub(now)
	if diff <= 0 {
		return 0
	}
	return int(math.Ceil(float64(diff) / float64(day)))
}

// ProgressValue возвращает процент оставшегося срока: remaining / totalDays * 100.
// Результат ограничен отрезком [0, 100]: если длительность пакета уменьшили
// посреди периода, остаток может превысить totalDays.
func ProgressValue(end time.Time, totalDays int, now time.Time) float64 {
	if totalDays <= 0 {
		return 0
	}
	v := float64(DaysRemaining(end, now)) / float64(totalDays) * 100
	return math.Min(100, math.Max(0, v))
}

// RoundedPercent округляет значение прогресса для подписи "% remaining"
func RoundedPercent(v float64) int {
	return int(math.Round(v))
}

// EndDate вычисляет дату окончания подписки: start + durationDays календарных дней
func EndDate(start time.Time, durationDays int) time.Time {
	return start.AddDate(0, 0, durationDays)
}

// RenewalStatus возвращает "Due soon" для подписок, истекающих в ближайшую неделю
func RenewalStatus(daysRemaining int) string {
	if daysRemaining <= DueSoonDays {
		return "Due soon"
	}
	return "On track"
}
