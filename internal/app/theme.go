package app

import "time"

// ThemeByTime picks a theme deterministically from the wall clock: the day
// is divided into rotation windows and the window index selects the theme.
// Stateless, so repeated runs in one window agree on the theme.
func ThemeByTime(themes []string, rotationMinutes int, now time.Time) string {
	if len(themes) == 0 {
		return ""
	}
	if rotationMinutes <= 0 {
		rotationMinutes = 1
	}
	idx := ((now.Hour()*60 + now.Minute()) / rotationMinutes) % len(themes)
	return themes[idx]
}
