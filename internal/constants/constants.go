package constants

import (
	"time"
)

const (
	// Nightly report runs after the day has fully closed in metropolitan
	// France, cron scheduled in UTC.
	DailyReportCronSpec   = "30 2 * * *"
	DailyReportJobTimeout = 10 * time.Minute

	// Dev front-end origin (vite) allowed next to APP_URL.
	AllowedOriginLocalhost = "http://localhost:5173"
)
