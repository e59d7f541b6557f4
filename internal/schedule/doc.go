// Package schedule triggers audit runs on a cron expression and never overlaps two runs.
package schedule
