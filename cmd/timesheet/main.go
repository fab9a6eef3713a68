/*
main.go - Application entry point

PURPOSE:
  Runs the timesheet CLI. "timesheet serve" starts the HTTP API; the other
  commands operate on the configured store directly.

ENVIRONMENT:
  PORT, LOG_LEVEL, LOG_PRETTY, TIMEZONE, POLICY_FILE
  STORE_BACKEND (memory|sqlite|sheets), SQLITE_PATH, SQLITE_BUSY_TIMEOUT
  TIMESHEET_RANGE, WORKERS_RANGE
  SHEETS_CREDENTIALS_FILE, TIMESHEET_SHEET_ID, WORKERS_SHEET_ID, SHEETS_TIMEOUT
  CACHE_BACKEND (none|memory|redis), CACHE_TTL, REDIS_ADDR, REDIS_DB

EXAMPLES:
  # Run the API on a local database
  timesheet serve --db ./data/timesheet.db

  # Clock a worker in and out
  timesheet clock-in w1 --program Rawdat
  timesheet clock-out w1

  # Current payroll period
  timesheet report w1 --kind payroll

SEE ALSO:
  - cli/root.go: Command tree
  - api/server.go: Router configuration
*/
package main

import (
	"fmt"
	"os"

	"github.com/warp/timesheet-engine/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
