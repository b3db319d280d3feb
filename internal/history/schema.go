package history

const schema = `
-- One row per resolved day; payload is the schedule as JSON.
CREATE TABLE schedules (
	date TEXT PRIMARY KEY,
	payload TEXT NOT NULL,
	origin TEXT NOT NULL,
	fetched_at TIMESTAMP NOT NULL
);

-- Alarms already sounded, so a restart inside the prayer minute stays quiet.
CREATE TABLE alarms (
	date TEXT NOT NULL,
	prayer TEXT NOT NULL,
	fired_at TIMESTAMP NOT NULL,
	PRIMARY KEY (date, prayer)
);

CREATE INDEX idx_alarms_date ON alarms(date);
`

// migrations[0] is empty because version 0 uses the base schema.
var migrations = []string{
	"",
}
