package repository

import (
	"database/sql"
	"time"
)

// HolidayRepo stores the bank holiday calendar. The holiday set is maintained
// by operators and read as an immutable snapshot at the start of each
// recompute.
type HolidayRepo struct {
	db *sql.DB
}

func NewHolidayRepo(db *sql.DB) *HolidayRepo {
	return &HolidayRepo{db: db}
}

// All returns every holiday date in YYYY-MM-DD form, ascending.
func (r *HolidayRepo) All() ([]string, error) {
	rows, err := r.db.Query("SELECT date FROM bank_holidays ORDER BY date")
	if err != nil {
		return nil, storeErr("list holidays", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, storeErr("scan holiday", err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// Add inserts a holiday date. Adding an existing date is a no-op.
func (r *HolidayRepo) Add(date time.Time) error {
	_, err := r.db.Exec(
		"INSERT OR IGNORE INTO bank_holidays (date) VALUES (?)",
		date.Format(dateFormat),
	)
	if err != nil {
		return storeErr("add holiday", err)
	}
	return nil
}

// Remove deletes a holiday date if present.
func (r *HolidayRepo) Remove(date time.Time) error {
	_, err := r.db.Exec(
		"DELETE FROM bank_holidays WHERE date = ?",
		date.Format(dateFormat),
	)
	if err != nil {
		return storeErr("remove holiday", err)
	}
	return nil
}
