package domain

import "time"

// ShiftPeriod distinguishes day and night shift records.
type ShiftPeriod string

const (
	ShiftPeriodDay   ShiftPeriod = "day"
	ShiftPeriodNight ShiftPeriod = "night"
)

// Record is one worker-submitted activity occurrence. In the live table Payload
// and Original are identical; in the validated set Payload is the (possibly
// supervisor-edited) canonical copy and Original is the snapshot taken at
// validation time, retained as the diff baseline.
type Record struct {
	ID          string
	TenantID    string
	Site        string
	ShiftDate   string // YYYY-MM-DD
	ShiftPeriod ShiftPeriod
	ShiftID     string
	UserID      string
	Payload     Payload
	Original    Payload
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DayRecords is everything loaded for one (site, date): the workers' live
// submissions and the validated snapshot the supervisor reviews.
type DayRecords struct {
	Live      []Record
	Validated []Record
}

// PayloadEdit carries one edited payload to the bulk-save path.
type PayloadEdit struct {
	RecordID string
	Payload  Payload
}

// Cursor models the keyset pagination token for history listings.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}
