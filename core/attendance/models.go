package attendance

import (
	"strings"

	"github.com/trezcool/eduverse/core"
)

// Statuses
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
)

type Record struct {
	ID          string `json:"id"`
	StudentID   string `json:"studentId"`
	StudentName string `json:"studentName,omitempty"`
	ClassID     string `json:"classId"`
	ClassName   string `json:"className,omitempty"`
	Date        string `json:"date"` // YYYY-MM-DD
	Status      string `json:"status"`
	MarkedBy    string `json:"markedBy"`
}

// RecordID returns the ID of the record of studentID on date.
func RecordID(studentID, date string) string {
	return "att_" + studentID + "_" + strings.ReplaceAll(date, "-", "")
}

// Entry is one line of a class roster on a given date.
type Entry struct {
	StudentID   string `json:"studentId"`
	StudentName string `json:"studentName"`
	Status      string `json:"status"`
	Saved       bool   `json:"saved"` // false when Status is the default
}

// Mark holds the statuses to save for a class on a date.
// Students of the class missing from Statuses are marked present.
type Mark struct {
	ClassID  string            `json:"classId" validate:"required"`
	Date     string            `json:"date" validate:"required,isodate"`
	Statuses map[string]string `json:"statuses" validate:"dive,keys,required,endkeys,oneof=present absent"`
}

func (m *Mark) clean() {
	m.ClassID = core.CleanString(m.ClassID)
	m.Date = core.CleanString(m.Date)
	for id, status := range m.Statuses {
		m.Statuses[id] = core.CleanString(status, true /* lower */)
	}
}

type Summary struct {
	Total   int     `json:"total"`
	Present int     `json:"present"`
	Absent  int     `json:"absent"`
	Rate    float64 `json:"rate"` // percentage of present records, 1 decimal
}

type QueryFilter struct {
	StudentID string
	ClassID   string
	Date      string
}

func (qf QueryFilter) Match(r Record) bool {
	return (qf.StudentID == "" || r.StudentID == qf.StudentID) &&
		(qf.ClassID == "" || r.ClassID == qf.ClassID) &&
		(qf.Date == "" || r.Date == qf.Date)
}
