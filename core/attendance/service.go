package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/trezcool/eduverse/core"
	"github.com/trezcool/eduverse/core/class"
	"github.com/trezcool/eduverse/core/user"
)

var (
	ErrForbidden      = core.ErrForbidden
	ErrUnknownStudent = errors.New("student is not enrolled in this class")
	NowFunc           = time.Now // mockable
)

type (
	Repository interface {
		FilterRecords(ctx context.Context, filter QueryFilter) ([]Record, error)
		// ReplaceRecords deletes every record of classID on date, then appends records.
		ReplaceRecords(ctx context.Context, classID, date string, records []Record) error
	}

	ClassGetter interface {
		GetByID(ctx context.Context, id string) (class.Class, error)
	}

	UserLister interface {
		StudentsInClass(ctx context.Context, classID string) ([]user.User, error)
	}

	Service struct {
		repo     Repository
		classes  ClassGetter
		users    UserLister
		validate *core.Validator
	}
)

func NewService(repo Repository, classes ClassGetter, users UserLister, validate *core.Validator) *Service {
	return &Service{repo: repo, classes: classes, users: users, validate: validate}
}

// Today returns the current UTC date as YYYY-MM-DD.
func Today() string {
	return core.FormatDate(NowFunc().UTC())
}

// authorize returns the class if actor may take its attendance: its teacher or an admin.
func (svc *Service) authorize(ctx context.Context, actor user.Session, classID string) (class.Class, error) {
	cls, err := svc.classes.GetByID(ctx, classID)
	if err != nil {
		return class.Class{}, err
	}
	if !actor.HasRole(user.RoleAdmin) && !(actor.HasRole(user.RoleTeacher) && cls.TeacherID == actor.ID) {
		return class.Class{}, ErrForbidden
	}
	return cls, nil
}

// Roster lists every student of classID with their status on date.
// Students without a saved record default to present.
func (svc *Service) Roster(ctx context.Context, actor user.Session, classID, date string) ([]Entry, error) {
	if _, err := svc.authorize(ctx, actor, classID); err != nil {
		return nil, err
	}
	students, err := svc.users.StudentsInClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	records, err := svc.repo.FilterRecords(ctx, QueryFilter{ClassID: classID, Date: date})
	if err != nil {
		return nil, err
	}
	saved := make(map[string]string, len(records))
	for _, r := range records {
		saved[r.StudentID] = r.Status
	}

	entries := make([]Entry, 0, len(students))
	for _, s := range students {
		entry := Entry{StudentID: s.ID, StudentName: s.Name, Status: StatusPresent}
		if status, ok := saved[s.ID]; ok {
			entry.Status = status
			entry.Saved = true
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Mark saves the attendance of a whole class on a date, replacing any previous records.
func (svc *Service) Mark(ctx context.Context, actor user.Session, m Mark) ([]Record, error) {
	m.clean()
	if err := svc.validate.Struct(m); err != nil {
		return nil, err
	}
	cls, err := svc.authorize(ctx, actor, m.ClassID)
	if err != nil {
		return nil, err
	}
	students, err := svc.users.StudentsInClass(ctx, m.ClassID)
	if err != nil {
		return nil, err
	}

	enrolled := make(map[string]bool, len(students))
	for _, s := range students {
		enrolled[s.ID] = true
	}
	for id := range m.Statuses {
		if !enrolled[id] {
			return nil, core.NewValidationError(ErrUnknownStudent, core.FieldError{Field: "statuses", Error: id + ": " + ErrUnknownStudent.Error()})
		}
	}

	records := make([]Record, 0, len(students))
	for _, s := range students {
		status, ok := m.Statuses[s.ID]
		if !ok {
			status = StatusPresent
		}
		records = append(records, Record{
			ID:          RecordID(s.ID, m.Date),
			StudentID:   s.ID,
			StudentName: s.Name,
			ClassID:     cls.ID,
			ClassName:   cls.Name,
			Date:        m.Date,
			Status:      status,
			MarkedBy:    actor.ID,
		})
	}
	if err := svc.repo.ReplaceRecords(ctx, cls.ID, m.Date, records); err != nil {
		return nil, err
	}
	return records, nil
}

// ForStudent returns every record of studentID.
func (svc *Service) ForStudent(ctx context.Context, studentID string) ([]Record, error) {
	return svc.repo.FilterRecords(ctx, QueryFilter{StudentID: studentID})
}

// Summary computes the attendance rate of studentID.
func (svc *Service) Summary(ctx context.Context, studentID string) (Summary, error) {
	records, err := svc.ForStudent(ctx, studentID)
	if err != nil {
		return Summary{}, err
	}
	var sum Summary
	for _, r := range records {
		sum.Total++
		if r.Status == StatusPresent {
			sum.Present++
		} else {
			sum.Absent++
		}
	}
	if sum.Total > 0 {
		sum.Rate = core.Round1(float64(sum.Present) / float64(sum.Total) * 100)
	}
	return sum, nil
}

// ForClass returns the records of classID on date.
func (svc *Service) ForClass(ctx context.Context, classID, date string) ([]Record, error) {
	return svc.repo.FilterRecords(ctx, QueryFilter{ClassID: classID, Date: date})
}
