// Package seed loads the demo school into a fresh store.
package seed

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/eduverse/core"
	"github.com/trezcool/eduverse/core/attendance"
	"github.com/trezcool/eduverse/core/class"
	"github.com/trezcool/eduverse/core/exam"
	"github.com/trezcool/eduverse/core/fee"
	"github.com/trezcool/eduverse/core/settings"
	"github.com/trezcool/eduverse/core/user"
	"github.com/trezcool/eduverse/storage/kv"
)

const DefaultVersion = "1.2"

var NowFunc = time.Now // mockable

type Seeder struct {
	db      *kv.Adapter
	logger  core.Logger
	version string
}

func New(db *kv.Adapter, logger core.Logger, version string) *Seeder {
	if version == "" {
		version = DefaultVersion
	}
	return &Seeder{db: db, logger: logger, version: version}
}

func (s *Seeder) Version() string { return s.version }

// Seed writes the fixture unless the store is already at the seeder's version.
// Seeding wipes every key of the store, sessions included.
func (s *Seeder) Seed(ctx context.Context) error {
	current, err := s.db.GetString(ctx, kv.KeyDataVersion)
	if err != nil {
		return err
	}
	if current == s.version {
		return nil
	}
	s.logger.Warn("seed: wiping store", map[string]interface{}{"from": current, "to": s.version})
	return s.Force(ctx)
}

// Force wipes the store and writes the fixture regardless of the stored version.
func (s *Seeder) Force(ctx context.Context) error {
	fx, err := NewFixture(NowFunc())
	if err != nil {
		return errors.Wrap(err, "seed: building fixture")
	}
	entries := fx.entries()
	entries[kv.KeyDataVersion] = s.version
	if err := s.db.Reset(ctx, entries); err != nil {
		return errors.Wrap(err, "seed")
	}
	s.logger.Info("seed: store seeded", map[string]interface{}{"version": s.version})
	return nil
}

// Fixture is the demo school.
type Fixture struct {
	Users      []user.User
	Classes    []class.Class
	Exams      []exam.Exam
	Settings   settings.Settings
	Attendance []attendance.Record
	Fees       []fee.Fee
}

func (fx Fixture) entries() map[string]interface{} {
	return map[string]interface{}{
		kv.KeyUsers:      fx.Users,
		kv.KeyClasses:    fx.Classes,
		kv.KeyExams:      fx.Exams,
		kv.KeySettings:   fx.Settings,
		kv.KeyAttendance: fx.Attendance,
		kv.KeyFees:       fx.Fees,
	}
}

// Demo credentials, by user ID.
var Passwords = map[string]string{
	"admin_001":      "admin123",
	"teacher_001":    "teacher123",
	"student_001":    "student123",
	"accountant_001": "accountant123",
}

// NewFixture builds the demo school with dates relative to now.
func NewFixture(now time.Time) (Fixture, error) {
	now = now.UTC()
	today := core.FormatDate(now)

	users := []user.User{
		{
			ID:     "admin_001",
			Name:   "System Administrator",
			Email:  "admin@eduversepro.com",
			Role:   user.RoleAdmin,
			Avatar: "https://ui-avatars.com/api/?name=Admin&background=ef4444&color=fff",
		},
		{
			ID:     "teacher_001",
			Name:   "Sarah Johnson",
			Email:  "teacher@eduversepro.com",
			Role:   user.RoleTeacher,
			Avatar: "https://ui-avatars.com/api/?name=Sarah+Johnson&background=3b82f6&color=fff",
			TeacherProfile: &user.TeacherProfile{
				Subjects: []string{"Mathematics", "Physics"},
				Classes:  []string{"class_001", "class_002"},
			},
		},
		{
			ID:     "student_001",
			Name:   "Emma Wilson",
			Email:  "student@eduversepro.com",
			Role:   user.RoleStudent,
			Avatar: "https://ui-avatars.com/api/?name=Emma+Wilson&background=10b981&color=fff",
			StudentProfile: &user.StudentProfile{
				ClassID:     "class_001",
				Grade:       "10th Grade",
				ParentEmail: "wilson.parent@email.com",
			},
		},
		{
			ID:     "accountant_001",
			Name:   "Robert Martinez",
			Email:  "accountant@eduversepro.com",
			Role:   user.RoleAccountant,
			Avatar: "https://ui-avatars.com/api/?name=Robert+Martinez&background=8b5cf6&color=fff",
		},
	}
	for i := range users {
		users[i].CreatedAt = now
		users[i].Status = user.StatusActive
		if err := users[i].SetPassword(Passwords[users[i].ID]); err != nil {
			return Fixture{}, err
		}
	}

	paid := 1500.0
	zero := 0.0

	return Fixture{
		Users: users,
		Classes: []class.Class{
			{
				ID:              "class_001",
				Name:            "Mathematics 10A",
				Description:     "Advanced Mathematics for 10th Grade",
				TeacherID:       "teacher_001",
				Subject:         "Mathematics",
				Schedule:        "Mon, Wed, Fri - 9:00 AM",
				Room:            "Room 201",
				MaxStudents:     30,
				CurrentStudents: 1,
			},
			{
				ID:          "class_002",
				Name:        "Physics Fundamentals",
				Description: "Introduction to Classical Mechanics and Electromagnetism.",
				TeacherID:   "teacher_001",
				Subject:     "Physics",
				Schedule:    "Tue, Thu - 10:30 AM",
				Room:        "Lab 101",
				MaxStudents: 25,
			},
		},
		Exams: []exam.Exam{
			{
				ID:          "exam_001",
				Title:       "Mathematics Midterm Exam",
				Description: "Comprehensive midterm covering algebra and geometry",
				TeacherID:   "teacher_001",
				ClassID:     "class_001",
				Subject:     "Mathematics",
				Duration:    90,
				TotalMarks:  100,
				Questions: []exam.Question{
					{ID: "q1", Question: "What is 2 + 2?", Options: []string{"3", "4", "5", "6"}, CorrectAnswer: 1, Marks: 10},
					{ID: "q2", Question: "What is the capital of France?", Options: []string{"Berlin", "Madrid", "Paris", "Rome"}, CorrectAnswer: 2, Marks: 10},
				},
				ScheduledDate: now.Add(7 * 24 * time.Hour),
				Status:        exam.StatusScheduled,
			},
		},
		Settings: settings.Defaults(),
		Attendance: []attendance.Record{
			{
				ID:          "att_001",
				StudentID:   "student_001",
				StudentName: "Emma Wilson",
				ClassID:     "class_001",
				ClassName:   "Mathematics 10A",
				Date:        today,
				Status:      attendance.StatusPresent,
				MarkedBy:    "teacher_001",
			},
		},
		Fees: []fee.Fee{
			{
				ID:            "fee_001",
				StudentID:     "student_001",
				StudentName:   "Emma Wilson",
				Amount:        1500,
				Description:   "Tuition Fee - Fall Semester",
				DueDate:       today,
				Status:        fee.StatusPaid,
				PaidDate:      today,
				PaymentMethod: fee.MethodBankTransfer,
				AmountPaid:    &paid,
				BalanceDue:    &zero,
			},
			{
				ID:          "fee_002",
				StudentID:   "student_001",
				StudentName: "Emma Wilson",
				Amount:      200,
				Description: "Lab Fee",
				DueDate:     core.FormatDate(now.AddDate(0, 0, 15)),
				Status:      fee.StatusPending,
			},
		},
	}, nil
}
