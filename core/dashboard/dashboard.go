// Package dashboard computes the figures shown on the landing page of each portal.
package dashboard

import (
	"context"
	"time"

	"github.com/trezcool/eduverse/core"
	"github.com/trezcool/eduverse/core/assignment"
	"github.com/trezcool/eduverse/core/attendance"
	"github.com/trezcool/eduverse/core/class"
	"github.com/trezcool/eduverse/core/exam"
	"github.com/trezcool/eduverse/core/fee"
	"github.com/trezcool/eduverse/core/notice"
	"github.com/trezcool/eduverse/core/user"
)

const upcomingLimit = 3

var NowFunc = time.Now // mockable

type (
	Student struct {
		Classes            []class.Class `json:"classes"`
		UpcomingExams      []exam.Exam   `json:"upcomingExams"`
		AttendanceRate     float64       `json:"attendanceRate"`
		PendingFees        int           `json:"pendingFees"`
		AmountDue          float64       `json:"amountDue"`
		PendingAssignments int           `json:"pendingAssignments"`
		Notices            int           `json:"notices"`
	}

	Teacher struct {
		Classes     []class.Summary `json:"classes"`
		Students    int             `json:"students"`
		MarkedToday int             `json:"markedToday"` // attendance records saved today
		Exams       int             `json:"exams"`
		Notices     int             `json:"notices"`
	}

	Accountant struct {
		fee.Totals
		Fees int `json:"fees"`
	}

	Admin struct {
		Users   map[string]int `json:"users"` // by role
		Total   int            `json:"totalUsers"`
		Active  int            `json:"activeUsers"`
		Classes int            `json:"classes"`
		Exams   int            `json:"exams"`
		Notices int            `json:"notices"`
	}
)

type Service struct {
	users       *user.Service
	classes     *class.Service
	exams       *exam.Service
	attendance  *attendance.Service
	fees        *fee.Service
	notices     *notice.Service
	assignments *assignment.Service
}

func NewService(
	users *user.Service,
	classes *class.Service,
	exams *exam.Service,
	attendanceSvc *attendance.Service,
	fees *fee.Service,
	notices *notice.Service,
	assignments *assignment.Service,
) *Service {
	return &Service{
		users:       users,
		classes:     classes,
		exams:       exams,
		attendance:  attendanceSvc,
		fees:        fees,
		notices:     notices,
		assignments: assignments,
	}
}

// For returns the dashboard matching the role of sess.
func (svc *Service) For(ctx context.Context, sess user.Session) (interface{}, error) {
	switch sess.Role {
	case user.RoleAdmin:
		return svc.Admin(ctx, sess)
	case user.RoleTeacher:
		return svc.Teacher(ctx, sess)
	case user.RoleAccountant:
		return svc.Accountant(ctx)
	case user.RoleStudent:
		return svc.Student(ctx, sess)
	}
	return nil, core.ErrForbidden
}

func (svc *Service) Student(ctx context.Context, sess user.Session) (Student, error) {
	var d Student

	classes, err := svc.classes.QueryAll(ctx)
	if err != nil {
		return Student{}, err
	}
	d.Classes = make([]class.Class, 0, 1)
	for _, cls := range classes {
		if cls.ID == sess.ClassID {
			d.Classes = append(d.Classes, cls)
		}
	}

	upcoming, err := svc.exams.Upcoming(ctx, sess.ClassID, NowFunc())
	if err != nil {
		return Student{}, err
	}
	if len(upcoming) > upcomingLimit {
		upcoming = upcoming[:upcomingLimit]
	}
	d.UpcomingExams = upcoming

	sum, err := svc.attendance.Summary(ctx, sess.ID)
	if err != nil {
		return Student{}, err
	}
	d.AttendanceRate = sum.Rate

	fees, err := svc.fees.ForStudent(ctx, sess.ID)
	if err != nil {
		return Student{}, err
	}
	for _, f := range fees {
		if f.Status != fee.StatusPaid {
			d.PendingFees++
			d.AmountDue += f.Outstanding()
		}
	}

	if sess.ClassID != "" {
		if d.PendingAssignments, err = svc.assignments.Pending(ctx, sess.ClassID); err != nil {
			return Student{}, err
		}
	}

	notices, err := svc.notices.List(ctx, sess)
	if err != nil {
		return Student{}, err
	}
	d.Notices = len(notices)
	return d, nil
}

func (svc *Service) Teacher(ctx context.Context, sess user.Session) (Teacher, error) {
	classes, err := svc.classes.ForTeacher(ctx, sess.ID, "")
	if err != nil {
		return Teacher{}, err
	}
	d := Teacher{Classes: classes}

	today := core.FormatDate(NowFunc().UTC())
	taught := make(map[string]bool, len(classes))
	for _, cls := range classes {
		taught[cls.ID] = true
		d.Students += cls.StudentCount
		records, err := svc.attendance.ForClass(ctx, cls.ID, today)
		if err != nil {
			return Teacher{}, err
		}
		d.MarkedToday += len(records)
	}

	exams, err := svc.exams.QueryAll(ctx)
	if err != nil {
		return Teacher{}, err
	}
	for _, e := range exams {
		if e.TeacherID == sess.ID || taught[e.ClassID] {
			d.Exams++
		}
	}

	notices, err := svc.notices.List(ctx, sess)
	if err != nil {
		return Teacher{}, err
	}
	d.Notices = len(notices)
	return d, nil
}

func (svc *Service) Accountant(ctx context.Context) (Accountant, error) {
	fees, err := svc.fees.Filter(ctx, fee.QueryFilter{})
	if err != nil {
		return Accountant{}, err
	}
	return Accountant{Totals: fee.ComputeTotals(fees), Fees: len(fees)}, nil
}

func (svc *Service) Admin(ctx context.Context, sess user.Session) (Admin, error) {
	users, err := svc.users.QueryAll(ctx)
	if err != nil {
		return Admin{}, err
	}
	d := Admin{Users: make(map[string]int, len(user.AllRoles))}
	for _, role := range user.AllRoles {
		d.Users[role] = 0
	}
	for _, usr := range users {
		d.Users[usr.Role]++
		d.Total++
		if usr.IsActive() {
			d.Active++
		}
	}

	classes, err := svc.classes.QueryAll(ctx)
	if err != nil {
		return Admin{}, err
	}
	d.Classes = len(classes)

	exams, err := svc.exams.QueryAll(ctx)
	if err != nil {
		return Admin{}, err
	}
	d.Exams = len(exams)

	notices, err := svc.notices.List(ctx, sess)
	if err != nil {
		return Admin{}, err
	}
	d.Notices = len(notices)
	return d, nil
}
