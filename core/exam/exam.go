package exam

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/trezcool/eduverse/core"
)

// Statuses
const (
	StatusScheduled = "scheduled"
	StatusOngoing   = "ongoing"
	StatusCompleted = "completed"
)

var (
	ErrNotFound       = errors.New("exam not found")
	ErrAnswersMissing = errors.New("one answer per question is required")
)

type Question struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"` // index in Options
	Marks         int      `json:"marks"`
}

type Exam struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	TeacherID     string     `json:"teacherId"`
	ClassID       string     `json:"classId"`
	Subject       string     `json:"subject,omitempty"`
	Duration      int        `json:"duration"` // minutes
	TotalMarks    int        `json:"totalMarks"`
	Questions     []Question `json:"questions"`
	ScheduledDate time.Time  `json:"scheduledDate"`
	Status        string     `json:"status"`
}

type QueryFilter struct {
	Status string // "" or "all" for every status
	Search string // title or subject
}

func (qf QueryFilter) match(e Exam) bool {
	if qf.Status != "" && qf.Status != "all" && e.Status != qf.Status {
		return false
	}
	return qf.Search == "" || core.ContainsFold(qf.Search, e.Title, e.Subject)
}

type (
	Repository interface {
		QueryAllExams(ctx context.Context) ([]Exam, error)
		GetExamByID(ctx context.Context, id string) (Exam, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) QueryAll(ctx context.Context) ([]Exam, error) {
	return svc.repo.QueryAllExams(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Exam, error) {
	return svc.repo.GetExamByID(ctx, id)
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]Exam, error) {
	exams, err := svc.repo.QueryAllExams(ctx)
	if err != nil {
		return nil, err
	}
	filter.Status = core.CleanString(filter.Status, true /* lower */)
	filter.Search = core.CleanString(filter.Search)

	filtered := make([]Exam, 0, len(exams))
	for _, e := range exams {
		if filter.match(e) {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

// Upcoming returns the exams of classID scheduled after now, soonest first.
func (svc *Service) Upcoming(ctx context.Context, classID string, now time.Time) ([]Exam, error) {
	exams, err := svc.repo.QueryAllExams(ctx)
	if err != nil {
		return nil, err
	}
	upcoming := make([]Exam, 0)
	for _, e := range exams {
		if e.ClassID == classID && e.ScheduledDate.After(now) {
			upcoming = append(upcoming, e)
		}
	}
	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].ScheduledDate.Before(upcoming[j].ScheduledDate)
	})
	return upcoming, nil
}

// Score returns the marks obtained for answers, given in question order.
func (svc *Service) Score(ctx context.Context, examID string, answers []int) (int, error) {
	e, err := svc.repo.GetExamByID(ctx, examID)
	if err != nil {
		return 0, err
	}
	if len(answers) != len(e.Questions) {
		return 0, ErrAnswersMissing
	}
	var score int
	for i, q := range e.Questions {
		if answers[i] == q.CorrectAnswer {
			score += q.Marks
		}
	}
	return score, nil
}
