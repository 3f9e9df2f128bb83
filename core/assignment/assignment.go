package assignment

import (
	"context"

	"github.com/trezcool/eduverse/core"
)

// Statuses
const (
	StatusPending   = "pending"
	StatusSubmitted = "submitted"
	StatusGraded    = "graded"
)

type Assignment struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Subject     string `json:"subject"`
	Description string `json:"description,omitempty"`
	ClassID     string `json:"classId,omitempty"`
	TeacherID   string `json:"teacherId,omitempty"`
	DueDate     string `json:"dueDate"`
	Status      string `json:"status"`
}

type QueryFilter struct {
	Status  string // "" or "all" for every status
	Search  string // title or subject
	ClassID string
}

func (qf QueryFilter) Match(a Assignment) bool {
	if qf.Status != "" && qf.Status != "all" && a.Status != qf.Status {
		return false
	}
	if qf.ClassID != "" && a.ClassID != qf.ClassID {
		return false
	}
	return qf.Search == "" || core.ContainsFold(qf.Search, a.Title, a.Subject)
}

type (
	Repository interface {
		QueryAllAssignments(ctx context.Context) ([]Assignment, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]Assignment, error) {
	assignments, err := svc.repo.QueryAllAssignments(ctx)
	if err != nil {
		return nil, err
	}
	filter.Status = core.CleanString(filter.Status, true /* lower */)
	filter.Search = core.CleanString(filter.Search)

	filtered := make([]Assignment, 0, len(assignments))
	for _, a := range assignments {
		if filter.Match(a) {
			filtered = append(filtered, a)
		}
	}
	return filtered, nil
}

// Pending counts the assignments of classID still to be submitted.
func (svc *Service) Pending(ctx context.Context, classID string) (int, error) {
	pending, err := svc.Filter(ctx, QueryFilter{Status: StatusPending, ClassID: classID})
	return len(pending), err
}
