package class

import (
	"context"
	"errors"
	"sort"

	"github.com/trezcool/eduverse/core"
	"github.com/trezcool/eduverse/core/user"
)

var ErrNotFound = errors.New("class not found")

type Class struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	TeacherID       string `json:"teacherId"`
	Subject         string `json:"subject"`
	Schedule        string `json:"schedule"`
	Room            string `json:"room"`
	MaxStudents     int    `json:"maxStudents"`
	CurrentStudents int    `json:"currentStudents"`
}

// Summary is a Class along with the number of students enrolled in it.
type Summary struct {
	Class
	StudentCount int `json:"studentCount"`
}

type (
	Repository interface {
		QueryAllClasses(ctx context.Context) ([]Class, error)
		GetClassByID(ctx context.Context, id string) (Class, error)
	}

	// UserLister lists the students of a class.
	UserLister interface {
		StudentsInClass(ctx context.Context, classID string) ([]user.User, error)
	}

	Service struct {
		repo  Repository
		users UserLister
	}
)

func NewService(repo Repository, users UserLister) *Service {
	return &Service{repo: repo, users: users}
}

func (svc *Service) QueryAll(ctx context.Context) ([]Class, error) {
	return svc.repo.QueryAllClasses(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Class, error) {
	return svc.repo.GetClassByID(ctx, id)
}

// ForTeacher returns the classes taught by teacherID, with their live student counts.
// search does a case-insensitive match on one of Class.Name, Class.Subject or Class.Description.
func (svc *Service) ForTeacher(ctx context.Context, teacherID, search string) ([]Summary, error) {
	classes, err := svc.repo.QueryAllClasses(ctx)
	if err != nil {
		return nil, err
	}
	search = core.CleanString(search)

	summaries := make([]Summary, 0)
	for _, cls := range classes {
		if teacherID != "" && cls.TeacherID != teacherID {
			continue
		}
		if search != "" && !core.ContainsFold(search, cls.Name, cls.Subject, cls.Description) {
			continue
		}
		students, err := svc.users.StudentsInClass(ctx, cls.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, Summary{Class: cls, StudentCount: len(students)})
	}
	sort.SliceStable(summaries, func(i, j int) bool { return summaries[i].Name < summaries[j].Name })
	return summaries, nil
}
