package notice

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/eduverse/core"
	"github.com/trezcool/eduverse/core/user"
)

var (
	ErrNotFound  = errors.New("notice not found")
	ErrForbidden = core.ErrForbidden

	NowFunc = time.Now                                              // mockable
	NewID   = func() string { return "notice_" + uuid.NewString() } // mockable
)

type (
	// Repository stores the notice board. An untouched board holds the Defaults.
	Repository interface {
		QueryAllNotices(ctx context.Context) ([]Notice, error)
		CreateNotice(ctx context.Context, n Notice) (Notice, error)
		UpdateNotice(ctx context.Context, n Notice) (Notice, error)
		DeleteNotice(ctx context.Context, id string) error
	}

	Service struct {
		repo     Repository
		validate *core.Validator
	}
)

func NewService(repo Repository, validate *core.Validator) *Service {
	return &Service{repo: repo, validate: validate}
}

// CanManage reports whether viewer may publish, edit and delete notices.
func CanManage(viewer user.Session) bool {
	return viewer.HasRole(user.RoleAdmin, user.RoleTeacher)
}

// visibleTo reports whether a notice addressed to audience is shown to viewer.
func visibleTo(audience string, viewer user.Session) bool {
	switch audience {
	case AudienceTeachers:
		return viewer.HasRole(user.RoleAdmin, user.RoleTeacher)
	case AudienceStudents:
		return viewer.HasRole(user.RoleAdmin, user.RoleStudent)
	default:
		return true
	}
}

// List returns the notices shown to viewer, newest first.
func (svc *Service) List(ctx context.Context, viewer user.Session) ([]Notice, error) {
	notices, err := svc.repo.QueryAllNotices(ctx)
	if err != nil {
		return nil, err
	}
	visible := make([]Notice, 0, len(notices))
	for _, n := range notices {
		if visibleTo(n.Audience, viewer) {
			visible = append(visible, n)
		}
	}
	sort.SliceStable(visible, func(i, j int) bool { return visible[i].Date > visible[j].Date })
	return visible, nil
}

func (svc *Service) Create(ctx context.Context, actor user.Session, nn NewNotice) (Notice, error) {
	if !CanManage(actor) {
		return Notice{}, ErrForbidden
	}
	nn.clean()
	if err := svc.validate.Struct(nn); err != nil {
		return Notice{}, err
	}
	n := Notice{
		ID:       NewID(),
		Title:    nn.Title,
		Content:  nn.Content,
		Category: nn.Category,
		Priority: nn.Priority,
		Audience: nn.Audience,
		Date:     nn.Date,
		Author:   actor.ID,
	}
	if n.Date == "" {
		n.Date = core.FormatDate(NowFunc().UTC())
	}
	return svc.repo.CreateNotice(ctx, n)
}

func (svc *Service) Update(ctx context.Context, actor user.Session, id string, un UpdateNotice) (Notice, error) {
	if !CanManage(actor) {
		return Notice{}, ErrForbidden
	}
	if err := svc.validate.Struct(un); err != nil {
		return Notice{}, err
	}
	notices, err := svc.repo.QueryAllNotices(ctx)
	if err != nil {
		return Notice{}, err
	}
	for _, n := range notices {
		if n.ID == id {
			un.apply(&n)
			return svc.repo.UpdateNotice(ctx, n)
		}
	}
	return Notice{}, ErrNotFound
}

func (svc *Service) Delete(ctx context.Context, actor user.Session, id string) error {
	if !CanManage(actor) {
		return ErrForbidden
	}
	return svc.repo.DeleteNotice(ctx, id)
}
