package settings

import (
	"context"

	"github.com/trezcool/eduverse/core"
	"github.com/trezcool/eduverse/core/user"
)

var ErrForbidden = core.ErrForbidden

type Settings struct {
	SiteName          string `json:"siteName"`
	SiteDescription   string `json:"siteDescription"`
	MaintenanceMode   bool   `json:"maintenanceMode"`
	AllowRegistration bool   `json:"allowRegistration"`
	DefaultTheme      string `json:"defaultTheme"`
	AcademicYear      string `json:"academicYear"`
	Semester          string `json:"semester"`
}

func Defaults() Settings {
	return Settings{
		SiteName:          "EduVersePro",
		SiteDescription:   "Advanced Student Management System",
		MaintenanceMode:   false,
		AllowRegistration: true,
		DefaultTheme:      "blue",
		AcademicYear:      "2024-2025",
		Semester:          "Fall",
	}
}

// Update defines what may be modified on the Settings. nil fields are left untouched.
type Update struct {
	SiteName          *string `json:"siteName" validate:"omitempty,notblank"`
	SiteDescription   *string `json:"siteDescription"`
	MaintenanceMode   *bool   `json:"maintenanceMode"`
	AllowRegistration *bool   `json:"allowRegistration"`
	DefaultTheme      *string `json:"defaultTheme" validate:"omitempty,oneof=blue purple gold emerald rose"`
	AcademicYear      *string `json:"academicYear"`
	Semester          *string `json:"semester" validate:"omitempty,oneof=Fall Spring Summer"`
}

func (u Update) apply(s *Settings) {
	if u.SiteName != nil {
		s.SiteName = core.CleanString(*u.SiteName)
	}
	if u.SiteDescription != nil {
		s.SiteDescription = core.CleanString(*u.SiteDescription)
	}
	if u.MaintenanceMode != nil {
		s.MaintenanceMode = *u.MaintenanceMode
	}
	if u.AllowRegistration != nil {
		s.AllowRegistration = *u.AllowRegistration
	}
	if u.DefaultTheme != nil {
		s.DefaultTheme = *u.DefaultTheme
	}
	if u.AcademicYear != nil {
		s.AcademicYear = core.CleanString(*u.AcademicYear)
	}
	if u.Semester != nil {
		s.Semester = *u.Semester
	}
}

type (
	Repository interface {
		// GetSettings returns the zero Settings if none were saved.
		GetSettings(ctx context.Context) (Settings, error)
		SaveSettings(ctx context.Context, s Settings) error
	}

	Service struct {
		repo     Repository
		validate *core.Validator
	}
)

func NewService(repo Repository, validate *core.Validator) *Service {
	return &Service{repo: repo, validate: validate}
}

func (svc *Service) Get(ctx context.Context) (Settings, error) {
	return svc.repo.GetSettings(ctx)
}

// Update applies u to the stored Settings. Only admins may change them.
func (svc *Service) Update(ctx context.Context, actor user.Session, u Update) (Settings, error) {
	if !actor.HasRole(user.RoleAdmin) {
		return Settings{}, ErrForbidden
	}
	if err := svc.validate.Struct(u); err != nil {
		return Settings{}, err
	}
	s, err := svc.repo.GetSettings(ctx)
	if err != nil {
		return Settings{}, err
	}
	u.apply(&s)
	if err := svc.repo.SaveSettings(ctx, s); err != nil {
		return Settings{}, err
	}
	return s, nil
}
