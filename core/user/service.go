package user

import (
	"context"
	"errors"

	"github.com/trezcool/eduverse/core"
)

var (
	// errors
	ErrNotFound        = errors.New("user not found")
	ErrEmailExists     = errors.New("a user with this email already exists")
	ErrInvalidPassword = errors.New("invalid password")
)

type (
	Repository interface {
		QueryAllUsers(ctx context.Context) ([]User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		// GetUserByEmail does a case-insensitive match on User.Email.
		GetUserByEmail(ctx context.Context, email string) (User, error)
		// CreateUser appends usr, or returns ErrEmailExists if its email is taken (case-insensitive).
		CreateUser(ctx context.Context, usr User) (User, error)
		// UpdateUser replaces the stored User having usr.ID.
		UpdateUser(ctx context.Context, usr User) (User, error)
		// FilterUsers applies AND operation on available QueryFilter fields.
		FilterUsers(ctx context.Context, filter QueryFilter) ([]User, error)
	}

	Service struct {
		repo     Repository
		validate *core.Validator
	}
)

func NewService(repo Repository, validate *core.Validator) *Service {
	return &Service{repo: repo, validate: validate}
}

func (svc *Service) checkUniqueness(ctx context.Context, email string, exclUsers ...User) error {
	usr, err := svc.repo.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil
	case err != nil:
		return err
	}
	for _, excl := range exclUsers {
		if excl.ID == usr.ID {
			return nil
		}
	}
	return ErrEmailExists
}

// Create validates nu and appends a new active User built from it.
// It returns ErrEmailExists for a taken email before checking anything else.
func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	nu.clean()
	// a taken email wins over any validation error
	if err := svc.checkUniqueness(ctx, nu.Email); err != nil {
		return User{}, err
	}
	if err := svc.validate.Struct(nu); err != nil {
		return User{}, err
	}

	usr := User{
		ID:        NewID(),
		Name:      nu.Name,
		Email:     nu.Email,
		Role:      nu.Role,
		Avatar:    nu.Avatar,
		CreatedAt: NowFunc().UTC(),
		Status:    StatusActive,
		StudentProfile: &StudentProfile{
			ClassID:     core.CleanString(nu.ClassID),
			Grade:       core.CleanString(nu.Grade),
			ParentEmail: nu.ParentEmail,
		},
		TeacherProfile: &TeacherProfile{
			Subjects: nu.Subjects,
			Classes:  nu.Classes,
		},
		Contact: Contact{Phone: core.CleanString(nu.Phone)},
	}
	if usr.Avatar == "" {
		usr.Avatar = DefaultAvatar(usr.Name)
	}
	usr.normalize()
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(ctx, usr)
}

// Update validates uu and merges it into the User having id.
func (svc *Service) Update(ctx context.Context, id string, uu UpdateUser) (User, error) {
	uu.clean()
	if err := svc.validate.Struct(uu); err != nil {
		return User{}, err
	}

	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if uu.Email != nil {
		if err := svc.checkUniqueness(ctx, *uu.Email, usr); err != nil {
			return User{}, err
		}
	}
	if err := uu.apply(&usr); err != nil {
		return User{}, err
	}
	return svc.repo.UpdateUser(ctx, usr)
}

// Authenticate returns the User having email (case-insensitive) if pwd matches its password.
// It returns ErrNotFound for an unknown email and ErrInvalidPassword for a wrong password.
// A matching plaintext password is replaced by its hash.
func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return User{}, err
	}
	if err := usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidPassword
	}
	if usr.HasPlainPassword() {
		if err := usr.SetPassword(pwd); err != nil {
			return User{}, err
		}
		return svc.repo.UpdateUser(ctx, usr)
	}
	return usr, nil
}

func (svc *Service) QueryAll(ctx context.Context) ([]User, error) {
	return svc.repo.QueryAllUsers(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]User, error) {
	filter.Clean()
	return svc.repo.FilterUsers(ctx, filter)
}

// StudentsInClass returns the students whose class is classID.
func (svc *Service) StudentsInClass(ctx context.Context, classID string) ([]User, error) {
	return svc.repo.FilterUsers(ctx, QueryFilter{Roles: []string{RoleStudent}, ClassID: classID})
}
