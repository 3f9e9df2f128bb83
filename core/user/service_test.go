package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/eduverse/core"
	"github.com/trezcool/eduverse/core/user"
	"github.com/trezcool/eduverse/storage/kvrepo"
	"github.com/trezcool/eduverse/tests"
)

func setup(t *testing.T) (*user.Service, user.Repository) {
	t.Helper()
	adapter, _ := testutil.NewAdapter(t)
	repo := kvrepo.NewUserRepository(kvrepo.Open(adapter))
	return user.NewService(repo, testutil.NewValidator()), repo
}

func strPtr(s string) *string { return &s }

func TestService_Create(t *testing.T) {
	user.NowFunc = testutil.FixedNow(2024, time.September, 2)
	defer func() { user.NowFunc = time.Now }()
	svc, repo := setup(t)
	ctx := context.Background()
	testutil.CreateUser(t, repo, "Sarah Johnson", "teacher@school.test", "teach123", user.RoleTeacher)

	tests := []struct {
		name        string
		nu          user.NewUser
		wantErr     error
		wantInvalid bool
	}{
		{name: "empty", nu: user.NewUser{}, wantInvalid: true},
		{name: "blank name", nu: user.NewUser{Name: "   ", Email: "a@school.test", Password: "Lighthouse7"}, wantInvalid: true},
		{name: "bad email", nu: user.NewUser{Name: "Ann", Email: "ann", Password: "Lighthouse7"}, wantInvalid: true},
		{name: "unknown role", nu: user.NewUser{Name: "Ann", Email: "ann@school.test", Password: "Lighthouse7", Role: "janitor"}, wantInvalid: true},
		{name: "short password", nu: user.NewUser{Name: "Ann", Email: "ann@school.test", Password: "abc12"}, wantInvalid: true},
		{name: "numeric password", nu: user.NewUser{Name: "Ann", Email: "ann@school.test", Password: "1234567890"}, wantInvalid: true},
		{name: "password with space", nu: user.NewUser{Name: "Ann", Email: "ann@school.test", Password: "light house7"}, wantInvalid: true},
		{name: "password like name", nu: user.NewUser{Name: "Annabelle", Email: "x@school.test", Password: "annabelle1"}, wantInvalid: true},
		{name: "password like email", nu: user.NewUser{Name: "Ann", Email: "quarterback@school.test", Password: "Quarterback"}, wantInvalid: true},
		{name: "taken email", nu: user.NewUser{Name: "Ann", Email: " TEACHER@school.test ", Password: "Lighthouse7"}, wantErr: user.ErrEmailExists},
		{name: "taken email, short password", nu: user.NewUser{Name: "Ann", Email: "teacher@SCHOOL.test", Password: "x"}, wantErr: user.ErrEmailExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.nu)
			if tt.wantInvalid {
				if !core.IsValidationError(err) {
					t.Errorf("Create() error = %v, want a validation error", err)
				}
				return
			}
			if err != tt.wantErr {
				t.Errorf("Create() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	users, err := svc.QueryAll(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1, "nothing was appended")

	t.Run("student", func(t *testing.T) {
		usr, err := svc.Create(ctx, user.NewUser{
			Name: " Ann Lee ", Email: "Ann@School.test", Password: "Lighthouse7",
			ClassID: "class_001", Grade: "10th Grade", Subjects: []string{"Art"},
		})
		require.NoError(t, err)
		assert.Equal(t, "Ann Lee", usr.Name)
		assert.Equal(t, "ann@school.test", usr.Email)
		assert.Equal(t, user.RoleStudent, usr.Role)
		assert.Equal(t, user.StatusActive, usr.Status)
		assert.Equal(t, "class_001", usr.ClassID())
		assert.Nil(t, usr.TeacherProfile, "teacher fields are dropped")
		assert.Equal(t, user.DefaultAvatar("Ann Lee"), usr.Avatar)
		assert.Equal(t, time.Date(2024, time.September, 2, 12, 0, 0, 0, time.UTC), usr.CreatedAt)
		assert.NotEqual(t, "Lighthouse7", usr.PasswordHash)
		assert.NoError(t, usr.CheckPassword("Lighthouse7"))

		got, err := svc.GetByEmail(ctx, "ANN@school.test")
		require.NoError(t, err)
		assert.Equal(t, usr.ID, got.ID)
	})

	t.Run("teacher", func(t *testing.T) {
		usr, err := svc.Create(ctx, user.NewUser{
			Name: "Tom", Email: "tom@school.test", Password: "Lighthouse7", Role: "Teacher",
			ClassID: "class_001", Subjects: []string{"Art"}, Classes: []string{"class_002"},
		})
		require.NoError(t, err)
		assert.Equal(t, user.RoleTeacher, usr.Role)
		assert.Nil(t, usr.StudentProfile)
		assert.True(t, usr.TeachesClass("class_002"))
		assert.Equal(t, []string{"Art"}, usr.Subjects)
	})
}

func TestService_Update(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()
	ann := testutil.CreateUser(t, repo, "Ann", "ann@school.test", "Lighthouse7", user.RoleStudent)
	testutil.CreateUser(t, repo, "Bob", "bob@school.test", "Lighthouse7", user.RoleStudent)

	tests := []struct {
		name        string
		id          string
		uu          user.UpdateUser
		wantErr     error
		wantInvalid bool
	}{
		{name: "unknown user", id: "user_404", uu: user.UpdateUser{Name: strPtr("Ghost")}, wantErr: user.ErrNotFound},
		{name: "blank name", id: ann.ID, uu: user.UpdateUser{Name: strPtr(" ")}, wantInvalid: true},
		{name: "bad email", id: ann.ID, uu: user.UpdateUser{Email: strPtr("ann")}, wantInvalid: true},
		{name: "weak password", id: ann.ID, uu: user.UpdateUser{Password: strPtr("123")}, wantInvalid: true},
		{name: "taken email", id: ann.ID, uu: user.UpdateUser{Email: strPtr("BOB@school.test")}, wantErr: user.ErrEmailExists},
		{name: "own email", id: ann.ID, uu: user.UpdateUser{Email: strPtr("ANN@school.test")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Update(ctx, tt.id, tt.uu)
			if tt.wantInvalid {
				if !core.IsValidationError(err) {
					t.Errorf("Update() error = %v, want a validation error", err)
				}
				return
			}
			if err != tt.wantErr {
				t.Errorf("Update() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	t.Run("merge", func(t *testing.T) {
		usr, err := svc.Update(ctx, ann.ID, user.UpdateUser{
			Phone: strPtr("+1 555 0100"), Bio: strPtr("Likes maths"), Password: strPtr("Harbour42x"),
		})
		require.NoError(t, err)
		assert.Equal(t, "Ann", usr.Name, "untouched")
		assert.Equal(t, "+1 555 0100", usr.Phone)
		assert.Equal(t, "Likes maths", usr.Bio)

		_, err = svc.Authenticate(ctx, "ann@school.test", "Lighthouse7")
		assert.Equal(t, user.ErrInvalidPassword, err)
		_, err = svc.Authenticate(ctx, "ann@school.test", "Harbour42x")
		assert.NoError(t, err)
	})
}

func TestService_Authenticate(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()
	ann := testutil.CreateUser(t, repo, "Ann", "ann@school.test", "Lighthouse7", user.RoleStudent)

	tests := []struct {
		name    string
		email   string
		pwd     string
		wantErr error
	}{
		{name: "unknown email", email: "bob@school.test", pwd: "Lighthouse7", wantErr: user.ErrNotFound},
		{name: "wrong password", email: "ann@school.test", pwd: "lighthouse7", wantErr: user.ErrInvalidPassword},
		{name: "empty password", email: "ann@school.test", wantErr: user.ErrInvalidPassword},
		{name: "ok", email: "ann@school.test", pwd: "Lighthouse7"},
		{name: "email case and spaces", email: "  ANN@School.Test ", pwd: "Lighthouse7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usr, err := svc.Authenticate(ctx, tt.email, tt.pwd)
			if err != tt.wantErr {
				t.Errorf("Authenticate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if err == nil && usr.ID != ann.ID {
				t.Errorf("Authenticate() = %v, want %v", usr.ID, ann.ID)
			}
		})
	}
}

func TestService_Authenticate_plainPassword(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()
	legacy, err := repo.CreateUser(ctx, user.User{
		ID: "user_legacy", Name: "Old Timer", Email: "old@school.test", PasswordHash: "teach123",
		Role: user.RoleTeacher, Status: user.StatusActive,
	})
	require.NoError(t, err)
	blank, err := repo.CreateUser(ctx, user.User{
		ID: "user_blank", Name: "No Password", Email: "blank@school.test", Role: user.RoleStudent,
	})
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, blank.Email, "")
	assert.Equal(t, user.ErrInvalidPassword, err)

	_, err = svc.Authenticate(ctx, legacy.Email, "teach1234")
	assert.Equal(t, user.ErrInvalidPassword, err)

	usr, err := svc.Authenticate(ctx, "OLD@school.test", "teach123")
	require.NoError(t, err)
	assert.Equal(t, legacy.ID, usr.ID)
	assert.False(t, usr.HasPlainPassword())

	stored, err := repo.GetUserByID(ctx, legacy.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "teach123", stored.PasswordHash)
	assert.NoError(t, stored.CheckPassword("teach123"))

	_, err = svc.Authenticate(ctx, legacy.Email, "teach123")
	assert.NoError(t, err, "the rehashed password still works")
}

func TestService_Filter(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()
	ann := testutil.CreateStudent(t, repo, "Ann", "class_001")
	bob := testutil.CreateStudent(t, repo, "Bob", "class_002")
	tom := testutil.CreateUser(t, repo, "Tom", "tom@school.test", "", user.RoleTeacher)

	ids := func(users []user.User) []string {
		out := make([]string, 0, len(users))
		for _, u := range users {
			out = append(out, u.ID)
		}
		return out
	}

	students, err := svc.StudentsInClass(ctx, "class_001")
	require.NoError(t, err)
	assert.Equal(t, []string{ann.ID}, ids(students))

	got, err := svc.Filter(ctx, user.QueryFilter{Search: " tom "})
	require.NoError(t, err)
	assert.Equal(t, []string{tom.ID}, ids(got))

	got, err = svc.Filter(ctx, user.QueryFilter{Roles: []string{user.RoleStudent}, Status: "ACTIVE"})
	require.NoError(t, err)
	assert.Equal(t, []string{ann.ID, bob.ID}, ids(got))

	got, err = svc.Filter(ctx, user.QueryFilter{})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}
