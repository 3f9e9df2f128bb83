package settings_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/eduverse/core"
	"github.com/trezcool/eduverse/core/settings"
	"github.com/trezcool/eduverse/core/user"
	"github.com/trezcool/eduverse/storage/kvrepo"
	"github.com/trezcool/eduverse/tests"
)

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	adapter, _ := testutil.NewAdapter(t)
	repo := kvrepo.NewSettingsRepository(kvrepo.Open(adapter))
	require.NoError(t, repo.SaveSettings(ctx, settings.Defaults()))
	svc := settings.NewService(repo, core.NewValidator())

	admin := user.Session{ID: "admin_001", Role: user.RoleAdmin}
	str := func(s string) *string { return &s }
	no := false

	tests := []struct {
		name        string
		actor       user.Session
		u           settings.Update
		wantErr     error
		wantInvalid bool
	}{
		{name: "teacher", actor: user.Session{ID: "teacher_001", Role: user.RoleTeacher}, u: settings.Update{SiteName: str("x")}, wantErr: settings.ErrForbidden},
		{name: "logged out", u: settings.Update{SiteName: str("x")}, wantErr: settings.ErrForbidden},
		{name: "blank site name", actor: admin, u: settings.Update{SiteName: str("  ")}, wantInvalid: true},
		{name: "unknown theme", actor: admin, u: settings.Update{DefaultTheme: str("red")}, wantInvalid: true},
		{name: "unknown semester", actor: admin, u: settings.Update{Semester: str("Winter")}, wantInvalid: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Update(ctx, tt.actor, tt.u)
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

	got, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, settings.Defaults(), got, "rejected updates are not saved")

	s, err := svc.Update(ctx, admin, settings.Update{
		SiteName: str(" Springfield High "), DefaultTheme: str("emerald"), AllowRegistration: &no,
	})
	require.NoError(t, err)
	want := settings.Defaults()
	want.SiteName = "Springfield High"
	want.DefaultTheme = "emerald"
	want.AllowRegistration = false
	assert.Equal(t, want, s)

	got, err = svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
