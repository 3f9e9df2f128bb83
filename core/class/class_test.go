package class_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/eduverse/core/class"
	"github.com/trezcool/eduverse/core/user"
	"github.com/trezcool/eduverse/storage/kv"
	"github.com/trezcool/eduverse/storage/kvrepo"
	"github.com/trezcool/eduverse/tests"
)

func TestService_ForTeacher(t *testing.T) {
	ctx := context.Background()
	adapter, _ := testutil.NewAdapter(t)
	db := kvrepo.Open(adapter)
	require.NoError(t, kv.SetList(ctx, adapter, kv.KeyClasses, []class.Class{
		{ID: "class_002", Name: "Physics Fundamentals", Subject: "Physics", TeacherID: "teacher_001", CurrentStudents: 9},
		{ID: "class_001", Name: "Mathematics 10A", Subject: "Mathematics", Description: "Advanced algebra", TeacherID: "teacher_001"},
		{ID: "class_003", Name: "Art", Subject: "Art", TeacherID: "teacher_002"},
	}))
	usrRepo := kvrepo.NewUserRepository(db)
	testutil.CreateStudent(t, usrRepo, "Ann", "class_001")
	testutil.CreateStudent(t, usrRepo, "Bob", "class_001")
	testutil.CreateStudent(t, usrRepo, "Carl", "class_003")

	svc := class.NewService(kvrepo.NewClassRepository(db), user.NewService(usrRepo, testutil.NewValidator()))

	type count struct {
		id       string
		students int
	}
	tests := []struct {
		name      string
		teacherID string
		search    string
		want      []count
	}{
		{name: "teacher", teacherID: "teacher_001", want: []count{{"class_001", 2}, {"class_002", 0}}},
		{name: "everyone", want: []count{{"class_003", 1}, {"class_001", 2}, {"class_002", 0}}},
		{name: "search subject", teacherID: "teacher_001", search: " PHYSICS ", want: []count{{"class_002", 0}}},
		{name: "search description", search: "algebra", want: []count{{"class_001", 2}}},
		{name: "other teacher", teacherID: "teacher_001", search: "art", want: []count{}},
		{name: "unknown teacher", teacherID: "teacher_404", want: []count{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summaries, err := svc.ForTeacher(ctx, tt.teacherID, tt.search)
			require.NoError(t, err)
			got := make([]count, 0, len(summaries))
			for _, s := range summaries {
				got = append(got, count{s.ID, s.StudentCount})
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
