package kvrepo

import (
	"context"

	"github.com/trezcool/eduverse/core/assignment"
	"github.com/trezcool/eduverse/core/class"
	"github.com/trezcool/eduverse/core/exam"
	"github.com/trezcool/eduverse/core/settings"
	"github.com/trezcool/eduverse/storage/kv"
)

// Classes

type classRepository struct {
	db *kv.Adapter
	t  *table
}

var _ class.Repository = (*classRepository)(nil) // interface compliance check

func NewClassRepository(db *DB) class.Repository {
	return &classRepository{db: db.kv, t: db.class}
}

func (repo *classRepository) QueryAllClasses(ctx context.Context) ([]class.Class, error) {
	repo.t.RLock()
	defer repo.t.RUnlock()
	return kv.GetList[class.Class](ctx, repo.db, repo.t.key)
}

func (repo *classRepository) GetClassByID(ctx context.Context, id string) (class.Class, error) {
	classes, err := repo.QueryAllClasses(ctx)
	if err != nil {
		return class.Class{}, err
	}
	for _, cls := range classes {
		if cls.ID == id {
			return cls, nil
		}
	}
	return class.Class{}, class.ErrNotFound
}

// Exams

type examRepository struct {
	db *kv.Adapter
	t  *table
}

var _ exam.Repository = (*examRepository)(nil) // interface compliance check

func NewExamRepository(db *DB) exam.Repository {
	return &examRepository{db: db.kv, t: db.exam}
}

func (repo *examRepository) QueryAllExams(ctx context.Context) ([]exam.Exam, error) {
	repo.t.RLock()
	defer repo.t.RUnlock()
	return kv.GetList[exam.Exam](ctx, repo.db, repo.t.key)
}

func (repo *examRepository) GetExamByID(ctx context.Context, id string) (exam.Exam, error) {
	exams, err := repo.QueryAllExams(ctx)
	if err != nil {
		return exam.Exam{}, err
	}
	for _, e := range exams {
		if e.ID == id {
			return e, nil
		}
	}
	return exam.Exam{}, exam.ErrNotFound
}

// Assignments

type assignmentRepository struct {
	db *kv.Adapter
	t  *table
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *DB) assignment.Repository {
	return &assignmentRepository{db: db.kv, t: db.assignment}
}

func (repo *assignmentRepository) QueryAllAssignments(ctx context.Context) ([]assignment.Assignment, error) {
	repo.t.RLock()
	defer repo.t.RUnlock()
	return kv.GetList[assignment.Assignment](ctx, repo.db, repo.t.key)
}

// Settings

type settingsRepository struct {
	db *kv.Adapter
	t  *table
}

var _ settings.Repository = (*settingsRepository)(nil) // interface compliance check

func NewSettingsRepository(db *DB) settings.Repository {
	return &settingsRepository{db: db.kv, t: db.settings}
}

func (repo *settingsRepository) GetSettings(ctx context.Context) (settings.Settings, error) {
	repo.t.RLock()
	defer repo.t.RUnlock()
	return kv.GetObject[settings.Settings](ctx, repo.db, repo.t.key)
}

func (repo *settingsRepository) SaveSettings(ctx context.Context, s settings.Settings) error {
	repo.t.Lock()
	defer repo.t.Unlock()
	return repo.db.SetObject(ctx, repo.t.key, s)
}
