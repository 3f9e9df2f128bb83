package kvrepo

import (
	"context"

	"github.com/trezcool/eduverse/core/attendance"
	"github.com/trezcool/eduverse/core/fee"
	"github.com/trezcool/eduverse/core/notice"
	"github.com/trezcool/eduverse/storage/kv"
)

// Attendance

type attendanceRepository struct {
	db *kv.Adapter
	t  *table
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db.kv, t: db.attendance}
}

func (repo *attendanceRepository) FilterRecords(ctx context.Context, filter attendance.QueryFilter) ([]attendance.Record, error) {
	repo.t.RLock()
	defer repo.t.RUnlock()

	records, err := kv.GetList[attendance.Record](ctx, repo.db, repo.t.key)
	if err != nil {
		return nil, err
	}
	filtered := make([]attendance.Record, 0, len(records))
	for _, r := range records {
		if filter.Match(r) {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

func (repo *attendanceRepository) ReplaceRecords(ctx context.Context, classID, date string, records []attendance.Record) error {
	repo.t.Lock()
	defer repo.t.Unlock()

	all, err := kv.GetList[attendance.Record](ctx, repo.db, repo.t.key)
	if err != nil {
		return err
	}
	kept := make([]attendance.Record, 0, len(all)+len(records))
	for _, r := range all {
		if r.ClassID != classID || r.Date != date {
			kept = append(kept, r)
		}
	}
	kept = append(kept, records...)
	return kv.SetList(ctx, repo.db, repo.t.key, kept)
}

// Fees

type feeRepository struct {
	db *kv.Adapter
	t  *table
}

var _ fee.Repository = (*feeRepository)(nil) // interface compliance check

func NewFeeRepository(db *DB) fee.Repository {
	return &feeRepository{db: db.kv, t: db.fee}
}

func (repo *feeRepository) QueryAllFees(ctx context.Context) ([]fee.Fee, error) {
	repo.t.RLock()
	defer repo.t.RUnlock()
	return kv.GetList[fee.Fee](ctx, repo.db, repo.t.key)
}

func (repo *feeRepository) GetFeeByID(ctx context.Context, id string) (fee.Fee, error) {
	fees, err := repo.QueryAllFees(ctx)
	if err != nil {
		return fee.Fee{}, err
	}
	for _, f := range fees {
		if f.ID == id {
			return f, nil
		}
	}
	return fee.Fee{}, fee.ErrNotFound
}

func (repo *feeRepository) UpdateFee(ctx context.Context, id string, fn func(*fee.Fee) error) (fee.Fee, error) {
	repo.t.Lock()
	defer repo.t.Unlock()

	fees, err := kv.GetList[fee.Fee](ctx, repo.db, repo.t.key)
	if err != nil {
		return fee.Fee{}, err
	}
	for i := range fees {
		if fees[i].ID != id {
			continue
		}
		updated := fees[i]
		if err := fn(&updated); err != nil {
			return fee.Fee{}, err
		}
		fees[i] = updated
		if err := kv.SetList(ctx, repo.db, repo.t.key, fees); err != nil {
			return fee.Fee{}, err
		}
		return updated, nil
	}
	return fee.Fee{}, fee.ErrNotFound
}

// Notices

type noticeRepository struct {
	db *kv.Adapter
	t  *table
}

var _ notice.Repository = (*noticeRepository)(nil) // interface compliance check

func NewNoticeRepository(db *DB) notice.Repository {
	return &noticeRepository{db: db.kv, t: db.notice}
}

// query returns the default board until notices are first saved.
func (repo *noticeRepository) query(ctx context.Context) ([]notice.Notice, error) {
	ok, err := repo.db.Exists(ctx, repo.t.key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return notice.Defaults(), nil
	}
	return kv.GetList[notice.Notice](ctx, repo.db, repo.t.key)
}

func (repo *noticeRepository) QueryAllNotices(ctx context.Context) ([]notice.Notice, error) {
	repo.t.RLock()
	defer repo.t.RUnlock()
	return repo.query(ctx)
}

func (repo *noticeRepository) CreateNotice(ctx context.Context, n notice.Notice) (notice.Notice, error) {
	repo.t.Lock()
	defer repo.t.Unlock()

	notices, err := repo.query(ctx)
	if err != nil {
		return notice.Notice{}, err
	}
	notices = append(notices, n)
	if err := kv.SetList(ctx, repo.db, repo.t.key, notices); err != nil {
		return notice.Notice{}, err
	}
	return n, nil
}

func (repo *noticeRepository) UpdateNotice(ctx context.Context, n notice.Notice) (notice.Notice, error) {
	repo.t.Lock()
	defer repo.t.Unlock()

	notices, err := repo.query(ctx)
	if err != nil {
		return notice.Notice{}, err
	}
	for i := range notices {
		if notices[i].ID == n.ID {
			notices[i] = n
			if err := kv.SetList(ctx, repo.db, repo.t.key, notices); err != nil {
				return notice.Notice{}, err
			}
			return n, nil
		}
	}
	return notice.Notice{}, notice.ErrNotFound
}

func (repo *noticeRepository) DeleteNotice(ctx context.Context, id string) error {
	repo.t.Lock()
	defer repo.t.Unlock()

	notices, err := repo.query(ctx)
	if err != nil {
		return err
	}
	kept := make([]notice.Notice, 0, len(notices))
	for _, n := range notices {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	if len(kept) == len(notices) {
		return notice.ErrNotFound
	}
	return kv.SetList(ctx, repo.db, repo.t.key, kept)
}
