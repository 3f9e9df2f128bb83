package di

import (
	"log"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/dig"

	"github.com/trezcool/eduverse/core"
	"github.com/trezcool/eduverse/core/assignment"
	"github.com/trezcool/eduverse/core/attendance"
	"github.com/trezcool/eduverse/core/auth"
	"github.com/trezcool/eduverse/core/class"
	"github.com/trezcool/eduverse/core/dashboard"
	"github.com/trezcool/eduverse/core/exam"
	"github.com/trezcool/eduverse/core/fee"
	"github.com/trezcool/eduverse/core/notice"
	"github.com/trezcool/eduverse/core/settings"
	"github.com/trezcool/eduverse/core/user"
	logsvc "github.com/trezcool/eduverse/services/logger"
	"github.com/trezcool/eduverse/storage/kv"
	"github.com/trezcool/eduverse/storage/kv/memory"
	sqlitekv "github.com/trezcool/eduverse/storage/kv/sqlite"
	"github.com/trezcool/eduverse/storage/kvrepo"
	"github.com/trezcool/eduverse/storage/seed"
)

type StoreLoggerParam struct {
	dig.In
	Logger core.Logger `name:"storeLogger"`
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stderr, "EDUVERSE : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newStoreLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stderr, "STORE : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

// NewStore opens the storage engine selected by the configuration.
func NewStore(conf *core.Config, loggerParam StoreLoggerParam) (kv.Store, error) {
	switch conf.Storage.Engine {
	case core.StoreMemory:
		return memory.Open(), nil
	case core.StoreSQLite, "":
		store, err := sqlitekv.Open(sqlitekv.Config{Path: conf.Storage.Path, Logger: loggerParam.Logger})
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, errors.Errorf("unknown storage engine %q", conf.Storage.Engine)
}

func newAdapter(conf *core.Config, store kv.Store, loggerParam StoreLoggerParam) *kv.Adapter {
	return kv.NewAdapter(store, loggerParam.Logger, conf.Storage.StrictDecoding)
}

// NewValidator returns the validator with every domain validator registered.
func NewValidator() *core.Validator {
	v := core.NewValidator()
	user.InitValidators(v.Validate, v.Translator)
	fee.InitValidators(v.Validate, v.Translator)
	return v
}

func newSeeder(conf *core.Config, db *kv.Adapter, logger core.Logger) *seed.Seeder {
	return seed.New(db, logger, conf.Storage.DataVersion)
}

func newClassService(repo class.Repository, users *user.Service) *class.Service {
	return class.NewService(repo, users)
}

func newAttendanceService(
	repo attendance.Repository,
	classes *class.Service,
	users *user.Service,
	validate *core.Validator,
) *attendance.Service {
	return attendance.NewService(repo, classes, users, validate)
}

func newAuthManager(
	conf *core.Config,
	store auth.SessionStore,
	users *user.Service,
	settingsSvc *settings.Service,
	seeder *seed.Seeder,
	logger core.Logger,
) *auth.Manager {
	return auth.NewManager(store, users, settingsSvc, seeder, logger, auth.Options{
		Persist:   conf.Session.Persist,
		SecretKey: conf.SecretKey,
	})
}

// New returns a new dependency injection dig.Container.
// newConfig is core.NewConfig outside of tests.
func New(newConfig func() *core.Config) *dig.Container {
	c := dig.New()

	must(c.Provide(newConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newStoreLogger, dig.Name("storeLogger")))
	must(c.Provide(NewStore))
	must(c.Provide(newAdapter))
	must(c.Provide(kvrepo.Open))
	must(c.Provide(kvrepo.NewUserRepository))
	must(c.Provide(kvrepo.NewClassRepository))
	must(c.Provide(kvrepo.NewExamRepository))
	must(c.Provide(kvrepo.NewAttendanceRepository))
	must(c.Provide(kvrepo.NewFeeRepository))
	must(c.Provide(kvrepo.NewNoticeRepository))
	must(c.Provide(kvrepo.NewSettingsRepository))
	must(c.Provide(kvrepo.NewAssignmentRepository))
	must(c.Provide(kvrepo.NewSessionRepository))
	must(c.Provide(NewValidator))
	must(c.Provide(newSeeder))
	must(c.Provide(user.NewService))
	must(c.Provide(newClassService))
	must(c.Provide(exam.NewService))
	must(c.Provide(newAttendanceService))
	must(c.Provide(fee.NewService))
	must(c.Provide(notice.NewService))
	must(c.Provide(settings.NewService))
	must(c.Provide(assignment.NewService))
	must(c.Provide(dashboard.NewService))
	must(c.Provide(newAuthManager))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
