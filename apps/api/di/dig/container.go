package dig_container

import (
	"context"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/projectplatec/platec/apps/api/echo"
	"github.com/projectplatec/platec/core"
	"github.com/projectplatec/platec/core/setup"
	"github.com/projectplatec/platec/core/student"
	"github.com/projectplatec/platec/core/teacher"
	"github.com/projectplatec/platec/core/user"
	emailsvc "github.com/projectplatec/platec/services/email"
	logsvc "github.com/projectplatec/platec/services/logger"
	"github.com/projectplatec/platec/storage/database"
	inmemdb "github.com/projectplatec/platec/storage/database/inmem"
	sqlxrepos "github.com/projectplatec/platec/storage/database/sqlx"
)

type (
	DBLoggerParam struct {
		dig.In
		Logger core.Logger `name:"dbLogger"`
	}

	// Storage is the persistence layer selected by `database.engine`.
	// DB is nil for the in-memory engine.
	Storage struct {
		dig.Out
		DB       *sqlx.DB
		Users    user.Repository
		Students student.Repository
	}
)

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newStorage(conf *core.Config, loggerParam DBLoggerParam) (Storage, error) {
	switch conf.Database.Engine {
	case core.EngineMemory:
		loggerParam.Logger.Warn("using the in-memory database; data is lost on exit")
		db := inmemdb.Open()
		return Storage{
			Users:    inmemdb.NewUserRepository(db),
			Students: inmemdb.NewStudentRepository(db),
		}, nil

	case core.EnginePostgres:
		ctx := context.Background()
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return Storage{}, errors.Wrap(err, "creating database")
		}
		db, err := database.Open(ctx, conf)
		if err != nil {
			return Storage{}, errors.Wrap(err, "opening database")
		}
		if err = database.Migrate(db.DB); err != nil {
			_ = db.Close()
			return Storage{}, errors.Wrap(err, "migrating database")
		}
		return Storage{
			DB:       db,
			Users:    sqlxrepos.NewUserRepository(db),
			Students: sqlxrepos.NewStudentRepository(db),
		}, nil

	default:
		return Storage{}, errors.Errorf("unknown database engine %q", conf.Database.Engine)
	}
}

func newEmailService(conf *core.Config) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf)
	}
	return emailsvc.NewSendgridService(conf)
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	return validate
}

func newTeacherService(
	usrSvc *user.Service,
	mailSvc core.EmailService,
	logger core.Logger,
	validate *validator.Validate,
	translator ut.Translator,
	conf *core.Config,
) *teacher.Service {
	return teacher.NewService(usrSvc, mailSvc, logger, validate, translator, conf)
}

func newReconciler(usrSvc *user.Service, students student.Repository, logger core.Logger, conf *core.Config) *setup.Reconciler {
	return setup.NewReconciler(usrSvc, students, logger, conf)
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newStorage))
	must(c.Provide(newEmailService))
	must(c.Provide(newTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(user.NewService))
	must(c.Provide(newTeacherService))
	must(c.Provide(newReconciler))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
