package dig_container

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/festportal/backend/apps/api/echo"
	"github.com/festportal/backend/core"
	"github.com/festportal/backend/core/event"
	"github.com/festportal/backend/core/registration"
	"github.com/festportal/backend/core/staff"
	emailsvc "github.com/festportal/backend/services/email"
	logsvc "github.com/festportal/backend/services/logger"
	metricsvc "github.com/festportal/backend/services/metrics"
	qrsvc "github.com/festportal/backend/services/qrcode"
	"github.com/festportal/backend/storage/database"
	inmemdb "github.com/festportal/backend/storage/database/inmem"
	sqlxrepos "github.com/festportal/backend/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// Storage is what the configured database engine provides.
type Storage struct {
	DB   *sqlx.DB // nil with the memory engine
	Repo registration.Repository
}

func (s *Storage) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

func newRegistry(conf *core.Config, logger core.Logger) (*event.Registry, error) {
	registry, err := event.LoadFile(conf.EventsFile)
	if err != nil {
		return nil, errors.Wrap(err, "loading events")
	}
	logger.Info(fmt.Sprintf("%d events loaded", len(registry.All())))
	return registry, nil
}

func newStorage(conf *core.Config, loggerParam DBLoggerParam, registry *event.Registry) (*Storage, registration.Repository) {
	if conf.Database.Engine == "memory" {
		loggerParam.Logger.Warn("using the in-memory database: registrations are lost on restart")
		repo := inmemdb.NewRegistrationRepository(inmemdb.Open())
		return &Storage{Repo: repo}, repo
	}

	setUp := func() (*sqlx.DB, error) {
		ctx := context.Background()
		if conf.Database.AdminUser != "" {
			if err := database.CreateIfNotExist(ctx, conf); err != nil {
				return nil, err
			}
		}

		db, err := database.Open(ctx, conf)
		if err != nil {
			return nil, err
		}
		if err = database.Migrate(db.DB, "up"); err != nil {
			return nil, err
		}
		if err = database.EnsureEventTables(ctx, db, registry); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	repo := sqlxrepos.NewRegistrationRepository(db)
	return &Storage{DB: db, Repo: repo}, repo
}

func newEmailService(conf *core.Config) core.EmailService {
	if conf.Debug || conf.SendgridApiKey == "" {
		return emailsvc.NewConsoleService(conf)
	}
	return emailsvc.NewSendgridService(conf)
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	return validate
}

func newNotifier(conf *core.Config, mailSvc core.EmailService) registration.Notifier {
	return registration.NewComposer(mailSvc, conf.FrontendBaseURL)
}

func newQREncoder() registration.QREncoder {
	return qrsvc.NewEncoder()
}

func newRecorder(p *metricsvc.Prometheus) registration.Recorder {
	return p
}

func newStaffDirectory(conf *core.Config, logger core.Logger) (*staff.Directory, error) {
	dir, err := staff.ParseAccounts(conf.StaffAccounts)
	if err != nil {
		return nil, errors.Wrap(err, "parsing staff accounts")
	}
	if dir.Len() == 0 {
		logger.Warn("no staff accounts configured: check-in is unavailable")
	}
	return dir, nil
}

type serverParams struct {
	dig.In

	Conf          *core.Config
	Logger        core.Logger
	Registrations *registration.Service
	Staff         *staff.Directory
	Translator    ut.Translator
	Metrics       *metricsvc.Prometheus
}

func newServer(p serverParams) *echoapi.Server {
	var metrics http.Handler
	if p.Metrics != nil {
		metrics = p.Metrics.Handler()
	}
	return echoapi.NewServer(&echoapi.Deps{
		Conf:          p.Conf,
		Logger:        p.Logger,
		Registrations: p.Registrations,
		Staff:         p.Staff,
		Translator:    p.Translator,
		Metrics:       metrics,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newRegistry))
	must(c.Provide(newStorage))
	must(c.Provide(newEmailService))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(newNotifier))
	must(c.Provide(newQREncoder))
	must(c.Provide(metricsvc.NewPrometheus))
	must(c.Provide(newRecorder))
	must(c.Provide(registration.NewService))
	must(c.Provide(newStaffDirectory))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
