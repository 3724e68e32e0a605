package app

import (
	"context"
	"net/http"

	"github.com/casbin/casbin/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpvault/internal/pkg/clock"
	"github.com/shandysiswandi/otpvault/internal/pkg/config"
	"github.com/shandysiswandi/otpvault/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpvault/internal/pkg/hash"
	"github.com/shandysiswandi/otpvault/internal/pkg/idempotency"
	"github.com/shandysiswandi/otpvault/internal/pkg/instrument"
	"github.com/shandysiswandi/otpvault/internal/pkg/jwt"
	"github.com/shandysiswandi/otpvault/internal/pkg/messaging"
	"github.com/shandysiswandi/otpvault/internal/pkg/mfa"
	"github.com/shandysiswandi/otpvault/internal/pkg/otp"
	"github.com/shandysiswandi/otpvault/internal/pkg/router"
	"github.com/shandysiswandi/otpvault/internal/pkg/storage"
	"github.com/shandysiswandi/otpvault/internal/pkg/uid"
	"github.com/shandysiswandi/otpvault/internal/pkg/validator"
	"go.uber.org/atomic"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine  *goroutine.Manager
	validator  validator.Validator
	clock      clock.Clocker
	hmac       hash.Hash
	uid        uid.NumberID
	uuid       uid.StringID
	totp       otp.OTP
	jwt        jwt.JWT
	encryptor  mfa.Encryptor
	backupCode mfa.BackupCodeGenerator

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	idemp     idempotency.Idempotency
	messaging messaging.Messaging
	storage   storage.Storage
	enforcer  *casbin.Enforcer

	// server
	router     *router.Router
	httpServer *http.Server
	ready      *atomic.Bool

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
		ready:  atomic.NewBool(false),
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initAuthz()
	app.initDatabase()
	app.initCache()
	app.initStorage()
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
