package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/otpvault/internal/audit"
	"github.com/shandysiswandi/otpvault/internal/credential"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.credential.enabled") {
		if err := credential.New(credential.Dependency{
			DBConn:      a.dbConn,
			CacheConn:   a.cacheConn,
			Enforcer:    a.enforcer,
			Router:      a.router,
			Idempotency: a.idemp,
			Messaging:   a.messaging,
			Config:      a.config,
			Instrument:  a.ins,
			UID:         a.uid,
			UUID:        a.uuid,
			HMAC:        a.hmac,
			Encryptor:   a.encryptor,
			BackupCode:  a.backupCode,
			Clock:       a.clock,
			Totp:        a.totp,
			Validator:   a.validator,
		}); err != nil {
			slog.Error("failed to init module credential", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.audit.enabled") {
		if err := audit.New(audit.Dependency{
			Ctx:        a.ctx,
			DBConn:     a.dbConn,
			Enforcer:   a.enforcer,
			Router:     a.router,
			Messaging:  a.messaging,
			Storage:    a.storage,
			Goroutine:  a.goroutine,
			Config:     a.config,
			Instrument: a.ins,
			UUID:       a.uuid,
			Clock:      a.clock,
			Validator:  a.validator,
		}); err != nil {
			slog.Error("failed to init module audit", "error", err)
			os.Exit(1)
		}
	}
}
