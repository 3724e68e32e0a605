package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	pqotp "github.com/pquerna/otp"
	"github.com/shandysiswandi/otpvault/internal/credential/entity"
	"github.com/shandysiswandi/otpvault/internal/pkg/clock"
	"github.com/shandysiswandi/otpvault/internal/pkg/config"
	"github.com/shandysiswandi/otpvault/internal/pkg/goerror"
	"github.com/shandysiswandi/otpvault/internal/pkg/hash"
	"github.com/shandysiswandi/otpvault/internal/pkg/instrument"
	"github.com/shandysiswandi/otpvault/internal/pkg/mfa"
	"github.com/shandysiswandi/otpvault/internal/pkg/otp"
	"github.com/shandysiswandi/otpvault/internal/pkg/uid"
	"github.com/shandysiswandi/otpvault/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	companyA = "company-a"
	companyB = "company-b"
)

type fixture struct {
	uc    *Usecase
	store *memStore
	sink  *mockAuditSink
	cache *memCache
	clock *clock.Frozen
	totp  *otp.TOTP
}

type fixtureOption struct {
	maxFailedAttempts int
	sinkErr           error
}

func newFixture(t *testing.T, opts ...func(*fixtureOption)) *fixture {
	t.Helper()

	fo := &fixtureOption{}
	for _, opt := range opts {
		opt(fo)
	}

	cfg, err := config.NewViperFromBytes("yaml", []byte(fmt.Sprintf(`
modules:
  credential:
    max_failed_attempts: %d
    attempt_window_seconds: 900
    qr_size: 128
`, fo.maxFailedAttempts)))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	sf, err := uid.NewSnowflakeWithNode(1)
	require.NoError(t, err)

	bc, err := mfa.NewBackupCode(0, 0)
	require.NoError(t, err)

	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i + 1)
	}

	sink := &mockAuditSink{}
	sink.On("PublishAuditEvent", mock.Anything, mock.Anything).Return(fo.sinkErr)

	f := &fixture{
		store: newMemStore(),
		sink:  sink,
		cache: newMemCache(),
		clock: clock.NewFrozen(time.Date(2026, 3, 1, 12, 0, 10, 0, time.UTC)),
		totp:  otp.NewTOTP("otpvault", 30, 1, pqotp.DigitsSix),
	}

	f.uc = New(Dependency{
		RepoDB:        f.store,
		RepoMessaging: sink,
		RepoCache:     f.cache,
		Idempotency:   newMemIdempotency(),
		Validator:     v,
		Config:        cfg,
		HMAC:          hash.NewHMACSHA256("idempotency-secret"),
		Encryptor:     mfa.NewAESGCMEncryptor(mfa.StaticKeyProvider{KeyBytes: key}),
		BackupCode:    bc,
		UID:           sf,
		UUID:          uid.NewUUID(),
		Totp:          f.totp,
		Clock:         f.clock,
		Instrument:    instrument.NewNoop(),
	})

	return f
}

func (f *fixture) create(t *testing.T, companyID, externalUserID string) *CreateOutput {
	t.Helper()

	out, err := f.uc.Create(context.Background(), CreateInput{
		CompanyID:      companyID,
		ExternalUserID: externalUserID,
		Caller:         entity.Caller{IP: "203.0.113.7", UserAgent: "test-agent"},
	})
	require.NoError(t, err)
	return out
}

func (f *fixture) tokenAt(t *testing.T, secret string, offset time.Duration) string {
	t.Helper()

	code, err := f.totp.GenerateCode(secret, f.clock.Now().Add(offset))
	require.NoError(t, err)
	return code
}

// wrongToken returns a well-formed token outside the accepted window.
func (f *fixture) wrongToken(t *testing.T, secret string) string {
	t.Helper()

	accepted := map[string]bool{}
	for _, off := range []time.Duration{-30 * time.Second, 0, 30 * time.Second} {
		accepted[f.tokenAt(t, secret, off)] = true
	}
	for n := 0; ; n++ {
		candidate := fmt.Sprintf("%06d", n)
		if !accepted[candidate] {
			return candidate
		}
	}
}

func (f *fixture) validateToken(t *testing.T, companyID, externalUserID, token string) (*ValidateOutput, error) {
	t.Helper()
	return f.uc.ValidateToken(context.Background(), ValidateTokenInput{
		CompanyID:      companyID,
		ExternalUserID: externalUserID,
		Token:          token,
	})
}

func (f *fixture) validateBackupCode(t *testing.T, companyID, externalUserID, code string) (*ValidateOutput, error) {
	t.Helper()
	return f.uc.ValidateBackupCode(context.Background(), ValidateBackupCodeInput{
		CompanyID:      companyID,
		ExternalUserID: externalUserID,
		Code:           code,
	})
}

func requireCode(t *testing.T, err error, code goerror.Code) {
	t.Helper()

	var gerr *goerror.Error
	require.True(t, errors.As(err, &gerr), "expected *goerror.Error, got %v", err)
	assert.Equal(t, code, gerr.Code())
}

func TestCreate(t *testing.T) {
	f := newFixture(t)

	out := f.create(t, companyA, "alice")

	require.NoError(t, otp.CheckSecret(out.Secret))
	assert.True(t, strings.HasPrefix(out.ProvisioningURI, "otpauth://totp/otpvault:alice?"))
	assert.Contains(t, out.ProvisioningURI, "secret="+out.Secret)
	assert.True(t, strings.HasPrefix(out.QRCode, "data:image/png;base64,"))
	require.Len(t, out.BackupCodes, mfa.DefaultBackupCodeCount)
	for _, code := range out.BackupCodes {
		assert.Regexp(t, `^[A-Z0-9]{6}$`, code)
	}

	assert.Equal(t, entity.CredentialStatusActive, out.Credential.Status)
	assert.Equal(t, uint16(1), out.Credential.KeyVersion)
	assert.NotContains(t, string(out.Credential.EncryptedSecret), out.Secret)
	for _, bc := range out.Credential.BackupCodes {
		for _, code := range out.BackupCodes {
			assert.NotContains(t, string(bc.EncryptedValue), code)
		}
	}

	res, err := f.validateToken(t, companyA, "alice", f.tokenAt(t, out.Secret, 0))
	require.NoError(t, err)
	assert.Equal(t, entity.ResultValid, res.Result)

	f.sink.AssertCalled(t, "PublishAuditEvent", mock.Anything, mock.MatchedBy(func(ev entity.AuditEvent) bool {
		return ev.EventType == entity.EventTOTPSetup &&
			ev.Success &&
			ev.CredentialID == out.Credential.ID &&
			ev.CallerIP == "203.0.113.7" &&
			ev.Method == entity.MethodAPI
	}))
}

func TestCreate_Duplicate(t *testing.T) {
	f := newFixture(t)
	first := f.create(t, companyA, "alice")

	_, err := f.uc.Create(context.Background(), CreateInput{CompanyID: companyA, ExternalUserID: "alice"})
	requireCode(t, err, goerror.CodeConflict)
	assert.Equal(t, entity.OutcomeDuplicate, f.sink.last().Outcome)
	assert.False(t, f.sink.last().Success)

	// a revoked credential frees the slot
	_, err = f.uc.Revoke(context.Background(), RevokeInput{CompanyID: companyA, ID: first.Credential.ID})
	require.NoError(t, err)

	second := f.create(t, companyA, "alice")
	assert.NotEqual(t, first.Credential.ID, second.Credential.ID)

	// the same external user id is independent per tenant
	f.create(t, companyB, "alice")
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.Create(context.Background(), CreateInput{CompanyID: companyA})
	requireCode(t, err, goerror.CodeInvalidInput)

	ev := f.sink.last()
	assert.Equal(t, entity.EventTOTPSetup, ev.EventType)
	assert.Equal(t, entity.OutcomeValidation, ev.Outcome)
	assert.Zero(t, f.store.count())
}

func TestCreate_IdempotencyKey(t *testing.T) {
	f := newFixture(t)
	in := CreateInput{CompanyID: companyA, ExternalUserID: "alice", IdempotencyKey: "req-1"}

	out, err := f.uc.Create(context.Background(), in)
	require.NoError(t, err)
	require.NotEmpty(t, out.Secret)

	replay, err := f.uc.Create(context.Background(), in)
	requireCode(t, err, goerror.CodeConflict)
	assert.Nil(t, replay)
	assert.Equal(t, 1, f.store.count())

	// the key is scoped to the tenant
	_, err = f.uc.Create(context.Background(), CreateInput{CompanyID: companyB, ExternalUserID: "alice", IdempotencyKey: "req-1"})
	require.NoError(t, err)
}

func TestCreate_IdempotencyKeyReleasedOnFailure(t *testing.T) {
	f := newFixture(t)
	f.create(t, companyA, "alice")

	in := CreateInput{CompanyID: companyA, ExternalUserID: "alice", IdempotencyKey: "req-2"}
	_, err := f.uc.Create(context.Background(), in)
	requireCode(t, err, goerror.CodeConflict)

	active, err := f.store.GetActiveCredential(context.Background(), companyA, "alice")
	require.NoError(t, err)
	_, err = f.uc.Revoke(context.Background(), RevokeInput{CompanyID: companyA, ID: active.ID})
	require.NoError(t, err)

	_, err = f.uc.Create(context.Background(), in)
	require.NoError(t, err)
}

func TestValidateToken_Window(t *testing.T) {
	f := newFixture(t)
	out := f.create(t, companyA, "alice")

	tests := []struct {
		name   string
		offset time.Duration
		want   entity.Result
	}{
		{name: "current step", offset: 0, want: entity.ResultValid},
		{name: "previous step", offset: -30 * time.Second, want: entity.ResultValid},
		{name: "next step", offset: 30 * time.Second, want: entity.ResultValid},
		{name: "two steps behind", offset: -60 * time.Second, want: entity.ResultInvalid},
		{name: "two steps ahead", offset: 60 * time.Second, want: entity.ResultInvalid},
		{name: "ten minutes old", offset: -10 * time.Minute, want: entity.ResultInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := f.tokenAt(t, out.Secret, tt.offset)
			if tt.want == entity.ResultInvalid {
				// an adjacent step may share the code by coincidence
				for _, off := range []time.Duration{-30 * time.Second, 0, 30 * time.Second} {
					if token == f.tokenAt(t, out.Secret, off) {
						t.Skip("code collides with the accepted window")
					}
				}
			}

			res, err := f.validateToken(t, companyA, "alice", token)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Result)
		})
	}
}

func TestValidateToken_Invalid(t *testing.T) {
	f := newFixture(t)
	out := f.create(t, companyA, "alice")

	res, err := f.validateToken(t, companyA, "alice", f.wrongToken(t, out.Secret))
	require.NoError(t, err)
	assert.Equal(t, entity.ResultInvalid, res.Result)

	ev := f.sink.last()
	assert.Equal(t, entity.EventTOTPValidation, ev.EventType)
	assert.Equal(t, entity.OutcomeInvalid, ev.Outcome)
	assert.Equal(t, entity.MethodTOTP, ev.Method)
	assert.False(t, ev.Success)

	res, err = f.validateToken(t, companyA, "alice", "not-a-code")
	require.NoError(t, err)
	assert.Equal(t, entity.ResultInvalid, res.Result)
}

func TestValidateToken_TouchesLastUsed(t *testing.T) {
	f := newFixture(t)
	out := f.create(t, companyA, "alice")

	_, err := f.validateToken(t, companyA, "alice", f.tokenAt(t, out.Secret, 0))
	require.NoError(t, err)

	cred, err := f.uc.Get(context.Background(), GetInput{CompanyID: companyA, ID: out.Credential.ID})
	require.NoError(t, err)
	require.NotNil(t, cred.LastUsedAt)
	assert.True(t, cred.LastUsedAt.Equal(f.clock.Now()))
}

func TestValidateToken_DecryptFailure(t *testing.T) {
	f := newFixture(t)
	out := f.create(t, companyA, "alice")

	f.store.mutate(out.Credential.ID, func(c *entity.Credential) {
		c.EncryptedSecret[len(c.EncryptedSecret)-1] ^= 0xff
	})

	res, err := f.validateToken(t, companyA, "alice", f.tokenAt(t, out.Secret, 0))
	assert.Nil(t, res)
	requireCode(t, err, goerror.CodeInternal)
	assert.NotContains(t, err.Error(), out.Secret)
	assert.Equal(t, entity.OutcomeInternal, f.sink.last().Outcome)
}

func TestValidateToken_AuditSinkFailure(t *testing.T) {
	f := newFixture(t, func(o *fixtureOption) { o.sinkErr = errors.New("broker down") })
	out := f.create(t, companyA, "alice")

	res, err := f.validateToken(t, companyA, "alice", f.tokenAt(t, out.Secret, 0))
	require.NoError(t, err)
	assert.Equal(t, entity.ResultValid, res.Result)
}

func TestValidateToken_AttemptLimit(t *testing.T) {
	f := newFixture(t, func(o *fixtureOption) { o.maxFailedAttempts = 3 })
	out := f.create(t, companyA, "alice")
	wrong := f.wrongToken(t, out.Secret)

	// a valid token resets the counter
	for range 2 {
		_, err := f.validateToken(t, companyA, "alice", wrong)
		require.NoError(t, err)
	}
	_, err := f.validateToken(t, companyA, "alice", f.tokenAt(t, out.Secret, 0))
	require.NoError(t, err)

	for range 3 {
		res, err := f.validateToken(t, companyA, "alice", wrong)
		require.NoError(t, err)
		assert.Equal(t, entity.ResultInvalid, res.Result)
	}

	_, err = f.validateToken(t, companyA, "alice", f.tokenAt(t, out.Secret, 0))
	requireCode(t, err, goerror.CodeTooManyRequest)
	assert.Equal(t, entity.OutcomeTooManyAttempts, f.sink.last().Outcome)

	_, err = f.validateBackupCode(t, companyA, "alice", out.BackupCodes[0])
	requireCode(t, err, goerror.CodeTooManyRequest)

	// other users are unaffected
	bob := f.create(t, companyA, "bob")
	res, err := f.validateToken(t, companyA, "bob", f.tokenAt(t, bob.Secret, 0))
	require.NoError(t, err)
	assert.Equal(t, entity.ResultValid, res.Result)
}

func TestValidateToken_AttemptLimitUnderBurst(t *testing.T) {
	f := newFixture(t, func(o *fixtureOption) { o.maxFailedAttempts = 3 })
	out := f.create(t, companyA, "alice")
	wrong := f.wrongToken(t, out.Secret)

	const callers = 12
	errs := make([]error, callers)

	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
	)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, errs[i] = f.validateToken(t, companyA, "alice", wrong)
		}()
	}
	close(start)
	wg.Wait()

	admitted := 0
	for _, err := range errs {
		if err == nil {
			admitted++
			continue
		}
		requireCode(t, err, goerror.CodeTooManyRequest)
	}
	assert.Equal(t, 3, admitted)

	_, err := f.validateToken(t, companyA, "alice", f.tokenAt(t, out.Secret, 0))
	requireCode(t, err, goerror.CodeTooManyRequest)
}

func TestValidateBackupCode_EachCodeOnce(t *testing.T) {
	f := newFixture(t)
	out := f.create(t, companyA, "alice")

	for _, code := range out.BackupCodes {
		res, err := f.validateBackupCode(t, companyA, "alice", code)
		require.NoError(t, err)
		assert.Equal(t, entity.ResultValid, res.Result, code)

		res, err = f.validateBackupCode(t, companyA, "alice", code)
		require.NoError(t, err)
		assert.Equal(t, entity.ResultExhausted, res.Result, code)
	}

	cred, err := f.uc.Get(context.Background(), GetInput{CompanyID: companyA, ID: out.Credential.ID})
	require.NoError(t, err)
	assert.Zero(t, cred.RemainingBackupCodes())
}

func TestValidateBackupCode_Normalizes(t *testing.T) {
	f := newFixture(t)
	out := f.create(t, companyA, "alice")

	res, err := f.validateBackupCode(t, companyA, "alice", "  "+strings.ToLower(out.BackupCodes[3])+" ")
	require.NoError(t, err)
	assert.Equal(t, entity.ResultValid, res.Result)

	ev := f.sink.last()
	assert.Equal(t, entity.EventBackupCodeUsed, ev.EventType)
	assert.Equal(t, entity.MethodBackupCode, ev.Method)
	assert.True(t, ev.Success)
}

func TestValidateBackupCode_UnknownCode(t *testing.T) {
	f := newFixture(t)
	f.create(t, companyA, "alice")

	res, err := f.validateBackupCode(t, companyA, "alice", "ZZZZZZZZ")
	require.NoError(t, err)
	assert.Equal(t, entity.ResultInvalid, res.Result)
	assert.Equal(t, entity.OutcomeInvalid, f.sink.last().Outcome)
}

func TestValidateBackupCode_ConcurrentDoubleSpend(t *testing.T) {
	f := newFixture(t)
	out := f.create(t, companyA, "alice")
	code := out.BackupCodes[0]

	const callers = 16
	results := make([]entity.Result, callers)

	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
	)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			res, err := f.validateBackupCode(t, companyA, "alice", code)
			if assert.NoError(t, err) {
				results[i] = res.Result
			}
		}()
	}
	close(start)
	wg.Wait()

	valid := 0
	for _, r := range results {
		if r == entity.ResultValid {
			valid++
			continue
		}
		assert.Contains(t, []entity.Result{entity.ResultInvalid, entity.ResultExhausted}, r)
	}
	assert.Equal(t, 1, valid)
}

func TestValidateBackupCode_RevokedBeforeConsume(t *testing.T) {
	f := newFixture(t)
	out := f.create(t, companyA, "alice")

	f.store.beforeConsume = func() {
		_, err := f.uc.Revoke(context.Background(), RevokeInput{CompanyID: companyA, ID: out.Credential.ID})
		require.NoError(t, err)
	}

	res, err := f.validateBackupCode(t, companyA, "alice", out.BackupCodes[0])
	require.NoError(t, err)
	assert.Equal(t, entity.ResultInvalid, res.Result)

	ev := f.sink.last()
	assert.Equal(t, entity.EventBackupCodeUsed, ev.EventType)
	assert.False(t, ev.Success)

	got, err := f.uc.Get(context.Background(), GetInput{CompanyID: companyA, ID: out.Credential.ID})
	require.NoError(t, err)
	assert.Equal(t, 8, got.RemainingBackupCodes())
}

func TestRegenerateBackupCodes(t *testing.T) {
	f := newFixture(t)
	out := f.create(t, companyA, "alice")

	res, err := f.validateBackupCode(t, companyA, "alice", out.BackupCodes[0])
	require.NoError(t, err)
	require.Equal(t, entity.ResultValid, res.Result)

	regen, err := f.uc.RegenerateBackupCodes(context.Background(), RegenerateBackupCodesInput{
		CompanyID:      companyA,
		ExternalUserID: "alice",
	})
	require.NoError(t, err)
	assert.Equal(t, out.Credential.ID, regen.CredentialID)
	require.Len(t, regen.BackupCodes, mfa.DefaultBackupCodeCount)

	ev := f.sink.last()
	assert.Equal(t, entity.EventBackupCodesRegenerated, ev.EventType)
	assert.True(t, ev.Success)

	fresh := map[string]bool{}
	for _, c := range regen.BackupCodes {
		fresh[c] = true
	}
	for _, old := range out.BackupCodes {
		if fresh[old] {
			continue
		}
		res, err := f.validateBackupCode(t, companyA, "alice", old)
		require.NoError(t, err)
		assert.Equal(t, entity.ResultInvalid, res.Result, old)
	}

	for _, code := range regen.BackupCodes {
		res, err := f.validateBackupCode(t, companyA, "alice", code)
		require.NoError(t, err)
		assert.Equal(t, entity.ResultValid, res.Result, code)
	}
}

func TestRegenerateBackupCodes_NotFound(t *testing.T) {
	f := newFixture(t)
	out := f.create(t, companyA, "alice")

	_, err := f.uc.RegenerateBackupCodes(context.Background(), RegenerateBackupCodesInput{CompanyID: companyA, ExternalUserID: "bob"})
	requireCode(t, err, goerror.CodeNotFound)

	_, err = f.uc.Revoke(context.Background(), RevokeInput{CompanyID: companyA, ID: out.Credential.ID})
	require.NoError(t, err)

	_, err = f.uc.RegenerateBackupCodes(context.Background(), RegenerateBackupCodesInput{CompanyID: companyA, ExternalUserID: "alice"})
	requireCode(t, err, goerror.CodeNotFound)
	assert.Equal(t, entity.OutcomeNotFound, f.sink.last().Outcome)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	out := f.create(t, companyA, "alice")

	require.NoError(t, f.uc.Delete(context.Background(), DeleteInput{CompanyID: companyA, ID: out.Credential.ID}))

	ev := f.sink.last()
	assert.Equal(t, entity.EventCredentialDeleted, ev.EventType)
	assert.Equal(t, "alice", ev.ExternalUserID)
	assert.True(t, ev.Success)

	_, err := f.validateToken(t, companyA, "alice", f.tokenAt(t, out.Secret, 0))
	requireCode(t, err, goerror.CodeNotFound)

	_, err = f.validateBackupCode(t, companyA, "alice", out.BackupCodes[0])
	requireCode(t, err, goerror.CodeNotFound)

	err = f.uc.Delete(context.Background(), DeleteInput{CompanyID: companyA, ID: out.Credential.ID})
	requireCode(t, err, goerror.CodeNotFound)
}

func TestTenantIsolation(t *testing.T) {
	f := newFixture(t)
	out := f.create(t, companyA, "alice")
	ctx := context.Background()

	_, err := f.uc.Get(ctx, GetInput{CompanyID: companyB, ID: out.Credential.ID})
	requireCode(t, err, goerror.CodeNotFound)

	_, err = f.uc.GetByExternalUserID(ctx, GetByExternalUserIDInput{CompanyID: companyB, ExternalUserID: "alice"})
	requireCode(t, err, goerror.CodeNotFound)

	_, err = f.validateToken(t, companyB, "alice", f.tokenAt(t, out.Secret, 0))
	requireCode(t, err, goerror.CodeNotFound)

	_, err = f.validateBackupCode(t, companyB, "alice", out.BackupCodes[0])
	requireCode(t, err, goerror.CodeNotFound)

	_, err = f.uc.Update(ctx, UpdateInput{CompanyID: companyB, ID: out.Credential.ID, Metadata: map[string]any{"x": 1}})
	requireCode(t, err, goerror.CodeNotFound)

	_, err = f.uc.Revoke(ctx, RevokeInput{CompanyID: companyB, ID: out.Credential.ID})
	requireCode(t, err, goerror.CodeNotFound)

	err = f.uc.Delete(ctx, DeleteInput{CompanyID: companyB, ID: out.Credential.ID})
	requireCode(t, err, goerror.CodeNotFound)

	list, err := f.uc.List(ctx, ListInput{CompanyID: companyB})
	require.NoError(t, err)
	assert.Zero(t, list.Total)

	// company A still owns an intact credential
	res, err := f.validateBackupCode(t, companyA, "alice", out.BackupCodes[0])
	require.NoError(t, err)
	assert.Equal(t, entity.ResultValid, res.Result)
}

func TestGetByExternalUserID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.create(t, companyA, "alice")
	_, err := f.uc.Revoke(ctx, RevokeInput{CompanyID: companyA, ID: first.Credential.ID})
	require.NoError(t, err)

	cred, err := f.uc.GetByExternalUserID(ctx, GetByExternalUserIDInput{CompanyID: companyA, ExternalUserID: "alice"})
	require.NoError(t, err)
	assert.Equal(t, entity.CredentialStatusRevoked, cred.Status)

	f.clock.Advance(time.Minute)
	second := f.create(t, companyA, "alice")

	cred, err = f.uc.GetByExternalUserID(ctx, GetByExternalUserIDInput{CompanyID: companyA, ExternalUserID: "alice"})
	require.NoError(t, err)
	assert.Equal(t, second.Credential.ID, cred.ID)
	assert.True(t, cred.IsActive())

	_, err = f.uc.GetByExternalUserID(ctx, GetByExternalUserIDInput{CompanyID: companyA, ExternalUserID: "nobody"})
	requireCode(t, err, goerror.CodeNotFound)
}

func TestRevoke(t *testing.T) {
	f := newFixture(t)
	out := f.create(t, companyA, "alice")
	ctx := context.Background()

	cred, err := f.uc.Revoke(ctx, RevokeInput{CompanyID: companyA, ID: out.Credential.ID})
	require.NoError(t, err)
	assert.Equal(t, entity.CredentialStatusRevoked, cred.Status)
	require.NotNil(t, cred.RevokedAt)

	ev := f.sink.last()
	assert.Equal(t, entity.EventCredentialRevoked, ev.EventType)
	assert.Equal(t, "alice", ev.ExternalUserID)

	_, err = f.validateToken(t, companyA, "alice", f.tokenAt(t, out.Secret, 0))
	requireCode(t, err, goerror.CodeNotFound)

	_, err = f.uc.Revoke(ctx, RevokeInput{CompanyID: companyA, ID: out.Credential.ID})
	requireCode(t, err, goerror.CodeNotFound)

	got, err := f.uc.Get(ctx, GetInput{CompanyID: companyA, ID: out.Credential.ID})
	require.NoError(t, err)
	assert.Equal(t, entity.CredentialStatusRevoked, got.Status)
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.create(t, companyA, "alice")
	f.create(t, companyA, "bob")

	renamed := " alice-2 "
	cred, err := f.uc.Update(ctx, UpdateInput{
		CompanyID:      companyA,
		ID:             alice.Credential.ID,
		ExternalUserID: &renamed,
		Metadata:       map[string]any{"display_name": "Alice"},
	})
	require.NoError(t, err)
	assert.Equal(t, "alice-2", cred.ExternalUserID)
	assert.Equal(t, "Alice", cred.Metadata.GetString("display_name"))
	assert.Equal(t, entity.OutcomeUpdated, f.sink.last().Outcome)

	// the secret is untouched by a rename
	res, err := f.validateToken(t, companyA, "alice-2", f.tokenAt(t, alice.Secret, 0))
	require.NoError(t, err)
	assert.Equal(t, entity.ResultValid, res.Result)

	taken := "bob"
	_, err = f.uc.Update(ctx, UpdateInput{CompanyID: companyA, ID: alice.Credential.ID, ExternalUserID: &taken})
	requireCode(t, err, goerror.CodeConflict)

	_, err = f.uc.Update(ctx, UpdateInput{CompanyID: companyA, ID: alice.Credential.ID})
	requireCode(t, err, goerror.CodeInvalidInput)

	_, err = f.uc.Update(ctx, UpdateInput{CompanyID: companyA, ID: uid.NewUUID().Generate(), Metadata: map[string]any{}})
	requireCode(t, err, goerror.CodeNotFound)
}

func TestList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var revokedID string
	for i := range 5 {
		out := f.create(t, companyA, fmt.Sprintf("user-%d", i))
		if i == 0 {
			revokedID = out.Credential.ID
		}
		f.clock.Advance(time.Second)
	}
	_, err := f.uc.Revoke(ctx, RevokeInput{CompanyID: companyA, ID: revokedID})
	require.NoError(t, err)

	page, err := f.uc.List(ctx, ListInput{CompanyID: companyA, Page: 2, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, int32(2), page.Page)
	require.Len(t, page.Credentials, 2)
	assert.Equal(t, "user-2", page.Credentials[0].ExternalUserID)

	active, err := f.uc.List(ctx, ListInput{CompanyID: companyA, Status: "active"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), active.Total)
	assert.Equal(t, int32(10), active.Size)

	_, err = f.uc.List(ctx, ListInput{CompanyID: companyA, Status: "paused"})
	requireCode(t, err, goerror.CodeInvalidInput)
}

func TestExampleScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	out := f.create(t, "C1", "alice")

	res, err := f.validateToken(t, "C1", "alice", f.tokenAt(t, out.Secret, 0))
	require.NoError(t, err)
	assert.Equal(t, entity.ResultValid, res.Result)

	res, err = f.validateToken(t, "C1", "alice", f.wrongToken(t, out.Secret))
	require.NoError(t, err)
	assert.Equal(t, entity.ResultInvalid, res.Result)

	res, err = f.validateBackupCode(t, "C1", "alice", out.BackupCodes[0])
	require.NoError(t, err)
	assert.Equal(t, entity.ResultValid, res.Result)

	res, err = f.validateBackupCode(t, "C1", "alice", out.BackupCodes[0])
	require.NoError(t, err)
	assert.Contains(t, []entity.Result{entity.ResultInvalid, entity.ResultExhausted}, res.Result)

	regen, err := f.uc.RegenerateBackupCodes(ctx, RegenerateBackupCodesInput{CompanyID: "C1", ExternalUserID: "alice"})
	require.NoError(t, err)
	if !assert.NotContains(t, regen.BackupCodes, out.BackupCodes[1]) {
		return
	}

	res, err = f.validateBackupCode(t, "C1", "alice", out.BackupCodes[1])
	require.NoError(t, err)
	assert.Equal(t, entity.ResultInvalid, res.Result)

	types := map[entity.EventType]int{}
	for _, ev := range f.sink.events() {
		assert.Equal(t, "C1", ev.CompanyID)
		assert.NotZero(t, ev.ID)
		types[ev.EventType]++
	}
	assert.Equal(t, 1, types[entity.EventTOTPSetup])
	assert.Equal(t, 2, types[entity.EventTOTPValidation])
	assert.Equal(t, 3, types[entity.EventBackupCodeUsed])
	assert.Equal(t, 1, types[entity.EventBackupCodesRegenerated])
}
