package inbound

import (
	"github.com/samber/lo"
	"github.com/shandysiswandi/otpvault/internal/credential/entity"
	"github.com/shandysiswandi/otpvault/internal/credential/usecase"
	"github.com/shandysiswandi/otpvault/internal/pkg/authz"
	"github.com/shandysiswandi/otpvault/internal/pkg/router"
)

type HTTPEndpoint struct {
	uc       uc
	enforcer authz.Enforcer
}

func caller(r *router.Request) entity.Caller {
	return entity.Caller{
		IP:         r.ClientIP(),
		UserAgent:  r.UserAgent(),
		DeviceInfo: r.DeviceInfo(),
	}
}

func (h *HTTPEndpoint) Create(r *router.Request) (any, error) {
	clm, err := authz.Authorize(r.Context(), h.enforcer, authz.ObjCredential, authz.ActManage)
	if err != nil {
		return nil, err
	}

	var req CredentialCreateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Create(r.Context(), usecase.CreateInput{
		CompanyID:      clm.CompanyID,
		ExternalUserID: req.ExternalUserID,
		Metadata:       req.Metadata,
		IdempotencyKey: r.IdempotencyKey(),
		Caller:         caller(r),
	})
	if err != nil {
		return nil, err
	}

	return CredentialCreateResponse{
		Credential:      newCredentialResponse(resp.Credential),
		Secret:          resp.Secret,
		ProvisioningURI: resp.ProvisioningURI,
		QRCode:          resp.QRCode,
		BackupCodes:     resp.BackupCodes,
	}, nil
}

func (h *HTTPEndpoint) List(r *router.Request) (any, error) {
	clm, err := authz.Authorize(r.Context(), h.enforcer, authz.ObjCredential, authz.ActManage)
	if err != nil {
		return nil, err
	}

	size, err := r.GetQueryInt32("size")
	if err != nil {
		return nil, err
	}

	page, err := r.GetQueryInt32("page")
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.List(r.Context(), usecase.ListInput{
		CompanyID: clm.CompanyID,
		Status:    r.GetQuery("status"),
		Search:    r.GetQuery("search"),
		Page:      page,
		Size:      size,
	})
	if err != nil {
		return nil, err
	}

	return CredentialsResponse{
		Credentials: lo.Map(resp.Credentials, func(c entity.Credential, _ int) CredentialResponse {
			return newCredentialResponse(c)
		}),
		total:       resp.Total,
		size:        resp.Size,
		page:        resp.Page,
	}, nil
}

func (h *HTTPEndpoint) Get(r *router.Request) (any, error) {
	clm, err := authz.Authorize(r.Context(), h.enforcer, authz.ObjCredential, authz.ActManage)
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.Get(r.Context(), usecase.GetInput{
		CompanyID: clm.CompanyID,
		ID:        r.GetParam("id"),
	})
	if err != nil {
		return nil, err
	}

	return CredentialDetailResponse{Credential: newCredentialResponse(*resp)}, nil
}

func (h *HTTPEndpoint) GetByExternalUserID(r *router.Request) (any, error) {
	clm, err := authz.Authorize(r.Context(), h.enforcer, authz.ObjCredential, authz.ActManage)
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.GetByExternalUserID(r.Context(), usecase.GetByExternalUserIDInput{
		CompanyID:      clm.CompanyID,
		ExternalUserID: r.GetParam("external_user_id"),
	})
	if err != nil {
		return nil, err
	}

	return CredentialDetailResponse{Credential: newCredentialResponse(*resp)}, nil
}

func (h *HTTPEndpoint) Update(r *router.Request) (any, error) {
	clm, err := authz.Authorize(r.Context(), h.enforcer, authz.ObjCredential, authz.ActManage)
	if err != nil {
		return nil, err
	}

	var req CredentialUpdateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Update(r.Context(), usecase.UpdateInput{
		CompanyID:      clm.CompanyID,
		ID:             r.GetParam("id"),
		ExternalUserID: req.ExternalUserID,
		Metadata:       req.Metadata,
		Caller:         caller(r),
	})
	if err != nil {
		return nil, err
	}

	return CredentialDetailResponse{Credential: newCredentialResponse(*resp)}, nil
}

func (h *HTTPEndpoint) Revoke(r *router.Request) (any, error) {
	clm, err := authz.Authorize(r.Context(), h.enforcer, authz.ObjCredential, authz.ActManage)
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.Revoke(r.Context(), usecase.RevokeInput{
		CompanyID: clm.CompanyID,
		ID:        r.GetParam("id"),
		Caller:    caller(r),
	})
	if err != nil {
		return nil, err
	}

	return CredentialDetailResponse{Credential: newCredentialResponse(*resp)}, nil
}

func (h *HTTPEndpoint) Delete(r *router.Request) (any, error) {
	clm, err := authz.Authorize(r.Context(), h.enforcer, authz.ObjCredential, authz.ActManage)
	if err != nil {
		return nil, err
	}

	if err := h.uc.Delete(r.Context(), usecase.DeleteInput{
		CompanyID: clm.CompanyID,
		ID:        r.GetParam("id"),
		Caller:    caller(r),
	}); err != nil {
		return nil, err
	}

	return nil, nil
}

func (h *HTTPEndpoint) RegenerateBackupCodes(r *router.Request) (any, error) {
	clm, err := authz.Authorize(r.Context(), h.enforcer, authz.ObjCredential, authz.ActManage)
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.RegenerateBackupCodes(r.Context(), usecase.RegenerateBackupCodesInput{
		CompanyID:      clm.CompanyID,
		ExternalUserID: r.GetParam("external_user_id"),
		Caller:         caller(r),
	})
	if err != nil {
		return nil, err
	}

	return BackupCodesResponse{
		CredentialID: resp.CredentialID,
		BackupCodes:  resp.BackupCodes,
	}, nil
}

func (h *HTTPEndpoint) VerifyTOTP(r *router.Request) (any, error) {
	clm, err := authz.Authorize(r.Context(), h.enforcer, authz.ObjCredential, authz.ActVerify)
	if err != nil {
		return nil, err
	}

	var req VerifyTOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.ValidateToken(r.Context(), usecase.ValidateTokenInput{
		CompanyID:      clm.CompanyID,
		ExternalUserID: req.ExternalUserID,
		Token:          req.Token,
		Caller:         caller(r),
	})
	if err != nil {
		return nil, err
	}

	return VerifyResponse{Result: resp.Result.String()}, nil
}

func (h *HTTPEndpoint) VerifyBackupCode(r *router.Request) (any, error) {
	clm, err := authz.Authorize(r.Context(), h.enforcer, authz.ObjCredential, authz.ActVerify)
	if err != nil {
		return nil, err
	}

	var req VerifyBackupCodeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.ValidateBackupCode(r.Context(), usecase.ValidateBackupCodeInput{
		CompanyID:      clm.CompanyID,
		ExternalUserID: req.ExternalUserID,
		Code:           req.Code,
		Caller:         caller(r),
	})
	if err != nil {
		return nil, err
	}

	return VerifyResponse{Result: resp.Result.String()}, nil
}
