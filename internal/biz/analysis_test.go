package biz

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Nolin2/eco-predict-ai-carborn-emission-AI-Function-Backend/internal/auth"
	apperrors "github.com/Nolin2/eco-predict-ai-carborn-emission-AI-Function-Backend/internal/errors"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIdentityClient struct {
	uid    string
	err    error
	called int
}

func (f *fakeIdentityClient) VerifyToken(ctx context.Context, token string) (string, error) {
	f.called++
	if f.err != nil {
		return "", f.err
	}
	return f.uid, nil
}

type fakeOracleClient struct {
	result json.RawMessage
	err    error
	called int
	ctxUID string
}

func (f *fakeOracleClient) GenerateAnalysis(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	f.called++
	f.ctxUID, _ = auth.GetUIDFromContext(ctx)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func newTestAnalysisUsecase(identity *fakeIdentityClient, repo QuotaRepo, oracle *fakeOracleClient) *AnalysisUsecase {
	logger := log.NewStdLogger(&testWriter{})
	gate := NewAccessUsecase(repo, testBootstrap(), logger)
	return NewAnalysisUsecase(identity, gate, oracle, logger)
}

var testPayload = json.RawMessage(`{"electricity_kwh": 320, "region": "EU"}`)

func TestAnalyzeMissingTokenRejectsBeforeIdentity(t *testing.T) {
	identity := &fakeIdentityClient{uid: "u1"}
	oracle := &fakeOracleClient{result: json.RawMessage(`{}`)}
	uc := newTestAnalysisUsecase(identity, newFakeQuotaRepo(), oracle)

	_, err := uc.Analyze(context.Background(), "", testPayload)
	require.Error(t, err)
	assert.Equal(t, 400, kerrors.Code(err))
	assert.Equal(t, 0, identity.called)
	assert.Equal(t, 0, oracle.called)
}

func TestAnalyzeMissingPayloadRejectsBeforeIdentity(t *testing.T) {
	identity := &fakeIdentityClient{uid: "u1"}
	oracle := &fakeOracleClient{result: json.RawMessage(`{}`)}
	uc := newTestAnalysisUsecase(identity, newFakeQuotaRepo(), oracle)

	_, err := uc.Analyze(context.Background(), "tok", nil)
	require.Error(t, err)
	assert.Equal(t, 400, kerrors.Code(err))
	assert.Equal(t, 0, identity.called)
}

func TestAnalyzeIdentityFailureSkipsGateAndOracle(t *testing.T) {
	identity := &fakeIdentityClient{err: errors.New("bad token")}
	oracle := &fakeOracleClient{result: json.RawMessage(`{}`)}
	repo := newFakeQuotaRepo()
	uc := newTestAnalysisUsecase(identity, repo, oracle)

	_, err := uc.Analyze(context.Background(), "tok", testPayload)
	require.Error(t, err)
	assert.Equal(t, 401, kerrors.Code(err))
	assert.Equal(t, apperrors.ReasonAuthenticationFailed, kerrors.Reason(err))
	// 身份认证失败后不触碰存储与 AI
	assert.Equal(t, 0, repo.usageWrites)
	assert.Equal(t, 0, oracle.called)
}

func TestAnalyzeGateDenialSurfacesReason(t *testing.T) {
	identity := &fakeIdentityClient{uid: "u1"}
	oracle := &fakeOracleClient{result: json.RawMessage(`{}`)}
	repo := newFakeQuotaRepo()
	repo.usages["u1"] = &UsageCounter{Count: 5}
	uc := newTestAnalysisUsecase(identity, repo, oracle)

	_, err := uc.Analyze(context.Background(), "tok", testPayload)
	require.Error(t, err)
	assert.Equal(t, 403, kerrors.Code(err))
	se := kerrors.FromError(err)
	assert.Equal(t, "Free tier limit of 5 analyses exceeded. Please upgrade to Pro.", se.Message)
	assert.Equal(t, 0, oracle.called)
}

func TestAnalyzeStorageFaultMapsTo500(t *testing.T) {
	identity := &fakeIdentityClient{uid: "u1"}
	oracle := &fakeOracleClient{result: json.RawMessage(`{}`)}
	repo := newFakeQuotaRepo()
	repo.readErr = errors.New("store down")
	uc := newTestAnalysisUsecase(identity, repo, oracle)

	_, err := uc.Analyze(context.Background(), "tok", testPayload)
	require.Error(t, err)
	assert.Equal(t, 500, kerrors.Code(err))
	assert.True(t, apperrors.IsStorage(err))
	assert.Equal(t, 0, oracle.called)
}

func TestAnalyzeOracleFailureKeepsQuotaSpent(t *testing.T) {
	// 配额按尝试计: AI 失败后计数仍保持已递增
	identity := &fakeIdentityClient{uid: "u1"}
	oracle := &fakeOracleClient{err: errors.New("empty candidates")}
	repo := newFakeQuotaRepo()
	repo.usages["u1"] = &UsageCounter{Count: 2}
	uc := newTestAnalysisUsecase(identity, repo, oracle)

	_, err := uc.Analyze(context.Background(), "tok", testPayload)
	require.Error(t, err)
	assert.Equal(t, 500, kerrors.Code(err))
	se := kerrors.FromError(err)
	assert.Equal(t, "Failed to generate AI analysis.", se.Message)
	assert.Equal(t, 3, repo.usages["u1"].Count)
}

func TestAnalyzeSuccessReturnsResultAndQuotaMessage(t *testing.T) {
	identity := &fakeIdentityClient{uid: "u1"}
	oracle := &fakeOracleClient{result: json.RawMessage(`{"summary":"ok"}`)}
	repo := newFakeQuotaRepo()
	uc := newTestAnalysisUsecase(identity, repo, oracle)

	result, err := uc.Analyze(context.Background(), "tok", testPayload)
	require.NoError(t, err)
	assert.Equal(t, "Free tier usage: 1/5 analyses used.", result.Message)
	assert.JSONEq(t, `{"summary":"ok"}`, string(result.Result))
	// 已验证的用户标识随 context 传递给下游
	assert.Equal(t, "u1", oracle.ctxUID)
}

func TestAnalyzeProUserBypassesCounter(t *testing.T) {
	identity := &fakeIdentityClient{uid: "pro"}
	oracle := &fakeOracleClient{result: json.RawMessage(`{"summary":"ok"}`)}
	repo := newFakeQuotaRepo()
	repo.subs["pro"] = &SubscriptionStatus{Tier: "pro", Status: "active"}
	uc := newTestAnalysisUsecase(identity, repo, oracle)

	result, err := uc.Analyze(context.Background(), "tok", testPayload)
	require.NoError(t, err)
	assert.Equal(t, "Pro subscription active.", result.Message)
	assert.Equal(t, 0, repo.usageWrites)
}
