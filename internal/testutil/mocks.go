package testutil

import (
	"context"
	"testing"

	"github.com/optitalent/hr-backend/internal/auth"
	"github.com/optitalent/hr-backend/internal/generation"
	"github.com/stretchr/testify/mock"
)

// MockTokenVerifier stands in for the auth service behind a Guard.
type MockTokenVerifier struct {
	mock.Mock
}

func NewMockTokenVerifier(t *testing.T) *MockTokenVerifier {
	m := &MockTokenVerifier{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockTokenVerifier) ValidateToken(ctx context.Context, token string) (*auth.TokenClaims, error) {
	args := m.Called(ctx, token)
	claims, _ := args.Get(0).(*auth.TokenClaims)
	return claims, args.Error(1)
}

func (m *MockTokenVerifier) CheckRevocation(ctx context.Context, claims *auth.TokenClaims) error {
	args := m.Called(ctx, claims)
	return args.Error(0)
}

// ExpectToken makes token validate to claims and pass the revocation check.
func (m *MockTokenVerifier) ExpectToken(token string, claims *auth.TokenClaims) {
	m.On("ValidateToken", mock.Anything, token).Return(claims, nil)
	m.On("CheckRevocation", mock.Anything, claims).Return(nil)
}

func (m *MockTokenVerifier) ExpectInvalidToken(token string, err error) *mock.Call {
	return m.On("ValidateToken", mock.Anything, token).Return(nil, err)
}

// MockGenerator stands in for the content-generation service.
type MockGenerator struct {
	mock.Mock
}

func NewMockGenerator(t *testing.T) *MockGenerator {
	m := &MockGenerator{}
	m.Test(t)
	return m
}

func (m *MockGenerator) Generate(ctx context.Context, req generation.Request) (*generation.Response, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*generation.Response)
	return resp, args.Error(1)
}

func (m *MockGenerator) ExpectGenerate(flow string, output map[string]any) *mock.Call {
	return m.On("Generate", mock.Anything, mock.MatchedBy(func(req generation.Request) bool {
		return req.Flow == flow
	})).Return(&generation.Response{Flow: flow, Output: output}, nil)
}
