// ABOUTME: Tests for tenant selection and sign-out
// ABOUTME: Covers second-factor short-circuit, base-URL switch ordering, and failure semantics

package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epicsolution1211/crm-session-gateway/internal/store"
)

// fakeSignIn records sign-in calls and what the active base URL was at the
// moment each call was issued, which makes the switch-before-sign-in
// ordering observable.
type fakeSignIn struct {
	base *BaseURLResolver

	signInCalls    int
	signOutCalls   int
	baseAtSignIn   string
	token          string
	signInErr      error
	signOutErr     error
	lastTenantCode string
}

func (f *fakeSignIn) SignIn(ctx context.Context, tenant store.Tenant) (string, error) {
	f.signInCalls++
	f.baseAtSignIn = f.base.ActiveBaseURL(ctx)
	f.lastTenantCode = tenant.ServerCode
	if f.signInErr != nil {
		return "", f.signInErr
	}
	return f.token, nil
}

func (f *fakeSignIn) SignOut(ctx context.Context) error {
	f.signOutCalls++
	return f.signOutErr
}

type switcherFixture struct {
	switcher *Switcher
	state    *store.SessionState
	base     *BaseURLResolver
	backend  *fakeSignIn
	mock     *store.MockStore
}

func newFixture(t *testing.T) *switcherFixture {
	t.Helper()
	mock := store.NewMockStore()
	state := store.NewSessionState(mock)
	base := NewBaseURLResolver(state, defaultURL)
	backend := &fakeSignIn{base: base, token: "tok-123"}
	return &switcherFixture{
		switcher: NewSwitcher(state, base, backend, mock),
		state:    state,
		base:     base,
		backend:  backend,
		mock:     mock,
	}
}

func tenantOn(code, url string, companyID int64) store.Tenant {
	return store.Tenant{
		Company:    store.Company{ID: companyID, Name: "Acme"},
		ServerURL:  url,
		ServerCode: code,
	}
}

func TestSelectTenant_Success(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	tenant := tenantOn("EU1", "https://eu1.example.com/api", 7)
	tenant.Account = store.Account{ViewAgents: boolPtr(true)}
	f := boolPtr(false)
	tenant.Account.ViewOverview, tenant.Account.ViewClients = f, f

	result, err := fx.switcher.SelectTenant(ctx, tenant)
	require.NoError(t, err)
	assert.False(t, result.RequiresSecondFactor)
	assert.Equal(t, "/agents", result.Route)

	token, err := fx.state.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)

	active, err := fx.state.ActiveCompany(ctx)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, int64(7), active.CompanyID)
	assert.Equal(t, "Acme", active.CompanyName)
	assert.Equal(t, "EU1", active.ServerCode)
}

func TestSelectTenant_SecondFactorShortCircuits(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*store.Tenant)
	}{
		{"company otp", func(tn *store.Tenant) { tn.Company.OTPEnabled = true }},
		{"account otp", func(tn *store.Tenant) { tn.Account.OTPEnabled = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t)
			ctx := context.Background()

			tenant := tenantOn("EU1", "https://eu1.example.com/api", 7)
			tt.mutate(&tenant)

			result, err := fx.switcher.SelectTenant(ctx, tenant)
			require.NoError(t, err)
			assert.True(t, result.RequiresSecondFactor)
			assert.Equal(t, int64(7), result.CompanyID)
			assert.Empty(t, result.Route)

			// No sign-in, no base-URL switch.
			assert.Zero(t, fx.backend.signInCalls)
			assert.Equal(t, defaultURL, fx.base.ActiveBaseURL(ctx))

			// No session state was written.
			active, err := fx.state.ActiveCompany(ctx)
			require.NoError(t, err)
			assert.Nil(t, active)
		})
	}
}

func TestSelectTenant_SwitchesBaseURLBeforeSignIn(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	tenant := tenantOn("EU1", "https://eu1.example.com/api", 7)
	_, err := fx.switcher.SelectTenant(ctx, tenant)
	require.NoError(t, err)

	require.Equal(t, 1, fx.backend.signInCalls)
	// The sign-in call already saw the switched base URL.
	assert.Equal(t, "https://eu1.example.com/api", fx.backend.baseAtSignIn)
	assert.Equal(t, "https://eu1.example.com/api", fx.base.ActiveBaseURL(ctx))
}

func TestSelectTenant_SameServerDoesNotRewriteBaseURL(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.base.SetActiveBaseURL(ctx, "https://eu1.example.com/api"))
	tenant := tenantOn("EU1", "https://eu1.example.com/api", 7)

	_, err := fx.switcher.SelectTenant(ctx, tenant)
	require.NoError(t, err)
	assert.Equal(t, "https://eu1.example.com/api", fx.backend.baseAtSignIn)
}

func TestSelectTenant_SignInFailurePropagates(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	signInErr := errors.New("session limit reached")
	fx.backend.signInErr = signInErr

	tenant := tenantOn("EU1", "https://eu1.example.com/api", 7)
	_, err := fx.switcher.SelectTenant(ctx, tenant)
	assert.ErrorIs(t, err, signInErr)
	var sErr *SignInError
	assert.ErrorAs(t, err, &sErr)

	// No session state was written.
	active, aerr := fx.state.ActiveCompany(ctx)
	require.NoError(t, aerr)
	assert.Nil(t, active)
	token, terr := fx.state.Token(ctx)
	require.NoError(t, terr)
	assert.Empty(t, token)

	// The base-URL switch is not rolled back; a retry is idempotent.
	assert.Equal(t, "https://eu1.example.com/api", fx.base.ActiveBaseURL(ctx))
}

func TestSelectTenant_LastPageOverridesRoute(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.state.SetLastPage(ctx, "/risk-management"))

	tenant := tenantOn("EU1", "https://eu1.example.com/api", 7)
	tenant.Account = store.Account{ViewOverview: boolPtr(true)}

	result, err := fx.switcher.SelectTenant(ctx, tenant)
	require.NoError(t, err)
	assert.Equal(t, "/risk-management", result.Route)
}

func TestSelectTenant_LastPageDoesNotSuppressSecondFactor(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.state.SetLastPage(ctx, "/risk-management"))

	tenant := tenantOn("EU1", "https://eu1.example.com/api", 7)
	tenant.Company.OTPEnabled = true

	result, err := fx.switcher.SelectTenant(ctx, tenant)
	require.NoError(t, err)
	assert.True(t, result.RequiresSecondFactor)
	assert.Empty(t, result.Route)
}

func TestSelectTenant_InvalidAffiliateSignsOut(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	f := boolPtr(false)
	tenant := tenantOn("EU1", "https://eu1.example.com/api", 7)
	tenant.Account = store.Account{
		Affiliate: true,
		AffLeads:  f, AffAffiliates: f, AffBrands: f, AffInject: f, AffOffers: f,
	}

	result, err := fx.switcher.SelectTenant(ctx, tenant)
	require.NoError(t, err)
	assert.True(t, result.SignedOut)
	assert.Equal(t, RouteLogin, result.Route)

	// Backend sign-out happened and local state is clean again.
	assert.Equal(t, 1, fx.backend.signOutCalls)
	active, aerr := fx.state.ActiveCompany(ctx)
	require.NoError(t, aerr)
	assert.Nil(t, active)
	token, terr := fx.state.Token(ctx)
	require.NoError(t, terr)
	assert.Empty(t, token)
}

func TestSignOut_ClearsStateEvenWhenBackendFails(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.state.SetToken(ctx, "tok-123"))
	require.NoError(t, fx.state.SetActiveCompany(ctx, &store.ActiveCompany{
		CompanyID: 7, CompanyName: "Acme", ServerCode: "EU1",
	}))
	fx.backend.signOutErr = errors.New("backend down")

	require.NoError(t, fx.switcher.SignOut(ctx))

	active, err := fx.state.ActiveCompany(ctx)
	require.NoError(t, err)
	assert.Nil(t, active)
	token, err := fx.state.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestLandingRoute_AppliesLastPage(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	acct := store.Account{ViewOverview: boolPtr(true)}

	outcome, err := fx.switcher.LandingRoute(ctx, acct)
	require.NoError(t, err)
	assert.Equal(t, "/overview", outcome.Route)

	require.NoError(t, fx.state.SetLastPage(ctx, "/reports"))
	outcome, err = fx.switcher.LandingRoute(ctx, acct)
	require.NoError(t, err)
	assert.Equal(t, "/reports", outcome.Route)
}
