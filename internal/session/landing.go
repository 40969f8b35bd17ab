// ABOUTME: Landing-route resolution from account capability flags
// ABOUTME: Fixed precedence order; affiliate accounts use their own flag list

package session

import "github.com/epicsolution1211/crm-session-gateway/internal/store"

// Well-known routes.
const (
	RouteDashboard = "/"
	RouteLogin     = "/login"
)

// RouteOutcome is the result of resolving a landing route. When SignOut is
// set the account is not allowed in at all and the session must end.
type RouteOutcome struct {
	Route   string `json:"route,omitempty"`
	SignOut bool   `json:"sign_out,omitempty"`
}

// routeFlag pairs a dashboard path with the flag that gates it.
type routeFlag struct {
	path string
	flag func(*store.Account) *bool
}

// generalRoutes is the precedence order for non-affiliate accounts.
// First permitted flag wins; the order is fixed, not configurable.
var generalRoutes = []routeFlag{
	{"/overview", func(a *store.Account) *bool { return a.ViewOverview }},
	{"/clients", func(a *store.Account) *bool { return a.ViewClients }},
	{"/agents", func(a *store.Account) *bool { return a.ViewAgents }},
	{"/chat", func(a *store.Account) *bool { return a.ViewChat }},
	{"/leads", func(a *store.Account) *bool { return a.ViewLeads }},
	{"/affiliates", func(a *store.Account) *bool { return a.ViewAffiliates }},
	{"/brands", func(a *store.Account) *bool { return a.ViewBrands }},
	{"/lists", func(a *store.Account) *bool { return a.ViewLists }},
	{"/offers", func(a *store.Account) *bool { return a.ViewOffers }},
	{"/risk-management", func(a *store.Account) *bool { return a.ViewRiskManagement }},
	{"/logs", func(a *store.Account) *bool { return a.ViewLogs }},
	{"/audit/merchants", func(a *store.Account) *bool { return a.ViewAuditMerchant }},
	{"/audit/banks", func(a *store.Account) *bool { return a.ViewAuditBank }},
	{"/audit/payment-types", func(a *store.Account) *bool { return a.ViewAuditPaymentType }},
	{"/audit/tasks", func(a *store.Account) *bool { return a.ViewAuditTasks }},
	{"/audit/data", func(a *store.Account) *bool { return a.ViewAuditData }},
	{"/articles", func(a *store.Account) *bool { return a.ViewArticles }},
	{"/settings", func(a *store.Account) *bool { return a.ViewSettings }},
	{"/reports", func(a *store.Account) *bool { return a.ViewReports }},
}

// affiliateRoutes is the precedence order for affiliate accounts.
var affiliateRoutes = []routeFlag{
	{"/affiliate/leads", func(a *store.Account) *bool { return a.AffLeads }},
	{"/affiliate/affiliates", func(a *store.Account) *bool { return a.AffAffiliates }},
	{"/affiliate/brands", func(a *store.Account) *bool { return a.AffBrands }},
	{"/affiliate/inject", func(a *store.Account) *bool { return a.AffInject }},
	{"/affiliate/offers", func(a *store.Account) *bool { return a.AffOffers }},
}

// permitted reports whether a flag allows its route. Only an explicit false
// blocks; a flag the backend never sent counts as permitted.
func permitted(f *bool) bool {
	return f == nil || *f
}

// ResolveLandingRoute maps an account's capability flags to its default
// landing path. Affiliate accounts resolve only among the affiliate flags; an
// affiliate with every flag blocked is treated as invalid and signed out, not
// sent to the dashboard. Non-affiliate accounts with no permitted flag fall
// back to the dashboard index.
func ResolveLandingRoute(account store.Account) RouteOutcome {
	if account.Affiliate {
		for _, rt := range affiliateRoutes {
			if permitted(rt.flag(&account)) {
				return RouteOutcome{Route: rt.path}
			}
		}
		return RouteOutcome{SignOut: true}
	}

	for _, rt := range generalRoutes {
		if permitted(rt.flag(&account)) {
			return RouteOutcome{Route: rt.path}
		}
	}
	return RouteOutcome{Route: RouteDashboard}
}
