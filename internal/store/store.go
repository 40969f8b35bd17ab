// ABOUTME: Store interface and data types for session-gateway persistence
// ABOUTME: Defines Tenant, Account structs and the string-keyed state store

package store

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested key or entity does not exist
var ErrNotFound = errors.New("not found")

// State keys used by the session layer. Composite values are JSON-encoded.
const (
	KeyServerURL = "server_url" // active backend base URL (string)
	KeyTenants   = "tenants"    // registered tenants (JSON array of Tenant)
	KeyCompany   = "company"    // active session company (JSON ActiveCompany)
	KeyLastPage  = "last_page"  // last visited dashboard path (string)
	KeyToken     = "token"      // backend auth token (string)
)

// Company identifies a company hosted on a backend server.
type Company struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Avatar     string `json:"avatar,omitempty"`
	OTPEnabled bool   `json:"otp_enabled,omitempty"`
}

// Account holds the capability flags of the account that can access a company.
//
// The view flags are tri-state on purpose: the backend omits flags it never
// set, and an absent flag is treated the same as true when resolving the
// landing route. Only an explicit false blocks a route. See session.ResolveLandingRoute.
type Account struct {
	OTPEnabled bool `json:"otp_enabled,omitempty"`
	Affiliate  bool `json:"affiliate,omitempty"`

	ViewOverview         *bool `json:"acc_v_overview,omitempty"`
	ViewClients          *bool `json:"acc_v_client,omitempty"`
	ViewAgents           *bool `json:"acc_v_agents,omitempty"`
	ViewChat             *bool `json:"acc_v_chat,omitempty"`
	ViewLeads            *bool `json:"acc_v_lm_leads,omitempty"`
	ViewAffiliates       *bool `json:"acc_v_lm_aff,omitempty"`
	ViewBrands           *bool `json:"acc_v_lm_brand,omitempty"`
	ViewLists            *bool `json:"acc_v_lm_list,omitempty"`
	ViewOffers           *bool `json:"acc_v_lm_offer,omitempty"`
	ViewRiskManagement   *bool `json:"acc_v_risk_management,omitempty"`
	ViewLogs             *bool `json:"acc_v_logs,omitempty"`
	ViewAuditMerchant    *bool `json:"acc_v_audit_merchant,omitempty"`
	ViewAuditBank        *bool `json:"acc_v_audit_bank,omitempty"`
	ViewAuditPaymentType *bool `json:"acc_v_audit_payment_type,omitempty"`
	ViewAuditTasks       *bool `json:"acc_v_audit_tasks,omitempty"`
	ViewAuditData        *bool `json:"acc_v_audit_data,omitempty"`
	ViewArticles         *bool `json:"acc_v_article,omitempty"`
	ViewSettings         *bool `json:"acc_v_settings,omitempty"`
	ViewReports          *bool `json:"acc_v_reports,omitempty"`

	AffLeads      *bool `json:"aff_acc_leads,omitempty"`
	AffAffiliates *bool `json:"aff_acc_affiliates,omitempty"`
	AffBrands     *bool `json:"aff_acc_brands,omitempty"`
	AffInject     *bool `json:"aff_acc_inject,omitempty"`
	AffOffers     *bool `json:"aff_acc_offers,omitempty"`
}

// Tenant is a company reachable on a registered backend server, paired with
// the capability flags of the account that fetched it. Tenants are identified
// by (server_code, company id); the same company on two servers is two tenants.
type Tenant struct {
	Company    Company `json:"company"`
	Account    Account `json:"account"`
	ServerURL  string  `json:"server_url"`
	ServerCode string  `json:"server_code"`
}

// Validate checks the fields a tenant cannot function without.
// Runs at the storage boundary so the rest of the call chain can trust the shape.
func (t *Tenant) Validate() error {
	if t.ServerCode == "" {
		return errors.New("tenant missing server_code")
	}
	if t.ServerURL == "" {
		return errors.New("tenant missing server_url")
	}
	if t.Company.ID == 0 {
		return errors.New("tenant missing company id")
	}
	return nil
}

// ActiveCompany is the single currently signed-in tenant's company.
// At most one exists at a time; selecting a tenant overwrites it entirely.
type ActiveCompany struct {
	CompanyID   int64  `json:"company_id"`
	CompanyName string `json:"company_name"`
	ServerCode  string `json:"server_code"`
}

// Validate checks that an active company read from storage is usable.
func (a *ActiveCompany) Validate() error {
	if a.CompanyID == 0 {
		return errors.New("active company missing company_id")
	}
	if a.ServerCode == "" {
		return errors.New("active company missing server_code")
	}
	return nil
}

// StateStore is the durable string-keyed store backing session state.
// Values are opaque strings; composite values are JSON-encoded by SessionState.
type StateStore interface {
	GetState(ctx context.Context, key string) (string, error)
	SetState(ctx context.Context, key, value string) error
	DeleteState(ctx context.Context, key string) error
}

// Store combines state persistence with the audit log.
type Store interface {
	StateStore
	AuditStore
	Close() error
}

// decodeError wraps a JSON decode failure with the offending state key.
func decodeError(key string, err error) error {
	return fmt.Errorf("decoding state %q: %w", key, err)
}
