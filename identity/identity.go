// Package identity implements C2: tenant directory membership checks
// and the migration-role grant, plus ParseToken for verifying a JWT
// bearer token. The CLI entrypoints pass --auth-token straight through
// as the Keystone token and do not call ParseToken.
//
// The original tooling drove Keystone directly via keystoneclient.
// No Keystone client library appears in the reference corpus, so the
// v3 REST calls this package needs (role assignment list/grant) are
// made directly against fasthttp, matching gateway/swiftgw's choice of
// HTTP client; JWT verification of the bearer token itself uses
// golang-jwt/jwt/v4.
/*
 * Copyright (c) 2024 Catalyst Cloud
 */
package identity

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
	"github.com/valyala/fasthttp"

	"github.com/catalyst-cloud/objectmigrate/cmn"
)

// Claims is the subset of a Keystone-issued (or Keystone-federated) JWT
// this tool cares about: the subject's user ID and the project
// (tenant) IDs they may act on.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string   `json:"user_id"`
	Projects []string `json:"projects"`
}

// ParseToken verifies tokenStr against secret (HS256) and returns its
// claims. Returns an error wrapping jwt's verification failure on any
// expired, malformed, or mis-signed token.
func ParseToken(tokenStr string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, cmn.Wrap(err, "parse auth token")
	}
	return claims, nil
}

// CanActOn reports whether the token's subject is allowed to act on
// tenantID, i.e. the catch-all super-admin project "*" or tenantID
// itself appears in Projects.
func (c *Claims) CanActOn(tenantID string) bool {
	for _, p := range c.Projects {
		if p == "*" || p == tenantID {
			return true
		}
	}
	return false
}

// MigrationRole is the Keystone role name the migrator grants itself on
// a tenant before it can read/write that tenant's containers.
const MigrationRole = "swift-migrate"

// AdminRole is Keystone's built-in project-admin role. A user who already
// holds it on a tenant implicitly has everything MigrationRole would
// grant, so Plan skips the redundant grant rather than adding a role a
// project admin doesn't need.
const AdminRole = "admin"

// Directory is a Keystone v3-backed membership/role client. One
// Directory instance is shared across every worker; fasthttp.Client is
// itself goroutine-safe.
type Directory struct {
	client   *fasthttp.Client
	identity string // Keystone v3 base URL, e.g. https://keystone.example.com/v3
	token    string // admin token used for role assignment calls
	timeout  time.Duration
}

// NewDirectory constructs a Directory bound to a Keystone v3 endpoint.
func NewDirectory(identityURL, adminToken string) *Directory {
	return &Directory{
		client:   &fasthttp.Client{MaxConnsPerHost: 64},
		identity: strings.TrimRight(identityURL, "/"),
		token:    adminToken,
		timeout:  30 * time.Second,
	}
}

type project struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

type projectsResp struct {
	Projects []project `json:"projects"`
}

// ListTenants lists every Keystone project visible to the admin token,
// satisfying tenant.Directory. This is C2 step 1, "fetch all enabled
// tenants" — the original tooling's equivalent fetch is keystoneclient's
// project list, which has no Go client in the reference corpus, so it is
// made directly against the same v3 REST surface as the rest of this
// package.
func (d *Directory) ListTenants(ctx context.Context) ([]cmn.Tenant, error) {
	resp, err := d.get(ctx, d.identity+"/projects")
	if err != nil {
		return nil, cmn.Wrap(err, "list projects")
	}
	defer fasthttp.ReleaseResponse(resp)
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, errors.Errorf("list projects: status %d", resp.StatusCode())
	}

	var parsed projectsResp
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, cmn.Wrap(err, "decode projects")
	}

	tenants := make([]cmn.Tenant, 0, len(parsed.Projects))
	for _, p := range parsed.Projects {
		tenants = append(tenants, cmn.Tenant{ID: p.ID, Name: p.Name, Enabled: p.Enabled})
	}
	return tenants, nil
}

type roleAssignment struct {
	Role  struct{ ID string } `json:"role"`
	Scope struct {
		Project struct{ ID string } `json:"project"`
	} `json:"scope"`
	User struct{ ID string } `json:"user"`
}

type roleAssignmentsResp struct {
	RoleAssignments []roleAssignment `json:"role_assignments"`
}

// CheckMembership reports whether userID already holds roleID on
// tenantID. This is the Go equivalent of the original's
// _check_tenant_membership, called through tenant.Planner.Plan by
// cmd/migrate. The reconcile-deleted and reconcile-duplicate commands do
// not check role membership.
func (d *Directory) CheckMembership(ctx context.Context, tenantID, userID, roleID string) (bool, error) {
	url := d.identity + "/role_assignments?scope.project.id=" + tenantID + "&user.id=" + userID

	resp, err := d.get(ctx, url)
	if err != nil {
		return false, err
	}
	defer fasthttp.ReleaseResponse(resp)
	if resp.StatusCode() != fasthttp.StatusOK {
		return false, errors.Errorf("check membership: status %d", resp.StatusCode())
	}

	var parsed roleAssignmentsResp
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return false, cmn.Wrap(err, "decode role assignments")
	}
	for _, ra := range parsed.RoleAssignments {
		if ra.Role.ID == roleID {
			return true, nil
		}
	}
	return false, nil
}

// GrantRole grants roleID to userID on tenantID, then re-checks
// membership to confirm the grant took effect (Keystone's PUT
// role-assignment endpoint returns 204 even when the grant silently
// no-ops against a stale cache, so the original tooling always
// verified after granting; we do the same).
func (d *Directory) GrantRole(ctx context.Context, tenantID, userID, roleID string) error {
	url := d.identity + "/projects/" + tenantID + "/users/" + userID + "/roles/" + roleID

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodPut)
	req.Header.Set("X-Auth-Token", d.token)
	req.Header.SetContentLength(0)

	if err := d.client.DoDeadline(req, resp, deadline(ctx, d.timeout)); err != nil {
		return cmn.Wrapf(err, "grant role %s to %s on %s", roleID, userID, tenantID)
	}
	if resp.StatusCode() != fasthttp.StatusNoContent {
		return cmn.Wrapf(cmn.ErrRoleGrantFailed, "grant role: status %d", resp.StatusCode())
	}

	ok, err := d.CheckMembership(ctx, tenantID, userID, roleID)
	if err != nil {
		return cmn.Wrap(err, "verify role grant")
	}
	if !ok {
		return cmn.ErrRoleGrantFailed
	}
	return nil
}

func (d *Directory) get(ctx context.Context, url string) (*fasthttp.Response, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("X-Auth-Token", d.token)

	if err := d.client.DoDeadline(req, resp, deadline(ctx, d.timeout)); err != nil {
		fasthttp.ReleaseResponse(resp)
		return nil, cmn.Wrap(err, "GET "+url)
	}
	return resp, nil
}

func deadline(ctx context.Context, timeout time.Duration) time.Time {
	if dl, ok := ctx.Deadline(); ok {
		return dl
	}
	return time.Now().Add(timeout)
}
