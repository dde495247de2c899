// Package e2e drives a running tempus server over plain HTTP. Scenarios
// provision their own tenant through the admin API, so the suite works
// against any instance started with TEMPUS_ADMIN_TOKEN; nothing here reaches
// into the server's internals.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Member is one provisioned identity inside the scenario's tenant.
type Member struct {
	ID   string
	Role string
}

// TestContext carries the HTTP client, the scenario's tenant, and the last
// response. Step packages consume it through their own narrow interfaces.
type TestContext struct {
	BaseURL    string
	AdminToken string

	client *http.Client

	tenantID string
	members  map[string]Member
	actor    string
	vars     map[string]string

	lastStatus int
	lastRaw    []byte
	lastFields map[string]any
}

// NewTestContext points the suite at a server base URL.
func NewTestContext(baseURL, adminToken string) *TestContext {
	return &TestContext{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		AdminToken: adminToken,
		client:     &http.Client{Timeout: 10 * time.Second},
		members:    map[string]Member{},
		vars:       map[string]string{},
	}
}

// Reset clears all per-scenario state. Each scenario provisions a fresh
// tenant, so scenarios never see each other's entries.
func (tc *TestContext) Reset() {
	tc.tenantID = ""
	tc.members = map[string]Member{}
	tc.actor = ""
	tc.vars = map[string]string{}
	tc.lastStatus = 0
	tc.lastRaw = nil
	tc.lastFields = nil
}

// CheckServer pings the health route so the suite can skip cleanly when no
// server is running.
func (tc *TestContext) CheckServer() error {
	resp, err := tc.client.Get(tc.BaseURL + "/healthz")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthz returned %d", resp.StatusCode)
	}
	return nil
}

// ProvisionTenant creates a uniquely named tenant plus the given members
// (display name to role) through the admin API.
func (tc *TestContext) ProvisionTenant(members map[string]string) error {
	name := "e2e-" + uuid.NewString()[:8]
	if err := tc.doAdmin(http.MethodPost, "/admin/tenants", map[string]any{"name": name}); err != nil {
		return err
	}
	if tc.lastStatus == http.StatusNotFound || tc.lastStatus == http.StatusUnauthorized {
		return fmt.Errorf("admin API not available (status %d); start the server with TEMPUS_ADMIN_TOKEN set and export TEMPUS_E2E_ADMIN_TOKEN", tc.lastStatus)
	}
	if tc.lastStatus != http.StatusCreated {
		return fmt.Errorf("create tenant: status %d: %s", tc.lastStatus, tc.lastRaw)
	}
	tenantID, err := tc.stringField("tenant_id")
	if err != nil {
		return err
	}
	tc.tenantID = tenantID

	for display, role := range members {
		body := map[string]any{"display_name": display, "role": role}
		if err := tc.doAdmin(http.MethodPost, "/admin/tenants/"+tc.tenantID+"/members", body); err != nil {
			return err
		}
		if tc.lastStatus != http.StatusCreated {
			return fmt.Errorf("create member %s: status %d: %s", display, tc.lastStatus, tc.lastRaw)
		}
		memberID, err := tc.stringField("member_id")
		if err != nil {
			return err
		}
		tc.members[display] = Member{ID: memberID, Role: role}
	}
	return nil
}

// ActAs switches the identity headers to the named member.
func (tc *TestContext) ActAs(name string) error {
	if _, ok := tc.members[name]; !ok {
		return fmt.Errorf("no member named %q was provisioned", name)
	}
	tc.actor = name
	return nil
}

// ActAnonymously drops the identity headers for the next requests.
func (tc *TestContext) ActAnonymously() {
	tc.actor = ""
}

// MemberID resolves a provisioned member's ID by display name.
func (tc *TestContext) MemberID(name string) (string, error) {
	m, ok := tc.members[name]
	if !ok {
		return "", fmt.Errorf("no member named %q was provisioned", name)
	}
	return m.ID, nil
}

func (tc *TestContext) POST(path string, body map[string]any) error {
	return tc.doActor(http.MethodPost, path, body)
}

func (tc *TestContext) PUT(path string, body map[string]any) error {
	return tc.doActor(http.MethodPut, path, body)
}

func (tc *TestContext) GET(path string) error {
	return tc.doActor(http.MethodGet, path, nil)
}

func (tc *TestContext) DELETE(path string) error {
	return tc.doActor(http.MethodDelete, path, nil)
}

// LastStatus returns the status code of the last response.
func (tc *TestContext) LastStatus() int {
	return tc.lastStatus
}

// LastBody returns the raw body of the last response, for error messages.
func (tc *TestContext) LastBody() string {
	return string(tc.lastRaw)
}

// Field resolves a dot path ("entries.0.status") against the last JSON
// response.
func (tc *TestContext) Field(path string) (any, error) {
	if tc.lastFields == nil {
		return nil, fmt.Errorf("last response was not a JSON object (status %d): %s", tc.lastStatus, tc.lastRaw)
	}
	var cur any = tc.lastFields
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, fmt.Errorf("field %q missing resolving %q in %s", seg, path, tc.lastRaw)
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("index %q out of range resolving %q", seg, path)
			}
			cur = node[i]
		default:
			return nil, fmt.Errorf("cannot descend into %q resolving %q", seg, path)
		}
	}
	return cur, nil
}

// Remember stores a scenario-scoped value, such as the entry created last.
func (tc *TestContext) Remember(key, value string) {
	tc.vars[key] = value
}

// Recall returns a value stored with Remember.
func (tc *TestContext) Recall(key string) (string, error) {
	v, ok := tc.vars[key]
	if !ok {
		return "", fmt.Errorf("nothing remembered under %q", key)
	}
	return v, nil
}

func (tc *TestContext) stringField(path string) (string, error) {
	v, err := tc.Field(path)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %q is %T, want string", path, v)
	}
	return s, nil
}

func (tc *TestContext) doActor(method, path string, body map[string]any) error {
	headers := map[string]string{}
	if tc.actor != "" {
		m, ok := tc.members[tc.actor]
		if !ok {
			return fmt.Errorf("acting member %q vanished", tc.actor)
		}
		headers["X-Tenant-ID"] = tc.tenantID
		headers["X-Member-ID"] = m.ID
	}
	return tc.do(method, path, body, headers)
}

func (tc *TestContext) doAdmin(method, path string, body map[string]any) error {
	return tc.do(method, path, body, map[string]string{"X-Admin-Token": tc.AdminToken})
}

func (tc *TestContext) do(method, path string, body map[string]any, headers map[string]string) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, tc.BaseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	tc.lastStatus = resp.StatusCode
	tc.lastRaw = raw
	tc.lastFields = nil
	if len(raw) > 0 {
		var fields map[string]any
		if json.Unmarshal(raw, &fields) == nil {
			tc.lastFields = fields
		}
	}
	return nil
}
