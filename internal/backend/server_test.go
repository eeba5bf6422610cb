/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"godiagram/internal/diagram"
)

func newTestServer(t *testing.T) (*httptest.Server, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	auth := NewAuth(store, "test-secret", time.Hour)
	auth.Cost = bcrypt.MinCost
	ts := httptest.NewServer(NewServer(store, auth, 1<<20).Router())
	t.Cleanup(ts.Close)
	return ts, store
}

func sampleDocument(t *testing.T, n int) []byte {
	t.Helper()
	sc := diagram.NewScene()
	for i := 0; i < n; i++ {
		sc.AddShape(diagram.NewRectangle(float64(i*120), 0, 100, 60))
	}
	doc := diagram.NewDocument()
	doc.Shapes = sc.Records()
	data, err := diagram.MarshalDocument(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func TestLibraryFlow(t *testing.T) {
	ts, _ := newTestServer(t)
	ctx := context.Background()
	c := NewClient(ts.URL+"/", "", 5*time.Second, false)

	if _, err := c.Register(ctx, "Ada@Example.com", "correct horse", "Ada"); err != nil {
		t.Fatalf("register: %v", err)
	}
	c.Token = ""
	res, err := c.Login(ctx, "ada@example.com", "correct horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if c.Token == "" || res.User.DisplayName != "Ada" {
		t.Fatalf("unexpected login result: %+v", res)
	}

	info, err := c.Publish(ctx, "", "flow", sampleDocument(t, 2))
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if info.Version != 1 || info.Shapes != 2 || info.Name != "flow" {
		t.Fatalf("publish info: %+v", info)
	}
	info2, err := c.Publish(ctx, info.ID, "", sampleDocument(t, 3))
	if err != nil {
		t.Fatalf("republish: %v", err)
	}
	if info2.ID != info.ID || info2.Version != 2 || info2.Name != "flow" {
		t.Fatalf("republish info: %+v", info2)
	}

	list, err := c.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Version != 2 {
		t.Fatalf("list: %+v", list)
	}

	latest, err := c.Fetch(ctx, info.ID, 0)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	sc, _, err := diagram.LoadScene(latest.Document)
	if err != nil {
		t.Fatalf("load fetched document: %v", err)
	}
	if sc.Len() != 3 {
		t.Fatalf("latest should have 3 shapes, got %d", sc.Len())
	}
	first, err := c.Fetch(ctx, info.ID, 1)
	if err != nil {
		t.Fatalf("fetch v1: %v", err)
	}
	if first.Version != 1 || first.Shapes != 2 {
		t.Fatalf("fetch v1: %+v", first.DiagramInfo)
	}

	revs, err := c.Revisions(ctx, info.ID)
	if err != nil {
		t.Fatalf("revisions: %v", err)
	}
	if len(revs) != 2 || revs[0].Version != 2 || revs[1].Version != 1 {
		t.Fatalf("revisions: %+v", revs)
	}

	if err := c.Delete(ctx, info.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := c.Fetch(ctx, info.ID, 0); !IsNotFound(err) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestAPIRequiresToken(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/diagrams")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status: %d", resp.StatusCode)
	}

	c := NewClient(ts.URL, "not-a-token", 0, false)
	_, err = c.List(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized || apiErr.Message != "invalid token" {
		t.Fatalf("expected invalid token error, got %v", err)
	}
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %d", resp.StatusCode)
	}
}

func TestPublishRejectsInvalidDocument(t *testing.T) {
	ts, store := newTestServer(t)
	ctx := context.Background()
	c := NewClient(ts.URL, "", 0, false)
	if _, err := c.Register(ctx, "bob@example.com", "password1", "Bob"); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := c.Publish(ctx, "", "bad", []byte(`{"shapes": 42}`))
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
	if !strings.HasPrefix(apiErr.Message, "invalid document") {
		t.Fatalf("message: %q", apiErr.Message)
	}
	if len(store.diagrams) != 0 {
		t.Fatalf("nothing should be stored")
	}
}

func TestRegisterValidation(t *testing.T) {
	ts, _ := newTestServer(t)
	ctx := context.Background()
	c := NewClient(ts.URL, "", 0, false)
	_, err := c.Register(ctx, "x@example.com", "short", "X")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 for short password, got %v", err)
	}
	if _, err := c.Register(ctx, "x@example.com", "long-enough", "X"); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err = c.Register(ctx, "X@example.com ", "long-enough", "X")
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %v", err)
	}
	_, err = c.Login(ctx, "x@example.com", "wrong-password")
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %v", err)
	}
}

func TestDiagramsAreScopedToOwner(t *testing.T) {
	ts, _ := newTestServer(t)
	ctx := context.Background()
	alice := NewClient(ts.URL, "", 0, false)
	mallory := NewClient(ts.URL, "", 0, false)
	if _, err := alice.Register(ctx, "alice@example.com", "password-a", "Alice"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := mallory.Register(ctx, "mallory@example.com", "password-m", "Mallory"); err != nil {
		t.Fatalf("register: %v", err)
	}
	info, err := alice.Publish(ctx, "", "private", sampleDocument(t, 1))
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if _, err := mallory.Fetch(ctx, info.ID, 0); !IsNotFound(err) {
		t.Fatalf("fetch foreign: %v", err)
	}
	if _, err := mallory.Publish(ctx, info.ID, "", sampleDocument(t, 1)); !IsNotFound(err) {
		t.Fatalf("publish foreign: %v", err)
	}
	if err := mallory.Delete(ctx, info.ID); !IsNotFound(err) {
		t.Fatalf("delete foreign: %v", err)
	}
	list, err := mallory.List(ctx)
	if err != nil || len(list) != 0 {
		t.Fatalf("mallory list: %v %+v", err, list)
	}
}

func TestTokenExpiry(t *testing.T) {
	a := NewAuth(NewMemoryStore(), "s", time.Minute)
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return base }
	tok, err := a.IssueToken("u1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if id, err := a.ValidateToken(tok); err != nil || id != "u1" {
		t.Fatalf("validate: %q %v", id, err)
	}
	a.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, err := a.ValidateToken(tok); err == nil {
		t.Fatalf("expected expired token to fail")
	}
	other := NewAuth(NewMemoryStore(), "other", time.Minute)
	other.now = func() time.Time { return base }
	if _, err := other.ValidateToken(tok); err == nil {
		t.Fatalf("expected signature mismatch")
	}
}

func TestLoadServerConfig(t *testing.T) {
	t.Setenv("GDG_SERVER_PORT", "9090")
	t.Setenv("GDG_JWT_TTL", "2h")
	cfg, err := LoadServerConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr() != ":9090" || cfg.JWTTTL != 2*time.Hour || cfg.JWTSecret == "" {
		t.Fatalf("cfg: %+v", cfg)
	}
}

func TestParseVersion(t *testing.T) {
	if v, err := parseVersion("migrations/0001_init.sql"); err != nil || v != 1 {
		t.Fatalf("got %d %v", v, err)
	}
	if _, err := parseVersion("init.sql"); err == nil {
		t.Fatalf("expected error")
	}
}
