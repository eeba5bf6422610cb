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
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client talks to the diagram library server.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
}

// NewClient creates a library client. baseURL may include a trailing slash; it will be normalized.
// A zero timeout uses 10s.
func NewClient(baseURL, token string, timeout time.Duration, tlsInsecure bool) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	hc := &http.Client{Timeout: timeout}
	if tlsInsecure {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for self-signed dev servers
		hc.Transport = tr
	}
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), Token: token, client: hc}
}

// APIError is a non-2xx server response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("server: %d %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, dest any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return err
	}
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var msg struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&msg) == nil {
			apiErr.Message = msg.Error
		}
		return apiErr
	}
	if dest == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

// Register creates an account and keeps the returned token.
func (c *Client) Register(ctx context.Context, email, password, displayName string) (*AuthResult, error) {
	var res AuthResult
	req := registerRequest{Email: email, Password: password, DisplayName: displayName}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/register", req, &res); err != nil {
		return nil, err
	}
	c.Token = res.Token
	return &res, nil
}

// Login authenticates and keeps the returned token.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var res AuthResult
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, &res); err != nil {
		return nil, err
	}
	c.Token = res.Token
	return &res, nil
}

// List returns the caller's diagrams, most recently updated first.
func (c *Client) List(ctx context.Context) ([]DiagramInfo, error) {
	var list []DiagramInfo
	if err := c.doJSON(ctx, http.MethodGet, "/api/diagrams", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Publish uploads doc as a new diagram (empty id) or as the next revision of id.
func (c *Client) Publish(ctx context.Context, id, name string, doc []byte) (*DiagramInfo, error) {
	var info DiagramInfo
	req := PublishRequest{ID: id, Name: name, Document: json.RawMessage(doc)}
	if err := c.doJSON(ctx, http.MethodPost, "/api/diagrams", req, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Fetch downloads a revision; version <= 0 selects the latest.
func (c *Client) Fetch(ctx context.Context, id string, version int) (*DiagramPayload, error) {
	path := "/api/diagrams/" + url.PathEscape(id)
	if version > 0 {
		path += "?version=" + strconv.Itoa(version)
	}
	var p DiagramPayload
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/diagrams/"+url.PathEscape(id), nil, nil)
}

func (c *Client) Revisions(ctx context.Context, id string) ([]RevisionInfo, error) {
	var list []RevisionInfo
	if err := c.doJSON(ctx, http.MethodGet, "/api/diagrams/"+url.PathEscape(id)+"/revisions", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}
