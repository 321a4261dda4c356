// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package onoffice provides a minimal read-only client for the onOffice API.
// It implements the crm capability contract: read actions for searches and
// lookups by id, and get actions for field metadata. Every command performs a
// single blocking request; there are no retries.
package onoffice

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"onoffice/cli/internal/crm"
	clierrors "onoffice/cli/internal/errors"
)

// DefaultURL is the stable onOffice API endpoint.
const DefaultURL = "https://api.onoffice.de/api/stable/api.php"

// Action identifiers.
const (
	ActionRead = "urn:onoffice-de-ns:smart:2.5:smartml:action:read"
	ActionGet  = "urn:onoffice-de-ns:smart:2.5:smartml:action:get"
)

// ResourceFields is the resource type serving field metadata.
const ResourceFields = "fields"

// Credentials authenticate API requests. Claim is optional and selects an
// extended claim for marketplace access.
type Credentials struct {
	Token  string
	Secret string
	Claim  string
}

// Client talks to the onOffice API over HTTPS.
type Client struct {
	// url is the api.php endpoint
	url string
	// creds sign every action
	creds Credentials
	// http is the underlying HTTP client with configured timeout
	http *http.Client
	log  zerolog.Logger

	now   func() time.Time
	newID func() string
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout sets the HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a client for the given endpoint.
func New(url string, creds Credentials, opts ...Option) *Client {
	if strings.TrimSpace(url) == "" {
		url = DefaultURL
	}
	c := &Client{
		url:   url,
		creds: creds,
		http:  &http.Client{Timeout: 30 * time.Second},
		log:   zerolog.Nop(),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Repository returns the capability handle for a resource type.
func (c *Client) Repository(resource string) crm.Repository {
	return &repository{client: c, resource: resource}
}

// FieldMetadata fetches the field definitions of a module.
func (c *Client) FieldMetadata(ctx context.Context, module string) ([]crm.Record, error) {
	params := map[string]any{
		"modules": []string{module},
	}
	c.addClaim(params)
	return c.execute(ctx, ActionGet, ResourceFields, "", params)
}

func (c *Client) addClaim(params map[string]any) {
	if c.creds.Claim != "" {
		params["extendedclaim"] = c.creds.Claim
	}
}

type action struct {
	ActionID     string         `json:"actionid"`
	ResourceID   string         `json:"resourceid"`
	ResourceType string         `json:"resourcetype"`
	Identifier   string         `json:"identifier"`
	Timestamp    int64          `json:"timestamp"`
	HMAC         string         `json:"hmac"`
	HMACVersion  string         `json:"hmac_version"`
	Parameters   map[string]any `json:"parameters"`
}

type request struct {
	Token   string `json:"token"`
	Request struct {
		Actions []action `json:"actions"`
	} `json:"request"`
}

type status struct {
	Code      int    `json:"code"`
	ErrorCode int    `json:"errorcode"`
	Message   string `json:"message"`
}

type result struct {
	ActionID     string `json:"actionid"`
	ResourceType string `json:"resourcetype"`
	Identifier   string `json:"identifier"`
	Data         struct {
		Records []crm.Record `json:"records"`
	} `json:"data"`
	Status status `json:"status"`
}

type response struct {
	Status   status `json:"status"`
	Response struct {
		Results []result `json:"results"`
	} `json:"response"`
}

// Sign computes the version 2 HMAC of an action.
func Sign(secret string, timestamp int64, token, resourceType, actionID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10) + token + resourceType + actionID))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// execute sends a single action and returns its records.
func (c *Client) execute(ctx context.Context, actionID, resourceType, resourceID string, params map[string]any) ([]crm.Record, error) {
	if c.creds.Token == "" || c.creds.Secret == "" {
		return nil, clierrors.New(clierrors.Validation,
			"API token and secret are required: set ONOFFICE_API_TOKEN and ONOFFICE_API_SECRET or run 'onoffice credentials set'")
	}

	ts := c.now().Unix()
	act := action{
		ActionID:     actionID,
		ResourceID:   resourceID,
		ResourceType: resourceType,
		Identifier:   c.newID(),
		Timestamp:    ts,
		HMAC:         Sign(c.creds.Secret, ts, c.creds.Token, resourceType, actionID),
		HMACVersion:  "2",
		Parameters:   params,
	}

	var body request
	body.Token = c.creds.Token
	body.Request.Actions = []action{act}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "onoffice-cli/1.0")

	c.log.Debug().
		Str("resource", resourceType).
		Str("resource_id", resourceID).
		Str("action", actionID).
		Str("identifier", act.Identifier).
		Msg("sending request")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.log.Debug().
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Int("bytes", len(raw)).
		Msg("received response")

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("onOffice API returned HTTP %d: %s", resp.StatusCode, snippet(raw))
	}

	var out response
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if out.Status.Code != http.StatusOK {
		return nil, fmt.Errorf("onOffice API error %d: %s", out.Status.Code, out.Status.Message)
	}
	if len(out.Response.Results) == 0 {
		return nil, fmt.Errorf("onOffice API returned no results for %s", resourceType)
	}

	res := out.Response.Results[0]
	if res.Status.ErrorCode != 0 {
		return nil, fmt.Errorf("onOffice API error %d: %s", res.Status.ErrorCode, res.Status.Message)
	}
	return res.Data.Records, nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
