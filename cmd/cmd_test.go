// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/99designs/keyring"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onoffice/cli/internal/keychain"
	"onoffice/cli/internal/onoffice"
)

func init() {
	pterm.DisableStyling()
}

// apiAction is the part of an onOffice action the fake API inspects.
type apiAction struct {
	ActionID     string         `json:"actionid"`
	ResourceID   string         `json:"resourceid"`
	ResourceType string         `json:"resourcetype"`
	HMAC         string         `json:"hmac"`
	Timestamp    int64          `json:"timestamp"`
	Parameters   map[string]any `json:"parameters"`
}

// fakeAPI serves read and get actions from canned records.
type fakeAPI struct {
	mu       sync.Mutex
	tokens   []string
	actions  []apiAction
	records  map[string][]map[string]any
	fields   []map[string]any
	failWith string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token   string `json:"token"`
		Request struct {
			Actions []apiAction `json:"actions"`
		} `json:"request"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	act := body.Request.Actions[0]

	f.mu.Lock()
	f.tokens = append(f.tokens, body.Token)
	f.actions = append(f.actions, act)
	f.mu.Unlock()

	if f.failWith != "" {
		writeJSON(w, map[string]any{
			"status": map[string]any{"code": 200},
			"response": map[string]any{"results": []any{map[string]any{
				"status": map[string]any{"errorcode": 500, "message": f.failWith},
			}}},
		})
		return
	}

	var records []map[string]any
	switch {
	case act.ActionID == onoffice.ActionGet && act.ResourceType == onoffice.ResourceFields:
		records = f.fields
	case act.ResourceID != "":
		for _, rec := range f.records[act.ResourceType] {
			if jsonNumber(rec["id"]) == act.ResourceID {
				records = append(records, rec)
			}
		}
	default:
		records = f.records[act.ResourceType]
	}
	if records == nil {
		records = []map[string]any{}
	}

	writeJSON(w, map[string]any{
		"status": map[string]any{"code": 200, "errorcode": 0, "message": "OK"},
		"response": map[string]any{"results": []any{map[string]any{
			"actionid":     act.ActionID,
			"resourcetype": act.ResourceType,
			"data": map[string]any{
				"meta":    map[string]any{"cntabsolute": len(records)},
				"records": records,
			},
			"status": map[string]any{"errorcode": 0, "message": "OK"},
		}}},
	})
}

func (f *fakeAPI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.actions)
}

func (f *fakeAPI) last() apiAction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.actions[len(f.actions)-1]
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func jsonNumber(v any) string {
	b, _ := json.Marshal(v)
	return strings.Trim(string(b), `"`)
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		records: map[string][]map[string]any{
			"estate": {
				{"id": 11, "type": "estate", "elements": map[string]any{"Id": "11", "ort": "Aachen", "kaufpreis": 250000}},
				{"id": 12, "type": "estate", "elements": map[string]any{"Id": "12", "ort": "Bonn", "kaufpreis": 410000}},
			},
			"agentslog": {
				{"id": 7, "type": "agentslog", "elements": map[string]any{"Aktionsart": "Email"}},
			},
		},
		fields: []map[string]any{{
			"id":   "estate",
			"type": "",
			"elements": map[string]any{
				"kaufpreis":   map[string]any{"type": "float", "length": nil, "permittedvalues": nil, "default": nil},
				"mietpreis":   map[string]any{"type": "float"},
				"ort":         map[string]any{"type": "varchar", "length": 100},
				"wohnflaeche": map[string]any{"type": "float"},
				"objekttyp": map[string]any{
					"type":            "singleselect",
					"permittedvalues": map[string]any{"haus": "Haus", "wohnung": "Wohnung"},
					"default":         "haus",
				},
			},
		}},
	}
}

// setup isolates config, state and keychain and points the CLI at a fake API.
func setup(t *testing.T) *fakeAPI {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	t.Setenv("ONOFFICE_API_TOKEN", "test-token")
	t.Setenv("ONOFFICE_API_SECRET", "test-secret")
	t.Setenv("ONOFFICE_API_CLAIM", "")
	t.Setenv("ONOFFICE_LOG_LEVEL", "")

	api := newFakeAPI()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	t.Setenv("ONOFFICE_API_URL", srv.URL)

	keychain.SetManager(keychain.NewWithRing(keyring.NewArrayKeyring(nil)))
	t.Cleanup(func() { keychain.SetManager(nil) })
	return api
}

// resetFlags restores every flag to its default so runs do not leak state.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, stdin string, args ...string) (string, string, int) {
	t.Helper()
	resetFlags(rootCmd)
	rootCmd.SetIn(strings.NewReader(stdin))
	t.Cleanup(func() { rootCmd.SetIn(nil) })

	var out, errOut bytes.Buffer
	code := run(context.Background(), args, &out, &errOut)
	return out.String(), errOut.String(), code
}

type envelope struct {
	Data json.RawMessage `json:"data"`
	Meta map[string]any  `json:"meta"`
}

type errorPayload struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func decodeEnvelope(t *testing.T, s string) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal([]byte(s), &env), s)
	return env
}

func decodeError(t *testing.T, s string) errorPayload {
	t.Helper()
	var p errorPayload
	require.NoError(t, json.Unmarshal([]byte(s), &p), s)
	return p
}

func TestSearch_JSON(t *testing.T) {
	api := setup(t)

	out, errOut, code := execute(t, "", "search", "Estate",
		"--where", "status=1",
		"--where", "kaufpreis<500000",
		"--where", "ort like %Aa%",
		"--select", "Id,ort", "--select", "kaufpreis",
		"--orderBy", "kaufpreis", "--orderByDesc", "Id",
		"--limit", "10", "--offset", "5",
		"--json")
	require.Equal(t, 0, code, errOut)

	env := decodeEnvelope(t, out)
	var records []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &records))
	assert.Len(t, records, 2)
	assert.Equal(t, float64(11), records[0]["id"])
	assert.Equal(t, map[string]any{"total": float64(2), "limit": float64(10), "offset": float64(5), "entity": "estate"}, env.Meta)

	act := api.last()
	assert.Equal(t, onoffice.ActionRead, act.ActionID)
	assert.Equal(t, "estate", act.ResourceType)
	assert.Equal(t, onoffice.Sign("test-secret", act.Timestamp, "test-token", "estate", onoffice.ActionRead), act.HMAC)
	assert.Equal(t, []any{"Id", "ort", "kaufpreis"}, act.Parameters["data"])
	assert.Equal(t, map[string]any{
		"status":    []any{map[string]any{"op": "=", "val": float64(1)}},
		"kaufpreis": []any{map[string]any{"op": "<", "val": float64(500000)}},
		"ort":       []any{map[string]any{"op": "like", "val": "%Aa%"}},
	}, act.Parameters["filter"])
	assert.Equal(t, map[string]any{"kaufpreis": "ASC", "Id": "DESC"}, act.Parameters["sortby"])
	assert.Equal(t, float64(10), act.Parameters["listlimit"])
	assert.Equal(t, float64(5), act.Parameters["listoffset"])
}

func TestSearch_DefaultsMeta(t *testing.T) {
	setup(t)

	out, _, code := execute(t, "", "search", "activity", "--json")
	require.Equal(t, 0, code)

	env := decodeEnvelope(t, out)
	assert.Equal(t, map[string]any{"total": float64(1), "limit": nil, "offset": float64(0), "entity": "activity"}, env.Meta)
}

func TestSearch_Human(t *testing.T) {
	setup(t)

	out, errOut, code := execute(t, "", "search", "estate")
	require.Equal(t, 0, code, errOut)
	assert.True(t, strings.HasPrefix(out, "Found 2 record(s)\n\n"), out)
	assert.Contains(t, out, "Aachen")
	assert.Contains(t, out, "410000")
}

func TestSearch_HumanPipedOutputIsPlain(t *testing.T) {
	setup(t)
	pterm.EnableStyling()
	t.Cleanup(pterm.DisableStyling)

	out, errOut, code := execute(t, "", "search", "estate")
	require.Equal(t, 0, code, errOut)
	assert.True(t, pterm.RawOutput, "styling is disabled when stdout is not a terminal")
	assert.NotContains(t, out, "\x1b[")
	assert.Contains(t, out, "Aachen")
}

func TestSearch_Failures(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		message string
		code    int
	}{
		{"bad where", []string{"search", "estate", "--where", "kaufpreis", "--json"},
			"Invalid where clause 'kaufpreis': no valid operator found. Supported operators: =, !=, <, >, <=, >=, like, not like", 400},
		{"empty value", []string{"search", "estate", "--where", "ort=", "--json"},
			"Invalid where clause 'ort=': value is required", 400},
		{"unknown entity", []string{"search", "widget", "--json"},
			"Unknown entity 'widget'. Available: activity, address, estate, field, file, filter, lastseen, link, log, macro, marketplace, relation, searchcriteria, setting", 400},
		{"negative limit", []string{"search", "estate", "--limit=-1", "--json"}, "Limit must be a positive integer", 400},
		{"zero limit", []string{"search", "estate", "--limit", "0", "--json"}, "Limit must be a positive integer", 400},
		{"non-numeric limit", []string{"search", "estate", "--limit", "ten", "--json"}, "Limit must be a positive integer", 400},
		{"negative offset", []string{"search", "estate", "--offset=-1", "--json"}, "Offset must be a non-negative integer", 400},
		{"non-numeric offset", []string{"search", "estate", "--offset", "five", "--json"}, "Offset must be a non-negative integer", 400},
		{"unknown entity before limit", []string{"search", "bogus", "--limit=abc", "--json"},
			"Unknown entity 'bogus'. Available: activity, address, estate, field, file, filter, lastseen, link, log, macro, marketplace, relation, searchcriteria, setting", 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := setup(t)

			out, _, code := execute(t, "", tt.args...)
			assert.Equal(t, 1, code)

			p := decodeError(t, out)
			assert.True(t, p.Error)
			assert.Equal(t, tt.message, p.Message)
			assert.Equal(t, tt.code, p.Code)
			assert.Zero(t, api.calls(), "no request for invalid input")
		})
	}
}

func TestIntFlag(t *testing.T) {
	assert.Equal(t, 25, intFlag(" 25 ", 0))
	assert.Equal(t, -3, intFlag("-3", 0))
	assert.Equal(t, 0, intFlag("abc", 0))
	assert.Equal(t, -1, intFlag("1.5", -1))
}

func TestSearch_APIError(t *testing.T) {
	api := setup(t)
	api.failWith = "Resource not accessible"

	out, _, code := execute(t, "", "search", "estate", "--json")
	assert.Equal(t, 1, code)

	p := decodeError(t, out)
	assert.Equal(t, 500, p.Code)
	assert.Contains(t, p.Message, "Resource not accessible")
}

func TestSearch_HumanErrorGoesToStderr(t *testing.T) {
	setup(t)

	out, errOut, code := execute(t, "", "search", "widget")
	assert.Equal(t, 1, code)
	assert.Empty(t, out)
	assert.True(t, strings.HasPrefix(errOut, "Error: Unknown entity 'widget'"), errOut)
}

func TestGet(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		api := setup(t)

		out, errOut, code := execute(t, "", "get", "estate", "12", "--select", "ort", "--json")
		require.Equal(t, 0, code, errOut)

		env := decodeEnvelope(t, out)
		var rec map[string]any
		require.NoError(t, json.Unmarshal(env.Data, &rec))
		assert.Equal(t, float64(12), rec["id"])
		assert.Equal(t, map[string]any{"entity": "estate"}, env.Meta)

		act := api.last()
		assert.Equal(t, "12", act.ResourceID)
		assert.Equal(t, []any{"ort"}, act.Parameters["data"])
	})

	t.Run("human", func(t *testing.T) {
		setup(t)

		out, _, code := execute(t, "", "get", "estate", "11")
		require.Equal(t, 0, code)
		assert.Equal(t, "Record ID: 11\n\n  Id: 11\n  kaufpreis: 250000\n  ort: Aachen\n", out)
	})

	t.Run("not found", func(t *testing.T) {
		setup(t)

		out, _, code := execute(t, "", "get", "estate", "999", "--json")
		assert.Equal(t, 1, code)
		p := decodeError(t, out)
		assert.Equal(t, "Record not found: estate #999", p.Message)
		assert.Equal(t, 404, p.Code)
	})

	t.Run("non-numeric id", func(t *testing.T) {
		api := setup(t)

		out, _, code := execute(t, "", "get", "estate", "abc", "--json")
		assert.Equal(t, 1, code)
		p := decodeError(t, out)
		assert.Equal(t, "ID must be numeric, got 'abc'", p.Message)
		assert.Equal(t, 400, p.Code)
		assert.Zero(t, api.calls())
	})

	t.Run("missing argument", func(t *testing.T) {
		setup(t)

		out, _, code := execute(t, "", "get", "estate", "--json")
		assert.Equal(t, 1, code)
		p := decodeError(t, out)
		assert.Equal(t, 400, p.Code)
		assert.Contains(t, p.Message, "get expects 2 argument(s), got 1")
	})
}

func TestFields(t *testing.T) {
	t.Run("compact JSON", func(t *testing.T) {
		api := setup(t)

		out, errOut, code := execute(t, "", "fields", "estate", "--filter", "*preis*", "--json")
		require.Equal(t, 0, code, errOut)

		env := decodeEnvelope(t, out)
		var fields []map[string]any
		require.NoError(t, json.Unmarshal(env.Data, &fields))
		assert.Equal(t, []map[string]any{
			{"name": "kaufpreis", "type": "float"},
			{"name": "mietpreis", "type": "float"},
		}, fields)
		assert.Equal(t, map[string]any{"entity": "estate", "module": "estate", "count": float64(2)}, env.Meta)

		act := api.last()
		assert.Equal(t, onoffice.ActionGet, act.ActionID)
		assert.Equal(t, []any{"estate"}, act.Parameters["modules"])
	})

	t.Run("activity uses agentslog module", func(t *testing.T) {
		api := setup(t)

		_, _, code := execute(t, "", "fields", "activity", "--json")
		require.Equal(t, 0, code)
		assert.Equal(t, []any{"agentslog"}, api.last().Parameters["modules"])
	})

	t.Run("single field", func(t *testing.T) {
		setup(t)

		out, _, code := execute(t, "", "fields", "estate", "--field", "OBJEKTTYP", "--json")
		require.Equal(t, 0, code)

		env := decodeEnvelope(t, out)
		var field map[string]any
		require.NoError(t, json.Unmarshal(env.Data, &field))
		assert.Equal(t, "objekttyp", field["name"])
		assert.Equal(t, "haus", field["default"])
		assert.Equal(t, map[string]any{"entity": "estate", "module": "estate"}, env.Meta)
	})

	t.Run("human full", func(t *testing.T) {
		setup(t)

		out, _, code := execute(t, "", "fields", "estate", "--full")
		require.Equal(t, 0, code)
		assert.True(t, strings.HasPrefix(out, "Fields for estate (5 total)\n\n"), out)
		assert.Contains(t, out, "Permitted Values")
		assert.Contains(t, out, "Haus, Wohnung")
	})

	t.Run("unsupported entity", func(t *testing.T) {
		api := setup(t)

		out, _, code := execute(t, "", "fields", "invalid", "--json")
		assert.Equal(t, 1, code)
		p := decodeError(t, out)
		assert.Equal(t, "Fields are not available for 'invalid'. Supported: activity, address, estate, searchcriteria", p.Message)
		assert.Equal(t, 400, p.Code)
		assert.Zero(t, api.calls())
	})

	t.Run("missing field", func(t *testing.T) {
		setup(t)

		out, _, code := execute(t, "", "fields", "estate", "--field", "nope", "--json")
		assert.Equal(t, 1, code)
		p := decodeError(t, out)
		assert.Equal(t, "Field 'nope' not found for estate", p.Message)
		assert.Equal(t, 404, p.Code)
	})
}

func TestEntities(t *testing.T) {
	setup(t)

	out, _, code := execute(t, "", "entities", "--json")
	require.Equal(t, 0, code)

	env := decodeEnvelope(t, out)
	var infos []map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &infos))
	require.Len(t, infos, 14)
	assert.Equal(t, map[string]string{"name": "activity", "resource": "agentslog"}, infos[0])
	assert.Equal(t, float64(14), env.Meta["count"])
}

func TestCredentials(t *testing.T) {
	api := setup(t)

	_, errOut, code := execute(t, "", "credentials", "set", "--token", "kc-token-1234", "--secret", "kc-secret-5678")
	require.Equal(t, 0, code, errOut)

	out, _, code := execute(t, "", "credentials", "show")
	require.Equal(t, 0, code)
	assert.Equal(t, "Token:  kc-t********\nSecret: kc-s********\n", out)
	assert.NotContains(t, out, "1234")

	// Stored credentials are used when the environment provides none.
	t.Setenv("ONOFFICE_API_TOKEN", "")
	t.Setenv("ONOFFICE_API_SECRET", "")
	_, errOut, code = execute(t, "", "search", "estate", "--json")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "kc-token-1234", api.tokens[len(api.tokens)-1])

	_, _, code = execute(t, "", "credentials", "clear")
	require.Equal(t, 0, code)

	out, _, code = execute(t, "", "search", "estate", "--json")
	assert.Equal(t, 1, code)
	p := decodeError(t, out)
	assert.Equal(t, 400, p.Code)
	assert.Contains(t, p.Message, "API token and secret are required")
}

func TestCredentialsSet_Prompts(t *testing.T) {
	setup(t)

	out, errOut, code := execute(t, "prompt-token\nprompt-secret\n", "credentials", "set")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "API token: API secret: ")

	km, err := keychain.GetManager()
	require.NoError(t, err)
	creds, err := km.LoadCredentials()
	require.NoError(t, err)
	assert.Equal(t, keychain.Credentials{Token: "prompt-token", Secret: "prompt-secret"}, creds)
}

func TestAPIClaimFlag(t *testing.T) {
	api := setup(t)

	_, _, code := execute(t, "", "--api-claim", "claim-42", "search", "estate", "--json")
	require.Equal(t, 0, code)
	assert.Equal(t, "claim-42", api.last().Parameters["extendedclaim"])
}

func TestConfigFlag_MissingFile(t *testing.T) {
	setup(t)

	out, _, code := execute(t, "", "--config", "/nonexistent/onoffice.yaml", "entities", "--json")
	assert.Equal(t, 1, code)
	p := decodeError(t, out)
	assert.Equal(t, 400, p.Code)
	assert.Contains(t, p.Message, "Configuration error")
}

func TestVersion(t *testing.T) {
	setup(t)

	out, _, code := execute(t, "", "version")
	require.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(out, "onoffice "+Version+" ("), out)
}

func TestUnknownFlag(t *testing.T) {
	setup(t)

	_, errOut, code := execute(t, "", "search", "estate", "--bogus")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Invalid flag")
}
