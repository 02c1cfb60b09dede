package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telhawk-systems/hookrelay/internal/tokens"
	"gopkg.in/yaml.v3"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCommandsRegistered(t *testing.T) {
	expected := map[string]bool{"serve": false, "transform": false, "seed": false, "token": false}
	for _, c := range NewRootCmd().Commands() {
		if _, ok := expected[c.Name()]; ok {
			expected[c.Name()] = true
		}
	}
	for name, found := range expected {
		assert.True(t, found, "expected command %q to be registered", name)
	}
}

func TestTransform_JSONFromStdin(t *testing.T) {
	body := `{"repository":{"full_name":"test/repo"},"pusher":{"name":"testuser"},"commits":[{},{}]}`
	out, err := run(t, body, "transform", "--source", "github", "--format", "discord")
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "New push to test/repo by testuser with 2 commits.", got["content"])
}

func TestTransform_YAMLFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "charge.json")
	body := `{"data":{"object":{"amount":1000,"currency":"usd","billing_details":{"email":"test@example.com"}}}}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	out, err := run(t, "", "transform", "--source", "stripe", "--format", "msteams", "--file", path, "-o", "yaml")
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, "MessageCard", got["@type"])
	assert.Contains(t, out, "10.0 USD")
}

func TestTransform_Rejects(t *testing.T) {
	_, err := run(t, `{}`, "transform", "--source", "nope")
	assert.Error(t, err)

	_, err = run(t, `[1,2]`, "transform")
	assert.Error(t, err)

	_, err = run(t, `{}`, "transform", "-o", "xml")
	assert.Error(t, err)
}

func TestTokenIssue(t *testing.T) {
	t.Setenv("HOOKRELAY_AUTH_JWT_SECRET", "cli-secret")

	out, err := run(t, "", "token", "issue", "--identity", "user@example.com")
	require.NoError(t, err)

	var pair tokens.Pair
	require.NoError(t, json.Unmarshal([]byte(out), &pair))

	m := tokens.NewManager("cli-secret", 0, 0)
	claims, err := m.Validate(pair.AccessToken, tokens.KindAccess)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", claims.Identity)
	assert.True(t, claims.Fresh)

	_, err = m.Validate(pair.RefreshToken, tokens.KindRefresh)
	assert.NoError(t, err)
}

func TestTokenIssue_RequiresIdentity(t *testing.T) {
	t.Setenv("HOOKRELAY_AUTH_JWT_SECRET", "cli-secret")
	_, err := run(t, "", "token", "issue")
	assert.Error(t, err)
}

func TestWriteOutput_YAMLUsesJSONNames(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeOutput(&buf, outputYAML, tokens.Pair{AccessToken: "a", RefreshToken: "r"}))
	assert.Equal(t, "access_token: a\nrefresh_token: r\n", buf.String())
}

func TestSeed_PostsToURL(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "github", r.URL.Query().Get("source"))
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	out, err := run(t, "", "seed", "--url", srv.URL, "--source", "github", "--count", "2", "--seed", "9")
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
	assert.JSONEq(t, `{"sent":2,"failed":0}`, out)
}
