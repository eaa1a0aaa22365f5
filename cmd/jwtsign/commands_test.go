package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(args, "--"+flagEnvPrefix, "JWTSIGNCMDTEST_"))

	err := cmd.Execute()
	return out.String(), err
}

func TestSignVerifyDecode(t *testing.T) {
	token, err := runCommand(t, "",
		"sign", `{"role":"admin"}`,
		"--key", "cli-secret",
		"--sub", "user-1",
		"--aud", "api",
		"--exp", "3600",
		"--random-jti",
		"--typ", "JWT",
	)
	require.NoError(t, err)
	token = strings.TrimSpace(token)
	require.Equal(t, 2, strings.Count(token, "."))

	out, err := runCommand(t, token, "verify", "-", "--key", "cli-secret", "--aud", "api", "--sub", "user-1")
	require.NoError(t, err)

	var claims map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &claims))
	assert.Equal(t, "admin", claims["role"])
	assert.Equal(t, "user-1", claims["sub"])
	assert.Equal(t, "api", claims["aud"])
	assert.NotEmpty(t, claims["jti"])
	assert.Contains(t, claims, "iat")
	assert.Contains(t, claims, "exp")

	out, err = runCommand(t, "", "decode", token, "--complete")
	require.NoError(t, err)

	var complete map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &complete))
	assert.Equal(t, map[string]any{"alg": "HS256", "typ": "JWT"}, complete["header"])
	assert.Equal(t, token[strings.LastIndex(token, ".")+1:], complete["signature"])
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	token, err := runCommand(t, "", "sign", "{}", "--key", "right")
	require.NoError(t, err)

	_, err = runCommand(t, "", "verify", strings.TrimSpace(token), "--key", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid signature")
}

func TestSignUsesConfigFile(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "secret")
	require.NoError(t, os.WriteFile(keyFile, []byte("file-secret"), 0o600))

	configFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(`
key:
  file: `+keyFile+`
sign:
  algorithm: HS384
  issuer: https://issuer.example
verify:
  algorithms: [HS384]
  issuer: [https://issuer.example]
`), 0o600))

	token, err := runCommand(t, "", "sign", "{}", "-c", configFile)
	require.NoError(t, err)

	out, err := runCommand(t, "", "verify", strings.TrimSpace(token), "-c", configFile, "--complete")
	require.NoError(t, err)

	var complete map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &complete))
	assert.Equal(t, "HS384", complete["header"].(map[string]any)["alg"])
	assert.Equal(t, "https://issuer.example", complete["payload"].(map[string]any)["iss"])
}

func TestSignErrors(t *testing.T) {
	for uc, tc := range map[string]struct {
		args []string
		msg  string
	}{
		"payload is not an object": {
			args: []string{"sign", "[1,2]", "--key", "k"},
			msg:  "payload is not a JSON object",
		},
		"no key": {
			args: []string{"sign", "{}"},
			msg:  "no key given",
		},
		"unsupported algorithm": {
			args: []string{"sign", "{}", "--key", "k", "--alg", "ES512"},
			msg:  "Unsupported algorithm",
		},
		"expires before valid": {
			args: []string{"sign", "{}", "--key", "k", "--exp", "10", "--nbf", "20"},
			msg:  "expire before",
		},
	} {
		t.Run(uc, func(t *testing.T) {
			_, err := runCommand(t, "", tc.args...)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}
