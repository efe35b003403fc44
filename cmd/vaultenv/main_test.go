package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elysia/vaultenv/internal/config"
	"github.com/elysia/vaultenv/internal/secrets"
)

const vaultDocument = `db_password: "p@ss word"
retries: 3
debug: true
vaultenv_cli_token: tok-123
`

// newProject writes the vault files and a stand-in decryption command that
// prints doc (or fails with stderr when exitCode is non-zero).
func newProject(t *testing.T, doc string, exitCode int) (root, command string) {
	t.Helper()
	root = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "secrets.yml"), []byte("$ANSIBLE_VAULT;1.1;AES256\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".vault_password"), []byte("hunter2\n"), 0o600))

	script := "#!/bin/sh\n"
	if exitCode != 0 {
		script += "echo 'ERROR! Decryption failed (no vault secrets were found that could decrypt)' >&2\n"
		script += "exit 1\n"
	} else {
		script += "cat <<'YAML'\n" + doc + "YAML\n"
	}
	command = filepath.Join(root, "fake-ansible-vault")
	require.NoError(t, os.WriteFile(command, []byte(script), 0o755))
	return root, command
}

func runCLI(t *testing.T, args ...string) (stdout, stderr string, code int) {
	t.Helper()

	for _, name := range []string{
		"VAULTENV_PROJECT_ROOT", "VAULTENV_SECRETS_FILE", "VAULTENV_PASSWORD_FILE",
		"VAULTENV_DECRYPT_COMMAND", "VAULTENV_LOG_LEVEL", "VAULTENV_LOG_FORMAT",
		"VAULTENV_METRICS_FILE", "VAULTENV_TRACING_ENABLED", "VAULTENV_CORRELATION_ID",
	} {
		t.Setenv(name, "")
	}
	projectRoot, secretsFile, passwordFile, decryptCommand = "", "", "", ""
	logLevel, logFormat, metricsFile = "", "", ""
	showOutput, showReveal = formatEnv, false
	doctorOutput = "text"
	exportFormat = exportFormatShell

	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return out.String(), errOut.String(), code
}

func TestShellQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"s3cr3t", "s3cr3t"},
		{"", "''"},
		{"p@ss$word", `p@ss\$word`},
		{"a;b", `a\;b`},
		{"p@ss word", "'p@ss word'"},
		{"it's here", `'it'\''s here'`},
		{"wow! $HOME", "'wow! $HOME'"},
		{"line1\nline2", "'line1\nline2'"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, shellQuote(tt.in))
		})
	}
}

func TestValidShellName(t *testing.T) {
	assert.True(t, validShellName("DB_PASSWORD"))
	assert.True(t, validShellName("_X1"))
	assert.False(t, validShellName(""))
	assert.False(t, validShellName("1PASSWORD"))
	assert.False(t, validShellName("API-KEY"))
	assert.False(t, validShellName("A.B"))
}

func TestRenderMapping(t *testing.T) {
	mapping := secrets.Mapping{"db_password": "s3cr3t", "retries": 3}

	t.Run("env masked", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, renderMapping(&buf, mapping, formatEnv, false))
		assert.Equal(t, "DB_PASSWORD=********\nRETRIES=********\n", buf.String())
	})

	t.Run("env revealed", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, renderMapping(&buf, mapping, formatEnv, true))
		assert.Equal(t, "DB_PASSWORD=s3cr3t\nRETRIES=3\n", buf.String())
	})

	t.Run("yaml revealed", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, renderMapping(&buf, mapping, formatYAML, true))
		assert.Equal(t, "db_password: s3cr3t\nretries: 3\n", buf.String())
	})

	t.Run("json masked", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, renderMapping(&buf, mapping, formatJSON, false))
		var got map[string]string
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, map[string]string{"db_password": maskedValue, "retries": maskedValue}, got)
	})

	t.Run("unknown format", func(t *testing.T) {
		err := renderMapping(&bytes.Buffer{}, mapping, "toml", false)
		assert.ErrorContains(t, err, `unknown output format "toml"`)
	})
}

func TestTroubleshootingHints(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "missing secrets file",
			err:  &secrets.NotFoundError{Kind: "secrets file", Path: "/p/secrets.yml", Err: os.ErrNotExist},
			want: "ansible-vault create /p/secrets.yml",
		},
		{
			name: "missing password file",
			err:  &secrets.NotFoundError{Kind: "password file", Path: "/p/.vault_password", Err: os.ErrNotExist},
			want: "Create the password file at /p/.vault_password",
		},
		{
			name: "missing binary",
			err:  &secrets.DecryptionError{Command: "ansible-vault", ExitCode: -1, Err: errors.New("not found")},
			want: "pip install ansible",
		},
		{
			name: "wrong password",
			err:  &secrets.DecryptionError{Command: "ansible-vault", ExitCode: 1, Stderr: "Decryption failed"},
			want: "right vault password",
		},
		{
			name: "parse error",
			err:  &secrets.ParseError{Err: errors.New("bad")},
			want: "YAML mapping",
		},
		{
			name: "unknown key",
			err:  secrets.ErrKeyNotFound,
			want: "vaultenv show",
		},
		{
			name: "invalid config",
			err:  &config.ValidationError{Errors: []error{errors.New("bad level")}},
			want: "VAULTENV_*",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hints := troubleshootingHints(tt.err)
			require.NotEmpty(t, hints)
			assert.Contains(t, hints[0], tt.want)
		})
	}

	assert.Empty(t, troubleshootingHints(errors.New("something else")))
}

func TestCLI_Show(t *testing.T) {
	root, command := newProject(t, vaultDocument, 0)

	stdout, _, code := runCLI(t, "show", "--project-root", root, "--decrypt-command", command)
	require.Equal(t, 0, code)
	assert.Equal(t,
		"DB_PASSWORD=********\nDEBUG=********\nRETRIES=********\nVAULTENV_CLI_TOKEN=********\n",
		stdout)

	stdout, _, code = runCLI(t, "show", "--reveal", "-o", "json", "--project-root", root, "--decrypt-command", command)
	require.Equal(t, 0, code)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, "p@ss word", got["db_password"])
	assert.Equal(t, float64(3), got["retries"])
	assert.Equal(t, true, got["debug"])
}

func TestCLI_Get(t *testing.T) {
	root, command := newProject(t, vaultDocument, 0)

	stdout, _, code := runCLI(t, "get", "retries", "--project-root", root, "--decrypt-command", command)
	require.Equal(t, 0, code)
	assert.Equal(t, "3\n", stdout)

	_, stderr, code := runCLI(t, "get", "missing", "--project-root", root, "--decrypt-command", command)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "secret key not found")
	assert.Contains(t, stderr, "vaultenv show")
}

func TestCLI_Export(t *testing.T) {
	root, command := newProject(t, vaultDocument+"api-key: skipped\n", 0)

	stdout, stderr, code := runCLI(t, "export", "--project-root", root, "--decrypt-command", command)
	require.Equal(t, 0, code)
	assert.Equal(t,
		"export DB_PASSWORD='p@ss word'\n"+
			"export DEBUG=true\n"+
			"export RETRIES=3\n"+
			"export VAULTENV_CLI_TOKEN=tok-123\n",
		stdout)
	assert.Contains(t, stderr, "API-KEY")
}

func TestCLI_ExportDotenv(t *testing.T) {
	root, command := newProject(t, vaultDocument+"pin: \"007\"\n", 0)

	stdout, _, code := runCLI(t, "export", "--format", "dotenv", "--project-root", root, "--decrypt-command", command)
	require.Equal(t, 0, code)
	assert.Equal(t,
		"DB_PASSWORD=\"p@ss word\"\n"+
			"DEBUG=\"true\"\n"+
			"PIN=\"007\"\n"+
			"RETRIES=3\n"+
			"VAULTENV_CLI_TOKEN=\"tok-123\"\n",
		stdout)

	parsed, err := godotenv.Unmarshal(stdout)
	require.NoError(t, err)
	assert.Equal(t, "p@ss word", parsed["DB_PASSWORD"])
	assert.Equal(t, "007", parsed["PIN"])
	assert.Equal(t, "3", parsed["RETRIES"])
}

func TestMarshalDotenv_KeepsIntegerLikeText(t *testing.T) {
	env := map[string]string{
		"PIN":     "007",
		"PLUS":    "+5",
		"NEG_0":   "-0",
		"NEG":     "-12",
		"PORT":    "5432",
		"ACCOUNT": "000123456",
	}

	content, err := marshalDotenv(env)
	require.NoError(t, err)
	assert.Equal(t,
		"ACCOUNT=\"000123456\"\n"+
			"NEG=-12\n"+
			"NEG_0=\"-0\"\n"+
			"PIN=\"007\"\n"+
			"PLUS=\"+5\"\n"+
			"PORT=5432",
		content)

	parsed, err := godotenv.Unmarshal(content)
	require.NoError(t, err)
	assert.Equal(t, env, parsed)
}

func TestMarshalDotenv_Empty(t *testing.T) {
	content, err := marshalDotenv(map[string]string{})
	require.NoError(t, err)
	assert.Empty(t, content)
}

func TestCLI_Exec(t *testing.T) {
	root, command := newProject(t, vaultDocument, 0)
	t.Setenv("VAULTENV_CLI_TOKEN", "stale")
	t.Setenv("DB_PASSWORD", "")
	t.Setenv("RETRIES", "")
	t.Setenv("DEBUG", "")

	stdout, _, code := runCLI(t, "--project-root", root, "--decrypt-command", command,
		"exec", "--", "sh", "-c", `printf '%s|%s' "$VAULTENV_CLI_TOKEN" "$DB_PASSWORD"`)
	require.Equal(t, 0, code)
	assert.Equal(t, "tok-123|p@ss word", stdout)
}

func TestCLI_ExecPropagatesExitCode(t *testing.T) {
	root, command := newProject(t, vaultDocument, 0)
	t.Setenv("VAULTENV_CLI_TOKEN", "")
	t.Setenv("DB_PASSWORD", "")
	t.Setenv("RETRIES", "")
	t.Setenv("DEBUG", "")

	_, stderr, code := runCLI(t, "--project-root", root, "--decrypt-command", command,
		"exec", "--", "sh", "-c", "exit 3")
	assert.Equal(t, 3, code)
	assert.Empty(t, stderr)
}

func TestCLI_MissingSecretsFile(t *testing.T) {
	root := t.TempDir()

	_, stderr, code := runCLI(t, "show", "--project-root", root)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "vault secrets file not found: "+filepath.Join(root, "secrets.yml"))
	assert.Contains(t, stderr, "Troubleshooting:")
	assert.Contains(t, stderr, "ansible-vault create")
}

func TestCLI_DecryptionFailure(t *testing.T) {
	root, command := newProject(t, "", 1)

	_, stderr, code := runCLI(t, "show", "--project-root", root, "--decrypt-command", command)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "failed to decrypt vault file: ERROR! Decryption failed")
	assert.Contains(t, stderr, "right vault password")
	assert.Equal(t, 1, strings.Count(stderr, "Decryption failed"))
	assert.NotContains(t, stderr, "command completed")
}

func TestCLI_InvalidFlagValue(t *testing.T) {
	_, stderr, code := runCLI(t, "show", "--log-level", "loud")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "VAULTENV_LOG_LEVEL must be one of")
}

func TestCLI_MetricsTextfile(t *testing.T) {
	root, command := newProject(t, vaultDocument, 0)
	path := filepath.Join(t.TempDir(), "vaultenv.prom")

	_, _, code := runCLI(t, "show", "--project-root", root, "--decrypt-command", command, "--metrics-file", path)
	require.Equal(t, 0, code)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `vaultenv_vault_loads_total{outcome="success"} 1`)
	assert.Contains(t, string(data), "vaultenv_vault_secrets_loaded 4")
}

func TestCLI_Doctor(t *testing.T) {
	root, command := newProject(t, vaultDocument, 0)

	stdout, _, code := runCLI(t, "doctor", "--project-root", root, "--decrypt-command", command)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "secrets file")
	assert.Contains(t, stdout, "decrypted")
	assert.NotContains(t, stdout, "fail")
}

func TestCLI_DoctorReportsFirstFailure(t *testing.T) {
	root := t.TempDir()

	stdout, stderr, code := runCLI(t, "doctor", "-o", "json", "--project-root", root)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "one or more checks failed")

	var report struct {
		Status  string `json:"status"`
		Results []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Equal(t, "unhealthy", report.Status)
	require.Len(t, report.Results, 4)
	assert.Equal(t, "unhealthy", report.Results[0].Status)
	assert.Equal(t, "skipped", report.Results[3].Status)
}

func TestCLI_Version(t *testing.T) {
	stdout, _, code := runCLI(t, "version", "--log-level", "loud")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "vaultenv dev")
}
