package commands_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build the binary once for all tests.
	tmpDir, err := os.MkdirTemp("", "finapp-test-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmpDir)

	binaryPath = filepath.Join(tmpDir, "finapp")
	cmd := exec.Command("go", "build", "-o", binaryPath, "../../cmd/finapp")
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic("failed to build binary: " + err.Error())
	}

	os.Exit(m.Run())
}

func runFinapp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(), "FINAPP_DATABASE_URL=", "FINAPP_DATABASE_DRIVER=", "FINAPP_BASE_CURRENCY=")
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func initMemory(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, err := runFinapp(t, "init", dir, "--driver", "memory", "--base-currency", "usd")
	require.NoError(t, err)
	return filepath.Join(dir, "finapp.yaml")
}

func TestInit_CreatesStructure(t *testing.T) {
	dir := t.TempDir()
	out, err := runFinapp(t, "init", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "base currency JPY")

	for _, d := range []string{"import", filepath.Join("import", "processed")} {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir(), "%s should be a directory", d)
	}
}

func TestInit_Config(t *testing.T) {
	dir := t.TempDir()
	_, err := runFinapp(t, "init", dir, "--base-currency", "eur", "--database-url", "postgres://db/finapp")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "finapp.yaml"))
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "base: EUR")
	assert.Contains(t, contents, "driver: postgres")
	assert.Contains(t, contents, "url: postgres://db/finapp")
}

func TestInit_RefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	_, err := runFinapp(t, "init", dir)
	require.NoError(t, err)

	out, err := runFinapp(t, "init", dir)
	require.Error(t, err)
	assert.Contains(t, out, "already exists")

	_, err = runFinapp(t, "init", dir, "--force", "--base-currency", "GBP")
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dir, "finapp.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "base: GBP")
}

func TestInit_RejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "bad currency", args: []string{"--base-currency", "dollars"}},
		{name: "unknown driver", args: []string{"--driver", "sqlite"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			_, err := runFinapp(t, append([]string{"init", dir}, tt.args...)...)
			require.Error(t, err)
			_, statErr := os.Stat(filepath.Join(dir, "finapp.yaml"))
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestVersion(t *testing.T) {
	out, err := runFinapp(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "finapp version")
}

func TestMigrate_MemoryDriver(t *testing.T) {
	cfg := initMemory(t)
	out, err := runFinapp(t, "migrate", "--config", cfg)
	require.NoError(t, err, out)
	assert.Contains(t, out, "nothing to migrate")
}

func TestMigrate_MissingConfig(t *testing.T) {
	out, err := runFinapp(t, "migrate", "--config", filepath.Join(t.TempDir(), "finapp.yaml"))
	require.Error(t, err)
	assert.Contains(t, out, "reading config")
}

func TestImport_UnknownAccount(t *testing.T) {
	cfg := initMemory(t)
	csvPath := filepath.Join(t.TempDir(), "bank.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("date,description,amount\n2024-06-01,Coffee,-4.50\n"), 0o644))

	out, err := runFinapp(t, "import", csvPath, "--config", cfg, "--account", "missing", "--user", "alice")
	require.Error(t, err)
	assert.Contains(t, out, "not found")
}

func TestImport_Validation(t *testing.T) {
	cfg := initMemory(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "no input", args: []string{"--account", "a", "--user", "u"}, want: "pass a file or --dir"},
		{name: "unknown format", args: []string{"x.csv", "--account", "a", "--user", "u", "--format", "ofx"}, want: "unknown format"},
		{name: "missing account", args: []string{"x.csv", "--user", "u"}, want: "account"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"import", "--config", cfg}, tt.args...)
			out, err := runFinapp(t, args...)
			require.Error(t, err)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestImport_EmptyDir(t *testing.T) {
	cfg := initMemory(t)
	out, err := runFinapp(t, "import", "--config", cfg, "--dir", t.TempDir(), "--account", "a", "--user", "u")
	require.NoError(t, err, out)
	assert.Contains(t, out, "No CSV files")
}

func TestExport_Header(t *testing.T) {
	cfg := initMemory(t)

	out, err := runFinapp(t, "export", "--config", cfg, "--user", "alice")
	require.NoError(t, err, out)
	assert.Contains(t, out, "id,date,kind,account_id")

	dest := filepath.Join(t.TempDir(), "accounts.csv")
	_, err = runFinapp(t, "export", "--config", cfg, "--user", "alice", "--what", "accounts", "-o", dest)
	require.NoError(t, err)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), "account_id,name")
}

func TestExport_BadWhat(t *testing.T) {
	cfg := initMemory(t)
	out, err := runFinapp(t, "export", "--config", cfg, "--user", "alice", "--what", "goals")
	require.Error(t, err)
	assert.Contains(t, out, "--what must be")
}
