package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigDir_Linux(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("linux-only test")
	}

	t.Run("uses XDG_CONFIG_HOME when set", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
		got, err := DefaultConfigDir()
		require.NoError(t, err)
		assert.Equal(t, "/tmp/xdg-config/assetcsv", got)
	})

	t.Run("falls back to ~/.config when XDG unset", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		home, err := os.UserHomeDir()
		require.NoError(t, err)

		got, err := DefaultConfigDir()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, ".config", "assetcsv"), got)
	})
}

func TestDefaultConfigDir_Darwin(t *testing.T) {
	if runtime.GOOS != "darwin" {
		t.Skip("darwin-only test")
	}

	got, err := DefaultConfigDir()
	require.NoError(t, err)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "Library", "Application Support", "assetcsv"), got)
}

func TestDefaultConfigDir_PlatformOverride(t *testing.T) {
	orig := platformDir
	t.Cleanup(func() { platformDir = orig })
	platformDir.homeDir = func() (string, error) { return "/home/tester", nil }
	platformDir.userConfigDir = func() (string, error) { return "/appdata", nil }
	t.Setenv("XDG_CONFIG_HOME", "")

	got, err := DefaultConfigDir()
	require.NoError(t, err)
	if runtime.GOOS == "linux" {
		assert.Equal(t, filepath.Join("/home/tester", ".config", "assetcsv"), got)
	} else {
		assert.Equal(t, filepath.Join("/appdata", "assetcsv"), got)
	}
}

func TestResolveConfigDir(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := []struct {
		name    string
		flag    string
		envVal  string
		wantSub string // substring the result must contain
	}{
		{
			name:    "flag wins over env",
			flag:    "/explicit/config",
			envVal:  "/env/config",
			wantSub: "/explicit/config",
		},
		{
			name:    "env wins when flag empty",
			envVal:  "/env/config",
			wantSub: "/env/config",
		},
		{
			name:    "platform default when both empty",
			wantSub: "assetcsv",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvConfigDir, tt.envVal)
			got, err := ResolveConfigDir(tt.flag)
			require.NoError(t, err)
			assert.Contains(t, got, tt.wantSub)
		})
	}
}

func TestResolveConfigDir_ProjectLocal(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(EnvConfigDir, "")
	require.NoError(t, os.Mkdir(DefaultConfigDirName, 0o755))

	got, err := ResolveConfigDir("")
	require.NoError(t, err)
	want, err := filepath.Abs(DefaultConfigDirName)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestResolveDataDir(t *testing.T) {
	cwd, err := os.Getwd()
	require.NoError(t, err)
	cwdDefault := filepath.Join(cwd, DefaultDataDirName)

	tests := []struct {
		name          string
		flag          string
		configYAMLVal string
		envVal        string
		want          string
	}{
		{
			name:          "flag wins over all",
			flag:          "/flag/data",
			configYAMLVal: "/config/data",
			envVal:        "/env/data",
			want:          "/flag/data",
		},
		{
			name:          "config.yaml wins over env",
			configYAMLVal: "/config/data",
			envVal:        "/env/data",
			want:          "/config/data",
		},
		{
			name:   "env wins when flag and config empty",
			envVal: "/env/data",
			want:   "/env/data",
		},
		{
			name: "CWD default when all empty",
			want: cwdDefault,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvDataDir, tt.envVal)
			got, err := ResolveDataDir(tt.flag, tt.configYAMLVal)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveCSVDir(t *testing.T) {
	cwd, err := os.Getwd()
	require.NoError(t, err)

	t.Setenv(EnvCSVDir, "")
	got, err := ResolveCSVDir("", "", "Resources/CSV/Data")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cwd, "Resources", "CSV", "Data"), got)

	t.Setenv(EnvCSVDir, "/env/csv")
	got, err = ResolveCSVDir("", "", "Resources/CSV/Data")
	require.NoError(t, err)
	assert.Equal(t, "/env/csv", got)

	got, err = ResolveCSVDir("", "sheets", "Resources/CSV/Data")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got), "expected absolute path, got %s", got)
	assert.Equal(t, "sheets", filepath.Base(got))
}

func TestResolveDataDir_AbsolutePath(t *testing.T) {
	t.Run("relative flag becomes absolute", func(t *testing.T) {
		t.Setenv(EnvDataDir, "")
		got, err := ResolveDataDir("relative/path", "")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got), "expected absolute path, got %s", got)
	})

	t.Run("relative config value becomes absolute", func(t *testing.T) {
		t.Setenv(EnvDataDir, "")
		got, err := ResolveDataDir("", "relative/config")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got), "expected absolute path, got %s", got)
	})
}

func TestSheetPaths(t *testing.T) {
	root := filepath.Join("Resources", "CSV", "Data")
	assert.Equal(t, filepath.Join(root, "Item"), SheetDir(root, "Item"))
	assert.Equal(t, filepath.Join(root, "Item", "Item.csv"), SheetFile(root, "Item"))
}
