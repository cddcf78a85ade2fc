package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_FileWithEnvOverlay(t *testing.T) {
	p := writeYAML(t, `
env: dev
http:
  port: "8081"
token:
  shared_secret: from-file
  validity_window: 30s
auth:
  jwt_secret: jwt-file
courses:
  - id: cs101
    name: Intro to Computer Science
    students: [s1, s2]
`)
	t.Setenv("TOKEN_SHARED_SECRET", "from-env")

	cfg, err := Load(p)
	require.NoError(t, err)

	require.Equal(t, "from-env", cfg.Token.SharedSecret)
	require.Equal(t, 30*time.Second, cfg.Token.ValidityWindow)
	require.Equal(t, 5*time.Second, cfg.Token.ClockSkew)
	require.Equal(t, time.Second, cfg.Token.TickInterval)
	require.Equal(t, "attendease", cfg.Token.Namespace)
	require.Equal(t, "0.0.0.0:8081", cfg.HTTP.Addr())
	require.Len(t, cfg.Courses, 1)
	require.Equal(t, []string{"s1", "s2"}, cfg.Courses[0].Students)
}

func TestLoad_ConfigPathEnv(t *testing.T) {
	p := writeYAML(t, `
token:
  shared_secret: s
auth:
  jwt_secret: j
ledger:
  path: /tmp/ledger.db
`)
	t.Setenv("CONFIG_PATH", p)

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "/tmp/ledger.db", cfg.Ledger.Path)
	require.Equal(t, 60*time.Second, cfg.Token.ValidityWindow)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_MissingSecret(t *testing.T) {
	p := writeYAML(t, `
auth:
  jwt_secret: j
`)
	t.Setenv("TOKEN_SHARED_SECRET", "")

	_, err := Load(p)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := Config{
		Token: TokenConfig{
			Namespace:      "attendease",
			SharedSecret:   "s",
			ValidityWindow: time.Minute,
			TickInterval:   time.Second,
		},
		Auth: AuthConfig{JWTSecret: "j"},
	}
	require.NoError(t, base.Validate())

	bad := base
	bad.Token.TickInterval = 2 * time.Minute
	require.Error(t, bad.Validate())

	bad = base
	bad.Token.ValidityWindow = 0
	require.Error(t, bad.Validate())

	bad = base
	bad.Auth.JWTSecret = ""
	require.Error(t, bad.Validate())

	bad = base
	bad.Courses = []CourseConfig{{Name: "no id"}}
	require.Error(t, bad.Validate())
}

func TestMustLoad_Panics(t *testing.T) {
	require.Panics(t, func() { MustLoad(filepath.Join(t.TempDir(), "nope.yaml")) })
}
