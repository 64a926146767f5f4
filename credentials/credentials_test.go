package credentials

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

// testEncryptionKey is a fixed 32-byte key for testing (hex-encoded to 64 chars)
const testEncryptionKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

// setupTestEnv sets up the test environment with a fixed encryption key
func setupTestEnv(t *testing.T, tempDir string) func() {
	t.Helper()

	originalConfigDir := os.Getenv("RECAP_CONFIG_DIR")
	originalEncKey := os.Getenv("RECAP_ENCRYPTION_KEY")
	originalGroq := os.Getenv("GROQ_API_KEY")

	os.Setenv("RECAP_CONFIG_DIR", tempDir)
	os.Setenv("RECAP_ENCRYPTION_KEY", testEncryptionKey)
	os.Unsetenv("GROQ_API_KEY")

	return func() {
		restore := func(key, val string) {
			if val != "" {
				os.Setenv(key, val)
			} else {
				os.Unsetenv(key)
			}
		}
		restore("RECAP_CONFIG_DIR", originalConfigDir)
		restore("RECAP_ENCRYPTION_KEY", originalEncKey)
		restore("GROQ_API_KEY", originalGroq)
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStoreWithKeyProvider(NewEnvKeyProvider("RECAP_ENCRYPTION_KEY"))
	if err != nil {
		t.Fatalf("NewStoreWithKeyProvider() error = %v", err)
	}
	return store
}

func TestCredentialsDir(t *testing.T) {
	originalEnv := os.Getenv("RECAP_CONFIG_DIR")
	defer os.Setenv("RECAP_CONFIG_DIR", originalEnv)

	os.Unsetenv("RECAP_CONFIG_DIR")

	dir, err := CredentialsDir()
	if err != nil {
		t.Fatalf("CredentialsDir() error = %v", err)
	}

	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, DefaultCredentialsDir)
	if dir != expected {
		t.Errorf("CredentialsDir() = %v, want %v", dir, expected)
	}

	customDir := "/tmp/test-recap-creds"
	os.Setenv("RECAP_CONFIG_DIR", customDir)

	dir, err = CredentialsDir()
	if err != nil {
		t.Fatalf("CredentialsDir() with env error = %v", err)
	}
	if dir != customDir {
		t.Errorf("CredentialsDir() with env = %v, want %v", dir, customDir)
	}
}

func TestSetAndGetSecret(t *testing.T) {
	tempDir := t.TempDir()
	cleanup := setupTestEnv(t, tempDir)
	defer cleanup()

	store := newTestStore(t)

	if err := store.SetSecret(ServiceGroq, "gsk_test_12345"); err != nil {
		t.Fatalf("SetSecret() error = %v", err)
	}

	got, err := store.GetSecret(ServiceGroq)
	if err != nil {
		t.Fatalf("GetSecret() error = %v", err)
	}
	if got != "gsk_test_12345" {
		t.Errorf("GetSecret() = %v, want gsk_test_12345", got)
	}
}

func TestSecretsEncryptedAtRest(t *testing.T) {
	tempDir := t.TempDir()
	cleanup := setupTestEnv(t, tempDir)
	defer cleanup()

	store := newTestStore(t)

	secret := "ghp_supersecret_token"
	if err := store.SetSecret(ServiceGitHub, secret); err != nil {
		t.Fatalf("SetSecret() error = %v", err)
	}

	// The file on disk must not contain the plaintext
	data, err := os.ReadFile(filepath.Join(tempDir, DefaultCredentialsFile))
	if err != nil {
		t.Fatalf("reading credentials file: %v", err)
	}
	if strings.Contains(string(data), secret) {
		t.Error("credentials file contains plaintext secret")
	}

	var stored Credentials
	if err := yaml.Unmarshal(data, &stored); err != nil {
		t.Fatalf("parsing credentials file: %v", err)
	}
	if stored.Secrets[ServiceGitHub] == secret {
		t.Error("stored secret is not encrypted")
	}
	if stored.LastUpdated.IsZero() {
		t.Error("LastUpdated not set")
	}
}

func TestGetSecretEnvOverride(t *testing.T) {
	tempDir := t.TempDir()
	cleanup := setupTestEnv(t, tempDir)
	defer cleanup()

	store := newTestStore(t)

	if err := store.SetSecret(ServiceGroq, "stored-value"); err != nil {
		t.Fatalf("SetSecret() error = %v", err)
	}

	os.Setenv("GROQ_API_KEY", "env-value")
	defer os.Unsetenv("GROQ_API_KEY")

	got, err := store.GetSecret(ServiceGroq)
	if err != nil {
		t.Fatalf("GetSecret() error = %v", err)
	}
	if got != "env-value" {
		t.Errorf("GetSecret() = %v, want env override", got)
	}
}

func TestGetSecretMissing(t *testing.T) {
	tempDir := t.TempDir()
	cleanup := setupTestEnv(t, tempDir)
	defer cleanup()

	store := newTestStore(t)

	_, err := store.GetSecret(ServiceAsana)
	if !errors.Is(err, ErrNoCredentials) {
		t.Errorf("GetSecret() error = %v, want ErrNoCredentials", err)
	}
}

func TestUnknownService(t *testing.T) {
	tempDir := t.TempDir()
	cleanup := setupTestEnv(t, tempDir)
	defer cleanup()

	store := newTestStore(t)

	if err := store.SetSecret("jira", "x"); !errors.Is(err, ErrUnknownService) {
		t.Errorf("SetSecret() error = %v, want ErrUnknownService", err)
	}
	if _, err := store.GetSecret("jira"); !errors.Is(err, ErrUnknownService) {
		t.Errorf("GetSecret() error = %v, want ErrUnknownService", err)
	}
}

func TestDeleteSecret(t *testing.T) {
	tempDir := t.TempDir()
	cleanup := setupTestEnv(t, tempDir)
	defer cleanup()

	store := newTestStore(t)

	if err := store.SetSecret(ServiceSMTP, "hunter2"); err != nil {
		t.Fatalf("SetSecret() error = %v", err)
	}
	if err := store.SetSecret(ServiceGroq, "gsk_keep"); err != nil {
		t.Fatalf("SetSecret() error = %v", err)
	}

	if err := store.DeleteSecret(ServiceSMTP); err != nil {
		t.Fatalf("DeleteSecret() error = %v", err)
	}

	if _, err := store.GetSecret(ServiceSMTP); !errors.Is(err, ErrNoCredentials) {
		t.Errorf("GetSecret() after delete error = %v, want ErrNoCredentials", err)
	}

	// Other secrets untouched
	if got, err := store.GetSecret(ServiceGroq); err != nil || got != "gsk_keep" {
		t.Errorf("GetSecret(groq) = %v, %v; want gsk_keep", got, err)
	}
}

func TestDeleteAll(t *testing.T) {
	tempDir := t.TempDir()
	cleanup := setupTestEnv(t, tempDir)
	defer cleanup()

	store := newTestStore(t)

	if err := store.SetSecret(ServiceGroq, "x"); err != nil {
		t.Fatalf("SetSecret() error = %v", err)
	}
	if !store.Exists() {
		t.Fatal("Exists() = false after save")
	}

	if err := store.Delete(); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if store.Exists() {
		t.Error("Exists() = true after delete")
	}

	// Deleting again is a no-op
	if err := store.Delete(); err != nil {
		t.Errorf("Delete() second call error = %v", err)
	}
}

func TestFilePermissions(t *testing.T) {
	tempDir := t.TempDir()
	cleanup := setupTestEnv(t, tempDir)
	defer cleanup()

	store := newTestStore(t)
	if err := store.SetSecret(ServiceGroq, "x"); err != nil {
		t.Fatalf("SetSecret() error = %v", err)
	}

	info, err := os.Stat(filepath.Join(tempDir, DefaultCredentialsFile))
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		t.Errorf("File permissions = %o, want 0600", mode)
	}
}

func TestKnownServices(t *testing.T) {
	services := KnownServices()
	want := []string{ServiceAsana, ServiceGitHub, ServiceGroq, ServiceSMTP}
	if len(services) != len(want) {
		t.Fatalf("KnownServices() = %v, want %v", services, want)
	}
	for i := range want {
		if services[i] != want[i] {
			t.Errorf("KnownServices()[%d] = %v, want %v", i, services[i], want[i])
		}
	}
}

func TestMaskCredential(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"short", "*****"},
		{"gsk_abcdefghij", "gsk_******ghij"},
	}

	for _, tc := range tests {
		if got := MaskCredential(tc.in); got != tc.want {
			t.Errorf("MaskCredential(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
