// Package credentials provides secure credential storage for the recap CLI.
// It stores per-service secrets (Groq, GitHub, Asana, SMTP) in
// ~/.recap/credentials.yaml with encryption for sensitive data at rest.
//
// Encryption Key Storage:
// The encryption key is stored securely using the system keyring:
// - macOS: Keychain
// - Windows: Credential Manager
// - Linux: Secret Service (libsecret)
//
// For CI/testing environments, set RECAP_ENCRYPTION_KEY to a 64-character
// hex string (32 bytes).
package credentials

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Credential storage constants.
const (
	DefaultCredentialsDir  = ".recap"
	DefaultCredentialsFile = "credentials.yaml"
)

// Known service names.
const (
	ServiceGroq   = "groq"
	ServiceGitHub = "github"
	ServiceAsana  = "asana"
	ServiceSMTP   = "smtp"
)

// envOverrides maps service names to environment variables that take
// precedence over the stored credential.
var envOverrides = map[string]string{
	ServiceGroq:   "GROQ_API_KEY",
	ServiceGitHub: "GITHUB_TOKEN",
	ServiceAsana:  "ASANA_PAT",
	ServiceSMTP:   "SMTP_PASSWORD",
}

// Common errors.
var (
	// ErrNoCredentials is returned when no credentials are stored.
	ErrNoCredentials = errors.New("no credentials stored")
	// ErrUnknownService is returned for a service name outside the known set.
	ErrUnknownService = errors.New("unknown service")
	// ErrEncryptionFailed is returned when encryption/decryption fails.
	ErrEncryptionFailed = errors.New("encryption failed")
)

// Credentials holds the stored per-service secrets.
type Credentials struct {
	// Secrets maps service name to the secret value (encrypted at rest).
	Secrets map[string]string `yaml:"secrets"`
	// LastUpdated is when the credentials were last updated.
	LastUpdated time.Time `yaml:"last_updated"`
}

// Store manages credential storage operations.
type Store struct {
	// credentialsDir is the directory containing credentials.
	credentialsDir string
	// encryptionKey is the key used for encrypting/decrypting credentials.
	encryptionKey []byte
	// keyProvider is the source of the encryption key.
	keyProvider KeyProvider
}

// NewStore creates a new credential store with default settings.
// It uses the system keyring (macOS Keychain, Windows Credential Manager,
// or Linux Secret Service) to store the encryption key securely.
func NewStore() (*Store, error) {
	keyProvider, err := GetDefaultKeyProvider()
	if err != nil {
		return nil, fmt.Errorf("initializing key provider: %w", err)
	}
	return NewStoreWithKeyProvider(keyProvider)
}

// NewStoreWithKeyProvider creates a new credential store with a custom key provider.
func NewStoreWithKeyProvider(keyProvider KeyProvider) (*Store, error) {
	dir, err := CredentialsDir()
	if err != nil {
		return nil, fmt.Errorf("getting credentials directory: %w", err)
	}

	key, err := keyProvider.GetKey()
	if err != nil {
		return nil, fmt.Errorf("getting encryption key: %w", err)
	}

	return &Store{
		credentialsDir: dir,
		encryptionKey:  key,
		keyProvider:    keyProvider,
	}, nil
}

// KeyDescription returns a human-readable description of where the
// encryption key is stored.
func (s *Store) KeyDescription() string {
	return s.keyProvider.Description()
}

// CredentialsDir returns the credentials directory path.
// Uses $RECAP_CONFIG_DIR if set, otherwise ~/.recap
func CredentialsDir() (string, error) {
	if dir := os.Getenv("RECAP_CONFIG_DIR"); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	return filepath.Join(home, DefaultCredentialsDir), nil
}

// CredentialsPath returns the full path to the credentials file.
func CredentialsPath() (string, error) {
	dir, err := CredentialsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultCredentialsFile), nil
}

// KnownServices returns the recognized service names in sorted order.
func KnownServices() []string {
	services := make([]string, 0, len(envOverrides))
	for name := range envOverrides {
		services = append(services, name)
	}
	sort.Strings(services)
	return services
}

// IsKnownService reports whether the service name is recognized.
func IsKnownService(service string) bool {
	_, ok := envOverrides[service]
	return ok
}

// EnvVarFor returns the environment variable that overrides the stored
// secret for a service, or "" for unknown services.
func EnvVarFor(service string) string {
	return envOverrides[service]
}

// SetSecret stores the secret for a service, creating or updating the
// credentials file.
func (s *Store) SetSecret(service, secret string) error {
	if !IsKnownService(service) {
		return fmt.Errorf("%w: %q", ErrUnknownService, service)
	}

	creds, err := s.Load()
	if err != nil {
		if !errors.Is(err, ErrNoCredentials) {
			return err
		}
		creds = &Credentials{Secrets: make(map[string]string)}
	}
	if creds.Secrets == nil {
		creds.Secrets = make(map[string]string)
	}

	creds.Secrets[service] = secret
	return s.Save(creds)
}

// GetSecret returns the secret for a service. Environment variables
// (GROQ_API_KEY, GITHUB_TOKEN, ASANA_PAT, SMTP_PASSWORD) take precedence
// over stored values.
func (s *Store) GetSecret(service string) (string, error) {
	envVar, ok := envOverrides[service]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownService, service)
	}
	if v := os.Getenv(envVar); v != "" {
		return v, nil
	}

	creds, err := s.Load()
	if err != nil {
		return "", err
	}

	secret, ok := creds.Secrets[service]
	if !ok || secret == "" {
		return "", fmt.Errorf("%w: no secret for %s (set %s or run 'recap auth set %s')",
			ErrNoCredentials, service, envVar, service)
	}
	return secret, nil
}

// DeleteSecret removes the secret for a single service.
func (s *Store) DeleteSecret(service string) error {
	if !IsKnownService(service) {
		return fmt.Errorf("%w: %q", ErrUnknownService, service)
	}

	creds, err := s.Load()
	if err != nil {
		if errors.Is(err, ErrNoCredentials) {
			return nil
		}
		return err
	}

	delete(creds.Secrets, service)
	return s.Save(creds)
}

// Save stores credentials to the credentials file.
func (s *Store) Save(creds *Credentials) error {
	if err := s.ensureDir(); err != nil {
		return fmt.Errorf("creating credentials directory: %w", err)
	}

	// Encrypt secrets before writing
	storage := Credentials{
		Secrets:     make(map[string]string, len(creds.Secrets)),
		LastUpdated: time.Now(),
	}
	for service, secret := range creds.Secrets {
		if secret == "" {
			continue
		}
		encrypted, err := s.encrypt(secret)
		if err != nil {
			return fmt.Errorf("encrypting %s secret: %w", service, err)
		}
		storage.Secrets[service] = encrypted
	}

	data, err := yaml.Marshal(&storage)
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}

	// Write with restrictive permissions
	credPath := filepath.Join(s.credentialsDir, DefaultCredentialsFile)
	if err := os.WriteFile(credPath, data, 0600); err != nil {
		return fmt.Errorf("writing credentials file: %w", err)
	}

	return nil
}

// Load reads credentials from the credentials file.
func (s *Store) Load() (*Credentials, error) {
	credPath := filepath.Join(s.credentialsDir, DefaultCredentialsFile)

	data, err := os.ReadFile(credPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoCredentials
		}
		return nil, fmt.Errorf("reading credentials file: %w", err)
	}

	var stored Credentials
	if err := yaml.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}

	creds := Credentials{
		Secrets:     make(map[string]string, len(stored.Secrets)),
		LastUpdated: stored.LastUpdated,
	}
	for service, encrypted := range stored.Secrets {
		decrypted, err := s.decrypt(encrypted)
		if err != nil {
			return nil, fmt.Errorf("decrypting %s secret: %w", service, err)
		}
		creds.Secrets[service] = decrypted
	}

	return &creds, nil
}

// Delete removes all stored credentials.
func (s *Store) Delete() error {
	credPath := filepath.Join(s.credentialsDir, DefaultCredentialsFile)

	if err := os.Remove(credPath); err != nil {
		if os.IsNotExist(err) {
			return nil // Already deleted
		}
		return fmt.Errorf("removing credentials file: %w", err)
	}

	return nil
}

// Exists checks if credentials file exists.
func (s *Store) Exists() bool {
	credPath := filepath.Join(s.credentialsDir, DefaultCredentialsFile)
	_, err := os.Stat(credPath)
	return err == nil
}

// ensureDir creates the credentials directory if it doesn't exist.
func (s *Store) ensureDir() error {
	return os.MkdirAll(s.credentialsDir, 0700)
}

// encrypt encrypts a string using AES-GCM.
func (s *Store) encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(s.encryptionKey)
	if err != nil {
		return "", fmt.Errorf("%w: creating cipher: %v", ErrEncryptionFailed, err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("%w: creating GCM: %v", ErrEncryptionFailed, err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("%w: generating nonce: %v", ErrEncryptionFailed, err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// decrypt decrypts an AES-GCM encrypted string.
func (s *Store) decrypt(ciphertext string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: decoding base64: %v", ErrEncryptionFailed, err)
	}

	block, err := aes.NewCipher(s.encryptionKey)
	if err != nil {
		return "", fmt.Errorf("%w: creating cipher: %v", ErrEncryptionFailed, err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("%w: creating GCM: %v", ErrEncryptionFailed, err)
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("%w: ciphertext too short", ErrEncryptionFailed)
	}

	nonce, ciphertextBytes := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertextBytes, nil)
	if err != nil {
		return "", fmt.Errorf("%w: decryption failed: %v", ErrEncryptionFailed, err)
	}

	return string(plaintext), nil
}

// MaskCredential returns a masked version of the credential for display.
func MaskCredential(cred string) string {
	if len(cred) <= 8 {
		return strings.Repeat("*", len(cred))
	}
	return cred[:4] + strings.Repeat("*", len(cred)-8) + cred[len(cred)-4:]
}
