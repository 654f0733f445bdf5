package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// lightweight per-user token store (file, 0600) with AES-GCM obfuscation.
// Not a replacement for OS keychains but avoids plain-text config.

const fileName = "tokens.json"

// ErrNotFound is returned when no token is stored for a backend.
var ErrNotFound = errors.New("secrets: token not found")

type secretFile struct {
	Tokens map[string]string `json:"tokens"` // backend host -> base64(ciphertext)
}

// Store keeps admin tokens keyed by backend host.
type Store struct {
	dir string
}

// Open uses dir, or the user config directory when dir is empty.
func Open(dir string) (*Store, error) {
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(base, "dsadmin")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil { // restrict directory
		return nil, err
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path() string { return filepath.Join(s.dir, fileName) }

// HostKey reduces a backend base URL to the key tokens are stored under.
func HostKey(baseURL string) string {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Host == "" {
		return norm(baseURL)
	}
	return norm(u.Host)
}

func (s *Store) StoreToken(baseURL, token string) error {
	host := HostKey(baseURL)
	if host == "" {
		return fmt.Errorf("backend url required")
	}
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("token required")
	}
	sf, err := load(s.path())
	if err != nil {
		return err
	}
	if sf.Tokens == nil {
		sf.Tokens = map[string]string{}
	}
	ct, err := encrypt([]byte(strings.TrimSpace(token)))
	if err != nil {
		return err
	}
	sf.Tokens[host] = base64.StdEncoding.EncodeToString(ct)
	return save(s.path(), sf)
}

func (s *Store) FetchToken(baseURL string) (string, error) {
	host := HostKey(baseURL)
	if host == "" {
		return "", fmt.Errorf("backend url required")
	}
	sf, err := load(s.path())
	if err != nil {
		return "", err
	}
	enc, ok := sf.Tokens[host]
	if !ok {
		return "", ErrNotFound
	}
	raw, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return "", err
	}
	pt, err := decrypt(raw)
	if err != nil {
		return "", fmt.Errorf("decrypt token for %s: %w", host, err)
	}
	return string(pt), nil
}

func (s *Store) DeleteToken(baseURL string) error {
	host := HostKey(baseURL)
	if host == "" {
		return fmt.Errorf("backend url required")
	}
	sf, err := load(s.path())
	if err != nil {
		return err
	}
	if _, ok := sf.Tokens[host]; !ok {
		return ErrNotFound
	}
	delete(sf.Tokens, host)
	return save(s.path(), sf)
}

func load(path string) (secretFile, error) {
	var sf secretFile
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return secretFile{}, nil
		}
		return sf, err
	}
	if err := json.Unmarshal(data, &sf); err != nil {
		return sf, err
	}
	return sf, nil
}

func save(path string, sf secretFile) error {
	data, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func norm(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}

func masterKey() []byte {
	base := fmt.Sprintf("dsadmin-%s-%s", runtime.GOOS, os.Getenv("USER"))
	hash := sha256.Sum256([]byte(base))
	return hash[:]
}

func newGCM() (cipher.AEAD, error) {
	block, err := aes.NewCipher(masterKey())
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func encrypt(plain []byte) ([]byte, error) {
	gcm, err := newGCM()
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plain, nil), nil
}

func decrypt(ciphertext []byte) ([]byte, error) {
	gcm, err := newGCM()
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce := ciphertext[:gcm.NonceSize()]
	body := ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, body, nil)
}
