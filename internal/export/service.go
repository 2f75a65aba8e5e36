package export

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rpattn/landtitles/internal/titles"
)

// ErrResultNotFound is returned for unknown or expired result ids.
var ErrResultNotFound = errors.New("export result not found")

// Entry is one processed upload held for preview and download.
type Entry struct {
	ID        uuid.UUID
	Source    string
	Result    *titles.Result
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Service keeps processed results in memory and signs download links for them.
type Service struct {
	mu      sync.Mutex
	entries map[uuid.UUID]Entry

	resultTTL time.Duration
	now       func() time.Time

	downloadSigner *downloadSigner
}

type Option func(*Service)

// WithResultTTL sets how long a processed result stays downloadable.
func WithResultTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.resultTTL = ttl
		}
	}
}

// WithDownloadTokenTTL customizes the TTL for generated download links.
func WithDownloadTokenTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.downloadSigner = newDownloadSigner(ttl)
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(opts ...Option) *Service {
	service := &Service{
		entries:   make(map[uuid.UUID]Entry),
		resultTTL: 30 * time.Minute,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	if service.downloadSigner == nil {
		service.downloadSigner = newDownloadSigner(5 * time.Minute)
	}
	return service
}

// Put stores a result and returns its entry. Every call creates a new id.
func (s *Service) Put(source string, result *titles.Result) (Entry, error) {
	if result == nil || result.Full == nil || result.Compact == nil {
		return Entry{}, errors.New("result is incomplete")
	}
	now := s.now()
	entry := Entry{
		ID:        uuid.New(),
		Source:    source,
		Result:    result,
		CreatedAt: now,
		ExpiresAt: now.Add(s.resultTTL),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(now)
	s.entries[entry.ID] = entry
	return entry, nil
}

// Get returns a live entry.
func (s *Service) Get(id uuid.UUID) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok {
		return Entry{}, ErrResultNotFound
	}
	if !s.now().Before(entry.ExpiresAt) {
		delete(s.entries, id)
		return Entry{}, ErrResultNotFound
	}
	return entry, nil
}

// Len reports how many entries are held, expired ones included until swept.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Service) sweepLocked(now time.Time) {
	for id, entry := range s.entries {
		if !now.Before(entry.ExpiresAt) {
			delete(s.entries, id)
		}
	}
}

// BuildDownloadURL signs a short-lived download URL for a stored result.
func (s *Service) BuildDownloadURL(id uuid.UUID) string {
	token := s.downloadSigner.Sign(id, s.now())
	values := url.Values{}
	values.Set("token", token)
	return fmt.Sprintf("/exports/files/%s?%s", id.String(), values.Encode())
}

// ValidateDownloadToken ensures the token is valid for the given result.
func (s *Service) ValidateDownloadToken(id uuid.UUID, token string) error {
	return s.downloadSigner.Verify(id, token, s.now())
}

// Render builds the export workbook of a stored result.
func (s *Service) Render(id uuid.UUID) ([]byte, Entry, error) {
	entry, err := s.Get(id)
	if err != nil {
		return nil, Entry{}, err
	}
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, entry.Result.Full, entry.Result.Compact); err != nil {
		return nil, Entry{}, err
	}
	return buf.Bytes(), entry, nil
}

type downloadSigner struct {
	secret []byte
	ttl    time.Duration
}

func newDownloadSigner(ttl time.Duration) *downloadSigner {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &downloadSigner{secret: []byte(uuid.New().String()), ttl: ttl}
}

func (s *downloadSigner) Sign(id uuid.UUID, now time.Time) string {
	expires := now.Add(s.ttl).Unix()
	payload := fmt.Sprintf("%s:%d", id.String(), expires)
	raw := fmt.Sprintf("%s:%s", payload, s.mac(payload))
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func (s *downloadSigner) Verify(id uuid.UUID, token string, now time.Time) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("missing download token")
	}
	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return fmt.Errorf("decode token: %w", err)
	}
	parts := strings.Split(string(decoded), ":")
	if len(parts) != 3 {
		return errors.New("invalid token format")
	}
	if parts[0] != id.String() {
		return errors.New("token does not match export")
	}
	expires, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid token expiration: %w", err)
	}
	if now.Unix() > expires {
		return errors.New("download token expired")
	}
	expected, _ := hex.DecodeString(s.mac(parts[0] + ":" + parts[1]))
	provided, err := hex.DecodeString(parts[2])
	if err != nil {
		return fmt.Errorf("invalid token signature: %w", err)
	}
	if !hmac.Equal(expected, provided) {
		return errors.New("invalid download token")
	}
	return nil
}

func (s *downloadSigner) mac(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
