package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rpattn/landtitles/internal/logger"
	"github.com/rpattn/landtitles/internal/table"
)

// DefaultMaxUploadBytes caps an upload at 32 MiB.
const DefaultMaxUploadBytes int64 = 32 << 20

// Service turns an uploaded file into a table set.
type Service struct {
	allowHostDrivers bool
	dbOptions        DatabaseOptions
	tempDir          string
	maxUploadBytes   int64
	log              *logger.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithHostDatabaseDrivers enables database formats that depend on a driver
// installed on the host (Access via ODBC).
func WithHostDatabaseDrivers(allow bool) Option {
	return func(s *Service) {
		s.allowHostDrivers = allow
	}
}

// WithODBCDriver overrides the ODBC driver name used for Access files.
func WithODBCDriver(name string) Option {
	return func(s *Service) {
		s.dbOptions.ODBCDriver = name
	}
}

// WithTempDir sets where database uploads are spooled before opening.
func WithTempDir(dir string) Option {
	return func(s *Service) {
		s.tempDir = dir
	}
}

// WithMaxUploadBytes caps the accepted upload size.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(log *logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService creates an ingestion service.
func NewService(opts ...Option) *Service {
	s := &Service{
		maxUploadBytes: DefaultMaxUploadBytes,
		log:            logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Request describes one upload.
type Request struct {
	FileName string
	Data     io.Reader
}

// CheckFormat validates a file name before any byte is read. It returns
// ErrUnsupportedFormat or ErrUnsupportedEnvironment.
func (s *Service) CheckFormat(fileName string) (Format, error) {
	ext := Extension(fileName)
	switch DetectFormat(fileName) {
	case FormatWorkbook:
		return FormatWorkbook, nil
	case FormatDatabase:
		dialect, _ := lookupDialect(ext)
		if dialect.HostDriver && !s.allowHostDrivers {
			return FormatDatabase, fmt.Errorf("%w: %s files are disabled, upload .xlsx instead", ErrUnsupportedEnvironment, ext)
		}
		if !dialect.driverAvailable() {
			return FormatDatabase, fmt.Errorf("%w: %s driver is not available in this build", ErrUnsupportedEnvironment, dialect.DriverName)
		}
		return FormatDatabase, nil
	default:
		if ext == "" {
			ext = "(none)"
		}
		return FormatUnknown, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// Load reads the upload with the source matching its extension.
func (s *Service) Load(ctx context.Context, req Request) (*table.Set, error) {
	format, err := s.CheckFormat(req.FileName)
	if err != nil {
		return nil, err
	}
	if req.Data == nil {
		return nil, errors.New("data reader is required")
	}

	payload, err := io.ReadAll(io.LimitReader(req.Data, s.maxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(payload)) > s.maxUploadBytes {
		return nil, fmt.Errorf("upload exceeds %d bytes", s.maxUploadBytes)
	}
	if len(payload) == 0 {
		return nil, errors.New("file is empty")
	}

	var set *table.Set
	switch format {
	case FormatWorkbook:
		set, err = NewWorkbookSource(payload).Tables(ctx)
	case FormatDatabase:
		set, err = s.loadDatabase(ctx, req.FileName, payload)
	}
	if err != nil {
		return nil, err
	}

	s.log.Info("upload loaded", map[string]interface{}{
		"file":   req.FileName,
		"format": string(format),
		"tables": set.Names(),
	})
	return set, nil
}

func (s *Service) loadDatabase(ctx context.Context, fileName string, payload []byte) (*table.Set, error) {
	ext := Extension(fileName)
	dialect, _ := lookupDialect(ext)

	path, cleanup, err := spool(s.tempDir, ext, payload)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	return NewDatabaseSource(path, dialect, s.dbOptions).Tables(ctx)
}

// spool writes payload to a temp file; drivers need a filesystem path.
func spool(dir, ext string, payload []byte) (string, func(), error) {
	file, err := os.CreateTemp(dir, "upload-*"+ext)
	if err != nil {
		return "", nil, fmt.Errorf("create temp upload file: %w", err)
	}
	path := file.Name()
	cleanup := func() { _ = os.Remove(path) }

	if _, err := file.Write(payload); err != nil {
		_ = file.Close()
		cleanup()
		return "", nil, fmt.Errorf("write temp upload file: %w", err)
	}
	if err := file.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close temp upload file: %w", err)
	}
	return path, cleanup, nil
}
