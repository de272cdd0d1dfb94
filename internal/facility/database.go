package facility

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	_ "github.com/nakagami/firebirdsql"
	"github.com/sha1n/cuvren/internal/config"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// DefaultDriver is the database/sql driver used for the facility database.
const DefaultDriver = "firebirdsql"

const lookupQuery = `SELECT FIRST 1 cod_ips, nro_ident FROM LST_IPS`

// Handle is a lazily opened connection to the facility database.
// The connection is opened on first use and held until Close.
type Handle struct {
	driver  string
	params  config.DatabaseParams
	timeout time.Duration
	logger  *slog.Logger

	mu sync.Mutex
	db *sql.DB
}

// NewHandle creates a handle; no connection is made until the first Lookup.
func NewHandle(driver string, params config.DatabaseParams, timeout time.Duration, logger *slog.Logger) *Handle {
	if driver == "" {
		driver = DefaultDriver
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handle{
		driver:  driver,
		params:  params,
		timeout: timeout,
		logger:  logger,
	}
}

// DSN returns the connection string for the handle's parameters.
func DSN(p config.DatabaseParams) string {
	host := p.Host
	if p.Port > 0 {
		host += ":" + strconv.Itoa(p.Port)
	}
	return url.UserPassword(p.User, p.Password).String() + "@" + host + "/" + strings.TrimPrefix(p.Database, "/")
}

func (h *Handle) conn(ctx context.Context) (*sql.DB, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.db != nil {
		return h.db, nil
	}

	db, err := sql.Open(h.driver, DSN(h.params))
	if err != nil {
		return nil, fmt.Errorf("failed to open facility database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to facility database %s: %w", h.params.Host, err)
	}

	h.logger.Debug("Connected to facility database", "params", config.DatabaseParamsLogValue(h.params))
	h.db = db
	return db, nil
}

// Lookup reads the first facility record.
func (h *Handle) Lookup(ctx context.Context) (Facility, error) {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	db, err := h.conn(ctx)
	if err != nil {
		return Facility{}, err
	}

	var code, taxID sql.NullString
	err = db.QueryRowContext(ctx, lookupQuery).Scan(&code, &taxID)
	if errors.Is(err, sql.ErrNoRows) {
		return Facility{}, ErrNoFacility
	}
	if err != nil {
		return Facility{}, fmt.Errorf("facility query failed: %w", err)
	}

	dec := decoder(h.params.Charset)
	return Facility{
		Code:  decodeText(dec, code.String),
		TaxID: decodeText(dec, taxID.String),
	}, nil
}

// Close releases the connection if one was opened.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.db == nil {
		return nil
	}
	err := h.db.Close()
	h.db = nil
	return err
}

func decoder(charset string) *encoding.Decoder {
	switch strings.ToUpper(strings.ReplaceAll(charset, "-", "_")) {
	case "ISO8859_1", "LATIN1", "ISO_8859_1":
		return charmap.ISO8859_1.NewDecoder()
	case "WIN1252", "WINDOWS_1252", "CP1252":
		return charmap.Windows1252.NewDecoder()
	}
	return nil
}

// decodeText converts legacy single-byte text to UTF-8; valid UTF-8 is kept.
func decodeText(dec *encoding.Decoder, s string) string {
	s = strings.TrimSpace(s)
	if dec == nil || utf8.ValidString(s) {
		return s
	}
	out, err := dec.String(s)
	if err != nil {
		return s
	}
	return out
}
