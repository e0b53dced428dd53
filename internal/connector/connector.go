package connector

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// ConnectionConfig holds catalog connection parameters.
type ConnectionConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// Catalog is a read-only connection to a database catalog. Every query
// checks a connection out of the underlying pool, so concurrent callers
// never share one in-flight connection.
type Catalog interface {
	// Connection management
	Connect(cfg ConnectionConfig) error
	Disconnect() error
	DB() *sqlx.DB

	// Query execution
	PingContext(ctx context.Context) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error)
}

// SanitizeDSN ensures that URL-style DSNs (sqlserver://) have their
// userinfo (especially the password) properly percent-encoded. Raw
// passwords containing @, #, %, or other URL-special characters cause the
// Go URL parser to mis-split the authority component.
//
// ADO-style DSNs (server=...;user id=...) are returned unchanged.
func SanitizeDSN(dsn string) string {
	return sanitizeURLDSN(dsn)
}

// sanitizeURLDSN parses a DSN that begins with a scheme (e.g.
// sqlserver://user:p@ss#word@host?database=db) and re-encodes the
// password so the URL library can parse it unambiguously.
func sanitizeURLDSN(dsn string) string {
	schemeEnd := strings.Index(dsn, "://")
	if schemeEnd < 0 {
		return dsn
	}

	scheme := dsn[:schemeEnd]
	rest := dsn[schemeEnd+3:]

	query := ""
	if qi := strings.IndexByte(rest, '?'); qi >= 0 {
		query = rest[qi:]
		rest = rest[:qi]
	}

	// Everything before the LAST '@' is userinfo.
	atIdx := strings.LastIndex(rest, "@")
	if atIdx < 0 {
		return dsn
	}

	userinfo := rest[:atIdx]
	hostpath := rest[atIdx+1:]

	user := userinfo
	pass := ""
	hasPass := false
	if ci := strings.IndexByte(userinfo, ':'); ci >= 0 {
		user = userinfo[:ci]
		pass = userinfo[ci+1:]
		hasPass = true
	}

	// Already-encoded input must not be encoded twice.
	if u, err := url.PathUnescape(user); err == nil {
		user = u
	}
	if p, err := url.PathUnescape(pass); err == nil {
		pass = p
	}

	out := scheme + "://" + url.PathEscape(user)
	if hasPass {
		out += ":" + url.PathEscape(pass)
	}
	return out + "@" + hostpath + query
}

// WithPassword returns dsn with its password replaced by password. It
// understands both sqlserver:// URLs and ADO-style key=value strings.
func WithPassword(dsn, password string) string {
	if strings.Contains(dsn, "://") {
		u, err := url.Parse(SanitizeDSN(dsn))
		if err == nil && u.User != nil {
			u.User = url.UserPassword(u.User.Username(), password)
			return u.String()
		}
		return dsn
	}

	var kept []string
	for _, p := range splitADO(dsn) {
		if isPasswordKey(p) || strings.TrimSpace(p) == "" {
			continue
		}
		kept = append(kept, p)
	}
	kept = append(kept, "password="+quoteADOValue(password))
	return strings.Join(kept, ";")
}

// splitADO splits an ADO connection string on the semicolons that are
// outside double quotes. Inside quotes "" stands for one quote. This is
// the rule go-mssqldb applies when it parses the string.
func splitADO(dsn string) []string {
	var (
		parts    []string
		cur      strings.Builder
		inQuotes bool
	)
	for i := 0; i < len(dsn); i++ {
		c := dsn[i]
		switch {
		case c == '"' && inQuotes && i+1 < len(dsn) && dsn[i+1] == '"':
			cur.WriteString(`""`)
			i++
		case c == '"':
			inQuotes = !inQuotes
			cur.WriteByte(c)
		case c == ';' && !inQuotes:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	if cur.Len() > 0 {
		parts = append(parts, cur.String())
	}
	return parts
}

func isPasswordKey(part string) bool {
	key, _, _ := strings.Cut(part, "=")
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "password", "pwd":
		return true
	}
	return false
}

// quoteADOValue wraps v in double quotes when it holds a separator, a
// quote or edge whitespace the driver would trim, doubling inner quotes.
func quoteADOValue(v string) string {
	if !strings.ContainsAny(v, `;"=`) && strings.TrimSpace(v) == v {
		return v
	}
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

// HasPassword reports whether dsn already carries a password.
func HasPassword(dsn string) bool {
	if strings.Contains(dsn, "://") {
		u, err := url.Parse(SanitizeDSN(dsn))
		if err != nil || u.User == nil {
			return false
		}
		_, ok := u.User.Password()
		return ok
	}
	for _, p := range splitADO(dsn) {
		if isPasswordKey(p) {
			return true
		}
	}
	return false
}

// RedactDSN masks the password of dsn for display.
func RedactDSN(dsn string) string {
	if !HasPassword(dsn) {
		return dsn
	}
	return WithPassword(dsn, "xxxxx")
}
