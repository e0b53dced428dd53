// Package introspect reads SQL Server catalog metadata into a
// model.Database. Four readers (procedures, functions, views, table types)
// run concurrently; each fans its per-entity detail queries out over a
// bounded worker group. Only connectivity loss or cancellation fails a
// run; every other anomaly degrades one entity and is recorded as a
// model.Diagnostic.
package introspect

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"github.com/faucetdb/sqlcatalog/internal/ident"
	"github.com/faucetdb/sqlcatalog/internal/model"
)

// Querier is the catalog query executor the readers run against. Each call
// must be able to run concurrently with others, which a pooled *sqlx.DB or
// the mssql connector provides by checking out one connection per query.
type Querier interface {
	PingContext(ctx context.Context) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error)
}

// Defaults applied by New to zero Options fields.
const (
	DefaultConcurrency  = 4
	DefaultQueryTimeout = 30 * time.Second
)

// Options tunes an Introspector.
type Options struct {
	// Concurrency bounds in-flight detail queries per reader.
	Concurrency int
	// QueryTimeout bounds each catalog query. A detail query that times
	// out degrades its entity; it does not fail the run.
	QueryTimeout time.Duration
	// Target selects the reserved words identifiers are escaped against.
	Target ident.Target
	Logger *slog.Logger
}

// Introspector builds a model.Database from one catalog.
type Introspector struct {
	db         Querier
	opts       Options
	logger     *slog.Logger
	structured *StructuredResolver
}

// New returns an Introspector reading through db.
func New(db Querier, opts Options) *Introspector {
	if opts.Concurrency < 1 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = DefaultQueryTimeout
	}
	if opts.Target.Name == "" {
		opts.Target = ident.Go
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	in := &Introspector{db: db, opts: opts, logger: logger}
	in.structured = NewStructuredResolver(db, opts.Target, opts.QueryTimeout)
	return in
}

// Read introspects the whole catalog. On success the returned Database is
// complete and must not be modified. On failure no partial model is
// returned and the error wraps ErrConnectivity, ErrOutOfOrder or the
// context's error.
func (in *Introspector) Read(ctx context.Context) (*model.Database, error) {
	runID, err := uuid.NewV7()
	if err != nil {
		runID = uuid.New()
	}
	logger := in.logger.With("run_id", runID.String())
	start := time.Now()

	if err := in.db.PingContext(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: ping: %w", ErrConnectivity, err)
	}

	var (
		db    model.Database
		diags [4][]model.Diagnostic
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		db.StoredProcedures, diags[0], err = in.readProcedures(gctx)
		return err
	})
	g.Go(func() (err error) {
		db.Functions, diags[1], err = in.readFunctions(gctx)
		return err
	})
	g.Go(func() (err error) {
		db.Views, diags[2], err = in.readViews(gctx)
		return err
	})
	g.Go(func() (err error) {
		db.TableTypes, diags[3], err = in.readTableTypes(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		logger.Error("introspection failed", "error", err)
		return nil, err
	}
	db.Diagnostics = slices.Concat(diags[:]...)
	if db.Diagnostics == nil {
		db.Diagnostics = []model.Diagnostic{}
	}
	for _, d := range db.Diagnostics {
		logger.Warn("entity degraded", "kind", string(d.Kind), "entity", d.Entity, "detail", d.Detail)
	}

	c := db.Counts()
	logger.Info("introspection complete",
		"procedures", c.StoredProcedures,
		"functions", c.Functions,
		"views", c.Views,
		"table_types", c.TableTypes,
		"diagnostics", len(db.Diagnostics),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return &db, nil
}

// query bounds one catalog query by the configured timeout.
func (in *Introspector) query(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, in.opts.QueryTimeout)
}

func (in *Introspector) selectRows(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	qctx, cancel := in.query(ctx)
	defer cancel()
	return in.db.SelectContext(qctx, dest, query, args...)
}

// list runs an entity list query. A failure that settle deems degradable
// yields an empty list and a DiagList diagnostic for the kind.
func list[T any](ctx context.Context, in *Introspector, kind, query string, key func(T) model.Key) ([]T, []model.Diagnostic, error) {
	var rows []T
	if err := in.selectRows(ctx, &rows, query); err != nil {
		diags, err := degradeList(ctx, kind, err)
		return nil, diags, err
	}
	return ensureOrdered(rows, key), nil, nil
}

func degradeList(ctx context.Context, kind string, err error) ([]model.Diagnostic, error) {
	if fatal := settle(ctx, err); fatal != nil {
		return nil, fmt.Errorf("list %s: %w", kind, fatal)
	}
	return []model.Diagnostic{{Kind: model.DiagList, Entity: kind, Detail: err.Error()}}, nil
}

// forEach calls fn for 0..n-1 with at most limit calls in flight. The
// first error cancels the context passed to the remaining calls and is
// returned.
func forEach(ctx context.Context, n, limit int, fn func(ctx context.Context, i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := range n {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error { return fn(gctx, i) })
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// entityIdentifiers assigns each entity of one kind its identifier, in
// list order, so collisions resolve the same way on every run.
func entityIdentifiers(target ident.Target, n int, key func(int) model.Key, set func(int, string)) {
	scope := ident.NewScope(target)
	for i := range n {
		k := key(i)
		set(i, scope.Unique(k.Schema+"_"+k.Name))
	}
}

// flatten joins per-entity diagnostics in entity order.
func flatten(per [][]model.Diagnostic) []model.Diagnostic {
	return slices.Concat(per...)
}
