package introspect

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	mssql "github.com/microsoft/go-mssqldb"

	"github.com/faucetdb/sqlcatalog/internal/model"
)

type memberRow struct {
	schema, name, column string
}

func memberKey(r memberRow) model.Key { return model.Key{Schema: r.schema, Name: r.name} }

func TestGroupConsecutive(t *testing.T) {
	rows := []memberRow{
		{"dbo", "A", "a1"},
		{"dbo", "A", "a2"},
		{"dbo", "B", "b1"},
		{"dbo", "B", "b2"},
		{"dbo", "B", "b3"},
	}

	// Feed rows one at a time through a single-use stream.
	consumed := 0
	stream := func(yield func(memberRow) bool) {
		for _, r := range rows {
			consumed++
			if !yield(r) {
				return
			}
		}
	}

	groups, err := groupConsecutive(stream, memberKey)
	if err != nil {
		t.Fatalf("groupConsecutive: %v", err)
	}
	if consumed != len(rows) {
		t.Errorf("consumed %d rows, want %d", consumed, len(rows))
	}
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	for i, want := range []struct {
		name string
		size int
	}{{"A", 2}, {"B", 3}} {
		if groups[i].Key.Name != want.name || len(groups[i].Rows) != want.size {
			t.Errorf("group %d = %s with %d rows, want %s with %d", i, groups[i].Key.Name, len(groups[i].Rows), want.name, want.size)
		}
	}
}

func TestGroupConsecutiveEmpty(t *testing.T) {
	groups, err := groupConsecutive(slices.Values([]memberRow(nil)), memberKey)
	if err != nil || len(groups) != 0 {
		t.Errorf("got %v, %v; want no groups", groups, err)
	}
}

func TestGroupConsecutiveRejectsReopenedKey(t *testing.T) {
	rows := []memberRow{
		{"dbo", "A", "a1"},
		{"dbo", "B", "b1"},
		{"dbo", "A", "a2"},
	}
	_, err := groupConsecutive(slices.Values(rows), memberKey)
	if !errors.Is(err, ErrOutOfOrder) {
		t.Errorf("err = %v, want ErrOutOfOrder", err)
	}
}

func TestEnsureOrdered(t *testing.T) {
	key := func(k model.Key) model.Key { return k }

	tests := []struct {
		name string
		in   []model.Key
		want []model.Key
	}{
		{
			name: "catalog order reversed",
			in:   []model.Key{{Schema: "dbo", Name: "B"}, {Schema: "dbo", Name: "A"}, {Schema: "abc", Name: "Z"}},
			want: []model.Key{{Schema: "abc", Name: "Z"}, {Schema: "dbo", Name: "A"}, {Schema: "dbo", Name: "B"}},
		},
		{
			name: "case insensitive",
			in:   []model.Key{{Schema: "dbo", Name: "b"}, {Schema: "DBO", Name: "A"}},
			want: []model.Key{{Schema: "DBO", Name: "A"}, {Schema: "dbo", Name: "b"}},
		},
		{
			name: "already sorted",
			in:   []model.Key{{Schema: "a", Name: "x"}, {Schema: "b", Name: "x"}},
			want: []model.Key{{Schema: "a", Name: "x"}, {Schema: "b", Name: "x"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := slices.Clone(tt.in)
			got := ensureOrdered(in, key)
			if !slices.Equal(got, tt.want) {
				t.Errorf("ensureOrdered = %v, want %v", got, tt.want)
			}
			if !slices.Equal(in, tt.in) {
				t.Errorf("input was modified: %v", in)
			}
		})
	}
}

func TestSplitTypeName(t *testing.T) {
	tests := []struct {
		in, schema, name string
	}{
		{"[dbo].[IdList]", "dbo", "IdList"},
		{"sales.Batch", "sales", "Batch"},
		{"IdList", "dbo", "IdList"},
		{"[IdList]", "dbo", "IdList"},
		{"[my.schema].[odd]]name]", "my.schema", "odd]name"},
		{"db.sales.Batch", "sales", "Batch"},
		{".Batch", "dbo", "Batch"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			schema, name := splitTypeName(tt.in)
			if schema != tt.schema || name != tt.name {
				t.Errorf("splitTypeName(%q) = (%q, %q), want (%q, %q)", tt.in, schema, name, tt.schema, tt.name)
			}
		})
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, true},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), true},
		{"bad conn", driver.ErrBadConn, true},
		{"conn done", sql.ErrConnDone, true},
		{"eof", io.EOF, true},
		{"network", timeoutErr{}, true},
		{"connectivity", fmt.Errorf("%w: ping", ErrConnectivity), true},
		{"server error", mssql.Error{Number: 208, Message: "Invalid object name"}, false},
		{"wrapped server error", fmt.Errorf("describe: %w", mssql.Error{Number: 11514}), false},
		{"no columns", errNoColumns, false},
		{"other", errors.New("scan failed"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFatal(tt.err); got != tt.want {
				t.Errorf("IsFatal(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestSettle(t *testing.T) {
	live := context.Background()
	done, cancel := context.WithCancel(context.Background())
	cancel()

	if err := settle(live, errors.New("permission denied")); err != nil {
		t.Errorf("server error: got %v, want degrade", err)
	}
	if err := settle(live, context.DeadlineExceeded); err != nil {
		t.Errorf("local timeout: got %v, want degrade", err)
	}
	if err := settle(live, io.ErrUnexpectedEOF); !errors.Is(err, ErrConnectivity) {
		t.Errorf("lost connection: got %v, want ErrConnectivity", err)
	}
	if err := settle(done, errors.New("anything")); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled run: got %v, want context.Canceled", err)
	}
}

func TestForEachStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	seen := make([]bool, 10)
	err := forEach(context.Background(), len(seen), 1, func(ctx context.Context, i int) error {
		seen[i] = true
		if i == 2 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if seen[9] {
		t.Error("forEach kept scheduling after the first error")
	}
}

func TestForEachBoundsInFlight(t *testing.T) {
	for _, limit := range []int{1, 2, 5} {
		t.Run(fmt.Sprintf("limit %d", limit), func(t *testing.T) {
			var inFlight, peak, calls atomic.Int32
			err := forEach(context.Background(), 20, limit, func(ctx context.Context, i int) error {
				n := inFlight.Add(1)
				defer inFlight.Add(-1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				calls.Add(1)
				time.Sleep(2 * time.Millisecond)
				return nil
			})
			if err != nil {
				t.Fatalf("forEach: %v", err)
			}
			if got := calls.Load(); got != 20 {
				t.Errorf("calls = %d, want 20", got)
			}
			if got := peak.Load(); got > int32(limit) {
				t.Errorf("peak in flight = %d, limit %d", got, limit)
			}
		})
	}
}
