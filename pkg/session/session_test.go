package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/archviz/pkg/command"
	"github.com/matzehuels/archviz/pkg/dispatch"
	"github.com/matzehuels/archviz/pkg/plan"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func testDispatcher() *dispatch.Dispatcher {
	reg := command.NewRegistry(command.Builtins(), quietLogger())
	return dispatch.New(reg, dispatch.WithLogger(quietLogger()))
}

func testPlan(t *testing.T, services ...string) *plan.Plan {
	t.Helper()
	a := &plan.Analysis{}
	for _, s := range services {
		a.Services = append(a.Services, plan.Service{Name: s})
	}
	p, err := plan.Build(a, plan.Options{DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestSession_Run(t *testing.T) {
	d := testDispatcher()
	s1 := New(d, nil, quietLogger())
	s2 := New(d, nil, quietLogger())
	if s1.ID == s2.ID || s1.ID == "" {
		t.Errorf("session IDs should be unique: %q, %q", s1.ID, s2.ID)
	}
	if s1.Engine() == s2.Engine() {
		t.Error("sessions must not share an engine")
	}

	res := s1.Run(context.Background(), testPlan(t, "a", "b"), dispatch.Options{})
	if !res.Success || !slices.Equal(res.Components, []string{"a", "b"}) {
		t.Errorf("Run() = %+v", res)
	}

	rec := s1.Record(res, 0)
	if rec.ID != s1.ID || !rec.Success || rec.ExpiresAt.Sub(rec.CreatedAt) != DefaultTTL {
		t.Errorf("Record() = %+v", rec)
	}
	back := rec.Result()
	if !slices.Equal(back.Components, res.Components) || back.ImageData != res.ImageData {
		t.Errorf("Result() = %+v", back)
	}
}

func TestSession_ConcurrentBuildsAreIsolated(t *testing.T) {
	d := testDispatcher()
	plans := make([]*plan.Plan, 8)
	for i := range plans {
		plans[i] = testPlan(t, fmt.Sprintf("svc%d", i))
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(plans))
	for i := range plans {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("svc%d", i)
			res := New(d, nil, quietLogger()).Run(context.Background(), plans[i], dispatch.Options{})
			if !res.Success || !slices.Equal(res.Components, []string{name}) {
				errs <- fmt.Errorf("build %d: %+v", i, res.Components)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func newRecord(id string, created time.Time, ttl time.Duration) *Record {
	return &Record{
		ID:         id,
		Title:      id,
		Success:    true,
		Components: []string{"a"},
		CreatedAt:  created,
		ExpiresAt:  created.Add(ttl),
	}
}

func testStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	now := time.Now()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}

	older := newRecord("older", now.Add(-time.Hour), DefaultTTL)
	newer := newRecord("newer", now, DefaultTTL)
	expired := newRecord("expired", now.Add(-2*time.Hour), time.Minute)
	for _, r := range []*Record{older, newer, expired} {
		if err := s.Put(ctx, r); err != nil {
			t.Fatalf("Put(%s) error: %v", r.ID, err)
		}
	}

	got, err := s.Get(ctx, "older")
	if err != nil || got.Title != "older" || !slices.Equal(got.Components, []string{"a"}) {
		t.Errorf("Get(older) = %+v, %v", got, err)
	}

	list, err := s.List(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, r := range list {
		ids = append(ids, r.ID)
	}
	if !slices.Equal(ids, []string{"newer", "older"}) {
		t.Errorf("List() = %v, want [newer older]", ids)
	}
	if list, _ := s.List(ctx, 1); len(list) != 1 {
		t.Errorf("List(1) returned %d records", len(list))
	}

	if err := s.Cleanup(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "expired"); !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrExpired) {
		t.Errorf("Get(expired) error = %v", err)
	}

	if err := s.Delete(ctx, "older"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "older"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete error = %v", err)
	}
	if err := s.Delete(ctx, "older"); err != nil {
		t.Errorf("Delete of a missing record should succeed: %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	testStore(t, s)

	if _, err := s.Get(context.Background(), "../escape"); !errors.Is(err, ErrNotFound) {
		t.Errorf("path traversal should be rejected, got %v", err)
	}
}

func TestStore_ExpiredOnRead(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_ = s.Put(ctx, newRecord("old", time.Now().Add(-time.Hour), time.Minute))
	if _, err := s.Get(ctx, "old"); !errors.Is(err, ErrExpired) {
		t.Errorf("Get() error = %v, want ErrExpired", err)
	}
	if _, err := s.Get(ctx, "old"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expired record should be removed, got %v", err)
	}
}

// TestMongoStore runs against a real server when ARCHVIZ_TEST_MONGO_URI is
// set, e.g. mongodb://localhost:27017.
func TestMongoStore(t *testing.T) {
	uri := os.Getenv("ARCHVIZ_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("ARCHVIZ_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	s, err := NewMongoStore(ctx, MongoConfig{URI: uri, Database: "archviz_test", Collection: fmt.Sprintf("builds_%d", time.Now().UnixNano())})
	if err != nil {
		t.Fatalf("NewMongoStore() error: %v", err)
	}
	defer func() {
		_ = s.coll.Drop(ctx)
		s.Close()
	}()
	testStore(t, s)
}
