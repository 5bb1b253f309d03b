package command

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/archviz/pkg/diagram"
	"github.com/matzehuels/archviz/pkg/errors"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func TestBuiltinRegistry(t *testing.T) {
	r := NewRegistry(Builtins(), quietLogger())

	if errs := r.DiscoveryErrors(); len(errs) != 0 {
		t.Fatalf("DiscoveryErrors() = %v", errs)
	}
	want := []string{
		"connect_nodes", "create_aws_node", "create_cluster", "create_node",
		"declare_cluster", "declare_connection", "declare_node",
		"initialize", "initialize_diagram", "materialize", "render_diagram",
	}
	if got := r.Names(); !slices.Equal(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	if r.Len() != len(want) {
		t.Errorf("Len() = %d", r.Len())
	}
	for name, desc := range r.List() {
		if desc == "" {
			t.Errorf("%s has an empty description", name)
		}
	}
}

func TestRegistryGet(t *testing.T) {
	r := NewRegistry(Builtins(), quietLogger())

	cmd, err := r.Get("declare_node")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if cmd.Name() != "declare_node" {
		t.Errorf("Name() = %q", cmd.Name())
	}

	_, err = r.Get("explode")
	var nf *errors.CommandNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("Get() error = %v, want *CommandNotFoundError", err)
	}
	if nf.Name != "explode" || !slices.Contains(nf.Available, "materialize") {
		t.Errorf("CommandNotFoundError = %+v", nf)
	}
	if !errors.Is(err, errors.ErrCodeCommandNotFound) {
		t.Error("error should carry COMMAND_NOT_FOUND")
	}
}

type stubCommand struct {
	name, desc, schema string
}

func (s stubCommand) Name() string                        { return s.name }
func (s stubCommand) Description() string                 { return s.desc }
func (s stubCommand) Schema() string                      { return s.schema }
func (s stubCommand) Validate(raw Params) (Params, error) { return raw, nil }
func (s stubCommand) Execute(context.Context, *diagram.Engine, Params) (any, error) {
	return s.desc, nil
}

func stub(name, desc string) Factory {
	return func() (Command, error) { return stubCommand{name: name, desc: desc, schema: "{}"}, nil }
}

func TestRegistryDiscoveryErrors(t *testing.T) {
	entries := []Entry{
		{"good", stub("good", "works")},
		{"failing", func() (Command, error) { return nil, fmt.Errorf("broken") }},
		{"nil", func() (Command, error) { return nil, nil }},
		{"no-name", stub("", "nameless")},
		{"no-description", stub("quiet", "")},
		{"no-schema", func() (Command, error) { return stubCommand{name: "loose", desc: "d"}, nil }},
		{"panics", func() (Command, error) { panic("factory bug") }},
		{"no-factory", nil},
	}

	r := NewRegistry(entries, quietLogger())
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
	errs := r.DiscoveryErrors()
	for _, label := range []string{"failing", "nil", "no-name", "no-description", "no-schema", "panics", "no-factory"} {
		if _, ok := errs[label]; !ok {
			t.Errorf("missing discovery error for %q", label)
		}
	}

	errs["good"] = "tampered"
	if _, ok := r.DiscoveryErrors()["good"]; ok {
		t.Error("DiscoveryErrors() should return a copy")
	}
}

func TestRegistryNameCollision(t *testing.T) {
	r := NewRegistry([]Entry{
		{"first", stub("dup", "first")},
		{"second", stub("dup", "second")},
	}, quietLogger())

	cmd, err := r.Get("dup")
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Description() != "second" {
		t.Errorf("later entry should win, got %q", cmd.Description())
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}

func TestRegistryConcurrentReads(t *testing.T) {
	r := NewRegistry(Builtins(), quietLogger())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, name := range r.Names() {
				if _, err := r.Get(name); err != nil {
					t.Error(err)
				}
			}
			_ = r.List()
		}()
	}
	wg.Wait()
}
