package diagram

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/archviz/pkg/errors"
	"github.com/matzehuels/archviz/pkg/observability"
)

// DefaultFormat is the output format used when none is requested.
const DefaultFormat = "png"

// DefaultTitle is used when a build is opened without a title.
const DefaultTitle = "My Diagram"

// Renderer turns a realized graph into image bytes.
type Renderer interface {
	// Render writes g in the given format ("png", "svg" or "pdf") to w.
	Render(ctx context.Context, g *Graph, format string, w io.Writer) error
}

// Option configures an [Engine].
type Option func(*Engine)

// WithLogger sets the engine's logger. A nil logger is ignored.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithTempDir sets the directory in which temporary render artifacts are
// created. The default is the system temp directory.
func WithTempDir(dir string) Option {
	return func(e *Engine) { e.tempDir = dir }
}

// Engine records diagram declarations and materializes them in one pass.
//
// An Engine is either idle or recording. [Engine.Initialize] starts a
// recording; declarations append to it; [Engine.Materialize] detaches the
// recording, builds and renders it, and leaves the engine idle again. The
// same Engine can then serve an unrelated build.
//
// An Engine serves one build at a time and is not safe for concurrent use.
type Engine struct {
	renderer Renderer
	logger   *log.Logger
	tempDir  string
	rec      *recording
}

// New creates an idle engine. renderer may be nil if only dry runs are
// materialized.
func New(renderer Renderer, opts ...Option) *Engine {
	e := &Engine{
		renderer: renderer,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// recording holds the declarations of one open build.
type recording struct {
	title       string
	attrs       Attrs
	nodes       []PendingNode
	nodeIndex   map[string]int
	clusters    []PendingCluster
	clusterIdx  map[string]int
	connections []PendingConnection
	redeclared  []Warning
}

func newRecording(title string, attrs Attrs) *recording {
	return &recording{
		title:      title,
		attrs:      attrs.Clone(),
		nodeIndex:  make(map[string]int),
		clusterIdx: make(map[string]int),
	}
}

func (r *recording) reset() {
	r.nodes = nil
	r.clusters = nil
	r.connections = nil
	r.redeclared = nil
	clear(r.nodeIndex)
	clear(r.clusterIdx)
}

// Initialize opens a new build. It is the only operation that does not
// require an open build. An unmaterialized build that is still open is
// discarded.
func (e *Engine) Initialize(title string, attrs Attrs) {
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}
	if e.rec != nil {
		e.logger.Warn("discarding unmaterialized build",
			"title", e.rec.title,
			"nodes", len(e.rec.nodes),
			"clusters", len(e.rec.clusters),
			"connections", len(e.rec.connections))
		e.rec.reset()
	}
	e.rec = newRecording(title, attrs)
	e.logger.Info("initialized diagram", "title", title)
}

// DeclareCluster records a cluster. parent may name a cluster that has not
// been declared yet; references are resolved by [Engine.Materialize].
// A repeated name replaces the earlier declaration.
func (e *Engine) DeclareCluster(name, label string, attrs Attrs, parent string) error {
	if e.rec == nil {
		return errors.NotInitialized("declare_cluster")
	}
	c := PendingCluster{Name: name, Label: label, Parent: parent, Attrs: attrs.Clone()}
	if i, ok := e.rec.clusterIdx[name]; ok {
		e.rec.clusters[i] = c
		e.rec.redeclared = append(e.rec.redeclared, Warning{
			Code:    WarnRedeclared,
			Subject: name,
			Message: fmt.Sprintf("cluster %q declared more than once; the last declaration wins", name),
		})
	} else {
		e.rec.clusterIdx[name] = len(e.rec.clusters)
		e.rec.clusters = append(e.rec.clusters, c)
	}
	e.logger.Debug("recorded cluster", "name", name, "label", label, "parent", parent)
	return nil
}

// DeclareNode records a node. cluster may name a cluster that has not been
// declared yet. An empty label defaults to name. A repeated name replaces
// the earlier declaration.
func (e *Engine) DeclareNode(name, kind, cluster, label string, style Attrs) error {
	if e.rec == nil {
		return errors.NotInitialized("declare_node")
	}
	if label == "" {
		label = name
	}
	n := PendingNode{Name: name, Kind: NormalizeKind(kind), Cluster: cluster, Label: label, Style: style.Clone()}
	if i, ok := e.rec.nodeIndex[name]; ok {
		e.rec.nodes[i] = n
		e.rec.redeclared = append(e.rec.redeclared, Warning{
			Code:    WarnRedeclared,
			Subject: name,
			Message: fmt.Sprintf("node %q declared more than once; the last declaration wins", name),
		})
	} else {
		e.rec.nodeIndex[name] = len(e.rec.nodes)
		e.rec.nodes = append(e.rec.nodes, n)
	}
	e.logger.Debug("recorded node", "name", name, "kind", n.Kind, "cluster", cluster)
	return nil
}

// DeclareConnection records an edge. Endpoints are resolved by
// [Engine.Materialize]; unknown endpoints are skipped there.
func (e *Engine) DeclareConnection(source, target, label string, style Attrs) error {
	if e.rec == nil {
		return errors.NotInitialized("declare_connection")
	}
	e.rec.connections = append(e.rec.connections, PendingConnection{
		Source: source,
		Target: target,
		Label:  label,
		Style:  style.Clone(),
	})
	e.logger.Debug("recorded connection", "source", source, "target", target, "label", label)
	return nil
}

// Pending reports the engine's unmaterialized state.
func (e *Engine) Pending() Pending {
	if e.rec == nil {
		return Pending{}
	}
	return Pending{
		Initialized: true,
		Title:       e.rec.title,
		Nodes:       len(e.rec.nodes),
		Clusters:    len(e.rec.clusters),
		Connections: len(e.rec.connections),
	}
}

// Reset discards the open build, if any, and leaves the engine idle.
func (e *Engine) Reset() {
	if e.rec == nil {
		return
	}
	e.logger.Debug("discarding open build", "title", e.rec.title)
	e.rec.reset()
	e.rec = nil
}

// Materialize realizes every pending declaration and, unless dryRun is set,
// renders the result in format. The engine is idle afterwards whatever the
// outcome.
//
// Orphaned clusters, nodes in missing clusters and connections with missing
// endpoints are skipped and reported as [Warning]s. A renderer failure is
// returned as a RENDERING_FAILED error together with the result of the
// realization pass, which has no image.
func (e *Engine) Materialize(ctx context.Context, format string, dryRun bool) (*Result, error) {
	rec := e.rec
	if rec == nil {
		return nil, errors.NotInitialized("materialize")
	}
	// Detach first: nothing can be declared into this build from here on.
	e.rec = nil
	defer rec.reset()

	if format == "" {
		format = DefaultFormat
	}
	if err := errors.ValidateFormat(format); err != nil {
		return nil, err
	}

	m := newMaterializer(rec, e.logger)
	graph := m.build()
	defer m.release()

	res := &Result{
		Title:      rec.title,
		Format:     format,
		DryRun:     dryRun,
		Components: m.components,
		Clusters:   m.realizedClusters,
		Edges:      len(graph.Edges),
		Warnings:   m.warnings,
		Graph:      graph,
	}

	for _, w := range res.Warnings {
		e.logger.Warn(w.Message, "code", w.Code, "subject", w.Subject)
	}

	if dryRun {
		e.logger.Debug("dry run enabled, skipping rendering", "components", len(res.Components))
		return res, nil
	}

	img, err := e.render(ctx, graph, format)
	if err != nil {
		e.logger.Error("failed to render diagram", "format", format, "err", err)
		return res, errors.Wrap(errors.ErrCodeRendering, err, "failed to render diagram")
	}
	res.Image = img

	e.logger.Info("rendered diagram",
		"format", format,
		"components", len(res.Components),
		"edges", res.Edges,
		"bytes", len(img))
	return res, nil
}

// render writes graph to a temporary artifact and reads it back. The
// temporary directory is removed on every path.
func (e *Engine) render(ctx context.Context, graph *Graph, format string) (data []byte, err error) {
	hooks := observability.Build()
	hooks.OnRenderStart(ctx, format, graph.NodeCount())
	start := time.Now()
	defer func() {
		hooks.OnRenderComplete(ctx, format, len(data), time.Since(start), err)
	}()

	if e.renderer == nil {
		return nil, fmt.Errorf("no renderer configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp(e.tempDir, "archviz-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			e.logger.Warn("could not remove temporary artifacts", "dir", dir, "err", rmErr)
		} else {
			e.logger.Debug("cleaned up temporary artifacts", "dir", dir)
		}
	}()

	path := filepath.Join(dir, artifactName(graph.Title)+"."+format)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create artifact: %w", err)
	}
	if err := e.renderer.Render(ctx, graph, format, f); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("write artifact: %w", err)
	}

	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("renderer produced an empty %s artifact", format)
	}
	return data, nil
}

var unsafeFileChars = regexp.MustCompile(`[^a-z0-9]+`)

// artifactName turns a diagram title into a file name stem.
func artifactName(title string) string {
	name := strings.Trim(unsafeFileChars.ReplaceAllString(strings.ToLower(title), "_"), "_")
	if name == "" {
		return "diagram"
	}
	return name
}
