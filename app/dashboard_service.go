package app

import (
	"context"
	"io"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"minidash/domain/dashboard"
	"minidash/internal"
	"minidash/internal/charts"
	"minidash/internal/errors"
	"minidash/internal/kpi"
	"minidash/internal/table"
	"minidash/internal/telemetry"
	"minidash/models"
	"minidash/ports"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// recentAnswersLimit is how many answers a view shows under the questions
const recentAnswersLimit = 10

// Loaded is a dashboard together with the dataset it was loaded from. Both are
// immutable; Reload replaces the whole value.
type Loaded struct {
	Definition dashboard.Definition `json:"definition"`
	Table      *table.Table         `json:"-"`
	Source     string               `json:"source"`
	LoadedAt   time.Time            `json:"loaded_at"`
}

// Rows is the size of the loaded dataset
func (l *Loaded) Rows() int {
	return l.Table.Len()
}

// FilterState is one sidebar widget: its observed options and current selection
type FilterState struct {
	Column   string               `json:"column"`
	Label    string               `json:"label"`
	Kind     dashboard.FilterKind `json:"kind"`
	Options  []string             `json:"options"`
	Selected []string             `json:"selected"`
}

// View is everything a dashboard shows for one selection
type View struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Filters     []FilterState       `json:"filters"`
	Selection   dashboard.Selection `json:"selection"`
	TotalRows   int                 `json:"total_rows"`
	Rows        int                 `json:"rows"`
	KPIs        []kpi.Value         `json:"kpis"`
	PrimaryKind dashboard.ChartKind `json:"primary_kind"`
	Primary     charts.Figure       `json:"primary"`
	Secondary   charts.Figure       `json:"secondary"`
	Columns     []string            `json:"columns"`
	Preview     [][]string          `json:"preview"`
	Truncated   bool                `json:"truncated"`
	Answers     []*models.Answer    `json:"answers,omitempty"`
	LoadedAt    time.Time           `json:"loaded_at"`
}

// ServiceConfig tunes the dashboard service
type ServiceConfig struct {
	PreviewLimit    int
	LoadConcurrency int
	SourceOverrides map[string]string
}

// DashboardService loads dashboards and answers view, export and answer requests
type DashboardService struct {
	loader  ports.SourceLoader
	answers ports.AnswerRepository
	metrics *telemetry.Metrics
	logger  *internal.Logger
	config  ServiceConfig

	mu     sync.RWMutex
	loaded map[string]*Loaded
	order  []string
}

// NewDashboardService creates a dashboard service. metrics may be nil.
func NewDashboardService(loader ports.SourceLoader, answers ports.AnswerRepository, metrics *telemetry.Metrics, cfg ServiceConfig) *DashboardService {
	if cfg.PreviewLimit <= 0 {
		cfg.PreviewLimit = 200
	}
	if cfg.LoadConcurrency <= 0 {
		cfg.LoadConcurrency = 4
	}
	return &DashboardService{
		loader:  loader,
		answers: answers,
		metrics: metrics,
		logger:  internal.DefaultLogger,
		config:  cfg,
		loaded:  make(map[string]*Loaded),
	}
}

// LoadAll validates and loads every definition concurrently. Any failure aborts the
// whole load and leaves the service unchanged.
func (s *DashboardService) LoadAll(ctx context.Context, defs []dashboard.Definition) error {
	if len(defs) == 0 {
		return errors.InvalidDefinition("no dashboards to load")
	}
	seen := make(map[string]bool, len(defs))
	for _, def := range defs {
		if err := def.Validate(); err != nil {
			return err
		}
		if seen[def.ID] {
			return errors.Newf(errors.CodeInvalidDefinition, "duplicate dashboard id %q", def.ID)
		}
		seen[def.ID] = true
	}

	startTime := time.Now()
	results := make([]*Loaded, len(defs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.LoadConcurrency)
	for i, def := range defs {
		i, def := i, def
		g.Go(func() error {
			l, err := s.load(gctx, def)
			if err != nil {
				return errors.Wrapf(err, "failed to load dashboard %s", def.ID)
			}
			results[i] = l
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = make(map[string]*Loaded, len(results))
	s.order = s.order[:0]
	for _, l := range results {
		s.loaded[l.Definition.ID] = l
		s.order = append(s.order, l.Definition.ID)
	}
	log.Printf("[DashboardService] Loaded %d dashboards in %.2fms", len(results), float64(time.Since(startTime).Nanoseconds())/1e6)
	return nil
}

// Reload re-reads one dashboard's source and swaps it in
func (s *DashboardService) Reload(ctx context.Context, id string) (*Loaded, error) {
	current, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	l, err := s.load(ctx, current.Definition)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to reload dashboard %s", id)
	}

	s.mu.Lock()
	s.loaded[id] = l
	s.mu.Unlock()

	log.Printf("[DashboardService] Reloaded %s (%d rows)", id, l.Rows())
	return l, nil
}

func (s *DashboardService) load(ctx context.Context, def dashboard.Definition) (*Loaded, error) {
	source := def.Source
	if override, ok := s.config.SourceOverrides[def.ID]; ok {
		source = override
	}

	startTime := time.Now()
	tbl, err := s.loader.Load(ctx, source)
	if err == nil {
		err = def.CheckColumns(tbl)
	}
	if err != nil {
		s.metrics.ObserveLoad(def.ID, 0, time.Since(startTime), err)
		return nil, err
	}
	s.metrics.ObserveLoad(def.ID, tbl.Len(), time.Since(startTime), nil)

	return &Loaded{
		Definition: def,
		Table:      tbl,
		Source:     source,
		LoadedAt:   time.Now().UTC(),
	}, nil
}

// List returns the loaded dashboards in definition order
func (s *DashboardService) List() []*Loaded {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Loaded, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.loaded[id])
	}
	return out
}

// Get returns one loaded dashboard
func (s *DashboardService) Get(id string) (*Loaded, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.loaded[id]
	if !ok {
		return nil, errors.NotFound("dashboard " + id)
	}
	return l, nil
}

// View filters the dashboard's dataset by sel and computes KPIs, charts and the
// table preview over the result
func (s *DashboardService) View(ctx context.Context, id string, sel dashboard.Selection) (*View, error) {
	startTime := time.Now()
	l, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	def := l.Definition

	values, err := resolveSelection(def, sel)
	if err != nil {
		return nil, err
	}
	filtered, err := l.Table.Filter(values)
	if err != nil {
		return nil, err
	}

	v := &View{
		ID:        def.ID,
		Title:     def.Title,
		Selection: dashboard.Selection{Values: values, Chart: sel.Chart},
		TotalRows: l.Table.Len(),
		Rows:      filtered.Len(),
		LoadedAt:  l.LoadedAt,
	}

	for _, f := range def.Filters {
		options, err := l.Table.Options(f.Column)
		if err != nil {
			return nil, err
		}
		v.Filters = append(v.Filters, FilterState{
			Column:   f.Column,
			Label:    f.DisplayLabel(),
			Kind:     f.Kind,
			Options:  options,
			Selected: values[f.Column],
		})
	}

	if v.KPIs, err = kpi.Compute(filtered, def.KPIs); err != nil {
		return nil, err
	}

	v.PrimaryKind = def.PrimaryKind(sel.Chart)
	v.Selection.Chart = v.PrimaryKind
	if v.Primary, err = charts.Build(def.Charts.Primary, v.PrimaryKind, filtered); err != nil {
		return nil, errors.Wrap(err, "failed to build primary chart")
	}
	if v.Secondary, err = charts.Build(def.Charts.Secondary, "", filtered); err != nil {
		return nil, errors.Wrap(err, "failed to build secondary chart")
	}

	limit := s.previewLimit(def)
	records, err := filtered.Records(def.Table.Columns, limit)
	if err != nil {
		return nil, err
	}
	v.Columns, v.Preview = records[0], records[1:]
	v.Truncated = filtered.Len() > len(v.Preview)

	if len(def.Questions) > 0 && s.answers != nil {
		answers, err := s.answers.ListRecentAnswers(ctx, def.ID, recentAnswersLimit)
		if err != nil {
			log.Printf("[DashboardService] Failed to list answers for %s: %v", def.ID, err)
		} else {
			v.Answers = answers
		}
	}

	s.metrics.ObserveView(def.ID, v.Rows)
	s.logger.Debug("[DashboardService] View %s: %d/%d rows in %.2fms", def.ID, v.Rows, v.TotalRows,
		float64(time.Since(startTime).Nanoseconds())/1e6)
	return v, nil
}

func (s *DashboardService) previewLimit(def dashboard.Definition) int {
	if def.Table.Limit > 0 && def.Table.Limit < s.config.PreviewLimit {
		return def.Table.Limit
	}
	return s.config.PreviewLimit
}

// Export writes every filtered row as CSV
func (s *DashboardService) Export(ctx context.Context, id string, sel dashboard.Selection, w io.Writer) error {
	l, err := s.Get(id)
	if err != nil {
		return err
	}
	values, err := resolveSelection(l.Definition, sel)
	if err != nil {
		return err
	}
	filtered, err := l.Table.Filter(values)
	if err != nil {
		return err
	}
	return filtered.WriteCSV(w)
}

// SubmitAnswers stores the non-empty answers of one submission. Keys must name
// questions declared on the dashboard.
func (s *DashboardService) SubmitAnswers(ctx context.Context, id string, texts map[string]string) ([]*models.Answer, error) {
	l, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if s.answers == nil {
		return nil, errors.InternalError("answer storage is not configured")
	}

	keys := make([]string, 0, len(texts))
	for k := range texts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	submission := uuid.New()
	var answers []*models.Answer
	for _, key := range keys {
		if _, ok := l.Definition.Question(key); !ok {
			return nil, errors.Newf(errors.CodeInvalidInput, "dashboard %s has no question %q", id, key)
		}
		a := models.NewAnswer(submission, id, key, texts[key])
		if a.Text == "" {
			continue
		}
		if a.TooLong() {
			return nil, errors.Newf(errors.CodeInvalidInput, "answer to %s exceeds %d characters", key, models.MaxAnswerRunes)
		}
		answers = append(answers, a)
	}
	if len(answers) == 0 {
		return answers, nil
	}

	if err := s.answers.SaveAnswers(ctx, answers); err != nil {
		return nil, errors.Wrap(err, "failed to save answers")
	}
	s.metrics.ObserveAnswers(id, len(answers))
	log.Printf("[DashboardService] Stored %d answers for %s", len(answers), id)
	return answers, nil
}

// resolveSelection keeps only declared filter columns, drops blanks and duplicates,
// and enforces single values on select filters
func resolveSelection(def dashboard.Definition, sel dashboard.Selection) (map[string][]string, error) {
	kinds := make(map[string]dashboard.FilterKind, len(def.Filters))
	for _, f := range def.Filters {
		kinds[f.Column] = f.Kind
	}

	values := make(map[string][]string, len(sel.Values))
	for column, raw := range sel.Values {
		kind, ok := kinds[column]
		if !ok {
			return nil, errors.Newf(errors.CodeInvalidInput, "%s is not a filter of dashboard %s", column, def.ID)
		}
		var picked []string
		seen := make(map[string]bool, len(raw))
		for _, v := range raw {
			v = strings.TrimSpace(v)
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			picked = append(picked, v)
		}
		if kind == dashboard.FilterSelect && len(picked) > 1 {
			return nil, errors.Newf(errors.CodeInvalidInput, "%s accepts a single value", column)
		}
		if len(picked) > 0 {
			values[column] = picked
		}
	}
	return values, nil
}
