package pages

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-yaml/yaml"
	"github.com/pkg/errors"

	"github.com/bridgekit/mentiond/internal/domain"
)

// Index is a yaml file backed page registry. Lookups are in memory;
// the only mutation is the published marker, which is written back to
// the file under a lock.
type Index struct {
	mu      sync.Mutex
	path    string
	baseURL string

	records []*record
	byPath  map[string]*record
	bySlug  map[string]*record
}

type record struct {
	Slug        string `yaml:"slug"`
	Path        string `yaml:"path"`
	URL         string `yaml:"url,omitempty"`
	Date        string `yaml:"date,omitempty"`
	NoBridge    bool   `yaml:"nobridge,omitempty"`
	ReplyTo     string `yaml:"replyTo,omitempty"`
	PublishedAt string `yaml:"publishedAt,omitempty"`
}

type fileDoc struct {
	Pages []*record `yaml:"pages"`
}

// Load reads the page registry from path. Page URLs default to the
// base URL joined with the page path.
func Load(path, baseURL string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "pages: read")
	}

	var doc fileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "pages: parse")
	}

	idx := &Index{
		path:    path,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		records: doc.Pages,
		byPath:  make(map[string]*record, len(doc.Pages)),
		bySlug:  make(map[string]*record, len(doc.Pages)),
	}
	for _, r := range doc.Pages {
		if r.Slug == "" || r.Path == "" {
			return nil, errors.Errorf("pages: entry missing slug or path (slug=%q path=%q)", r.Slug, r.Path)
		}
		if !strings.HasPrefix(r.Path, "/") {
			r.Path = "/" + r.Path
		}
		idx.byPath[r.Path] = r
		idx.bySlug[r.Slug] = r
	}
	return idx, nil
}

// FindByPath returns the page registered at path, nil when unknown.
// Trailing slashes do not distinguish pages.
func (idx *Index) FindByPath(ctx context.Context, path string) (domain.Page, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	r, ok := idx.byPath[path]
	if !ok && path != "/" {
		r, ok = idx.byPath[strings.TrimSuffix(path, "/")]
	}
	if !ok {
		return nil, nil
	}
	return &page{idx: idx, rec: r}, nil
}

// FindBySlug returns the page with the given slug, nil when unknown.
func (idx *Index) FindBySlug(ctx context.Context, slug string) (domain.Page, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	r, ok := idx.bySlug[slug]
	if !ok {
		return nil, nil
	}
	return &page{idx: idx, rec: r}, nil
}

// All returns every registered page in file order.
func (idx *Index) All(ctx context.Context) ([]domain.Page, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	out := make([]domain.Page, 0, len(idx.records))
	for _, r := range idx.records {
		out = append(out, &page{idx: idx, rec: r})
	}
	return out, nil
}

// flush rewrites the registry file. Callers hold idx.mu.
func (idx *Index) flush() error {
	data, err := yaml.Marshal(fileDoc{Pages: idx.records})
	if err != nil {
		return errors.Wrap(err, "pages: marshal")
	}

	dir := filepath.Dir(idx.path)
	tmp, err := os.CreateTemp(dir, ".pages-*")
	if err != nil {
		return errors.Wrap(err, "pages: write")
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(err, "pages: write")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "pages: write")
	}
	if err := os.Rename(tmp.Name(), idx.path); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "pages: write")
	}
	return nil
}

type page struct {
	idx *Index
	rec *record
}

func (p *page) Slug() string { return p.rec.Slug }

func (p *page) URL() string {
	if p.rec.URL != "" {
		return p.rec.URL
	}
	return p.idx.baseURL + p.rec.Path
}

func (p *page) Date() time.Time {
	if p.rec.Date == "" {
		return time.Time{}
	}
	t, err := domain.ParseTimestamp(p.rec.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (p *page) NoBridge() bool      { return p.rec.NoBridge }
func (p *page) ReplyTo() string     { return p.rec.ReplyTo }
func (p *page) PublishedAt() string { return p.rec.PublishedAt }

func (p *page) SetPublishedAt(ctx context.Context, ts string) error {
	p.idx.mu.Lock()
	defer p.idx.mu.Unlock()

	prev := p.rec.PublishedAt
	p.rec.PublishedAt = ts
	if err := p.idx.flush(); err != nil {
		p.rec.PublishedAt = prev
		return err
	}
	return nil
}
