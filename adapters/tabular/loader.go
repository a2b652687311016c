package tabular

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/http"
	"os"
	"time"

	"minidash/internal/errors"
	"minidash/internal/table"
	"minidash/internal/testkit"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// maxDownload caps remote payloads; classroom datasets are a few thousand rows
const maxDownload = 64 << 20

// Loader resolves source URIs into tables
type Loader struct {
	bundled    fs.FS
	httpClient *http.Client
	objects    ObjectGetter
	db         Querier
	timeout    time.Duration
	maxBytes   int64
}

// Option configures a Loader
type Option func(*Loader)

// WithBundled sets the filesystem behind bundled: sources
func WithBundled(fsys fs.FS) Option {
	return func(l *Loader) { l.bundled = fsys }
}

// WithHTTPClient replaces the client used for http(s) sources
func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) { l.httpClient = c }
}

// WithObjectStore enables s3:// sources
func WithObjectStore(g ObjectGetter) Option {
	return func(l *Loader) { l.objects = g }
}

// WithDB enables sql: sources
func WithDB(db Querier) Option {
	return func(l *Loader) { l.db = db }
}

// WithTimeout bounds each load; zero means no limit beyond the caller's context
func WithTimeout(d time.Duration) Option {
	return func(l *Loader) { l.timeout = d }
}

// WithMaxDownload caps http(s) and s3:// payloads; larger ones fail with SOURCE_UNAVAILABLE
func WithMaxDownload(n int64) Option {
	return func(l *Loader) { l.maxBytes = n }
}

// NewLoader creates a loader. Sources whose backend was not configured fail with
// SOURCE_UNAVAILABLE when loaded.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{httpClient: http.DefaultClient, maxBytes: maxDownload}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the dataset named by uri
func (l *Loader) Load(ctx context.Context, uri string) (*table.Table, error) {
	src, err := ParseSource(uri)
	if err != nil {
		return nil, err
	}
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	startTime := time.Now()
	tbl, err := l.load(ctx, src)
	if err != nil {
		log.Printf("[DataReader] Failed to load %s: %v", uri, err)
		return nil, err
	}
	log.Printf("[DataReader] Loaded %s in %.2fms (%d columns, %d rows)",
		uri, float64(time.Since(startTime).Nanoseconds())/1e6, len(tbl.Columns()), tbl.Len())
	return tbl, nil
}

func (l *Loader) load(ctx context.Context, src Source) (*table.Table, error) {
	switch src.Kind {
	case KindSynthetic:
		records, err := testkit.Records(src.Location)
		if err != nil {
			return nil, errors.WithCode(errors.CodeNotFound, err)
		}
		return table.FromRecords(records)

	case KindBundled:
		if l.bundled == nil {
			return nil, errors.SourceUnavailable("bundled:"+src.Location, fmt.Errorf("no bundled datasets configured"))
		}
		f, err := l.bundled.Open(src.Location)
		if err != nil {
			return nil, errors.WithCode(errors.CodeNotFound, fmt.Errorf("bundled dataset %s: %w", src.Location, err))
		}
		defer f.Close()
		return decode(src, f)

	case KindFile:
		f, err := os.Open(src.Location)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.WithCode(errors.CodeNotFound, fmt.Errorf("file not found: %s", src.Location))
			}
			return nil, errors.SourceUnavailable(src.Location, err)
		}
		defer f.Close()
		return decode(src, f)

	case KindHTTP:
		return l.fetch(ctx, src)

	case KindS3:
		if l.objects == nil {
			return nil, errors.SourceUnavailable("s3://"+src.Bucket+"/"+src.Location, fmt.Errorf("object storage not configured"))
		}
		out, err := l.objects.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(src.Bucket),
			Key:    aws.String(src.Location),
		})
		if err != nil {
			return nil, errors.SourceUnavailable("s3://"+src.Bucket+"/"+src.Location, err)
		}
		defer out.Body.Close()
		return l.decodeRemote(src, "s3://"+src.Bucket+"/"+src.Location, out.Body)

	case KindSQL:
		if l.db == nil {
			return nil, errors.SourceUnavailable("sql", fmt.Errorf("DATABASE_URL not configured"))
		}
		return readQuery(ctx, l.db, src.Location)
	}
	return nil, errors.Newf(errors.CodeInvalidInput, "unsupported source kind %q", src.Kind)
}

func (l *Loader) fetch(ctx context.Context, src Source) (*table.Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.Location, nil)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("failed to build request: %w", err))
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, errors.SourceUnavailable(src.Location, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, errors.SourceUnavailable(src.Location, fmt.Errorf("server returned status %d", resp.StatusCode))
	}
	return l.decodeRemote(src, src.Location, resp.Body)
}

// decodeRemote buffers at most maxBytes of a remote payload before decoding it
func (l *Loader) decodeRemote(src Source, name string, body io.Reader) (*table.Table, error) {
	data, err := io.ReadAll(io.LimitReader(body, l.maxBytes+1))
	if err != nil {
		return nil, errors.SourceUnavailable(name, err)
	}
	if int64(len(data)) > l.maxBytes {
		return nil, errors.SourceUnavailable(name, fmt.Errorf("payload exceeds %d bytes", l.maxBytes))
	}
	return decode(src, bytes.NewReader(data))
}

func decode(src Source, r io.Reader) (*table.Table, error) {
	switch src.Format() {
	case "xlsx":
		return readWorkbook(r)
	case "json":
		return readJSON(r, src.Path)
	}
	return readDelimited(r)
}
