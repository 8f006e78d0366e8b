package fetcher

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// TraceSink receives raw fetched HTML for post-hoc inspection. The
// default is a no-op; the pipeline never depends on the dump surviving.
type TraceSink interface {
	Dump(pageURL, kind, html string)
}

// NopTrace discards everything.
type NopTrace struct{}

func (NopTrace) Dump(string, string, string) {}

// FileTrace writes each page to a timestamped file in a directory.
type FileTrace struct {
	dir string
}

// NewTraceSink returns a FileTrace when dir is set, NopTrace otherwise.
func NewTraceSink(dir string) TraceSink {
	if dir == "" {
		return NopTrace{}
	}
	return &FileTrace{dir: dir}
}

func (t *FileTrace) Dump(pageURL, kind, html string) {
	if err := os.MkdirAll(t.dir, 0o755); err != nil {
		log.Printf("Trace dir unavailable: %v\n", err)
		return
	}

	host := "page"
	if u, err := url.Parse(pageURL); err == nil && u.Host != "" {
		host = u.Host
	}
	name := fmt.Sprintf("%s_%s_%d.html", kind, host, time.Now().UnixNano())
	if err := os.WriteFile(filepath.Join(t.dir, name), []byte(html), 0o644); err != nil {
		log.Printf("Failed to write trace file: %v\n", err)
	}
}
