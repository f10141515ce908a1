// SPDX-License-Identifier: MPL-2.0

package update

import (
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/assetsync/assetsync/internal/digest"
	"github.com/assetsync/assetsync/internal/events"
	"github.com/assetsync/assetsync/internal/remote"
	"github.com/assetsync/assetsync/internal/store"
	"github.com/assetsync/assetsync/pkg/manifest"
)

// release is a test release: artifact name to content.
type release struct {
	version string
	files   map[string]string
}

func (r release) manifest() *manifest.Manifest {
	m := &manifest.Manifest{Version: manifest.MustParseVersion(r.version)}
	names := make([]string, 0, len(r.files))
	for name := range r.files {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		content := r.files[name]
		m.Artifacts = append(m.Artifacts, manifest.Artifact{
			Name:   name,
			Digest: digest.String(content),
			Size:   int64(len(content)),
		})
	}
	return m
}

func (r release) raw(t *testing.T) []byte {
	t.Helper()
	b, err := manifest.Marshal(r.manifest())
	if err != nil {
		t.Fatal(err)
	}
	return b
}

// ship lays r out as bundled client content.
func (r release) ship(t *testing.T) fstest.MapFS {
	t.Helper()
	fsys := fstest.MapFS{store.ManifestName(): {Data: r.raw(t)}}
	for name, content := range r.files {
		fsys[name] = &fstest.MapFile{Data: []byte(content)}
	}
	return fsys
}

// origin is a fake CDN serving one channel.
type origin struct {
	t   *testing.T
	srv *httptest.Server

	mu        sync.Mutex
	manifest  []byte
	manifestS int // status override for version.json, 0 for 200
	files     map[string]string
	override  map[string]string // served body differs from the manifest
	fail      map[string]bool
	hits      map[string]int
	block     chan struct{}
}

func newOrigin(t *testing.T) *origin {
	t.Helper()
	o := &origin{
		t:        t,
		files:    make(map[string]string),
		override: make(map[string]string),
		fail:     make(map[string]bool),
		hits:     make(map[string]int),
	}
	o.srv = httptest.NewServer(http.HandlerFunc(o.serve))
	t.Cleanup(o.srv.Close)
	return o
}

// publish makes r the channel's current release.
func (o *origin) publish(r release) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.manifest = r.raw(o.t)
	for name, content := range r.files {
		o.files["/live/"+r.version+"/"+name] = content
	}
}

func (o *origin) serve(w http.ResponseWriter, r *http.Request) {
	o.mu.Lock()
	block := o.block
	o.mu.Unlock()
	if block != nil && r.URL.Path == "/live/version.json" {
		select {
		case <-block:
		case <-r.Context().Done():
			return
		}
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if r.URL.Path == "/live/version.json" {
		if o.manifestS != 0 {
			w.WriteHeader(o.manifestS)
			return
		}
		_, _ = w.Write(o.manifest)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/live/")
	if i := strings.Index(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if o.fail[name] {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	content, ok := o.files[r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}
	if body, ok := o.override[name]; ok {
		content = body
	}
	o.hits[name]++
	_, _ = w.Write([]byte(content))
}

func (o *origin) setFail(name string, fail bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fail[name] = fail
}

func (o *origin) hitCount(name string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.hits[name]
}

func (o *origin) totalHits() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, h := range o.hits {
		n += h
	}
	return n
}

func (o *origin) client(t *testing.T) *remote.Client {
	t.Helper()
	c, err := remote.New(o.srv.URL, remote.WithHTTPClient(o.srv.Client()))
	if err != nil {
		t.Fatal(err)
	}
	return c
}

// recorder captures every signal published on a bus.
type recorder struct {
	mu       sync.Mutex
	states   []string
	progress []events.Progress
	prompts  []events.Prompt
	complete []events.Complete
}

func record(bus *events.Bus) *recorder {
	r := &recorder{}
	events.Subscribe(bus, events.StateChanged, func(s events.StateChange) {
		r.mu.Lock()
		r.states = append(r.states, s.State)
		r.mu.Unlock()
	})
	events.Subscribe(bus, events.DownloadProgress, func(p events.Progress) {
		r.mu.Lock()
		r.progress = append(r.progress, p)
		r.mu.Unlock()
	})
	events.Subscribe(bus, events.UserPrompt, func(p events.Prompt) {
		r.mu.Lock()
		r.prompts = append(r.prompts, p)
		r.mu.Unlock()
	})
	events.Subscribe(bus, events.UpdateComplete, func(c events.Complete) {
		r.mu.Lock()
		r.complete = append(r.complete, c)
		r.mu.Unlock()
	})
	return r
}

func (r *recorder) sawState(st State) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Contains(r.states, st.String())
}

func (r *recorder) lastPrompt() (events.Prompt, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.prompts) == 0 {
		return events.Prompt{}, false
	}
	return r.prompts[len(r.prompts)-1], true
}

// installed adopts r into s as if a previous attempt had finished.
func installed(t *testing.T, s *store.Store, r release) {
	t.Helper()
	if _, err := s.ExtractFrom(r.ship(t)); err != nil {
		t.Fatalf("installing %s: %v", r.version, err)
	}
}
