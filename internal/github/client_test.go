package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/torfstack/jumble/internal/config"
	"github.com/torfstack/jumble/internal/merge"
)

// fakeRepo serves a contents API over a nested tree of files, tracking how
// often each file is downloaded.
type fakeRepo struct {
	mu        sync.Mutex
	dirs      map[string][]Entry
	contents  map[string]string
	downloads map[string]int
	server    *httptest.Server
}

func newFakeRepo(t *testing.T) *fakeRepo {
	r := &fakeRepo{
		dirs:      map[string][]Entry{},
		contents:  map[string]string{},
		downloads: map[string]int{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/samples/contents/", func(w http.ResponseWriter, req *http.Request) {
		path := req.URL.Path[len("/repos/octo/samples/contents/"):]
		entries, ok := r.dirs[path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message": "Not Found"}`)
			return
		}
		require.NoError(t, json.NewEncoder(w).Encode(entries))
	})
	mux.HandleFunc("/raw/", func(w http.ResponseWriter, req *http.Request) {
		path := req.URL.Path[len("/raw/"):]
		r.mu.Lock()
		r.downloads[path]++
		r.mu.Unlock()
		content, ok := r.contents[path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, content)
	})

	r.server = httptest.NewServer(mux)
	t.Cleanup(r.server.Close)
	return r
}

func (r *fakeRepo) addDir(path string, entries ...Entry) {
	r.dirs[path] = entries
}

func (r *fakeRepo) file(path, sha, content string) Entry {
	r.contents[path] = content
	return Entry{
		Name:        base(path),
		Path:        path,
		Type:        TypeFile,
		Sha:         sha,
		DownloadURL: r.server.URL + "/raw/" + path,
	}
}

func (r *fakeRepo) dir(path string) Entry {
	return Entry{Name: base(path), Path: path, Type: TypeDir}
}

func (r *fakeRepo) downloadCount(path string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.downloads[path]
}

func base(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}

func (r *fakeRepo) client(cache BlobCache) *Client {
	return &Client{
		baseURL: r.server.URL,
		http:    r.server.Client(),
		owner:   "octo",
		repo:    "samples",
		cache:   cache,
	}
}

type fakeCache struct {
	blobs map[string][]byte
}

func (f *fakeCache) Get(_ context.Context, sha string) ([]byte, bool, error) {
	content, ok := f.blobs[sha]
	return content, ok, nil
}

func (f *fakeCache) Put(_ context.Context, sha string, content []byte) error {
	f.blobs[sha] = content
	return nil
}

func TestList(t *testing.T) {
	t.Run("returns entries of a directory listing", func(t *testing.T) {
		repo := newFakeRepo(t)
		repo.addDir("output",
			repo.file("output/a.json", "sha-a", `{"x": 1}`),
			repo.dir("output/nested"),
		)

		entries, err := repo.client(nil).List(context.Background(), "output")
		require.NoError(t, err)
		require.Len(t, entries, 2)
		require.Equal(t, "a.json", entries[0].Name)
		require.Equal(t, TypeDir, entries[1].Type)
	})

	t.Run("single file response is wrapped into a slice", func(t *testing.T) {
		body := []byte(`{"name": "a.json", "path": "output/a.json", "type": "file"}`)

		entries, err := decodeListing(body, "output/a.json")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		require.Equal(t, "a.json", entries[0].Name)
	})

	t.Run("non-success status is a ListingError with status and body", func(t *testing.T) {
		repo := newFakeRepo(t)

		_, err := repo.client(nil).List(context.Background(), "does-not-exist")
		var listingErr *ListingError
		require.ErrorAs(t, err, &listingErr)
		require.Equal(t, http.StatusNotFound, listingErr.StatusCode)
		require.Contains(t, listingErr.Body, "Not Found")
	})
}

func TestCollect(t *testing.T) {
	t.Run("walks subdirectories and keys by base filename", func(t *testing.T) {
		repo := newFakeRepo(t)
		repo.addDir("output",
			repo.file("output/a.json", "sha-a", `{"x": 1}`),
			repo.dir("output/nested"),
		)
		repo.addDir("output/nested",
			repo.file("output/nested/b.json", "sha-b", `{"y": 2}`),
		)

		files, err := repo.client(nil).Collect(context.Background(), "output")
		require.NoError(t, err)
		require.Equal(t, merge.FileSet{
			"a.json": map[string]any{"x": float64(1)},
			"b.json": map[string]any{"y": float64(2)},
		}, files)
	})

	t.Run("non-json files are ignored", func(t *testing.T) {
		repo := newFakeRepo(t)
		repo.addDir("output",
			repo.file("output/readme.md", "sha-md", "# hello"),
			repo.file("output/a.json", "sha-a", `{"x": 1}`),
		)

		files, err := repo.client(nil).Collect(context.Background(), "output")
		require.NoError(t, err)
		require.Equal(t, merge.FileSet{"a.json": map[string]any{"x": float64(1)}}, files)
	})

	t.Run("unparseable file is skipped, walk continues", func(t *testing.T) {
		repo := newFakeRepo(t)
		repo.addDir("output",
			repo.file("output/broken.json", "sha-broken", `{"x":`),
			repo.file("output/a.json", "sha-a", `{"x": 1}`),
		)

		files, err := repo.client(nil).Collect(context.Background(), "output")
		require.NoError(t, err)
		require.Equal(t, merge.FileSet{"a.json": map[string]any{"x": float64(1)}}, files)
	})

	t.Run("failed download is skipped, walk continues", func(t *testing.T) {
		repo := newFakeRepo(t)
		missing := repo.file("output/gone.json", "sha-gone", "")
		delete(repo.contents, "output/gone.json")
		repo.addDir("output",
			missing,
			repo.file("output/a.json", "sha-a", `{"x": 1}`),
		)

		files, err := repo.client(nil).Collect(context.Background(), "output")
		require.NoError(t, err)
		require.Equal(t, merge.FileSet{"a.json": map[string]any{"x": float64(1)}}, files)
	})

	t.Run("duplicate basename in a later directory overwrites", func(t *testing.T) {
		repo := newFakeRepo(t)
		repo.addDir("output",
			repo.file("output/a.json", "sha-a", `{"from": "top"}`),
			repo.dir("output/nested"),
		)
		repo.addDir("output/nested",
			repo.file("output/nested/a.json", "sha-a2", `{"from": "nested"}`),
		)

		files, err := repo.client(nil).Collect(context.Background(), "output")
		require.NoError(t, err)
		require.Equal(t, merge.FileSet{"a.json": map[string]any{"from": "nested"}}, files)
	})

	t.Run("failed listing of a subdirectory aborts the walk", func(t *testing.T) {
		repo := newFakeRepo(t)
		repo.addDir("output", repo.dir("output/missing"))

		_, err := repo.client(nil).Collect(context.Background(), "output")
		var listingErr *ListingError
		require.ErrorAs(t, err, &listingErr)
	})

	t.Run("cache hit skips the download", func(t *testing.T) {
		repo := newFakeRepo(t)
		repo.addDir("output", repo.file("output/a.json", "sha-a", `{"x": 1}`))
		c := &fakeCache{blobs: map[string][]byte{"sha-a": []byte(`{"x": 2}`)}}

		files, err := repo.client(c).Collect(context.Background(), "output")
		require.NoError(t, err)
		require.Equal(t, merge.FileSet{"a.json": map[string]any{"x": float64(2)}}, files)
		require.Zero(t, repo.downloadCount("output/a.json"))
	})

	t.Run("downloads are stored back into the cache", func(t *testing.T) {
		repo := newFakeRepo(t)
		repo.addDir("output", repo.file("output/a.json", "sha-a", `{"x": 1}`))
		c := &fakeCache{blobs: map[string][]byte{}}

		_, err := repo.client(c).Collect(context.Background(), "output")
		require.NoError(t, err)
		require.Equal(t, []byte(`{"x": 1}`), c.blobs["sha-a"])
	})
}

func TestNewClient(t *testing.T) {
	t.Run("without token uses the default http client", func(t *testing.T) {
		c := NewClient(context.Background(), config.Config{Owner: "octo", Repo: "samples"}, nil)
		require.Same(t, http.DefaultClient, c.http)
	})

	t.Run("with token uses an authenticated client", func(t *testing.T) {
		c := NewClient(context.Background(), config.Config{Owner: "octo", Repo: "samples", Token: "t"}, nil)
		require.NotSame(t, http.DefaultClient, c.http)
	})
}
