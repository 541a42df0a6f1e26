package e2e

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hyperengineering/daybook/internal/api"
	"github.com/hyperengineering/daybook/internal/prefs"
	"github.com/hyperengineering/daybook/internal/repository"
	"github.com/hyperengineering/daybook/internal/session"
	"github.com/hyperengineering/daybook/internal/store"
	"github.com/hyperengineering/daybook/internal/types"
)

const testAPIKey = "e2e-key"

// stack is the full server wired over an on-disk SQLite database and
// preference directory, the way the serve command wires it.
type stack struct {
	dir    string
	store  *store.SQLiteStore
	coord  *session.Coordinator
	server *httptest.Server
	once   sync.Once
}

// startStack opens (or reopens) the data in dir and serves it.
func startStack(t *testing.T, dir string) *stack {
	t.Helper()
	db, err := store.NewSQLiteStore(filepath.Join(dir, "daybook.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	coord := session.New(context.Background(), repository.New(db), prefs.NewDiskStore(filepath.Join(dir, "prefs")))
	s := &stack{
		dir:    dir,
		store:  db,
		coord:  coord,
		server: httptest.NewServer(api.NewRouter(api.NewHandler(coord, testAPIKey, "e2e"))),
	}
	t.Cleanup(s.stop)
	return s
}

// stop shuts the stack down in serve order: server, session, store.
func (s *stack) stop() {
	s.once.Do(func() {
		s.server.CloseClientConnections()
		s.server.Close()
		s.coord.Close()
		s.store.Close()
	})
}

func (s *stack) tryRequest(method, path string, body any) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
		r = &buf
	}
	req, err := http.NewRequest(method, s.server.URL+path, r)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	return s.server.Client().Do(req)
}

func (s *stack) request(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	resp, err := s.tryRequest(method, path, body)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

// call performs a request, checks the status and decodes the body into out
// when out is non-nil.
func (s *stack) call(t *testing.T, method, path string, body any, wantStatus int, out any) {
	t.Helper()
	resp := s.request(t, method, path, body)
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s: status = %d, want %d, body = %s", method, path, resp.StatusCode, wantStatus, b)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
}

func (s *stack) createJournal(t *testing.T, j types.Journal) int64 {
	t.Helper()
	var resp types.IDResponse
	s.call(t, http.MethodPost, "/api/v1/journals", j, http.StatusCreated, &resp)
	return resp.ID
}

func (s *stack) createEntry(t *testing.T, e types.JournalEntry) int64 {
	t.Helper()
	var resp types.IDResponse
	s.call(t, http.MethodPost, "/api/v1/entries", e, http.StatusCreated, &resp)
	return resp.ID
}

func (s *stack) journals(t *testing.T, path string) []types.Journal {
	t.Helper()
	var out []types.Journal
	s.call(t, http.MethodGet, path, nil, http.StatusOK, &out)
	return out
}

func (s *stack) entries(t *testing.T, path string) []types.JournalEntry {
	t.Helper()
	var out []types.JournalEntry
	s.call(t, http.MethodGet, path, nil, http.StatusOK, &out)
	return out
}

// watch opens a live view and returns its data events.
func (s *stack) watch(t *testing.T, path string) <-chan string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, s.server.URL+path, nil)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	resp, err := s.server.Client().Do(req)
	if err != nil {
		cancel()
		t.Fatalf("watch %s: %v", path, err)
	}
	events := make(chan string, 16)
	go func() {
		defer close(events)
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			if data, ok := strings.CutPrefix(sc.Text(), "data: "); ok {
				events <- data
			}
		}
	}()
	t.Cleanup(func() {
		cancel()
		resp.Body.Close()
	})
	return events
}

// nextEntries waits for the next entry snapshot on events.
func nextEntries(t *testing.T, events <-chan string) []types.JournalEntry {
	t.Helper()
	select {
	case data, ok := <-events:
		if !ok {
			t.Fatal("live view ended")
		}
		var out []types.JournalEntry
		if err := json.Unmarshal([]byte(data), &out); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		return out
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for live view event")
	}
	return nil
}

func titles(entries []types.JournalEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Title
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func jsonDecode(resp *http.Response, out any) error {
	return json.NewDecoder(resp.Body).Decode(out)
}
