package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/clash-of-cans/go-server/internal/scoreboard"
	"github.com/clash-of-cans/go-server/internal/session"
	"github.com/clash-of-cans/go-server/internal/submit"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	reg := session.NewMemory(session.Config{Secret: []byte("test_secret")})
	store := scoreboard.NewFileStore(filepath.Join(t.TempDir(), "scoreboard.json"))
	v := submit.NewValidator(reg, store)
	ts := httptest.NewServer(New(reg, store, v, "").Router())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func startGame(t *testing.T, ts *httptest.Server, canCount int) string {
	t.Helper()
	resp := postJSON(t, ts.URL+"/api/start-game", map[string]int{"canCount": canCount})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start-game(%d): status %d", canCount, resp.StatusCode)
	}
	return decode[map[string]string](t, resp)["token"]
}

func TestStartGameValidatesCanCount(t *testing.T) {
	ts := newTestServer(t)

	for _, count := range []int{4, 9, 0, -1} {
		resp := postJSON(t, ts.URL+"/api/start-game", map[string]int{"canCount": count})
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("canCount=%d: status %d, want 400", count, resp.StatusCode)
		}
		resp.Body.Close()
	}
	for count := 5; count <= 8; count++ {
		if tok := startGame(t, ts, count); tok == "" {
			t.Errorf("canCount=%d: empty token", count)
		}
	}
}

func TestSubmitAndListScores(t *testing.T) {
	ts := newTestServer(t)
	token := startGame(t, ts, 5)

	resp := postJSON(t, ts.URL+"/api/scores", map[string]any{
		"canCount": 5, "turns": 3, "name": "Al", "token": token, "gameTime": 9000,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit: status %d", resp.StatusCode)
	}
	if msg := decode[map[string]string](t, resp)["message"]; msg != "Score saved successfully" {
		t.Fatalf("message = %q", msg)
	}

	// A second, slower entry in the same bucket.
	token2 := startGame(t, ts, 5)
	resp = postJSON(t, ts.URL+"/api/scores", map[string]any{
		"canCount": 5, "turns": 7, "name": "Bea", "token": token2, "gameTime": 25000,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("second submit: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	got, err := http.Get(ts.URL + "/api/scores")
	if err != nil {
		t.Fatalf("GET /api/scores: %v", err)
	}
	board := decode[scoreboard.Board](t, got)
	bucket := board["5"]
	if len(bucket) != 2 {
		t.Fatalf("board[5] = %v, want 2 entries", bucket)
	}
	if bucket[0].Name != "Al" || bucket[0].Turns != 3 || bucket[1].Name != "Bea" {
		t.Fatalf("board[5] not ranked ascending by turns: %v", bucket)
	}
}

func TestSubmitRejectsReplay(t *testing.T) {
	ts := newTestServer(t)
	token := startGame(t, ts, 5)

	body := map[string]any{"canCount": 5, "turns": 3, "name": "Al", "token": token, "gameTime": 9000}
	resp := postJSON(t, ts.URL+"/api/scores", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first submit: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/api/scores", body)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("replay: status %d, want 403", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestSubmitRejectsMismatchedSize(t *testing.T) {
	ts := newTestServer(t)
	token := startGame(t, ts, 5)

	resp := postJSON(t, ts.URL+"/api/scores", map[string]any{
		"canCount": 6, "turns": 3, "name": "Al", "token": token, "gameTime": 9000,
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("mismatched size: status %d, want 403", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestSubmitRejectsBadNames(t *testing.T) {
	ts := newTestServer(t)

	for _, name := range []string{"", "   ", "abcdefghijklmnop"} {
		token := startGame(t, ts, 5)
		resp := postJSON(t, ts.URL+"/api/scores", map[string]any{
			"canCount": 5, "turns": 3, "name": name, "token": token, "gameTime": 9000,
		})
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("name=%q: status %d, want 400", name, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestSubmitWithoutTokenForbidden(t *testing.T) {
	ts := newTestServer(t)
	resp := postJSON(t, ts.URL+"/api/scores", map[string]any{
		"canCount": 5, "turns": 3, "name": "Al", "gameTime": 9000,
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("untokened submit: status %d, want 403", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health: status %d", resp.StatusCode)
	}
}
