package e2e

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
)

const fixtureTitle = "Fixture Cat Video"

// newFixtureBackend serves one page of one video for any search, and
// empty answers for everything else the client asks for.
func newFixtureBackend() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/scraper/scrape", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"message": "ok", "count": 1})
	})
	mux.HandleFunc("/scraper/scrape/related", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"count": 0, "relatedKeywords": []string{}})
	})
	mux.HandleFunc("/content/videos", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"content": []map[string]any{{
				"id":           "item-1",
				"videoId":      "m-item-1",
				"title":        fixtureTitle,
				"hashtags":     []string{"cats"},
				"channelTitle": "Fixture Channel",
			}},
			"number": 0,
			"size":   10,
			"last":   true,
		})
	})
	mux.HandleFunc("/comments/count", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 0)
	})
	return httptest.NewServer(mux)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeFixtureConfig drops the scrape settle delay so the feed shows up
// right after the search.
func writeFixtureConfig(homeDir string) error {
	dataDir := filepath.Join(homeDir, ".realstream")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return err
	}
	cfg := map[string]any{
		"feed": map[string]any{"scrape_settle_ms": 0},
		"ui":   map[string]any{"mouse_wheel": false, "show_hints": true},
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dataDir, "config.json"), data, 0600)
}
