package store

import (
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func openMem(t *testing.T) *Store {
	t.Helper()
	st, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestOpenCreatesTables(t *testing.T) {
	st := openMem(t)
	for _, table := range []string{"session_state", "credentials", "searches"} {
		var name string
		err := st.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("%s table not created: %v", table, err)
		}
	}
}

func TestSessionGetSetDelete(t *testing.T) {
	st := openMem(t)

	if _, ok, err := st.Get("topic"); err != nil || ok {
		t.Fatalf("Get on empty store = ok:%v err:%v", ok, err)
	}
	if err := st.Set("topic", "cats"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := st.Set("topic", "dogs"); err != nil {
		t.Fatalf("Set overwrite failed: %v", err)
	}
	v, ok, err := st.Get("topic")
	if err != nil || !ok || v != "dogs" {
		t.Errorf("Get = %q,%v,%v; want dogs,true,nil", v, ok, err)
	}

	if err := st.Set("onboarded", "true"); err != nil {
		t.Fatal(err)
	}
	if err := st.Delete("topic", "onboarded", "missing"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok, _ := st.Get("onboarded"); ok {
		t.Error("onboarded should be gone")
	}
}

func TestTokenLifecycle(t *testing.T) {
	st := openMem(t)

	tok, err := st.Token()
	if err != nil || tok != "" {
		t.Fatalf("Token on empty store = %q, %v", tok, err)
	}
	if err := st.SaveToken("abc"); err != nil {
		t.Fatalf("SaveToken failed: %v", err)
	}
	if err := st.SaveToken("def"); err != nil {
		t.Fatalf("SaveToken replace failed: %v", err)
	}
	if tok, _ := st.Token(); tok != "def" {
		t.Errorf("Token = %q, want def", tok)
	}
	if err := st.ClearToken(); err != nil {
		t.Fatal(err)
	}
	if tok, _ := st.Token(); tok != "" {
		t.Errorf("Token after clear = %q", tok)
	}
}

func TestRecentSearches(t *testing.T) {
	st := openMem(t)

	if err := st.RecordSearch("topic", "cats"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	if err := st.RecordSearch("channel", "example"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	if err := st.RecordSearch("topic", "cats"); err != nil {
		t.Fatal(err)
	}
	st.RecordSearch("topic", "")

	got, err := st.RecentSearches(10)
	if err != nil {
		t.Fatalf("RecentSearches failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 searches, got %d", len(got))
	}
	if got[0].Value != "cats" || got[1].Value != "example" {
		t.Errorf("order = %q,%q; want cats,example", got[0].Value, got[1].Value)
	}

	if got, _ := st.RecentSearches(1); len(got) != 1 {
		t.Errorf("limit ignored: %d", len(got))
	}
}

func TestFileStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "realstream.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	st.Set("channel", "example")
	st.SaveToken("tok")
	st.Close()

	st2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer st2.Close()
	if v, ok, _ := st2.Get("channel"); !ok || v != "example" {
		t.Errorf("channel = %q,%v after reopen", v, ok)
	}
	if tok, _ := st2.Token(); tok != "tok" {
		t.Errorf("token = %q after reopen", tok)
	}
}

func TestConcurrentAccess(t *testing.T) {
	st := openMem(t)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st.Set("topic", "cats")
			st.Get("topic")
		}()
	}
	wg.Wait()
	if v, _, _ := st.Get("topic"); v != "cats" {
		t.Errorf("topic = %q", v)
	}
}
