package store

import (
	"path/filepath"
	"testing"
)

func openTest(t *testing.T) *Client {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roseline.db")
	c, err := Open(path, 2)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestPutVnIsIdempotent(t *testing.T) {
	c := openTest(t)

	first, err := c.PutVn(17, "Narcissu")
	if err != nil {
		t.Fatalf("PutVn: %v", err)
	}
	second, err := c.PutVn(17, "a different title")
	if err != nil {
		t.Fatalf("PutVn (second): %v", err)
	}
	if second.Title != first.Title {
		t.Fatalf("PutVn re-inserted over existing row: got title %q, want %q", second.Title, first.Title)
	}
}

func TestGetVnDataCombinesVnAndHooks(t *testing.T) {
	c := openTest(t)

	if _, err := c.PutVn(17, "Narcissu"); err != nil {
		t.Fatalf("PutVn: %v", err)
	}
	if _, err := c.PutHook(17, "v1.0", "/HOOK*5"); err != nil {
		t.Fatalf("PutHook: %v", err)
	}

	data, err := c.GetVnData(17)
	if err != nil {
		t.Fatalf("GetVnData: %v", err)
	}
	if data.Vn.Title != "Narcissu" {
		t.Fatalf("GetVnData Vn.Title = %q, want Narcissu", data.Vn.Title)
	}
	if len(data.Hooks) != 1 || data.Hooks[0].Code != "/HOOK*5" {
		t.Fatalf("GetVnData Hooks = %+v, want one /HOOK*5 hook", data.Hooks)
	}
}

func TestGetVnDataMissingReturnsNilNotError(t *testing.T) {
	c := openTest(t)

	data, err := c.GetVnData(404)
	if err != nil {
		t.Fatalf("GetVnData: %v", err)
	}
	if data != nil {
		t.Fatalf("GetVnData = %+v, want nil for an uncatalogued id", data)
	}
}

func TestSearchVnIsSubstringMatch(t *testing.T) {
	c := openTest(t)

	if _, err := c.PutVn(1, "Fate/stay night"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.PutVn(2, "Umineko no Naku Koro ni"); err != nil {
		t.Fatal(err)
	}

	found, err := c.SearchVn("naku")
	if err != nil {
		t.Fatalf("SearchVn: %v", err)
	}
	if len(found) != 1 || found[0].ID != 2 {
		t.Fatalf("SearchVn(%q) = %+v, want only id 2", "naku", found)
	}
}

func TestPutHookUpdatesExistingVersion(t *testing.T) {
	c := openTest(t)
	if _, err := c.PutVn(5, "Clannad"); err != nil {
		t.Fatal(err)
	}

	if _, err := c.PutHook(5, "1.0", "old code"); err != nil {
		t.Fatalf("PutHook: %v", err)
	}
	hook, err := c.PutHook(5, "1.0", "new code")
	if err != nil {
		t.Fatalf("PutHook (update): %v", err)
	}
	if hook.Code != "new code" {
		t.Fatalf("PutHook did not update code, got %q", hook.Code)
	}

	hooks, err := c.GetHooks(5)
	if err != nil {
		t.Fatalf("GetHooks: %v", err)
	}
	if len(hooks) != 1 {
		t.Fatalf("GetHooks = %+v, want exactly one hook (update, not insert)", hooks)
	}
}

func TestDeleteVnCascadesHooks(t *testing.T) {
	c := openTest(t)
	if _, err := c.PutVn(9, "Steins;Gate"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.PutHook(9, "1.0", "code"); err != nil {
		t.Fatal(err)
	}

	if _, err := c.DeleteVn(9); err != nil {
		t.Fatalf("DeleteVn: %v", err)
	}

	hooks, err := c.GetHooks(9)
	if err != nil {
		t.Fatalf("GetHooks after delete: %v", err)
	}
	if len(hooks) != 0 {
		t.Fatalf("hooks survived VN deletion: %+v, want ON DELETE CASCADE to remove them", hooks)
	}
}

func TestGetVnMissingReturnsNilNotError(t *testing.T) {
	c := openTest(t)

	vn, err := c.GetVn(404)
	if err != nil {
		t.Fatalf("GetVn on missing id returned error: %v", err)
	}
	if vn != nil {
		t.Fatalf("GetVn on missing id = %+v, want nil", vn)
	}
}

func TestStatsCountsRows(t *testing.T) {
	c := openTest(t)
	if _, err := c.PutVn(1, "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.PutVn(2, "b"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.PutHook(1, "1.0", "code"); err != nil {
		t.Fatal(err)
	}

	stats, err := c.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Vns != 2 || stats.Hooks != 1 {
		t.Fatalf("Stats = %+v, want {Vns:2 Hooks:1}", stats)
	}
}

func TestPoolSerializesConcurrentCallers(t *testing.T) {
	c := openTest(t)
	if _, err := c.PutVn(1, "concurrent"); err != nil {
		t.Fatal(err)
	}

	const n = 20
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func(i int) {
			_, err := c.PutHook(1, "1.0", "code")
			errs <- err
		}(i)
	}
	for i := 0; i < n; i++ {
		if err := <-errs; err != nil {
			t.Errorf("concurrent PutHook: %v", err)
		}
	}

	hooks, err := c.GetHooks(1)
	if err != nil {
		t.Fatalf("GetHooks: %v", err)
	}
	if len(hooks) != 1 {
		t.Fatalf("concurrent PutHook calls produced %d rows, want exactly 1", len(hooks))
	}
}
