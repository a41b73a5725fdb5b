package envfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func paths(cands []Candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.Path
	}
	return out
}

func TestPlanNames(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		plan Plan
		want []string
	}{
		{name: "defaults without env", plan: Plan{}, want: []string{".env", ".env.local"}},
		{name: "defaults with env", plan: Plan{EnvName: "prod"}, want: []string{".env", ".env.prod", ".env.local", ".env.prod.local"}},
		{name: "custom", plan: Plan{EnvName: "dev", Filenames: []string{"app.env", "app.{env}.env", ""}}, want: []string{"app.env", "app.dev.env"}},
		{name: "explicitly empty", plan: Plan{Filenames: []string{}}, want: []string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.plan.Names(); !slices.Equal(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestDiscoverOrdersByPrecedence(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	child := filepath.Join(root, "app", "svc")
	writeFile(t, filepath.Join(root, ".env"), "A=root\n")
	writeFile(t, filepath.Join(child, ".env"), "A=child\n")
	writeFile(t, filepath.Join(child, ".env.prod.local"), "A=child-prod-local\n")
	writeFile(t, filepath.Join(child, ".env.prod"), "A=child-prod\n")

	got, err := Discover(Plan{SearchDirs: []string{child}, EnvName: "prod", StopAtFirstFoundDir: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		filepath.Join(child, ".env"),
		filepath.Join(child, ".env.prod"),
		filepath.Join(child, ".env.prod.local"),
	}
	if !slices.Equal(paths(got), want) {
		t.Fatalf("expected %v, got %v", want, paths(got))
	}
	for i, c := range got {
		if c.Rank != i || c.Dir != child {
			t.Fatalf("unexpected candidate %+v at %d", c, i)
		}
	}

	all, err := Discover(Plan{SearchDirs: []string{child}, EnvName: "prod", StopAtFirstFoundDir: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) < 4 {
		t.Fatalf("expected root and child files, got %v", paths(all))
	}
	rootIdx := slices.Index(paths(all), filepath.Join(root, ".env"))
	childIdx := slices.Index(paths(all), filepath.Join(child, ".env"))
	if rootIdx < 0 || childIdx < 0 || rootIdx > childIdx {
		t.Fatalf("expected ancestor file to rank below nearer file, got %v", paths(all))
	}
}

func TestDiscoverStopsAtFirstLevelWithFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	child := filepath.Join(root, "child")
	writeFile(t, filepath.Join(root, ".env"), "A=parent\n")
	if err := os.MkdirAll(child, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got, err := Discover(Plan{SearchDirs: []string{child}, StopAtFirstFoundDir: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{filepath.Join(root, ".env")}; !slices.Equal(paths(got), want) {
		t.Fatalf("expected parent file found by walking up, got %v", paths(got))
	}
}

func TestDiscoverEarlierSearchDirWins(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	first := filepath.Join(root, "first")
	second := filepath.Join(root, "second")
	writeFile(t, filepath.Join(first, ".env"), "A=first\n")
	writeFile(t, filepath.Join(second, ".env"), "A=second\n")

	got, err := Discover(Plan{SearchDirs: []string{first, second, first}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := paths(got)
	firstIdx := slices.Index(p, filepath.Join(first, ".env"))
	secondIdx := slices.Index(p, filepath.Join(second, ".env"))
	if firstIdx < 0 || secondIdx < 0 || firstIdx < secondIdx {
		t.Fatalf("expected first search dir to rank highest, got %v", p)
	}
	if len(slices.Compact(slices.Clone(p))) != len(p) {
		t.Fatalf("expected no duplicate candidates, got %v", p)
	}

	merged := Load(got, nil, zaptest.NewLogger(t))
	if merged["A"] != "first" {
		t.Fatalf("expected first search dir value, got %q", merged["A"])
	}
}

func TestDiscoverIgnoresDirectories(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ".env"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeFile(t, filepath.Join(root, ".env.local"), "A=1\n")

	got, err := Discover(Plan{SearchDirs: []string{root}, StopAtFirstFoundDir: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{filepath.Join(root, ".env.local")}; !slices.Equal(paths(got), want) {
		t.Fatalf("expected only regular files, got %v", paths(got))
	}
}

func TestLoadMergesAndSkipsUnreadable(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".env"), "# base\nA=base\nB=base\nexport C='single $QUOTED'\n")
	writeFile(t, filepath.Join(root, ".env.local"), "B=local\n")

	cands, err := Discover(Plan{SearchDirs: []string{root}, StopAtFirstFoundDir: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	broken := Candidate{Path: filepath.Join(root, "missing.env"), Dir: root, Rank: len(cands)}
	cands = append(cands, broken)

	merged := Load(cands, DotenvReader{}, zaptest.NewLogger(t))
	want := map[string]string{"A": "base", "B": "local", "C": "single $QUOTED"}
	if len(merged) != len(want) {
		t.Fatalf("expected %v, got %v", want, merged)
	}
	for k, v := range want {
		if merged[k] != v {
			t.Fatalf("expected %s=%q, got %q", k, v, merged[k])
		}
	}
}

func TestEscapeReferences(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		in   string
		want string
	}{
		{name: "unquoted", in: "A=${B:-x}\n", want: "A=\\${B:-x}\n"},
		{name: "bare reference", in: "SELF=$SELF\n", want: "SELF=\\$SELF\n"},
		{name: "double quoted", in: `URL="http://${HOST}"` + "\n", want: `URL="http://\${HOST}"` + "\n"},
		{name: "single quoted untouched", in: "A='$B'\n", want: "A='$B'\n"},
		{name: "comment untouched", in: "# uses $HOME\nA=1\n", want: "# uses $HOME\nA=1\n"},
		{name: "already escaped", in: "A=cost\\$5\n", want: "A=cost\\$5\n"},
		{name: "multiline double quoted", in: "A=\"one\n$TWO\"\nB=$C\n", want: "A=\"one\n\\$TWO\"\nB=\\$C\n"},
		{name: "yaml separator", in: "A: $B\n", want: "A: \\$B\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := string(escapeReferences([]byte(tc.in))); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestDotenvReaderKeepsReferences(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".env")
	content := "WITH_DEFAULT=${MISSING_X:-fallback}\n" +
		"SELF=$SELF\n" +
		"URL=\"http://${HOST}\"\n" +
		"QUOTED_DEFAULT=\"${PORT:-8080}\"\n" +
		"LITERAL='${KEEP}'\n"
	writeFile(t, path, content)

	got, err := DotenvReader{}.ReadPairs(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]string{
		"WITH_DEFAULT":   "${MISSING_X:-fallback}",
		"SELF":           "$SELF",
		"URL":            "http://${HOST}",
		"QUOTED_DEFAULT": "${PORT:-8080}",
		"LITERAL":        "${KEEP}",
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("expected %s=%q, got %q", k, v, got[k])
		}
	}
}

func TestLoadUsesCustomReader(t *testing.T) {
	t.Parallel()

	calls := 0
	reader := ReaderFunc(func(path string) (map[string]string, error) {
		calls++
		if path == "bad" {
			return nil, errors.New("boom")
		}
		return map[string]string{"K": path}, nil
	})

	merged := Load([]Candidate{{Path: "one"}, {Path: "bad"}, {Path: "two"}}, reader, nil)
	if calls != 3 || merged["K"] != "two" {
		t.Fatalf("expected 3 reads and K=two, got %d reads and %v", calls, merged)
	}
}

func TestFingerprintTracksPlan(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	base := Plan{SearchDirs: []string{dir}, StopAtFirstFoundDir: true}

	if base.Fingerprint() != base.Fingerprint() {
		t.Fatal("expected stable fingerprint")
	}
	variants := []Plan{
		{SearchDirs: []string{dir}, StopAtFirstFoundDir: false},
		{SearchDirs: []string{dir}, StopAtFirstFoundDir: true, EnvName: "prod"},
		{SearchDirs: []string{dir, dir + "x"}, StopAtFirstFoundDir: true},
		{SearchDirs: []string{dir}, StopAtFirstFoundDir: true, Filenames: []string{"x.env"}},
	}
	for i, v := range variants {
		if v.Fingerprint() == base.Fingerprint() {
			t.Fatalf("variant %d: expected different fingerprint", i)
		}
	}
}

func TestCacheReturnsDefensiveCopies(t *testing.T) {
	t.Parallel()

	cache := NewCache()
	src := map[string]string{"A": "1"}
	cache.Set("k", src)
	src["A"] = "changed"

	got, ok := cache.Get("k")
	if !ok || got["A"] != "1" {
		t.Fatalf("expected stored copy, got %v", got)
	}
	got["A"] = "mutated"
	again, _ := cache.Get("k")
	if again["A"] != "1" {
		t.Fatalf("expected defensive copy, got %v", again)
	}

	cache.Clear()
	if _, ok := cache.Get("k"); ok || cache.Len() != 0 {
		t.Fatal("expected empty cache after Clear")
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	cache := NewCache()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%4)
			cache.Set(key, map[string]string{"I": fmt.Sprint(i)})
			if _, ok := cache.Get(key); !ok {
				t.Errorf("expected entry for %s", key)
			}
		}(i)
	}
	wg.Wait()

	if cache.Len() != 4 {
		t.Fatalf("expected 4 entries, got %d", cache.Len())
	}
}
