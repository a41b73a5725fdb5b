package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestChainPrecedence(t *testing.T) {
	t.Parallel()

	provider := Static{"SECRET": "from-provider", "SHARED": "provider"}
	dotenv := map[string]string{"SHARED": "dotenv", "FILE_ONLY": "file", "BOTH": "dotenv"}
	environ := Static{"SHARED": "process", "BOTH": "process", "OS_ONLY": "os"}

	testCases := []struct {
		name      string
		cfg       Config
		provider  Provider
		key       string
		want      string
		wantLayer Layer
		wantFound bool
	}{
		{name: "provider wins", cfg: DefaultConfig(), provider: provider, key: "SHARED", want: "provider", wantLayer: LayerProvider, wantFound: true},
		{name: "provider wins over dotenv preference", cfg: DefaultConfig().With(WithPreferOSOverDotenv(false)), provider: provider, key: "SHARED", want: "provider", wantLayer: LayerProvider, wantFound: true},
		{name: "provider disabled", cfg: DefaultConfig().With(WithProvider(false)), provider: provider, key: "SECRET", wantLayer: LayerNone},
		{name: "provider absent", cfg: DefaultConfig(), key: "SHARED", want: "process", wantLayer: LayerProcess, wantFound: true},
		{name: "prefer os", cfg: DefaultConfig(), key: "BOTH", want: "process", wantLayer: LayerProcess, wantFound: true},
		{name: "prefer dotenv", cfg: DefaultConfig().With(WithPreferOSOverDotenv(false)), key: "BOTH", want: "dotenv", wantLayer: LayerDotenv, wantFound: true},
		{name: "file fallback", cfg: DefaultConfig(), key: "FILE_ONLY", want: "file", wantLayer: LayerDotenv, wantFound: true},
		{name: "os fallback", cfg: DefaultConfig().With(WithPreferOSOverDotenv(false)), key: "OS_ONLY", want: "os", wantLayer: LayerProcess, wantFound: true},
		{name: "missing", cfg: DefaultConfig(), provider: provider, key: "NOPE", wantLayer: LayerNone},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			chain := NewChain(tc.cfg, tc.provider, dotenv, environ)
			got, layer, found := chain.Explain(tc.key)
			if got != tc.want || layer != tc.wantLayer || found != tc.wantFound {
				t.Fatalf("expected (%q, %s, %v), got (%q, %s, %v)", tc.want, tc.wantLayer, tc.wantFound, got, layer, found)
			}
			if v, ok := chain.Lookup(tc.key); v != got || ok != found {
				t.Fatalf("Lookup disagrees with Explain: (%q, %v)", v, ok)
			}
		})
	}
}

func TestChainReadsProcessEnvironmentByDefault(t *testing.T) {
	t.Setenv("CASTENV_SOURCE_TEST", "live")

	chain := NewChain(DefaultConfig(), nil, nil, nil)
	got, layer, ok := chain.Explain("CASTENV_SOURCE_TEST")
	if !ok || got != "live" || layer != LayerProcess {
		t.Fatalf("expected live from process, got (%q, %s, %v)", got, layer, ok)
	}
}

func TestConfigWithCopies(t *testing.T) {
	t.Parallel()

	base := DefaultConfig().With(WithSearchDirs("a", "b"), WithFilenames(".env"))
	derived := base.With(WithSearchDirs("c"), WithEnvName("prod"), WithStopAtFirstFoundDir(false))

	if len(base.SearchDirs) != 2 || base.EnvName != "" || !base.StopAtFirstFoundDir {
		t.Fatalf("expected base unchanged, got %+v", base)
	}
	if derived.SearchDirs[0] != "c" || derived.EnvName != "prod" || derived.StopAtFirstFoundDir {
		t.Fatalf("expected derived applied, got %+v", derived)
	}
	if base.Fingerprint() == derived.Fingerprint() {
		t.Fatal("expected fingerprints to differ")
	}
	if base.Fingerprint() == base.With(WithPreferOSOverDotenv(false)).Fingerprint() {
		t.Fatal("expected layer order to affect fingerprint")
	}

	plan := derived.Plan()
	if plan.EnvName != "prod" || plan.StopAtFirstFoundDir || len(plan.Filenames) != 1 {
		t.Fatalf("unexpected plan %+v", plan)
	}
}

func TestDetectEnvName(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		env  Static
		want string
	}{
		{env: Static{}, want: ""},
		{env: Static{"NODE_ENV": "Production"}, want: "production"},
		{env: Static{"ENV": " ", "APP_ENV": "Staging", "NODE_ENV": "dev"}, want: "staging"},
		{env: Static{"ENV": "test", "APP_ENV": "staging"}, want: "test"},
	}

	for _, tc := range testCases {
		if got := DetectEnvName(tc.env); got != tc.want {
			t.Fatalf("DetectEnvName(%v): expected %q, got %q", tc.env, tc.want, got)
		}
	}
}

func TestINIProvider(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	content := "[settings]\nSECRET_KEY = s3cr3t\nDEBUG = yes\n\n[other]\nIGNORED = 1\n"
	iniPath := filepath.Join(root, INIFilename)
	if err := os.WriteFile(iniPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	found, ok := FindINI(nested)
	if !ok || found != iniPath {
		t.Fatalf("expected %s, got %q (%v)", iniPath, found, ok)
	}

	provider, err := LoadINI(found, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.Path() != iniPath {
		t.Fatalf("unexpected path %s", provider.Path())
	}
	if v, ok := provider.Lookup("SECRET_KEY"); !ok || v != "s3cr3t" {
		t.Fatalf("expected SECRET_KEY, got (%q, %v)", v, ok)
	}
	if _, ok := provider.Lookup("IGNORED"); ok {
		t.Fatal("expected keys outside the section to be hidden")
	}

	chain := NewChain(DefaultConfig(), provider, map[string]string{"DEBUG": "no"}, Static{"DEBUG": "no"})
	if v, layer, _ := chain.Explain("DEBUG"); v != "yes" || layer != LayerProvider {
		t.Fatalf("expected provider value, got (%q, %s)", v, layer)
	}

	if _, err := LoadINI(filepath.Join(root, "missing.ini"), ""); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFindINIReportsAbsence(t *testing.T) {
	t.Parallel()

	if path, ok := FindINI(t.TempDir()); ok {
		// a settings.ini above the temp dir would make this environment-dependent
		t.Skipf("unexpected settings file at %s", path)
	}
}
