// Package castenv resolves configuration keys across layered sources and casts
// the raw text into typed values.
//
// A key is looked up in an optional credential store first, then in the
// process environment and in env files discovered from the configured search
// directories (the order of the last two is configurable). The raw string is
// cast by package normalize: "8080" becomes an integer, "yes" a boolean,
// "1h30m" 5400 seconds, "10KB" 10000 bytes and "a,b" a list.
//
//	port, err := castenv.GetInt("PORT", 8080)
//
//	s := castenv.Using(source.WithEnvName("test"))
//	defer s.Release()
//
// The package-level functions operate on Default. Callers that need isolated
// state build their own Context with New.
package castenv
