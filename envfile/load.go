package envfile

import (
	"bytes"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Reader reads the key/value pairs of one env file.
type Reader interface {
	ReadPairs(path string) (map[string]string, error)
}

// ReaderFunc adapts a function to Reader.
type ReaderFunc func(path string) (map[string]string, error)

func (f ReaderFunc) ReadPairs(path string) (map[string]string, error) { return f(path) }

// DotenvReader parses files with godotenv. Values keep their $NAME and
// ${NAME:-default} references; expansion is left to the cast pipeline.
type DotenvReader struct{}

func (DotenvReader) ReadPairs(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return godotenv.Parse(bytes.NewReader(escapeReferences(data)))
}

// Load overlays the pairs of every candidate in ascending rank, so later
// candidates override earlier ones. Unreadable files are skipped.
func Load(candidates []Candidate, r Reader, logger *zap.Logger) map[string]string {
	if r == nil {
		r = DotenvReader{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	merged := make(map[string]string)
	for _, c := range candidates {
		pairs, err := r.ReadPairs(c.Path)
		if err != nil {
			logger.Warn("env file skipped",
				zap.String("path", c.Path),
				zap.Error(err),
			)
			continue
		}
		for k, v := range pairs {
			merged[k] = v
		}
		logger.Debug("env file loaded",
			zap.String("path", c.Path),
			zap.Int("rank", c.Rank),
			zap.Int("keys", len(pairs)),
		)
	}
	return merged
}
