package backfill

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fortuna/janus/internal/ingest"
	"github.com/fortuna/janus/internal/pipeline"
)

const gamePrefix = "game:"

func gameSource(id int) string {
	return gamePrefix + strconv.Itoa(id)
}

// Loader turns a job source into a bundle
type Loader interface {
	Load(ctx context.Context, source string) (*pipeline.Bundle, error)
}

// SourceLoader resolves "game:<id>" sources through the ingester, saved
// game directories through ingest.LoadDir and anything else as a bundle
// JSON file.
type SourceLoader struct {
	ingester *ingest.Ingester
}

// NewSourceLoader creates a loader. A nil ingester disables game sources.
func NewSourceLoader(ingester *ingest.Ingester) *SourceLoader {
	return &SourceLoader{ingester: ingester}
}

// Load implements Loader
func (l *SourceLoader) Load(ctx context.Context, source string) (*pipeline.Bundle, error) {
	if rest, ok := strings.CutPrefix(source, gamePrefix); ok {
		gameID, err := strconv.Atoi(rest)
		if err != nil {
			return nil, fmt.Errorf("invalid game source %q", source)
		}
		if l.ingester == nil {
			return nil, fmt.Errorf("game %d: fetching is not configured", gameID)
		}
		return l.ingester.FetchBundle(ctx, gameID)
	}

	info, err := os.Stat(source)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", source, err)
	}
	if !info.IsDir() {
		return pipeline.LoadBundle(source)
	}

	src, err := ingest.LoadDir(source)
	if err != nil {
		return nil, err
	}
	return ingest.Assemble(src)
}
