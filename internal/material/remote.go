package material

import (
	"context"
	"fmt"
	"strings"

	"github.com/kpauljoseph/cardforge/pkg/logger"
)

// Fetcher downloads a stored material file. store.HTTP implements it.
type Fetcher interface {
	FetchMaterial(ctx context.Context, name string) ([]byte, string, error)
}

// Remote loads materials uploaded to the record store.
type Remote struct {
	fetcher Fetcher
	logger  *logger.Logger
}

func NewRemote(f Fetcher, log *logger.Logger) *Remote {
	if log == nil {
		log = logger.Discard()
	}
	return &Remote{fetcher: f, logger: log}
}

func (r *Remote) Load(ctx context.Context, ref Ref) (Document, error) {
	if strings.TrimSpace(ref.Name) == "" {
		return Document{}, ErrNoRef
	}
	data, contentType, err := r.fetcher.FetchMaterial(ctx, ref.Name)
	if err != nil {
		return Document{}, fmt.Errorf("failed to fetch material %s: %w", ref.Name, err)
	}
	r.logger.Debug("Fetched material %s (%d bytes, %s)", ref.Name, len(data), contentType)
	return newDocument(ref.Name, contentType, data)
}
