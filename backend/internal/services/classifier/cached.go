package classifier

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"go.uber.org/zap"

	"github.com/kaze3114/castket/backend/internal/domain/enums"
	redrepo "github.com/kaze3114/castket/backend/internal/repo/redis"
)

type VerdictCache interface {
	Get(ctx context.Context, digest string) (redrepo.CachedVerdict, bool, error)
	Set(ctx context.Context, digest string, v redrepo.CachedVerdict) error
}

// Cached memoizes text verdicts. Images are always sent through, and cache
// failures only cost a classifier call.
type Cached struct {
	inner  Classifier
	cache  VerdictCache
	logger *zap.Logger
}

func NewCached(inner Classifier, cache VerdictCache, logger *zap.Logger) *Cached {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{inner: inner, cache: cache, logger: logger}
}

func (c *Cached) Classify(ctx context.Context, content Content) (Verdict, error) {
	if c.cache == nil || content.Kind != enums.ContentKindText {
		return c.inner.Classify(ctx, content)
	}

	digest := contentDigest(content)
	cached, ok, err := c.cache.Get(ctx, digest)
	if err != nil {
		c.logger.Warn("verdict cache read failed", zap.Error(err))
	}
	if ok {
		verdictCacheHits.Inc()
		return Verdict{Safe: cached.Safe, Judged: cached.Judged, Reason: cached.Reason}, nil
	}

	verdict, err := c.inner.Classify(ctx, content)
	if err != nil {
		return Verdict{}, err
	}

	if err := c.cache.Set(ctx, digest, redrepo.CachedVerdict{
		Safe:   verdict.Safe,
		Judged: verdict.Judged,
		Reason: verdict.Reason,
	}); err != nil {
		c.logger.Warn("verdict cache write failed", zap.Error(err))
	}
	return verdict, nil
}

func contentDigest(content Content) string {
	h := sha256.New()
	h.Write([]byte(content.Purpose))
	h.Write([]byte{0})
	h.Write([]byte(content.Text))
	return hex.EncodeToString(h.Sum(nil))
}
