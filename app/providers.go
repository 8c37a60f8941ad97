package app

import (
	"crypto/rand"
	"io"
	"runtime"

	"github.com/pbnjay/memory"
	"github.com/pkg/errors"
	"github.com/zkfl/zkptoolkit/config"
	"github.com/zkfl/zkptoolkit/crypto/aggregate"
	"github.com/zkfl/zkptoolkit/crypto/curves"
	"github.com/zkfl/zkptoolkit/crypto/folding"
	"github.com/zkfl/zkptoolkit/crypto/pedersen"
	"github.com/zkfl/zkptoolkit/keys"
	"go.uber.org/zap"
)

// newLogger returns a development logger, writing to cfg.LogFile instead of
// stderr when one is configured.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zapConfig := zap.NewDevelopmentConfig()
	if cfg.LogFile != "" {
		zapConfig.OutputPaths = []string{cfg.LogFile}
		zapConfig.ErrorOutputPaths = []string{cfg.LogFile}
	}

	log, err := zapConfig.Build()
	return log, errors.Wrap(err, "new logger")
}

func newKeyManager(
	cfg *config.KeyConfig,
	logger *zap.Logger,
) (keys.KeyManager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "new key manager")
	}

	switch cfg.KeyStore {
	case config.KeyManagerTypeInMemory:
		return keys.NewInMemoryKeyManager(), nil
	case config.KeyManagerTypeFile:
		return keys.NewFileKeyManager(cfg, logger)
	}

	return nil, errors.New("unknown key manager type")
}

func newEntropy() io.Reader {
	return rand.Reader
}

func newCurve(cfg *config.ProverConfig) (curves.Curve, error) {
	return cfg.Curve.Curve()
}

// Memory budgets for settings left at zero in the config.
const (
	keyCacheMemoryShare = 16
	commitmentKeyBytes  = 16 << 20
	minKeyCacheSize     = 4
	maxKeyCacheSize     = 256
	verifyWorkerBytes   = 128 << 20
)

// keyCacheSize fits the commitment key cache in a sixteenth of total memory.
func keyCacheSize(total uint64) int {
	n := total / keyCacheMemoryShare / commitmentKeyBytes
	switch {
	case n < minKeyCacheSize:
		return minKeyCacheSize
	case n > maxKeyCacheSize:
		return maxKeyCacheSize
	}

	return int(n)
}

// verifyWorkers bounds concurrent verification by half of total memory and
// the available processors.
func verifyWorkers(total uint64, procs int) int {
	n := total / 2 / verifyWorkerBytes
	if n > uint64(procs) {
		n = uint64(procs)
	}

	if n < 1 {
		return 1
	}

	return int(n)
}

func newScheme(
	cfg *config.ProverConfig,
	rand io.Reader,
	logger *zap.Logger,
) (*folding.Scheme, error) {
	size := cfg.KeyCacheSize
	if size <= 0 {
		size = keyCacheSize(memory.TotalMemory())
		logger.Info("sized commitment key cache", zap.Int("keys", size))
	}

	cache, err := pedersen.NewKeyCache(size)
	if err != nil {
		return nil, errors.Wrap(err, "new scheme")
	}

	digests, err := cfg.TrustedDigests()
	if err != nil {
		return nil, errors.Wrap(err, "new scheme")
	}

	if len(digests) == 0 {
		logger.Warn("no circuits pinned, every statement will be rejected")
	}

	return folding.NewScheme(
		cache,
		folding.WithEntropy(rand),
		folding.WithTrustedShapes(digests...),
	)
}

func newAggregator(
	cfg *config.AggregatorConfig,
	scheme *folding.Scheme,
	logger *zap.Logger,
) *aggregate.Aggregator {
	workers := cfg.VerifyWorkers
	if workers <= 0 {
		workers = verifyWorkers(memory.TotalMemory(), runtime.GOMAXPROCS(0))
		logger.Info("sized verification pool", zap.Int("workers", workers))
	}

	return aggregate.NewAggregator(
		scheme,
		aggregate.WithBatchSize(cfg.BatchSize),
		aggregate.WithWorkers(workers),
	)
}
