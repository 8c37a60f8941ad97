//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/zkfl/zkptoolkit/auth"
	"github.com/zkfl/zkptoolkit/config"
	"github.com/zkfl/zkptoolkit/crypto"
	"github.com/zkfl/zkptoolkit/metrics"
	"github.com/zkfl/zkptoolkit/store"
	"github.com/zkfl/zkptoolkit/toolkit"
)

var loggerSet = wire.NewSet(
	newLogger,
)

var keyManagerSet = wire.NewSet(
	wire.FieldsOf(new(*config.Config), "Key"),
	newKeyManager,
)

var storeSet = wire.NewSet(
	wire.FieldsOf(new(*config.Config), "DB"),
	store.NewPebbleDB,
	wire.Bind(new(store.KVDB), new(*store.PebbleDB)),
	store.NewPebbleIdentityStore,
	wire.Bind(new(store.IdentityStore), new(*store.PebbleIdentityStore)),
	store.NewPebbleAggregateStore,
	wire.Bind(new(store.AggregateStore), new(*store.PebbleAggregateStore)),
)

var proverSet = wire.NewSet(
	wire.FieldsOf(new(*config.Config), "Prover", "Aggregator"),
	newEntropy,
	newCurve,
	newScheme,
	newAggregator,
	crypto.NewSchnorrIdentityProver,
	wire.Bind(new(crypto.IdentityProver), new(*crypto.SchnorrIdentityProver)),
	crypto.NewFoldingStatementProver,
	wire.Bind(new(crypto.StatementProver), new(*crypto.FoldingStatementProver)),
	crypto.NewFoldingProofAggregator,
	wire.Bind(new(crypto.ProofAggregator), new(*crypto.FoldingProofAggregator)),
	toolkit.New,
)

var authSet = wire.NewSet(
	wire.FieldsOf(new(*config.Config), "Auth"),
	auth.NewChallengeIssuer,
)

var metricsSet = wire.NewSet(
	wire.FieldsOf(new(*config.Config), "Metrics"),
	metrics.NewMetrics,
)

func NewService(*config.Config) (*Service, error) {
	panic(wire.Build(
		loggerSet,
		keyManagerSet,
		storeSet,
		proverSet,
		authSet,
		metricsSet,
		newService,
	))
}
