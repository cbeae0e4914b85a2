// Copyright 2023 RWProxy Authors
// SPDX-License-Identifier: Apache-2.0

package route

import (
	"math"

	"github.com/rwproxy/rwproxy/lib/config"
	"github.com/rwproxy/rwproxy/lib/util/errors"
	"go.uber.org/zap"
)

// SelectionCriteria picks the policy that chooses among slave candidates.
type SelectionCriteria int

const (
	LeastGlobalConnections SelectionCriteria = iota
	LeastRouterConnections
	LeastBehindMaster
	LeastCurrentOperations
	AdaptiveRouting
)

func (c SelectionCriteria) String() string {
	switch c {
	case LeastGlobalConnections:
		return config.CriteriaLeastGlobalConnections
	case LeastRouterConnections:
		return config.CriteriaLeastRouterConnections
	case LeastBehindMaster:
		return config.CriteriaLeastBehindMaster
	case LeastCurrentOperations:
		return config.CriteriaLeastCurrentOperations
	case AdaptiveRouting:
		return config.CriteriaAdaptiveRouting
	default:
		return "unknown"
	}
}

// NewSelectionCriteria parses the config string form of a criteria.
func NewSelectionCriteria(s string) (SelectionCriteria, error) {
	switch s {
	case config.CriteriaLeastGlobalConnections:
		return LeastGlobalConnections, nil
	case config.CriteriaLeastRouterConnections:
		return LeastRouterConnections, nil
	case config.CriteriaLeastBehindMaster:
		return LeastBehindMaster, nil
	case config.CriteriaLeastCurrentOperations:
		return LeastCurrentOperations, nil
	case config.CriteriaAdaptiveRouting:
		return AdaptiveRouting, nil
	default:
		return LeastCurrentOperations, errors.Wrapf(config.ErrInvalidConfigValue, "unknown slave selection criteria %q", s)
	}
}

// scoreFunc maps one backend to a score. Lower is better.
type scoreFunc func(b Backend) float64

func scoreRouterConnections(b Backend) float64 {
	srv := b.Server()
	weight := srv.Weight()
	if weight == 0 {
		return math.Inf(1)
	}
	conns := float64(srv.Connections.Load())
	return (conns + 1) / weight
}

func scoreGlobalConnections(b Backend) float64 {
	srv := b.Server()
	weight := srv.Weight()
	if weight == 0 {
		return math.Inf(1)
	}
	nCurrent := float64(srv.Stats.NCurrent.Load())
	return (nCurrent + 1) / weight
}

func scoreBehindMaster(b Backend) float64 {
	srv := b.Server()
	weight := srv.Weight()
	if weight == 0 {
		return math.Inf(1)
	}
	rlag := float64(srv.Stats.Rlag.Load())
	return rlag / weight
}

func scoreCurrentOperations(b Backend) float64 {
	srv := b.Server()
	weight := srv.Weight()
	if weight == 0 {
		return math.Inf(1)
	}
	ops := float64(srv.Stats.NCurrentOps.Load())
	return (ops + 1) / weight
}

// bestScore returns the index of the lowest-scoring candidate, or -1 when
// the list is empty. Candidates that are not in use compete with an inflated
// score so that already-open connections are reused. Ties keep the first
// lowest.
func bestScore(candidates []Backend, score scoreFunc) int {
	best := -1
	var bestVal float64
	for i, b := range candidates {
		val := score(b)
		if !b.InUse() {
			val = (val + 5.0) * 1.5
		}
		if best < 0 || val < bestVal {
			best = i
			bestVal = val
		}
	}
	return best
}

// BackendSelectFunc picks one candidate, returning its position in the
// candidate slice or -1 when there is none.
type BackendSelectFunc func(ses Session, candidates []Backend) int

func selectByScore(score scoreFunc) BackendSelectFunc {
	return func(_ Session, candidates []Backend) int {
		return bestScore(candidates, score)
	}
}

// GetBackendSelectFunction binds the selection function for a criteria. It is
// total: an unknown criteria logs an error and falls back to
// least-current-operations so routing stays live.
func GetBackendSelectFunction(logger *zap.Logger, criteria SelectionCriteria) BackendSelectFunc {
	switch criteria {
	case LeastGlobalConnections:
		return selectByScore(scoreGlobalConnections)
	case LeastRouterConnections:
		return selectByScore(scoreRouterConnections)
	case LeastBehindMaster:
		return selectByScore(scoreBehindMaster)
	case LeastCurrentOperations:
		return selectByScore(scoreCurrentOperations)
	case AdaptiveRouting:
		return selectAdaptive
	default:
		logger.Error("unknown slave selection criteria, falling back",
			zap.Int("criteria", int(criteria)),
			zap.String("fallback", config.CriteriaLeastCurrentOperations))
		return selectByScore(scoreCurrentOperations)
	}
}
