// Copyright 2023 RWProxy Authors
// SPDX-License-Identifier: Apache-2.0

package route

// Priorities for read routing. Lower is better. Only the lowest non-empty
// bucket competes, so idle read-capable servers always beat busy ones.
const (
	priorityIdleSlave = 1
	priorityNonSlave  = 2
	priorityBusySlave = 13
)

func readPriority(b Backend, masterAcceptsReads bool) int {
	actsSlave := b.IsSlave() || (b.IsMaster() && masterAcceptsReads)
	busy := b.InUse() && b.HasSessionCommands()
	switch {
	case actsSlave && !busy:
		return priorityIdleSlave
	case !actsSlave:
		return priorityNonSlave
	default:
		return priorityBusySlave
	}
}

// findBestBackend groups the backends by read priority and lets the selection
// function pick within the best bucket. It returns an index into backends, or
// -1 when the list is empty.
func findBestBackend(ses Session, backends []Backend, selectFct BackendSelectFunc, masterAcceptsReads bool) int {
	if len(backends) == 0 {
		return -1
	}

	priorities := make([]int, len(backends))
	minPriority := priorityBusySlave + 1
	for i, b := range backends {
		priorities[i] = readPriority(b, masterAcceptsReads)
		if priorities[i] < minPriority {
			minPriority = priorities[i]
		}
	}

	bucket := make([]Backend, 0, len(backends))
	positions := make([]int, 0, len(backends))
	for i, b := range backends {
		if priorities[i] == minPriority {
			bucket = append(bucket, b)
			positions = append(positions, i)
		}
	}

	pos := selectFct(ses, bucket)
	if pos < 0 {
		return -1
	}
	return positions[pos]
}
