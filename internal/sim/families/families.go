// Package families wires the built-in structure families into a registry.
package families

import (
	"voxelstruct.ai/internal/sim/families/fortress"
	"voxelstruct.ai/internal/sim/families/mansion"
	"voxelstruct.ai/internal/sim/families/mineshaft"
	"voxelstruct.ai/internal/sim/families/monument"
	"voxelstruct.ai/internal/sim/structure"
	"voxelstruct.ai/internal/sim/tuning"
)

// Default registers every family with its budgets from t.
func Default(t tuning.Tuning) *structure.Registry {
	return structure.NewRegistry(
		mineshaft.New(t.Mineshaft),
		fortress.New(t.Fortress),
		monument.New(t.Monument, t.SeaLevel),
		mansion.New(t.Mansion),
	)
}
