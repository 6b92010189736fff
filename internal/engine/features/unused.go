package features

import (
	"fmt"

	"czar/internal/engine/pipeline"
)

func newUnused() *pipeline.Feature {
	return &pipeline.Feature{
		Name:        FeatureUnused,
		Description: "rename the discard identifier _ to a fresh unused variable",
		Enabled:     true,
		Transform:   transformUnused,
	}
}

func transformUnused(pc *pipeline.Context) error {
	u := pc.Unit
	n := 0
	for i := u.First(0); i < u.Len(); i = u.Next(i) {
		if !u.IsIdent(i) || u.Text(i) != "_" {
			continue
		}
		if p := u.Text(u.Prev(i)); p == "." || p == "->" {
			continue
		}
		u.SetText(i, fmt.Sprintf("_cz_unused_%d __attribute__((unused))", n))
		n++
	}
	return nil
}
