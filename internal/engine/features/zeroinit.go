package features

import "czar/internal/engine/pipeline"

func newZeroInit() *pipeline.Feature {
	return &pipeline.Feature{
		Name:        FeatureZeroInit,
		Description: "reject declarations without an explicit initializer",
		Enabled:     true,
		Validate:    validateZeroInit,
	}
}

func validateZeroInit(pc *pipeline.Context) error {
	u := pc.Unit
	var firstErr error
	walkStatements(u, 0, u.Len(), func(i int) {
		if firstErr != nil {
			return
		}
		d, ok := parseDeclaration(pc, i)
		if !ok {
			return
		}
		for k := d.Start; k < d.TypeStart; k = u.Next(k) {
			if u.Text(k) == "extern" {
				return
			}
		}
		for _, dc := range d.Declarators {
			if dc.EqIdx < 0 {
				firstErr = pc.Errorf(dc.NameIdx, "variable '%s' must be explicitly initialized", dc.Name)
				return
			}
		}
	})
	return firstErr
}
