package features

import (
	"strings"

	"czar/internal/engine/pipeline"
	"czar/internal/engine/symbols"
)

func newFunctionValidate() *pipeline.Feature {
	return &pipeline.Feature{
		Name:        FeatureFunctionValidate,
		Description: "record function signatures and warn on empty parameter lists",
		Enabled:     true,
		Validate:    validateFunctions,
	}
}

func newFunctionSignatures() *pipeline.Feature {
	return &pipeline.Feature{
		Name:        FeatureFunctionSignatures,
		Description: "normalise main, (void) parameter lists and result attributes",
		Enabled:     true,
		Transform:   transformSignatures,
	}
}

// recordFunctions rebuilds the function table from the current heads.
func recordFunctions(pc *pipeline.Context, heads []funcHead) {
	pc.Symbols.ResetFunctions()
	for _, h := range heads {
		if h.IsMethod() {
			continue
		}
		fn := &symbols.Function{Name: h.Name, Line: pc.Unit.Line(h.NameIdx)}
		for _, p := range parseParams(pc, h.Open, h.Close) {
			if p.Void {
				continue
			}
			fn.Params = append(fn.Params, symbols.Param{Name: p.Name, Type: p.Type})
		}
		pc.Symbols.AddFunction(fn)
	}
}

func validateFunctions(pc *pipeline.Context) error {
	heads := findFunctionHeads(pc)
	recordFunctions(pc, heads)
	for _, h := range heads {
		if !h.IsMethod() && pc.Unit.Next(h.Open) == h.Close {
			pc.Warnf(h.NameIdx, "empty parameter list in '%s'; use '%s(void)'", h.Name, h.Name)
		}
	}
	return nil
}

func transformSignatures(pc *pipeline.Context) error {
	u := pc.Unit
	heads := findFunctionHeads(pc)
	for n := len(heads) - 1; n >= 0; n-- {
		h := heads[n]
		params := parseParams(pc, h.Open, h.Close)
		empty := u.Next(h.Open) == h.Close

		if empty && !h.IsMethod() {
			u.InsertSource(h.Open+1, "void")
		}

		isMain := h.Name == "main" && !h.IsMethod()
		if isMain && len(h.Return) == 1 {
			if rt := u.Text(h.Return[0]); rt == "u32" || rt == "uint32_t" {
				u.SetText(h.Return[0], "int")
			}
		}
		if isMain || h.ReturnsVoid(u) {
			continue
		}

		var attrs []string
		existing := u.Slice(h.Start, h.Open)
		if !strings.Contains(existing, "warn_unused_result") {
			attrs = append(attrs, "__attribute__((warn_unused_result)) ")
		}
		if !h.IsMethod() && immutableParams(params) && !strings.Contains(existing, "((pure))") {
			attrs = append(attrs, "__attribute__((pure)) ")
		}
		if len(attrs) > 0 {
			u.InsertSource(h.Start, strings.Join(attrs, ""))
		}
	}
	return nil
}

// immutableParams reports a parameter list with no `mut` parameter. An
// empty or (void) list qualifies.
func immutableParams(params []param) bool {
	for _, p := range params {
		if p.MutIdx >= 0 {
			return false
		}
	}
	return true
}
