package features

import "czar/internal/engine/pipeline"

func newAutoDeref() *pipeline.Feature {
	return &pipeline.Feature{
		Name:         FeatureAutoDeref,
		Description:  "rewrite p.field to p->field for pointer parameters and locals",
		Enabled:      true,
		Transform:    transformAutoDeref,
		Dependencies: []string{FeatureStructNames},
	}
}

func transformAutoDeref(pc *pipeline.Context) error {
	u := pc.Unit
	heads := findFunctionHeads(pc)
	decls := collectDeclarations(pc, heads)

	for hi, h := range heads {
		if !h.IsDefinition() {
			continue
		}
		pc.Symbols.ResetPointers()
		at := make(map[int]varDecl)
		for _, d := range decls {
			switch {
			case d.Fn == -1 && d.Idx < h.Start && d.Pointer:
				pc.Symbols.MarkPointer(d.Name, d.Idx)
			case d.Fn == hi:
				at[d.Idx] = d
			}
		}
		for _, p := range parseParams(pc, h.Open, h.Close) {
			if p.Name == "" {
				continue
			}
			if p.Pointer() {
				pc.Symbols.MarkPointer(p.Name, p.NameIdx)
			} else {
				pc.Symbols.ClearPointer(p.Name)
			}
		}

		for i := h.BodyOpen; i < h.BodyClose; i = u.Next(i) {
			if d, ok := at[i]; ok && i > h.BodyOpen {
				if d.Pointer {
					pc.Symbols.MarkPointer(d.Name, i)
				} else {
					pc.Symbols.ClearPointer(d.Name)
				}
				continue
			}
			if u.Text(i) != "." {
				continue
			}
			left, right := u.Prev(i), u.Next(i)
			if !u.IsIdent(left) || !u.IsIdent(right) {
				continue
			}
			if p := u.Text(u.Prev(left)); p == "." || p == "->" {
				continue
			}
			if pc.Symbols.IsPointer(u.Text(left)) {
				u.SetText(i, "->")
			}
		}
	}
	return nil
}
