package features

import (
	"czar/internal/engine/lexer"
	"czar/internal/engine/pipeline"
)

func newDeprecated() *pipeline.Feature {
	return &pipeline.Feature{
		Name:        FeatureDeprecated,
		Description: "turn #deprecated before a function into a GNU attribute",
		Enabled:     true,
		Transform:   transformDeprecated,
	}
}

func transformDeprecated(pc *pipeline.Context) error {
	u := pc.Unit
	heads := findFunctionHeads(pc)
	starts := make(map[int]bool, len(heads))
	for _, h := range heads {
		starts[h.Start] = true
	}
	for i := u.Len() - 1; i >= 0; i-- {
		if u.TokenKind(i) != lexer.Preprocessor || u.Text(i) != "#deprecated" {
			continue
		}
		next := u.Next(i)
		u.Empty(i)
		if starts[next] {
			u.InsertSource(i, "__attribute__((deprecated))")
		} else {
			u.EmptyTrivia(i)
		}
	}
	return nil
}
