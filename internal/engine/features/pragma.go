package features

import (
	"strings"

	"czar/internal/engine/lexer"
	"czar/internal/engine/pipeline"
	"czar/internal/engine/symbols"
)

// Prepare runs before any feature: it applies `#pragma czar` lines and
// seeds the known-type set used by declaration detection.
func Prepare(pc *pipeline.Context) {
	ApplyPragmas(pc)
	seedTypeNames(pc)
}

// ApplyPragmas reads `#pragma czar <option> <value>` lines into pc.Pragma and
// removes them from the unit. Unknown options are ignored.
func ApplyPragmas(pc *pipeline.Context) {
	u := pc.Unit
	for i := 0; i < u.Len(); i++ {
		if u.TokenKind(i) != lexer.Preprocessor {
			continue
		}
		fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(u.Text(i)), "#"))
		if len(fields) < 2 || fields[0] != "pragma" || fields[1] != "czar" {
			continue
		}
		if len(fields) >= 4 && fields[2] == "debug" {
			switch fields[3] {
			case "true", "1", "on":
				pc.Pragma.DebugMode, pc.Pragma.DebugSet = true, true
			case "false", "0", "off":
				pc.Pragma.DebugMode, pc.Pragma.DebugSet = false, true
			}
		}
		u.Empty(i)
	}
}

// seedTypeNames marks every aggregate tag and typedef name declared in the
// unit as a type so declarations using them are recognised before the
// struct pass runs.
func seedTypeNames(pc *pipeline.Context) {
	u := pc.Unit
	for i := u.First(0); i < u.Len(); i = u.Next(i) {
		t := u.Text(i)
		if aggregateKeywords[t] {
			if n := u.Next(i); u.IsIdent(n) {
				pc.Symbols.MarkKnownType(u.Text(n))
			}
			continue
		}
		if t != "typedef" {
			continue
		}
		// The typedef name is the last identifier before the closing `;`, or
		// the `(*name)` of a function pointer typedef.
		last := ""
		for k := u.Next(i); k < u.Len() && u.Text(k) != ";"; {
			switch t := u.Text(k); {
			case t == "(":
				if star := u.Next(k); u.Text(star) == "*" && u.IsIdent(u.Next(star)) {
					last = u.Text(u.Next(star))
				}
				k = skipGroup(u, k)
			case t == "{" || t == "[":
				k = skipGroup(u, k)
			default:
				if u.IsIdent(k) {
					last = t
				}
				k = u.Next(k)
			}
		}
		if last != "" {
			pc.Symbols.MarkKnownType(last)
		}
	}
}

// SeedHeaderStructs registers structs found in imported headers so uses in
// this unit rewrite to their typedef alias.
func SeedHeaderStructs(pc *pipeline.Context, names []string) {
	for _, n := range names {
		pc.Symbols.AddType(n, symbols.StructType)
	}
}
