package imports

import (
	"os"
	"strings"

	"czar/internal/engine/lexer"
	"czar/internal/shared/observability"
)

const scanCacheSize = 256

type scanKey struct {
	path  string
	size  int64
	mtime int64
}

// Scanner extracts `typedef struct X_s { ... } X_t;` names from headers.
// Results are cached per path, size and modification time.
type Scanner struct {
	cache *lruCache[scanKey, []string]
}

func NewScanner() *Scanner {
	return &Scanner{cache: newLRUCache[scanKey, []string](scanCacheSize)}
}

// Structs returns the struct names exported by every header of resolutions,
// in import order without duplicates. Headers not yet generated are skipped.
func (s *Scanner) Structs(resolutions []Resolution) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range resolutions {
		for _, h := range r.Headers {
			for _, name := range s.scanFile(h) {
				if !seen[name] {
					seen[name] = true
					out = append(out, name)
				}
			}
		}
	}
	return out
}

func (s *Scanner) scanFile(path string) []string {
	info, err := os.Stat(path)
	if err != nil {
		return nil
	}
	key := scanKey{path: path, size: info.Size(), mtime: info.ModTime().UnixNano()}
	if names, ok := s.cache.Get(key); ok {
		observability.ImportHeaderScansTotal.WithLabelValues("cache").Inc()
		return names
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	observability.ImportHeaderScansTotal.WithLabelValues("disk").Inc()
	names := ScanStructs(src)
	s.cache.Put(key, names)
	return names
}

// ScanStructs finds `typedef struct X_s { ... } X_t;` in header text and
// returns each X.
func ScanStructs(src []byte) []string {
	var toks []lexer.Token
	for _, t := range lexer.Tokenize(src) {
		if !t.Trivia() && t.Kind != lexer.EOF {
			toks = append(toks, t)
		}
	}

	var out []string
	for i := 0; i+3 < len(toks); i++ {
		if toks[i].Text != "typedef" || toks[i+1].Text != "struct" || toks[i+3].Text != "{" {
			continue
		}
		name, ok := strings.CutSuffix(toks[i+2].Text, "_s")
		if !ok || name == "" {
			continue
		}
		close := matchBrace(toks, i+3)
		if close < 0 || close+2 >= len(toks) {
			continue
		}
		if toks[close+1].Text == name+"_t" && toks[close+2].Text == ";" {
			out = append(out, name)
			i = close + 2
		}
	}
	return out
}

func matchBrace(toks []lexer.Token, open int) int {
	depth := 0
	for i := open; i < len(toks); i++ {
		switch toks[i].Text {
		case "{":
			depth++
		case "}":
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
