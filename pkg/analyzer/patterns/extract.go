package patterns

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"

	"github.com/caopengau/aiready/pkg/parser"
)

// Literal class placeholders. Folding literals suppresses renaming noise
// (changing a constant or message must not defeat detection) while
// identifiers keep their identity so similarity stays structural.
const (
	litString = "LIT_STR"
	litNumber = "LIT_NUM"
)

// extractBlocks turns one parsed file into comparison blocks. Units below
// the minimum line floor are discarded before indexing.
func extractBlocks(result *parser.ParseResult, minLines int) []Block {
	units := parser.GetUnits(result)
	if len(units) == 0 {
		return nil
	}

	blocks := make([]Block, 0, len(units))
	for _, unit := range units {
		lineCount := unit.EndLine - unit.StartLine + 1
		if lineCount < minLines {
			continue
		}

		tokens, raw := normalizeTokens(parser.TokenStream(unit.Node, result.Source))

		blocks = append(blocks, Block{
			ID:          blockID(result.Path, unit.StartLine, unit.EndLine),
			FileName:    result.Path,
			StartLine:   unit.StartLine,
			EndLine:     unit.EndLine,
			LineCount:   lineCount,
			PatternType: classifyUnit(unit),
			Tokens:      tokens,
			TokenCount:  len(raw),
			Fingerprint: fingerprint(raw),
		})
	}

	return blocks
}

// normalizeTokens folds literals into class tokens, drops comments, and
// interns the result as a hash multiset. The returned slice preserves
// source order for fingerprinting.
func normalizeTokens(stream []parser.Token) (map[uint64]uint32, []uint64) {
	multiset := make(map[uint64]uint32, len(stream))
	ordered := make([]uint64, 0, len(stream))

	for _, tok := range stream {
		var text string
		switch tok.Kind {
		case parser.TokenComment:
			continue
		case parser.TokenStringLit:
			text = litString
		case parser.TokenNumberLit:
			text = litNumber
		default:
			text = tok.Text
		}

		h := xxhash.Sum64String(text)
		multiset[h]++
		ordered = append(ordered, h)
	}

	if len(multiset) == 0 {
		return nil, nil
	}
	return multiset, ordered
}

// fingerprint hashes the ordered normalized token sequence. Two blocks
// with equal fingerprints are token-identical.
func fingerprint(ordered []uint64) uint64 {
	if len(ordered) == 0 {
		return 0
	}

	h := blake3.New()
	var buf [8]byte
	for _, t := range ordered {
		binary.LittleEndian.PutUint64(buf[:], t)
		h.Write(buf[:])
	}
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum[:8])
}
