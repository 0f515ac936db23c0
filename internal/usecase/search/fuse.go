package search

import (
	"sort"

	"github.com/kailas-cloud/docdex/internal/domain/search/candidate"
)

// fuse merges channel-tagged candidates into one deduplicated set, grouped
// by (docid, chunkPos). A chunk seen by both channels keeps the maximum raw
// score per channel. Final scores are assigned by combineScores and the
// output is deterministically sorted.
func fuse(cands []candidate.Candidate) []candidate.Fused {
	type key struct {
		docID    string
		chunkPos int
	}

	merged := make(map[key]*candidate.Fused, len(cands))

	for _, c := range cands {
		k := key{c.DocID, c.ChunkPos}
		f, ok := merged[k]
		if !ok {
			f = &candidate.Fused{
				DocID:       c.DocID,
				ChunkPos:    c.ChunkPos,
				DisplayPath: c.DisplayPath,
				Title:       c.Title,
				Body:        c.Body,
			}
			merged[k] = f
		}

		switch c.Channel {
		case candidate.Keyword:
			if !f.HasKeyword || c.RawScore > f.KeywordScore {
				f.KeywordScore = c.RawScore
			}
			f.HasKeyword = true
		case candidate.Vector:
			if !f.HasVector || c.RawScore > f.VectorScore {
				f.VectorScore = c.RawScore
			}
			f.HasVector = true
		}
	}

	fused := make([]candidate.Fused, 0, len(merged))
	for _, f := range merged {
		fused = append(fused, *f)
	}

	combineScores(fused)
	sortFused(fused)
	return fused
}

// combineScores assigns each candidate's pre-rerank final score.
//
// BM25 and cosine similarity live on incomparable scales, so each channel's
// raw scores are min-max normalized across this request's candidate set,
// then combined with equal weights. When one channel is entirely absent
// from the set the present channel is used unweighted. This is the tunable
// fusion policy: change it here, nowhere else.
func combineScores(fused []candidate.Fused) {
	kwMin, kwMax, kwAny := channelRange(fused, func(f *candidate.Fused) (float64, bool) {
		return f.KeywordScore, f.HasKeyword
	})
	vecMin, vecMax, vecAny := channelRange(fused, func(f *candidate.Fused) (float64, bool) {
		return f.VectorScore, f.HasVector
	})

	for i := range fused {
		f := &fused[i]

		var kw, vec float64
		if f.HasKeyword {
			kw = normalize(f.KeywordScore, kwMin, kwMax)
		}
		if f.HasVector {
			vec = normalize(f.VectorScore, vecMin, vecMax)
		}

		switch {
		case kwAny && vecAny:
			f.FinalScore = (kw + vec) / 2
		case kwAny:
			f.FinalScore = kw
		default:
			f.FinalScore = vec
		}
	}
}

func channelRange(
	fused []candidate.Fused, score func(*candidate.Fused) (float64, bool),
) (lo, hi float64, any bool) {
	for i := range fused {
		s, ok := score(&fused[i])
		if !ok {
			continue
		}
		if !any || s < lo {
			lo = s
		}
		if !any || s > hi {
			hi = s
		}
		any = true
	}
	return lo, hi, any
}

// normalize maps s into [0,1] within the channel's observed range. A
// degenerate range (single candidate, or all scores equal) maps to 1.
func normalize(s, lo, hi float64) float64 {
	if hi <= lo {
		return 1
	}
	return (s - lo) / (hi - lo)
}

// sortFused orders candidates by final score descending, ties broken by
// docid then chunk position ascending, so result lists are deterministic.
func sortFused(fused []candidate.Fused) {
	sort.Slice(fused, func(i, j int) bool {
		return candidate.Less(fused[i], fused[j])
	})
}
