package candidate

// Channel identifies the retrieval channel a candidate came from.
type Channel string

// Retrieval channels.
const (
	Keyword Channel = "keyword"
	Vector  Channel = "vector"
)

// Candidate is an in-flight retrieval result: one chunk scored by one channel.
// Two candidates refer to the same chunk iff (DocID, ChunkPos) match.
type Candidate struct {
	DocID       string
	ChunkPos    int
	DisplayPath string
	Title       string
	Body        string
	RawScore    float64
	Channel     Channel
}

// Fused is a candidate merged across channels. At least one of the channel
// scores is set; FinalScore is always set and is the sort key.
type Fused struct {
	DocID       string
	ChunkPos    int
	DisplayPath string
	Title       string
	Body        string

	KeywordScore float64
	HasKeyword   bool
	VectorScore  float64
	HasVector    bool
	RerankScore  float64
	HasRerank    bool

	FinalScore float64
}

// Less orders fused candidates deterministically: FinalScore descending,
// then DocID ascending, then ChunkPos ascending.
func Less(a, b Fused) bool {
	if a.FinalScore != b.FinalScore {
		return a.FinalScore > b.FinalScore
	}
	if a.DocID != b.DocID {
		return a.DocID < b.DocID
	}
	return a.ChunkPos < b.ChunkPos
}
