package redis

import (
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/kailas-cloud/docdex/internal/db"
)

func TestBuildKNNQuery(t *testing.T) {
	got := buildKNNQuery("", 10)
	if got != "*=>[KNN 10 @__vector $BLOB AS __vector_score]" {
		t.Errorf("unfiltered query = %q", got)
	}

	got = buildKNNQuery("notes", 5)
	want := "(@__collection:{notes})=>[KNN 5 @__vector $BLOB AS __vector_score]"
	if got != want {
		t.Errorf("filtered query = %q, want %q", got, want)
	}
}

func TestKNNSearchArgs(t *testing.T) {
	args := knnSearchArgs(&db.KNNQuery{
		IndexName:    "docdex:idx",
		Vector:       []float32{0.1, 0.2},
		K:            50,
		ReturnFields: []string{"__body", "__title", "__path", "__vector_score"},
	})

	joined := strings.Join(args, " ")

	// The distance yield must be requested under the aliased name, or every
	// hit would parse with a zero similarity score.
	if !strings.Contains(args[1], "AS __vector_score") {
		t.Errorf("KNN clause missing the score alias: %q", args[1])
	}
	if !strings.Contains(joined, "RETURN 4") || !strings.Contains(joined, "__vector_score") {
		t.Errorf("return fields not forwarded: %q", joined)
	}

	// The result window must track K; the server's default caps at 10 rows,
	// which would starve the hybrid over-fetch.
	if !strings.Contains(joined, "LIMIT 0 50") {
		t.Errorf("LIMIT window does not match K: %q", joined)
	}
	if !strings.Contains(joined, "DIALECT 2") {
		t.Errorf("missing DIALECT 2: %q", joined)
	}
}

func TestBuildTextQuery(t *testing.T) {
	got := buildTextQuery("", "install guide")
	if got != "@__body:(install guide)" {
		t.Errorf("unfiltered query = %q", got)
	}

	got = buildTextQuery("notes", "install")
	want := "@__collection:{notes} @__body:(install)"
	if got != want {
		t.Errorf("filtered query = %q, want %q", got, want)
	}
}

func TestEscapeQuery(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain words", "plain words"},
		{"what is @here?", `what is \@here?`},
		{"a-b", `a\-b`},
		{`{"json": true}`, `\{\"json\": true\}`},
		{"wild*card", `wild\*card`},
		{`back\slash`, `back\\slash`},
	}
	for _, tt := range tests {
		if got := escapeQuery(tt.in); got != tt.want {
			t.Errorf("escapeQuery(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCollectionFilter_EscapesTagChars(t *testing.T) {
	got := collectionFilter("my notes.v2")
	want := `@__collection:{my\ notes\.v2}`
	if got != want {
		t.Errorf("filter = %q, want %q", got, want)
	}
}

func TestVectorToBytes(t *testing.T) {
	vec := []float32{1.5, -0.25}
	got := vectorToBytes(vec)

	if len(got) != 8 {
		t.Fatalf("expected 8 bytes, got %d", len(got))
	}
	for i, f := range vec {
		bits := binary.LittleEndian.Uint32([]byte(got)[i*4:])
		if math.Float32frombits(bits) != f {
			t.Errorf("component %d round-trip mismatch", i)
		}
	}
}
