package openai

import (
	"errors"
	"reflect"
	"testing"

	"github.com/kailas-cloud/docdex/internal/domain"
)

func TestParseScores(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []float64
		wantErr bool
	}{
		{"bare array", "[0.9, 0.2, 0.75]", []float64{0.9, 0.2, 0.75}, false},
		{"fenced block", "```json\n[0.5, 0.5, 0.5]\n```", []float64{0.5, 0.5, 0.5}, false},
		{"surrounding prose", "Here are the scores: [1, 0, 0.3] as requested.", []float64{1, 0, 0.3}, false},
		{"no array", "I cannot score these passages.", nil, true},
		{"wrong count", "[0.9, 0.2]", nil, true},
		{"not numbers", `["high", "low", "mid"]`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseScores(tt.content, 3)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %t", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("scores = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseAPIError_WrapsInferenceError(t *testing.T) {
	err := parseAPIError("embedding", errors.New("dial tcp: connection refused"))
	if !errors.Is(err, domain.ErrInference) {
		t.Errorf("API error not tagged: %v", err)
	}
}
