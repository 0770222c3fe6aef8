// Package embedding turns text into vectors for the portfolio index.
package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// Embedder converts a batch of texts into vectors of equal dimension
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// DefaultHashingDimensions is the vector size of the hashing embedder
const DefaultHashingDimensions = 256

// Hashing is a deterministic, offline embedder. Each lowercase word token
// is hashed into a bucket; the resulting bag-of-words vector is
// L2-normalized so cosine similarity reflects token overlap.
type Hashing struct {
	dims int
}

// NewHashing returns a hashing embedder with the given dimension (0 = default)
func NewHashing(dims int) *Hashing {
	if dims <= 0 {
		dims = DefaultHashingDimensions
	}
	return &Hashing{dims: dims}
}

// Dimensions implements Embedder
func (h *Hashing) Dimensions() int {
	return h.dims
}

// Embed implements Embedder
func (h *Hashing) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = h.vector(text)
	}
	return out, nil
}

func (h *Hashing) vector(text string) []float32 {
	v := make([]float32, h.dims)
	for _, tok := range Tokenize(text) {
		hf := fnv.New32a()
		_, _ = hf.Write([]byte(tok))
		v[hf.Sum32()%uint32(h.dims)]++
	}
	Normalize(v)
	return v
}

// Tokenize splits text into lowercase word tokens. Characters common in
// tech names (+, #, .) are kept so "c++" and "node.js" survive.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#' && r != '.'
	})
	tokens := fields[:0]
	for _, f := range fields {
		// Sentence punctuation, not part of the name.
		if f = strings.Trim(f, "."); f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// Normalize scales v to unit length in place; zero vectors are left as is
func Normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
}

// Cosine returns the cosine similarity of a and b, or 0 if either is zero
// or the lengths differ.
func Cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
