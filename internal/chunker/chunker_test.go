package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// wordTokenizer maps each whitespace-separated word to one token id, which
// makes token offsets easy to reason about in tests.
type wordTokenizer struct {
	words []string
	ids   map[string]int
}

func newWordTokenizer() *wordTokenizer {
	return &wordTokenizer{ids: map[string]int{}}
}

func (t *wordTokenizer) Encode(text string) []int {
	var tokens []int
	for _, w := range strings.Fields(text) {
		id, ok := t.ids[w]
		if !ok {
			id = len(t.words)
			t.ids[w] = id
			t.words = append(t.words, w)
		}
		tokens = append(tokens, id)
	}
	return tokens
}

func (t *wordTokenizer) Decode(tokens []int) string {
	words := make([]string, len(tokens))
	for i, id := range tokens {
		words[i] = t.words[id]
	}
	return strings.Join(words, " ")
}

func makeText(nTokens int) string {
	words := make([]string, nTokens)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(words, " ")
}

func TestNew_RejectsBadOverlap(t *testing.T) {
	tok := newWordTokenizer()

	_, err := New(tok, 200, 200)
	require.Error(t, err)

	_, err = New(tok, 200, 250)
	require.Error(t, err)

	_, err = New(tok, 0, 0)
	require.Error(t, err)

	_, err = New(tok, 200, 50)
	require.NoError(t, err)
}

func TestChunk_EmptyInput(t *testing.T) {
	c, err := New(newWordTokenizer(), 200, 50)
	require.NoError(t, err)
	require.Empty(t, c.Chunk("", "doc.txt"))
}

func TestChunk_SpansFor450TokenDoc(t *testing.T) {
	c, err := New(newWordTokenizer(), 200, 50)
	require.NoError(t, err)

	chunks := c.Chunk(makeText(450), "doc.pdf")
	require.Len(t, chunks, 3)

	require.Equal(t, 0, chunks[0].Start)
	require.Equal(t, 200, chunks[0].End)
	require.Equal(t, 150, chunks[1].Start)
	require.Equal(t, 350, chunks[1].End)
	require.Equal(t, 300, chunks[2].Start)
	require.Equal(t, 450, chunks[2].End)
	for _, ch := range chunks {
		require.Equal(t, "doc.pdf", ch.DocID)
	}
}

func TestChunk_CoverageAndOverlap(t *testing.T) {
	cases := []struct {
		n, window, overlap int
	}{
		{10, 200, 50},
		{200, 200, 50},
		{201, 200, 50},
		{450, 200, 50},
		{1000, 200, 50},
		{57, 10, 3},
		{300, 128, 32},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("n=%d_w=%d_o=%d", tc.n, tc.window, tc.overlap), func(t *testing.T) {
			c, err := New(newWordTokenizer(), tc.window, tc.overlap)
			require.NoError(t, err)

			chunks := c.Chunk(makeText(tc.n), "doc")
			require.NotEmpty(t, chunks)

			require.Equal(t, 0, chunks[0].Start)
			require.Equal(t, tc.n, chunks[len(chunks)-1].End)
			for i, ch := range chunks {
				require.Less(t, ch.Start, ch.End)
				require.LessOrEqual(t, ch.End-ch.Start, tc.window)
				if i > 0 {
					// consecutive spans overlap by exactly the configured
					// count, except possibly into the final chunk
					overlap := chunks[i-1].End - ch.Start
					if i < len(chunks)-1 {
						require.Equal(t, tc.overlap, overlap)
					} else {
						require.GreaterOrEqual(t, overlap, tc.overlap)
					}
					require.Greater(t, ch.Start, chunks[i-1].Start)
				}
			}
		})
	}
}

func TestChunk_DecodeRoundTrip(t *testing.T) {
	tok := newWordTokenizer()
	c, err := New(tok, 10, 3)
	require.NoError(t, err)

	text := makeText(37)
	all := tok.Encode(text)
	chunks := c.Chunk(text, "doc")
	for _, ch := range chunks {
		// re-encoding a decoded chunk reproduces the exact token slice
		require.Equal(t, all[ch.Start:ch.End], tok.Encode(ch.Text))
	}
}
