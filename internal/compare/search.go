package compare

import (
	"context"
	"math/bits"
	"regexp"
	"strings"

	"github.com/sells-group/regdoc-cli/internal/model"
)

// DefaultPhraseThreshold is the minimum fuzzy ratio FindBestMatch accepts
// when callers have no stronger opinion.
const DefaultPhraseThreshold = 0.85

// cancelCheckEvery is how many window starts Find scans between context checks.
const cancelCheckEvery = 256

var wordRe = regexp.MustCompile(`\S+`)

// Match is a span of the searched text. Start and Length are byte offsets
// into the original, unnormalized text.
type Match struct {
	Start      int     `json:"start"`
	Length     int     `json:"length"`
	Text       string  `json:"text"`
	Similarity float64 `json:"similarity"`
}

// End is the byte offset just past the match.
func (m Match) End() int { return m.Start + m.Length }

// Searcher holds a text split into words and folded once, so many phrases
// can be looked up without re-normalizing the text for each one.
type Searcher struct {
	text  string
	spans [][]int
	words [][]rune
}

// NewSearcher splits and folds text.
func NewSearcher(text string) *Searcher {
	spans := wordRe.FindAllStringIndex(text, -1)
	words := make([][]rune, len(spans))
	for i, sp := range spans {
		words[i] = []rune(Fold(text[sp[0]:sp[1]]))
	}
	return &Searcher{text: text, spans: spans, words: words}
}

// Find slides windows of len(phrase words)-1 through +2 words across the
// text and returns the best-scoring window by FuzzyRatio when it reaches
// threshold. The leftmost, shortest window wins ties. It returns
// model.ErrCancelled when ctx is done mid-scan.
func (s *Searcher) Find(ctx context.Context, phrase string, threshold float64) (Match, bool, error) {
	target := []rune(Fold(phrase))
	if len(target) == 0 || len(s.spans) == 0 {
		return Match{}, false, nil
	}
	n := len(strings.Fields(string(target)))
	lo, hi := max(1, n-1), n+2

	lcs := newLCSCounter(target)
	var best Match
	found := false
	for i := range s.spans {
		if i%cancelCheckEvery == 0 {
			if err := model.CheckCancelled(ctx); err != nil {
				return Match{}, false, err
			}
		}
		lcs.reset()
		chars := 0
		for size := 1; size <= hi && i+size <= len(s.spans); size++ {
			if w := s.words[i+size-1]; len(w) > 0 {
				if chars > 0 {
					lcs.feed(' ')
					chars++
				}
				for _, r := range w {
					lcs.feed(r)
				}
				chars += len(w)
			}
			if size < lo {
				continue
			}
			score := ratio(lcs.value(), len(target)+chars)
			// Starts ascend and sizes ascend within a start, so a strict
			// improvement keeps the leftmost, shortest window on ties.
			if !found || score > best.Similarity {
				start, end := s.spans[i][0], s.spans[i+size-1][1]
				best = Match{Start: start, Length: end - start, Text: s.text[start:end], Similarity: score}
				found = true
			}
		}
	}
	if !found || best.Similarity < threshold {
		return Match{}, false, nil
	}
	return best, true, nil
}

// FindBestMatch is Find on a one-off Searcher without cancellation.
func FindBestMatch(phrase, text string, threshold float64) (Match, bool) {
	if strings.TrimSpace(text) == "" {
		return Match{}, false
	}
	m, ok, _ := NewSearcher(text).Find(context.Background(), phrase, threshold)
	return m, ok
}

// lcsCounter tracks the longest common subsequence between a fixed target
// and a window fed one rune at a time. Targets up to 64 runes use the
// bit-parallel recurrence; longer ones fall back to the DP table.
type lcsCounter struct {
	target []rune
	wide   bool
	ascii  [128]uint64
	other  map[rune]uint64
	state  uint64
	buf    []rune
}

func newLCSCounter(target []rune) *lcsCounter {
	c := &lcsCounter{target: target}
	if len(target) > 64 {
		c.wide = true
		return c
	}
	for i, r := range target {
		bit := uint64(1) << uint(i)
		if r >= 0 && r < 128 {
			c.ascii[r] |= bit
			continue
		}
		if c.other == nil {
			c.other = make(map[rune]uint64)
		}
		c.other[r] |= bit
	}
	return c
}

func (c *lcsCounter) reset() {
	c.state = ^uint64(0)
	c.buf = c.buf[:0]
}

func (c *lcsCounter) feed(r rune) {
	if c.wide {
		c.buf = append(c.buf, r)
		return
	}
	var m uint64
	if r >= 0 && r < 128 {
		m = c.ascii[r]
	} else {
		m = c.other[r]
	}
	u := c.state & m
	c.state = (c.state + u) | (c.state - u)
}

func (c *lcsCounter) value() int {
	if c.wide {
		return lcsLength(c.buf, c.target)
	}
	mask := uint64(1)<<uint(len(c.target)) - 1
	return bits.OnesCount64(^c.state & mask)
}
