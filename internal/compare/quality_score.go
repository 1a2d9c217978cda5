package compare

import (
	"math"
	"strings"
	"unicode"

	"github.com/sells-group/regdoc-cli/internal/model"
)

const idealWhitespace = 0.175

// ordinary punctuation found in legal and administrative text
const commonPunct = ".,;:!?'\"()[]-/$%&#@°ºª¿¡«»“”‘’_*+="

// QualityScore estimates in [0,1] how much recognized text looks like real
// prose: alphanumeric ratio (40%), whitespace ratio near 17.5% (20%),
// penalty for stray symbols (20%) and word shape (20%).
func QualityScore(text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	var total, alnum, space, special float64
	for _, r := range text {
		total++
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			alnum++
		case unicode.IsSpace(r):
			space++
		case strings.ContainsRune(commonPunct, r):
		default:
			special++
		}
	}

	alnumScore := alnum / total
	wsScore := math.Max(0, 1-math.Abs(space/total-idealWhitespace)/idealWhitespace)
	specialScore := math.Max(0, 1-5*special/total)

	score := 0.4*alnumScore + 0.2*wsScore + 0.2*specialScore + 0.2*wordScore(strings.Fields(text))
	return model.Clamp01(score)
}

// wordScore blends average word length against a 3..10 rune band with the
// share of words that are mostly letters or digits.
func wordScore(words []string) float64 {
	if len(words) == 0 {
		return 0
	}
	var runes, valid float64
	for _, w := range words {
		n, good := 0, 0
		for _, r := range w {
			n++
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				good++
			}
		}
		runes += float64(n)
		if n <= 25 && float64(good) >= 0.7*float64(n) {
			valid++
		}
	}
	avg := runes / float64(len(words))
	var lengthScore float64
	switch {
	case avg >= 3 && avg <= 10:
		lengthScore = 1
	case avg < 3:
		lengthScore = avg / 3
	default:
		lengthScore = math.Max(0, 1-(avg-10)/10)
	}
	return 0.5*lengthScore + 0.5*valid/float64(len(words))
}
