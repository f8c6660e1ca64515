package sentiment

import (
	"context"
	"math"
	"strings"
	"unicode"
)

const (
	// normalizationAlpha approximates the maximum expected sum of valences.
	normalizationAlpha = 15.0

	boosterIncrement = 0.293
	capsIncrement    = 0.733
	negationScalar   = -0.74
	exclamationBoost = 0.292
	maxExclamations  = 4
)

// Lexicon is a rule-based analyzer in the style of VADER: word valences in
// [-4,4] adjusted for negation, intensifiers, capitalization, contrastive
// "but" and exclamation marks, then squashed into [-1,1].
//
// It runs locally with no model and is the default analyzer.
type Lexicon struct {
	valences  map[string]float64
	boosters  map[string]float64
	negations map[string]struct{}
}

// NewLexicon returns an analyzer with the built-in English lexicon. extra
// entries override or extend the built-in valences.
func NewLexicon(extra map[string]float64) *Lexicon {
	valences := make(map[string]float64, len(defaultValences)+len(extra))
	for w, v := range defaultValences {
		valences[w] = v
	}
	for w, v := range extra {
		valences[strings.ToLower(w)] = v
	}
	return &Lexicon{
		valences:  valences,
		boosters:  defaultBoosters,
		negations: defaultNegations,
	}
}

// Score returns the compound polarity of text.
func (l *Lexicon) Score(ctx context.Context, text string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return l.Compound(text), nil
}

// Compound computes the polarity without a context.
func (l *Lexicon) Compound(text string) float64 {
	words := splitTokens(text)
	if len(words) == 0 {
		return 0
	}
	shouting := isMixedCase(words)

	scores := make([]float64, len(words))
	butIndex := -1
	for i, word := range words {
		lower := strings.ToLower(word)
		if lower == "but" && butIndex < 0 {
			butIndex = i
		}
		v, ok := l.valences[lower]
		if !ok {
			continue
		}
		if shouting && isUpper(word) {
			v += math.Copysign(capsIncrement, v)
		}
		for back := 1; back <= 3 && i-back >= 0; back++ {
			prev := strings.ToLower(words[i-back])
			if b, ok := l.boosters[prev]; ok {
				decay := 1.0 - 0.05*float64(back-1)
				v += math.Copysign(1, v) * b * decay
			}
		}
		if l.negated(words, i) {
			v *= negationScalar
		}
		scores[i] = v
	}

	if butIndex >= 0 {
		for i := range scores {
			switch {
			case i < butIndex:
				scores[i] *= 0.5
			case i > butIndex:
				scores[i] *= 1.5
			}
		}
	}

	var sum float64
	for _, s := range scores {
		sum += s
	}
	if sum != 0 {
		marks := strings.Count(text, "!")
		if marks > maxExclamations {
			marks = maxExclamations
		}
		sum += math.Copysign(float64(marks)*exclamationBoost, sum)
	}

	return clampPolarity(sum / math.Sqrt(sum*sum+normalizationAlpha))
}

func (l *Lexicon) negated(words []string, i int) bool {
	for back := 1; back <= 3 && i-back >= 0; back++ {
		prev := strings.ToLower(words[i-back])
		if _, ok := l.negations[prev]; ok {
			return true
		}
		if strings.HasSuffix(prev, "n't") {
			return true
		}
	}
	return false
}

func splitTokens(text string) []string {
	fields := strings.Fields(text)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool {
			return unicode.IsPunct(r) && r != '\''
		})
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func isUpper(word string) bool {
	hasLetter := false
	for _, r := range word {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}

// isMixedCase reports whether some but not all words are upper case, which
// is when capitalization signals emphasis.
func isMixedCase(words []string) bool {
	upper := 0
	for _, w := range words {
		if isUpper(w) {
			upper++
		}
	}
	return upper > 0 && upper < len(words)
}

var defaultBoosters = map[string]float64{
	"absolutely": boosterIncrement, "amazingly": boosterIncrement, "completely": boosterIncrement,
	"deeply": boosterIncrement, "enormously": boosterIncrement, "entirely": boosterIncrement,
	"especially": boosterIncrement, "extremely": boosterIncrement, "highly": boosterIncrement,
	"incredibly": boosterIncrement, "really": boosterIncrement, "so": boosterIncrement,
	"super": boosterIncrement, "totally": boosterIncrement, "truly": boosterIncrement,
	"very": boosterIncrement, "most": boosterIncrement, "too": boosterIncrement,
	"barely": -boosterIncrement, "hardly": -boosterIncrement, "kinda": -boosterIncrement,
	"slightly": -boosterIncrement, "somewhat": -boosterIncrement, "sorta": -boosterIncrement,
	"marginally": -boosterIncrement, "partly": -boosterIncrement,
}

var defaultNegations = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "none": {}, "nobody": {}, "nothing": {},
	"neither": {}, "nor": {}, "nowhere": {}, "cannot": {}, "without": {},
	"dont": {}, "doesnt": {}, "didnt": {}, "isnt": {}, "wasnt": {}, "wont": {},
	"cant": {}, "couldnt": {}, "shouldnt": {}, "wouldnt": {}, "aint": {},
}

var defaultValences = map[string]float64{
	// positive
	"good": 1.9, "great": 3.1, "excellent": 2.7, "amazing": 2.8, "awesome": 3.1,
	"wonderful": 2.7, "fantastic": 2.6, "love": 3.2, "loved": 2.9, "loves": 2.7,
	"like": 1.5, "liked": 1.8, "likes": 1.8, "happy": 2.7, "glad": 2.0,
	"joy": 2.8, "nice": 1.8, "fun": 2.3, "best": 3.2, "better": 1.9,
	"beautiful": 2.9, "brilliant": 2.8, "perfect": 2.7, "thanks": 1.9, "thank": 1.5,
	"grateful": 2.0, "excited": 1.4, "exciting": 2.2, "enjoy": 2.2, "enjoyed": 2.3,
	"pleased": 1.9, "delighted": 2.9, "cool": 1.3, "helpful": 1.6, "win": 2.8,
	"success": 2.7, "successful": 2.8, "proud": 2.1, "calm": 1.3, "safe": 1.9,
	"hope": 1.9, "hopeful": 1.6, "fine": 0.8, "okay": 0.9, "ok": 0.9,
	"yes": 1.7, "agree": 1.5, "favorite": 2.0, "care": 2.2, "kind": 2.4,
	"sweet": 2.0, "relieved": 1.5, "celebrate": 2.7, "congratulations": 2.9, "fortunate": 1.9,
	"impressive": 2.3, "lovely": 2.8, "incredible": 2.2, "superb": 3.1, "smile": 1.5,
	// negative
	"bad": -2.5, "terrible": -2.1, "awful": -2.0, "horrible": -2.5, "hate": -2.7,
	"hated": -3.2, "hates": -1.9, "sad": -2.1, "angry": -2.3, "mad": -2.2,
	"upset": -1.6, "worse": -2.1, "worst": -3.1, "poor": -2.1, "ugly": -2.3,
	"annoying": -1.7, "annoyed": -1.6, "boring": -1.3, "bored": -1.1, "fail": -2.5,
	"failed": -2.3, "failure": -2.3, "wrong": -2.1, "problem": -1.7, "problems": -1.7,
	"pain": -2.3, "painful": -1.9, "hurt": -2.4, "sick": -2.3, "tired": -1.9,
	"afraid": -2.2, "scared": -1.9, "fear": -2.2, "worried": -1.2, "worry": -1.9,
	"stress": -1.8, "stressed": -1.4, "cry": -2.1, "crying": -2.1, "lonely": -2.0,
	"disappointed": -1.9, "disappointing": -2.2, "frustrated": -2.4, "frustrating": -1.9, "broken": -1.8,
	"lost": -1.3, "lose": -1.7, "loss": -1.3, "sorry": -0.3, "miss": -0.6,
	"disaster": -3.1, "dead": -3.3, "death": -2.9, "kill": -3.7,
	"stupid": -2.4, "useless": -1.8, "hopeless": -2.0, "miserable": -2.2, "furious": -2.7,
	"anxious": -1.0, "nervous": -1.1, "guilty": -1.8, "shame": -2.1, "terrified": -3.0,
}
