package onnx

import (
	"encoding/json"
	"os"
	"strings"
	"unicode"
)

const (
	clsToken = 101
	sepToken = 102
	unkToken = 100
)

// tokenizer is a lowercase BERT WordPiece tokenizer reading the vocab of a
// HuggingFace tokenizer.json.
type tokenizer struct {
	vocab map[string]int
}

func loadTokenizer(path string) (*tokenizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var spec struct {
		Model struct {
			Vocab map[string]int `json:"vocab"`
		} `json:"model"`
	}
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, err
	}
	return &tokenizer{vocab: spec.Model.Vocab}, nil
}

// encode returns input ids and attention mask padded to maxLen, with [CLS]
// and [SEP] around the (possibly truncated) tokens.
func (t *tokenizer) encode(text string, maxLen int) (ids, mask []int64) {
	ids = make([]int64, maxLen)
	mask = make([]int64, maxLen)
	if maxLen < 2 {
		return ids, mask
	}

	tokens := t.tokenize(text)
	if len(tokens) > maxLen-2 {
		tokens = tokens[:maxLen-2]
	}

	ids[0], mask[0] = clsToken, 1
	for i, tok := range tokens {
		ids[i+1], mask[i+1] = tok, 1
	}
	end := len(tokens) + 1
	ids[end], mask[end] = sepToken, 1
	return ids, mask
}

func (t *tokenizer) tokenize(text string) []int64 {
	var out []int64
	for _, word := range splitWords(strings.ToLower(text)) {
		if id, ok := t.vocab[word]; ok {
			out = append(out, int64(id))
			continue
		}
		out = append(out, t.wordPiece(word)...)
	}
	return out
}

// wordPiece splits word greedily into the longest vocab prefixes.
func (t *tokenizer) wordPiece(word string) []int64 {
	var out []int64
	runes := []rune(word)
	start := 0
	for start < len(runes) {
		end := len(runes)
		matched := false
		for end > start {
			piece := string(runes[start:end])
			if start > 0 {
				piece = "##" + piece
			}
			if id, ok := t.vocab[piece]; ok {
				out = append(out, int64(id))
				start = end
				matched = true
				break
			}
			end--
		}
		if !matched {
			return []int64{unkToken}
		}
	}
	return out
}

// splitWords splits on whitespace and isolates punctuation, as BERT's basic
// tokenizer does.
func splitWords(text string) []string {
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			flush()
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			flush()
			words = append(words, string(r))
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return words
}
