package vocab

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/jsphweid/chordrnn/constants"
	"github.com/jsphweid/chordrnn/model"
	"github.com/jsphweid/chordrnn/util"
)

// ErrNotFound is returned by Lookup for tokens outside the vocabulary.
var ErrNotFound = errors.New("token not in vocabulary")

// Vocabulary maps tokens to stable integer indices. The zero value is empty;
// use FromSet or New.
type Vocabulary struct {
	tokens []model.Token
	index  map[model.Token]int
}

// FromSet freezes a token set. REST always takes index 0 and the remaining
// tokens follow in lexical order, so the same set always yields the same
// indices.
func FromSet(set model.TokenSet) Vocabulary {
	rest := make([]model.Token, 0, len(set))
	for tok := range set {
		if tok != constants.Rest {
			rest = append(rest, tok)
		}
	}
	sort.Strings(rest)
	v, _ := New(append([]model.Token{constants.Rest}, rest...))
	return v
}

// New builds a vocabulary that keeps the given order, as read back from a
// persisted file.
func New(tokens []model.Token) (Vocabulary, error) {
	v := Vocabulary{
		tokens: make([]model.Token, len(tokens)),
		index:  make(map[model.Token]int, len(tokens)),
	}
	copy(v.tokens, tokens)
	for i, tok := range tokens {
		if _, dup := v.index[tok]; dup {
			return Vocabulary{}, fmt.Errorf("duplicate vocabulary token %q", tok)
		}
		v.index[tok] = i
	}
	if _, ok := v.index[constants.Rest]; !ok {
		return Vocabulary{}, fmt.Errorf("vocabulary is missing %q", constants.Rest)
	}
	return v, nil
}

func (v Vocabulary) Lookup(token model.Token) (int, error) {
	if i, ok := v.index[token]; ok {
		return i, nil
	}
	return -1, fmt.Errorf("%w: %q", ErrNotFound, token)
}

func (v Vocabulary) Token(i int) model.Token {
	if i < 0 || i >= len(v.tokens) {
		return ""
	}
	return v.tokens[i]
}

func (v Vocabulary) Len() int { return len(v.tokens) }

func (v Vocabulary) Tokens() []model.Token {
	out := make([]model.Token, len(v.tokens))
	copy(out, v.tokens)
	return out
}

func (v Vocabulary) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.tokens)
}

func (v *Vocabulary) UnmarshalJSON(b []byte) error {
	var tokens []model.Token
	if err := json.Unmarshal(b, &tokens); err != nil {
		return err
	}
	parsed, err := New(tokens)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Normalize maps every token through fn and refreezes the result.
func Normalize(v Vocabulary, fn func(model.Token) model.Token) Vocabulary {
	set := model.TokenSet{}
	for _, tok := range v.tokens {
		set[fn(tok)] = struct{}{}
	}
	return FromSet(set)
}

func Save(path string, v Vocabulary) error {
	return util.WriteJSON(path, v)
}

func Load(path string) (Vocabulary, error) {
	return util.ReadJSON[Vocabulary](path)
}
