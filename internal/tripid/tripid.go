package tripid

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
	"unicode"
)

const suffixAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Sequencer hands out per-company trip numbers atomically. seed is called at most once per
// company to start the counter from existing data.
type Sequencer interface {
	NextTripSequence(ctx context.Context, companyID string, seed func(context.Context) (int64, error)) (int64, error)
}

type Generator struct {
	seq Sequencer
	now func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

type Option func(*Generator)

func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

func WithRand(rnd *rand.Rand) Option {
	return func(g *Generator) {
		g.rnd = rnd
	}
}

func NewGenerator(seq Sequencer, opts ...Option) *Generator {
	g := &Generator{
		seq: seq,
		now: time.Now,
		rnd: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Next returns an id such as TRAB000125-X7K2: two letters from the company id, the
// zero-padded sequence, the two-digit year and a random suffix.
func (g *Generator) Next(ctx context.Context, companyID string, count func(context.Context) (int64, error)) (string, error) {
	if companyID == "" {
		return "", errors.New("company id is required")
	}
	seq, err := g.seq.NextTripSequence(ctx, companyID, count)
	if err != nil {
		return "", fmt.Errorf("reserve trip sequence: %w", err)
	}

	g.mu.Lock()
	letters := g.letters(companyID)
	suffix := g.suffix(4)
	g.mu.Unlock()

	return Format(letters, seq, g.now().Year(), suffix), nil
}

func Format(letters string, seq int64, year int, suffix string) string {
	return fmt.Sprintf("TR%s%04d%02d-%s", letters, seq, year%100, suffix)
}

// letters draws two distinct positions from the alphabetic characters of companyID.
// Ids with fewer than two letters are padded with X so every trip id keeps the same width.
func (g *Generator) letters(companyID string) string {
	var alpha []rune
	for _, r := range strings.ToUpper(companyID) {
		if r <= unicode.MaxASCII && unicode.IsLetter(r) {
			alpha = append(alpha, r)
		}
	}

	var b strings.Builder
	for _, i := range g.rnd.Perm(len(alpha)) {
		if b.Len() == 2 {
			break
		}
		b.WriteRune(alpha[i])
	}
	for b.Len() < 2 {
		b.WriteByte('X')
	}
	return b.String()
}

func (g *Generator) suffix(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = suffixAlphabet[g.rnd.IntN(len(suffixAlphabet))]
	}
	return string(b)
}
