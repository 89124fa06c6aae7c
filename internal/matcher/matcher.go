// Package matcher maps free-text payee strings to budget categories using a
// learned mapping store, improving over time from user corrections.
package matcher

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/rs/zerolog"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/dvloznov/ledger/internal/ledger"
	"github.com/dvloznov/ledger/internal/store"
)

// Matcher resolves payee strings against the category-mapping store.
type Matcher struct {
	store store.Store
	log   zerolog.Logger
}

// New creates a Matcher over the given store.
func New(s store.Store, log zerolog.Logger) *Matcher {
	return &Matcher{store: s, log: log}
}

// Normalize lowercases the input and strips every non-alphanumeric rune.
// Mapping keys are stored in this form.
func Normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// foldTransformer strips diacritics: decompose, drop combining marks,
// recompose.
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// fold case-folds and diacritic-folds a normalized string, so that the
// prefix tier matches "CAFÉ ROUGE" against a stored key "cafe".
func fold(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(folded)
}

// Match resolves input to a category using a three-tier ranked lookup:
// exact match on the normalized key, then prefix match (diacritic- and
// case-folded), then contains. The first tier with any candidate wins
// outright; within a tier the candidate with the highest usage count wins.
// A successful match bumps the winner's usage count and persists it — a
// deliberate side effect, since usage counts drive future tie-breaks.
// Store failures are logged and degrade to CategoryUnknown; they are never
// fatal.
func (m *Matcher) Match(ctx context.Context, input string) ledger.Category {
	mappings, err := m.store.ListMappings(ctx)
	if err != nil {
		m.log.Error().Err(err).Str("input", input).Msg("category match: listing mappings failed")
		return ledger.CategoryUnknown
	}

	winner := lookup(input, mappings)
	if winner == nil {
		return ledger.CategoryUnknown
	}

	winner.Bump()
	if err := m.store.UpsertMapping(ctx, winner); err != nil {
		m.log.Error().Err(err).Str("key", winner.Key).Msg("category match: persisting usage count failed")
	}
	return winner.Category
}

// lookup runs the tiered search without side effects. It returns the
// winning mapping, or nil when no tier matches.
func lookup(input string, mappings []*ledger.CategoryMapping) *ledger.CategoryMapping {
	normalized := Normalize(input)
	if normalized == "" {
		return nil
	}
	folded := fold(normalized)

	tiers := []func(*ledger.CategoryMapping) bool{
		func(c *ledger.CategoryMapping) bool { return normalized == c.Key },
		func(c *ledger.CategoryMapping) bool { return strings.HasPrefix(folded, fold(c.Key)) },
		func(c *ledger.CategoryMapping) bool { return strings.Contains(normalized, c.Key) },
	}

	for _, matches := range tiers {
		var best *ledger.CategoryMapping
		for _, c := range mappings {
			if c.Key == "" || !matches(c) {
				continue
			}
			if best == nil || c.UseCount > best.UseCount ||
				(c.UseCount == best.UseCount && len(c.Key) > len(best.Key)) {
				best = c
			}
		}
		if best != nil {
			return best
		}
	}
	return nil
}

// Teach upserts a mapping for the normalized input — creating it with a
// usage count of one, or moving an existing mapping to the new category and
// bumping its count — then immediately reclassifies every stored
// transaction still categorized as unknown whose payee now matches. The
// whole operation commits atomically.
func (m *Matcher) Teach(ctx context.Context, input string, category ledger.Category) error {
	key := Normalize(input)
	if key == "" {
		return fmt.Errorf("matcher: input %q normalizes to nothing", input)
	}
	if category == ledger.CategoryUnknown {
		return fmt.Errorf("matcher: cannot teach the unknown category")
	}

	return m.store.RunInTransaction(ctx, func(tx store.Store) error {
		mappings, err := tx.ListMappings(ctx)
		if err != nil {
			return fmt.Errorf("matcher: teach %q: %w", key, err)
		}

		mapping := &ledger.CategoryMapping{Key: key, Category: category, UseCount: 1}
		for _, existing := range mappings {
			if existing.Key == key {
				mapping = existing
				mapping.Category = category
				mapping.Bump()
				break
			}
		}
		if err := tx.UpsertMapping(ctx, mapping); err != nil {
			return fmt.Errorf("matcher: teach %q: %w", key, err)
		}

		return reclassifyUnknown(ctx, tx, upserted(mappings, mapping))
	})
}

// reclassifyUnknown re-runs the lookup for transactions classified unknown,
// keeping derived classification consistent the moment a correction lands.
// The rescan is a pure lookup: usage counts only move on real matches and
// on teach itself.
func reclassifyUnknown(ctx context.Context, tx store.Store, mappings []*ledger.CategoryMapping) error {
	txs, err := tx.ListTransactions(ctx)
	if err != nil {
		return fmt.Errorf("matcher: reclassify: %w", err)
	}

	for _, t := range txs {
		if t.Category != ledger.CategoryUnknown {
			continue
		}
		winner := lookup(t.Payee, mappings)
		if winner == nil {
			continue
		}
		t.Category = winner.Category
		if err := tx.UpdateTransaction(ctx, t); err != nil {
			return fmt.Errorf("matcher: reclassify %s: %w", t.ID, err)
		}
	}
	return nil
}

// upserted returns mappings with m replacing or extending its entry.
func upserted(mappings []*ledger.CategoryMapping, m *ledger.CategoryMapping) []*ledger.CategoryMapping {
	for i, existing := range mappings {
		if existing.Key == m.Key {
			mappings[i] = m
			return mappings
		}
	}
	return append(mappings, m)
}
