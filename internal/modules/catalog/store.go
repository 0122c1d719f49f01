// README: Reference retrieval adapter backed by a PostgreSQL products table.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/jackc/pgx/v5/pgxpool"

	"concierge/internal/modules/pricing"
	"concierge/internal/types"
)

const (
	defaultLimit  = 24
	facetPoolSize = 200
)

// Store implements Retriever with keyword search over products. The embedding is accepted and
// ignored; ranking is ts_rank over title and tags.
type Store struct {
	db     *pgxpool.Pool
	tagCap int
}

func NewStore(db *pgxpool.Pool, tagCap int) *Store {
	return &Store{db: db, tagCap: tagCap}
}

func (s *Store) Search(ctx context.Context, q Query) (RetrievalSet, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	sql, args := buildSearchSQL(q.Text, q.Filters, limit)
	items, err := s.query(ctx, sql, args)
	if err != nil {
		return RetrievalSet{}, fmt.Errorf("%w: search: %w", ErrRetrieval, err)
	}

	// Facet values come from the unfiltered keyword pool so they exist even when nothing matches.
	poolSQL, poolArgs := buildSearchSQL(q.Text, nil, facetPoolSize)
	pool, err := s.query(ctx, poolSQL, poolArgs)
	if err != nil {
		return RetrievalSet{}, fmt.Errorf("%w: facet pool: %w", ErrRetrieval, err)
	}

	return RetrievalSet{
		Items:       items,
		FacetValues: CollectFacetValues(pool, s.tagCap),
	}, nil
}

func (s *Store) query(ctx context.Context, sql string, args []any) ([]Item, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		var it Item
		var id string
		if err := rows.Scan(
			&id, &it.Title, &it.Price.Amount, &it.Price.Currency,
			&it.Tags, &it.Category, &it.Vendor, &it.Attributes, &it.Score,
		); err != nil {
			return nil, err
		}
		it.ID = types.ID(id)
		items = append(items, it)
	}
	return items, rows.Err()
}

// buildSearchSQL renders the products query. Price band labels are expected to be valid; the turn
// service rejects unknown ones before retrieval, so an unknown label here is skipped.
func buildSearchSQL(text string, filters Filters, limit int) (string, []any) {
	var where []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	score := "0::float8"
	if tsq := keywordQuery(text); tsq != "" {
		p := arg(tsq)
		doc := "to_tsvector('simple', title || ' ' || array_to_string(COALESCE(tags, '{}'), ' '))"
		where = append(where, fmt.Sprintf("%s @@ to_tsquery('simple', %s)", doc, p))
		score = fmt.Sprintf("ts_rank(%s, to_tsquery('simple', %s))::float8", doc, p)
	}

	for _, facet := range filters.Keys() {
		value := filters[facet]
		switch types.Canonical(facet) {
		case types.Canonical(FacetPrice):
			band, ok := pricing.BucketRange(value)
			if !ok {
				continue
			}
			where = append(where, "price_amount >= "+arg(band.Min))
			if band.Max > 0 {
				where = append(where, "price_amount < "+arg(band.Max))
			}
		case FacetCategory, FacetVendor:
			col := types.Canonical(facet)
			where = append(where, fmt.Sprintf("%s = %s", canonicalSQL(col), arg(types.Canonical(value))))
		case FacetTag:
			where = append(where, fmt.Sprintf(
				"EXISTS (SELECT 1 FROM unnest(tags) t WHERE %s = %s)", canonicalSQL("t"), arg(types.Canonical(value))))
		default:
			where = append(where, fmt.Sprintf(
				"%s = %s", canonicalSQL("attributes ->> "+arg(facet)), arg(types.Canonical(value))))
		}
	}

	var b strings.Builder
	b.WriteString(`SELECT id, title, price_amount, currency,
       COALESCE(tags, '{}'), COALESCE(category, ''), COALESCE(vendor, ''),
       COALESCE(attributes, '{}'::jsonb), `)
	b.WriteString(score)
	b.WriteString(" AS score\nFROM products")
	if len(where) > 0 {
		b.WriteString("\nWHERE ")
		b.WriteString(strings.Join(where, "\n  AND "))
	}
	b.WriteString("\nORDER BY score DESC, id\nLIMIT ")
	b.WriteString(arg(limit))
	return b.String(), args
}

// canonicalSQL folds a text expression the way types.Canonical does, so filter values compare
// the same in the database as in the decision core.
func canonicalSQL(expr string) string {
	return fmt.Sprintf(`btrim(regexp_replace(lower(%s), '[[:space:]_/-]+', ' ', 'g'))`, expr)
}

// keywordQuery turns free text into an OR tsquery of alphanumeric tokens.
func keywordQuery(text string) string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]bool, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < 2 || stopwords[f] || seen[f] {
			continue
		}
		seen[f] = true
		tokens = append(tokens, f)
	}
	return strings.Join(tokens, " | ")
}

var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "for": true, "to": true,
	"of": true, "in": true, "on": true, "with": true, "me": true, "my": true, "some": true,
	"im": true, "i'm": true, "looking": true, "want": true, "need": true, "please": true,
	"show": true, "any": true, "is": true, "are": true, "it": true, "that": true, "this": true,
}
