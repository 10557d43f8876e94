package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/matiasleandrokruk/nutrisense/internal/domain/nutrition"
)

// CompositionStore implements nutrition.CompositionSource over the
// food_composition table.
type CompositionStore struct {
	db *sql.DB
}

func NewCompositionStore(db *sql.DB) *CompositionStore {
	return &CompositionStore{db: db}
}

func (s *CompositionStore) Name() string { return "sqlite" }

// Lookup resolves name by exact name, then alias, then the shortest name
// containing it. It returns (nil, nil) when nothing matches.
func (s *CompositionStore) Lookup(ctx context.Context, name string) (*nutrition.LookupResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT description, calories, protein, carbs, fat, fiber
		FROM food_composition
		WHERE name = :q
		   OR name = (SELECT name FROM food_alias WHERE alias = :q)
		   OR name LIKE '%' || :pattern || '%' ESCAPE '\'
		ORDER BY
			CASE WHEN name = :q THEN 0
			     WHEN name = (SELECT name FROM food_alias WHERE alias = :q) THEN 1
			     ELSE 2 END,
			length(name)
		LIMIT 1`, sql.Named("q", name), sql.Named("pattern", escapeLike(name)))

	var (
		description string
		cols        [5]sql.NullFloat64
	)
	err := row.Scan(&description, &cols[0], &cols[1], &cols[2], &cols[3], &cols[4])
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite lookup %q: %w", name, err)
	}

	fields := [5]string{"calories", "protein", "carbs", "fat", "fiber"}
	var values [5]float64
	var missing []string
	for i, c := range cols {
		if !c.Valid {
			missing = append(missing, fields[i])
			continue
		}
		values[i] = c.Float64
	}

	return &nutrition.LookupResult{
		Description: description,
		Profile: nutrition.NutrientProfile{
			Calories: values[0],
			Protein:  values[1],
			Carbs:    values[2],
			Fat:      values[3],
			Fiber:    values[4],
		}.Sanitize(),
		Missing: missing,
	}, nil
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
