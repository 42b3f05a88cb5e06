// AngelaMos | 2026
// seed.go

package seed

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/persona-advice/internal/core"
)

type Role struct {
	Name        string
	Description string
}

type Tag struct {
	Name        string
	Description string
}

// Data is the reference data an empty deployment needs. Every insert is
// idempotent, so seeding twice changes nothing.
type Data struct {
	Roles    []Role
	Personas []string
	Tags     []Tag
}

// Result counts rows actually inserted, not rows requested.
type Result struct {
	Roles    int64
	Personas int64
	Tags     int64
}

func Defaults(defaultPersona string) Data {
	return Data{
		Roles: []Role{
			{Name: "user", Description: "Registered user"},
			{Name: "admin", Description: "Administrator"},
		},
		Personas: []string{defaultPersona, "Pirate", "Shakespeare", "Yoda"},
		Tags: []Tag{
			{Name: "funny", Description: "Made someone laugh"},
			{Name: "wise", Description: "Genuinely good advice"},
			{Name: "weird", Description: "Hard to explain"},
		},
	}
}

func Run(ctx context.Context, db core.Transactor, data Data) (Result, error) {
	var res Result

	err := db.InTx(ctx, func(tx core.DBTX) error {
		for _, role := range data.Roles {
			n, err := insert(ctx, tx,
				`INSERT INTO roles (name, description) VALUES ($1, $2)
				ON CONFLICT (name) DO NOTHING`,
				role.Name, role.Description)
			if err != nil {
				return fmt.Errorf("seed role %s: %w", role.Name, err)
			}
			res.Roles += n
		}

		for _, name := range data.Personas {
			n, err := insert(ctx, tx,
				`INSERT INTO personas (name) VALUES ($1)
				ON CONFLICT (name) DO NOTHING`,
				name)
			if err != nil {
				return fmt.Errorf("seed persona %s: %w", name, err)
			}
			res.Personas += n
		}

		for _, tag := range data.Tags {
			n, err := insert(ctx, tx,
				`INSERT INTO tags (name, description) VALUES ($1, $2)
				ON CONFLICT (name) DO NOTHING`,
				tag.Name, tag.Description)
			if err != nil {
				return fmt.Errorf("seed tag %s: %w", tag.Name, err)
			}
			res.Tags += n
		}

		return nil
	})
	if err != nil {
		return Result{}, err
	}

	return res, nil
}

func insert(ctx context.Context, tx core.DBTX, query string, args ...any) (int64, error) {
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
