// AngelaMos | 2026
// entity.go

package advice

import (
	"time"
)

// Advice is the payload row extending an entity of kind advice. Raw slips are
// stored under the default persona with Sourced set, at most one per slip id;
// voiced rewrites share the slip id.
type Advice struct {
	EntityID     int64     `db:"entity_id"`
	PersonaID    int64     `db:"persona_id"`
	PersonaName  string    `db:"persona_name"`
	Content      string    `db:"content"`
	AdviceSlipID int       `db:"adviceslip_id"`
	Sourced      bool      `db:"sourced"`
	CreatedOn    time.Time `db:"created_on"`
}

type Persona struct {
	ID        int64     `db:"persona_id"`
	Name      string    `db:"name"`
	CreatedOn time.Time `db:"created_on"`
}
