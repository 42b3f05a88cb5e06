// AngelaMos | 2026
// service.go

package advice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/carterperez-dev/persona-advice/internal/config"
	"github.com/carterperez-dev/persona-advice/internal/core"
	"github.com/carterperez-dev/persona-advice/internal/entity"
	"github.com/carterperez-dev/persona-advice/internal/upstream"
)

const personasCacheKey = "personas"

// SlipSource fetches raw advice by slip id.
type SlipSource interface {
	Slip(ctx context.Context, id int) (*upstream.Slip, error)
}

// Completer rewrites a prompt through the text-completion service.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type Service struct {
	db       core.Transactor
	repo     Repository
	bind     func(core.DBTX) Repository
	entities func(core.DBTX) entity.Repository

	slips     SlipSource
	completer Completer
	cache     *core.Cache
	cfg       config.AdviceConfig

	defaultPersonaID int64
	pick             func(n int) int
}

func NewService(
	db *core.Database,
	slips SlipSource,
	completer Completer,
	cache *core.Cache,
	cfg config.AdviceConfig,
) *Service {
	return newService(
		db,
		NewRepository(db.DB),
		NewRepository,
		entity.NewRepository,
		slips,
		completer,
		cache,
		cfg,
	)
}

func newService(
	db core.Transactor,
	repo Repository,
	bind func(core.DBTX) Repository,
	entities func(core.DBTX) entity.Repository,
	slips SlipSource,
	completer Completer,
	cache *core.Cache,
	cfg config.AdviceConfig,
) *Service {
	return &Service{
		db:        db,
		repo:      repo,
		bind:      bind,
		entities:  entities,
		slips:     slips,
		completer: completer,
		cache:     cache,
		cfg:       cfg,
		pick:      rand.IntN,
	}
}

// LoadDefaultPersona resolves the persona raw slips are stored under. It must
// succeed before Generate is called.
func (s *Service) LoadDefaultPersona(ctx context.Context) error {
	p, err := s.repo.GetPersonaByName(ctx, s.cfg.DefaultPersona)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf(
				"default persona %q not found: run migrations or advicectl seed",
				s.cfg.DefaultPersona,
			)
		}
		return fmt.Errorf("load default persona: %w", err)
	}

	s.defaultPersonaID = p.ID
	return nil
}

func (s *Service) DefaultPersonaID() int64 {
	return s.defaultPersonaID
}

// Generate voices a slip through the requested persona. With getNew it first
// sources an unseen slip from upstream and stores it raw; otherwise it reuses
// a persisted slip the persona has not voiced yet, falling back to any
// persisted slip once the persona has voiced them all.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*Advice, error) {
	if s.defaultPersonaID == 0 {
		return nil, core.PersistenceError(errors.New("default persona not loaded"))
	}

	persona, err := s.repo.GetPersona(ctx, req.PersonaID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.NotFoundError(fmt.Sprintf("persona %d", req.PersonaID))
		}
		return nil, core.PersistenceError(err)
	}

	var (
		slipID  int
		content string
		branch  string
	)
	if req.GetNewAdvice {
		branch = "new"
		slipID, content, err = s.sourceNewSlip(ctx)
	} else {
		branch = "reuse"
		slipID, content, err = s.reuseSlip(ctx, persona.ID)
	}
	if err != nil {
		return nil, err
	}

	voiced, err := s.completer.Complete(ctx, buildPrompt(persona.Name, content))
	if err != nil {
		adviceUpstreamFailuresTotal.WithLabelValues("completion").Inc()
		slog.WarnContext(ctx, "completion failed",
			"persona_id", persona.ID,
			"adviceslip_id", slipID,
			"error", err,
		)
		return nil, core.UpstreamError("completion", err)
	}

	created, err := s.persist(ctx, persona.ID, slipID, voiced, false)
	if err != nil {
		return nil, err
	}
	created.PersonaName = persona.Name

	adviceGeneratedTotal.WithLabelValues(branch).Inc()
	return created, nil
}

func (s *Service) sourceNewSlip(ctx context.Context) (int, string, error) {
	persisted, err := s.repo.PersistedSlipIDs(ctx)
	if err != nil {
		return 0, "", core.PersistenceError(err)
	}

	missing := complement(universe(s.cfg.SlipMaxID), persisted)
	if len(missing) == 0 {
		return 0, "", core.ConflictError(
			"No new advice available. Retry later or set get_new_advice to false.")
	}

	slipID := missing[s.pick(len(missing))]

	slip, err := s.slips.Slip(ctx, slipID)
	if err != nil {
		adviceUpstreamFailuresTotal.WithLabelValues("adviceslip").Inc()
		slog.WarnContext(ctx, "advice slip fetch failed",
			"adviceslip_id", slipID,
			"error", err,
		)
		return 0, "", core.UpstreamError("adviceslip", err)
	}

	if _, err := s.persist(ctx, s.defaultPersonaID, slipID, slip.Advice, true); err != nil {
		return 0, "", err
	}
	adviceSourcedTotal.Inc()

	return slipID, slip.Advice, nil
}

func (s *Service) reuseSlip(ctx context.Context, personaID int64) (int, string, error) {
	persisted, err := s.repo.PersistedSlipIDs(ctx)
	if err != nil {
		return 0, "", core.PersistenceError(err)
	}
	if len(persisted) == 0 {
		return 0, "", core.ConflictError(
			"No advice has been sourced yet. Set get_new_advice to true.")
	}

	voiced, err := s.repo.SlipIDsVoicedBy(ctx, personaID)
	if err != nil {
		return 0, "", core.PersistenceError(err)
	}

	candidates := complement(persisted, voiced)
	if len(candidates) == 0 {
		adviceReuseFallbackTotal.Inc()
		candidates = persisted
	}

	slipID := candidates[s.pick(len(candidates))]

	content, err := s.repo.SlipContent(ctx, slipID, s.defaultPersonaID)
	if err != nil {
		return 0, "", core.PersistenceError(err)
	}

	return slipID, content, nil
}

// persist writes the entity row and its advice payload in one commit. A
// second sourced row for the same slip loses to the unique index and is
// reported as a conflict.
func (s *Service) persist(
	ctx context.Context,
	personaID int64,
	slipID int,
	content string,
	sourced bool,
) (*Advice, error) {
	a := &Advice{
		PersonaID:    personaID,
		AdviceSlipID: slipID,
		Content:      content,
		Sourced:      sourced,
	}

	err := s.db.InTx(ctx, func(tx core.DBTX) error {
		e, err := s.entities(tx).CreateEntity(ctx, entity.KindAdvice)
		if err != nil {
			return err
		}
		a.EntityID = e.ID
		return s.bind(tx).Create(ctx, a)
	})
	if errors.Is(err, core.ErrDuplicateKey) {
		return nil, core.ConflictError(fmt.Sprintf(
			"Advice slip %d was sourced by another request. Retry.", slipID))
	}
	if err != nil {
		slog.ErrorContext(ctx, "persist advice failed",
			"persona_id", personaID,
			"adviceslip_id", slipID,
			"error", err,
		)
		return nil, core.PersistenceError(err)
	}

	return a, nil
}

func (s *Service) Get(ctx context.Context, entityID int64) (*Advice, error) {
	a, err := s.repo.GetByID(ctx, entityID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.NotFoundError(fmt.Sprintf("advice %d", entityID))
		}
		return nil, core.PersistenceError(err)
	}
	return a, nil
}

// Delete removes the backing entity, which cascades to the advice row and
// every interaction on it.
func (s *Service) Delete(ctx context.Context, entityID int64) error {
	err := s.db.InTx(ctx, func(tx core.DBTX) error {
		if _, err := s.bind(tx).GetByID(ctx, entityID); err != nil {
			return err
		}
		return s.entities(tx).DeleteEntity(ctx, entityID)
	})
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.NotFoundError(fmt.Sprintf("advice %d", entityID))
		}
		return core.PersistenceError(err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, params ListParams) ([]Advice, int, error) {
	items, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, 0, core.PersistenceError(err)
	}
	return items, total, nil
}

func (s *Service) ListPersonas(ctx context.Context) ([]Persona, error) {
	var personas []Persona
	err := s.cache.Remember(ctx, personasCacheKey, s.cfg.CacheTTL, &personas,
		func() error {
			var err error
			personas, err = s.repo.ListPersonas(ctx)
			return err
		})
	if err != nil {
		return nil, core.PersistenceError(err)
	}
	return personas, nil
}

func (s *Service) CreatePersona(ctx context.Context, name string) (*Persona, error) {
	p := &Persona{Name: name}
	err := s.db.InTx(ctx, func(tx core.DBTX) error {
		return s.bind(tx).CreatePersona(ctx, p)
	})
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, core.DuplicateError("persona " + name)
		}
		return nil, core.PersistenceError(err)
	}

	s.cache.Invalidate(ctx, personasCacheKey)
	return p, nil
}

func buildPrompt(persona, content string) string {
	return fmt.Sprintf(
		"Rewrite the following advice in the voice of %s:\n\n%s\n\n###\n\n",
		persona, content,
	)
}

func universe(maxID int) []int {
	ids := make([]int, 0, maxID)
	for id := 1; id <= maxID; id++ {
		ids = append(ids, id)
	}
	return ids
}

// complement returns the members of all that are not in exclude, keeping the
// order of all.
func complement(all, exclude []int) []int {
	skip := make(map[int]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}

	out := make([]int, 0, len(all))
	for _, id := range all {
		if _, ok := skip[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
