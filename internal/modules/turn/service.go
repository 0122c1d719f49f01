// README: Turn orchestrator: retrieval, relaxation, facet stats, strategy, flow, negotiation, memory.
package turn

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"concierge/internal/ai"
	"concierge/internal/modules/catalog"
	"concierge/internal/modules/facets"
	"concierge/internal/modules/flow"
	"concierge/internal/modules/memory"
	"concierge/internal/modules/negotiation"
	"concierge/internal/modules/pricing"
	"concierge/internal/modules/relaxation"
	"concierge/internal/modules/rendering"
	"concierge/internal/modules/session"
	"concierge/internal/modules/strategy"
	"concierge/internal/types"
)

type SessionStore interface {
	Load(ctx context.Context, sessionID string) (*session.State, error)
	Save(ctx context.Context, st *session.State) error
}

type Negotiator interface {
	Handle(ctx context.Context, prev *negotiation.State, cmd negotiation.Command) (*negotiation.State, *negotiation.Outcome, error)
}

type Service struct {
	retriever  catalog.Retriever
	sessions   SessionStore
	negotiator Negotiator
	renderer   ai.Renderer

	cfg      Config
	facets   *facets.Engine
	selector *strategy.Selector
	relaxer  *relaxation.Engine
	guard    *memory.Guard
	log      *zap.Logger
	newID    func() string
}

// NewService wires the decision core. negotiator and renderer may be nil: without a negotiator
// objections are ignored, without a renderer Respond fails with ErrRendererUnavailable.
func NewService(retriever catalog.Retriever, sessions SessionStore, negotiator Negotiator, renderer ai.Renderer, cfg Config, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = DefaultConfig.SearchLimit
	}
	if cfg.Thresholds == (strategy.Thresholds{}) {
		cfg.Thresholds = DefaultConfig.Thresholds
	}
	return &Service{
		retriever:  retriever,
		sessions:   sessions,
		negotiator: negotiator,
		renderer:   renderer,
		cfg:        cfg,
		facets:     facets.NewEngine(cfg.TagCap),
		selector:   strategy.NewSelector(cfg.Thresholds),
		relaxer:    relaxation.NewEngine(retriever, cfg.RelaxationPriority, log),
		guard:      memory.NewGuard(cfg.OpenerHistory, cfg.ClarifierTTL),
		log:        log,
		newID:      uuid.NewString,
	}
}

// Decide produces the turn-intent and persists the session. Collaborator failures degrade the
// decision instead of failing the turn.
func (s *Service) Decide(ctx context.Context, req Request) (Intent, error) {
	if err := validate(req); err != nil {
		return Intent{}, err
	}
	st, persist := s.load(ctx, req.SessionID)
	intent := s.decide(ctx, req, st)
	if !persist {
		intent.Degraded = append(intent.Degraded, degradedSession)
	}
	s.save(ctx, st, persist, &intent)
	return intent, nil
}

// Respond decides, renders, validates and repairs the rendered turn, then applies the opener
// guard. A repeated opener is regenerated once; if it still repeats the first sentence is dropped.
func (s *Service) Respond(ctx context.Context, req Request) (Response, error) {
	if err := validate(req); err != nil {
		return Response{}, err
	}
	if s.renderer == nil {
		return Response{}, ErrRendererUnavailable
	}

	st, persist := s.load(ctx, req.SessionID)
	intent := s.decide(ctx, req, st)
	if !persist {
		intent.Degraded = append(intent.Degraded, degradedSession)
	}
	resp := Response{Intent: intent}

	rreq := ai.RenderRequest{
		Query:              req.Query,
		Strategy:           intent.Strategy,
		FlowOrder:          intent.FlowOrder,
		Items:              intent.Items,
		RelaxationSteps:    intent.RelaxationSteps,
		NegotiationOutcome: intent.NegotiationOutcome,
		AvoidOpeners:       s.guard.Recent(st.Memory),
		Schema:             rendering.SchemaJSON(),
	}
	rendered, repairs, err := s.render(ctx, rreq, intent.Strategy)
	if err != nil {
		s.save(ctx, st, persist, &resp.Intent)
		return resp, err
	}
	resp.Repairs = repairs

	check := s.guard.CheckOpener(&st.Memory, rendered.Lead)
	if check.Repeated {
		resp.OpenerRepeated = true
		s.log.Info("opener repeated; regenerating", zap.String("session", req.SessionID), zap.String("opener", check.Opener))

		rreq.AvoidOpeners = appendUnique(s.guard.Recent(st.Memory), check.Opener)
		again, moreRepairs, err := s.render(ctx, rreq, intent.Strategy)
		if err == nil {
			resp.Regenerated = true
			rendered = again
			resp.Repairs = append(resp.Repairs, moreRepairs...)
		} else {
			s.log.Warn("regeneration failed", zap.Error(err))
		}

		if s.guard.IsRepeated(st.Memory, memory.FirstSentence(rendered.Lead)) {
			if rest := memory.DropFirstSentence(rendered.Lead); rest != "" {
				rendered.Lead = rest
				resp.Repairs = append(resp.Repairs, "dropped repeated opener")
			}
		}
		if first := memory.FirstSentence(rendered.Lead); !s.guard.IsRepeated(st.Memory, first) {
			s.guard.Remember(&st.Memory, first)
		}
	}
	if rendered.Clarifier != nil && rendered.Clarifier.Facet == "" {
		rendered.Clarifier.Facet = intent.Strategy.FacetToAsk
	}
	resp.Turn = rendered

	s.save(ctx, st, persist, &resp.Intent)
	return resp, nil
}

func (s *Service) render(ctx context.Context, rreq ai.RenderRequest, strat strategy.Strategy) (rendering.RenderedTurn, []string, error) {
	raw, err := s.renderer.Render(ctx, rreq)
	if err != nil {
		return rendering.RenderedTurn{}, nil, fmt.Errorf("%w: %w", ErrRendererUnavailable, err)
	}
	accepted, repairs, err := rendering.Decode(raw, strat.Asking())
	if err != nil {
		s.log.Info("rendered turn rejected", zap.Strings("repairs", repairs), zap.Error(err))
		return rendering.RenderedTurn{}, repairs, err
	}
	if len(repairs) > 0 {
		s.log.Info("rendered turn repaired", zap.Strings("repairs", repairs))
	}
	return accepted.Rendered(), repairs, nil
}

func (s *Service) decide(ctx context.Context, req Request, st *session.State) Intent {
	mem := &st.Memory
	turnIdx := mem.Turn
	s.guard.Prune(mem, turnIdx)

	intent := Intent{
		TurnID:                    s.newID(),
		SessionID:                 req.SessionID,
		Turn:                      turnIdx,
		RelaxationSteps:           []relaxation.Step{},
		SuppressedClarifierFacets: []string{},
	}

	filters := req.Filters.Clone()
	if ans := req.ClarifierAnswer; ans != nil && types.Canonical(ans.Facet) != "" && strings.TrimSpace(ans.Value) != "" {
		if key, _, ok := filters.Lookup(ans.Facet); ok {
			delete(filters, key)
		}
		filters[ans.Facet] = strings.TrimSpace(ans.Value)
		s.guard.RecordAnswer(mem, ans.Facet, turnIdx)
	}
	if pending := mem.PendingClarifier; pending != "" {
		if _, _, ok := filters.Lookup(pending); ok {
			s.guard.RecordAnswer(mem, pending, turnIdx)
		}
	}
	mem.PendingClarifier = ""
	defer func() { mem.Turn = turnIdx + 1 }()

	q := catalog.Query{Text: req.Query, Embedding: req.Embedding, Filters: filters, Limit: s.limit(req)}
	set, err := s.retriever.Search(ctx, q)
	if err != nil {
		s.log.Warn("retrieval failed; showing results without a decision",
			zap.String("session", req.SessionID), zap.Error(err))
		intent.Strategy = strategy.ShowResults()
		intent.FlowOrder = flow.ShowOnly
		intent.Filters = filters
		intent.Items = []catalog.Item{}
		intent.Degraded = append(intent.Degraded, degradedRetrieval)
		return intent
	}

	if set.Empty() && len(filters) > 0 {
		res, err := s.relaxer.Relax(ctx, q, set)
		if err != nil {
			s.log.Warn("relaxation failed; keeping original filters", zap.String("session", req.SessionID), zap.Error(err))
			intent.Degraded = append(intent.Degraded, degradedRelaxation)
		} else {
			set = res.Set
			filters = res.Filters
			intent.RelaxationSteps = res.Steps
		}
	}
	intent.Filters = filters
	intent.Items = set.Items
	if intent.Items == nil {
		intent.Items = []catalog.Item{}
	}

	stats := s.facets.Compute(set, req.ActiveFacets)
	answered := s.guard.Answered(*mem, turnIdx)

	// what would have been asked without memory, to report suppressed facets
	unfiltered := s.selector.Select(stats, len(set.Items), nil)
	_, suppressed := s.guard.SuppressClarifier(*mem, turnIdx, unfiltered)

	strat := s.selector.Select(stats, len(set.Items), answered)
	strat, late := s.guard.SuppressClarifier(*mem, turnIdx, strat)
	suppressed = appendUnique(suppressed, late...)
	if enforced, ok := strategy.Enforce(strat); !ok {
		s.log.Error("clarifier without options; degraded to show_results", zap.String("facet", strat.FacetToAsk))
		strat = enforced
	}
	intent.Strategy = strat
	intent.SuppressedClarifierFacets = appendUnique(intent.SuppressedClarifierFacets, suppressed...)
	intent.FlowOrder = flow.Sequence(len(set.Items), req.Query, strat, turnIdx)

	if s.negotiator != nil && req.ProductID != "" {
		next, out, err := s.negotiator.Handle(ctx, st.Negotiation, negotiation.Command{
			StoreID:   req.StoreID,
			ProductID: req.ProductID,
			Message:   req.Query,
			Price:     req.ProductPrice,
		})
		if err != nil {
			s.log.Warn("negotiation skipped", zap.String("product", string(req.ProductID)), zap.Error(err))
			intent.Degraded = append(intent.Degraded, degradedNegotiation)
		} else {
			st.Negotiation = next
			intent.NegotiationOutcome = out
		}
	}

	if strat.Asking() {
		mem.PendingClarifier = strat.FacetToAsk
	}
	s.log.Debug("turn decided",
		zap.String("session", req.SessionID),
		zap.Int("turn", turnIdx),
		zap.String("action", string(strat.Action)),
		zap.String("facet", strat.FacetToAsk),
		zap.String("flow", string(intent.FlowOrder)),
		zap.Int("items", len(set.Items)),
		zap.Int("relaxed", len(intent.RelaxationSteps)),
	)
	return intent
}

func (s *Service) load(ctx context.Context, sessionID string) (*session.State, bool) {
	if s.sessions == nil {
		return &session.State{SessionID: sessionID}, false
	}
	st, err := s.sessions.Load(ctx, sessionID)
	if err != nil || st == nil {
		s.log.Warn("session load failed; using empty state", zap.String("session", sessionID), zap.Error(err))
		return &session.State{SessionID: sessionID}, false
	}
	return st, true
}

func (s *Service) save(ctx context.Context, st *session.State, persist bool, intent *Intent) {
	if !persist {
		return
	}
	if err := s.sessions.Save(ctx, st); err != nil {
		s.log.Warn("session save failed", zap.String("session", st.SessionID), zap.Error(err))
		intent.Degraded = append(intent.Degraded, degradedSession)
	}
}

func (s *Service) limit(req Request) int {
	if req.Limit > 0 {
		return req.Limit
	}
	return s.cfg.SearchLimit
}

func validate(req Request) error {
	if strings.TrimSpace(req.SessionID) == "" {
		return fmt.Errorf("%w: sessionId is required", ErrBadRequest)
	}
	if strings.TrimSpace(req.Query) == "" && req.ClarifierAnswer == nil {
		return fmt.Errorf("%w: query or clarifierAnswer is required", ErrBadRequest)
	}
	// an unknown band would not constrain retrieval, and relaxation would later report dropping it
	for facet, value := range req.Filters {
		if types.SameValue(facet, catalog.FacetPrice) {
			if _, ok := pricing.BucketRange(value); !ok {
				return fmt.Errorf("%w: unknown price band %q", ErrBadRequest, value)
			}
		}
	}
	if ans := req.ClarifierAnswer; ans != nil && types.SameValue(ans.Facet, catalog.FacetPrice) {
		if _, ok := pricing.BucketRange(ans.Value); !ok {
			return fmt.Errorf("%w: unknown price band %q", ErrBadRequest, ans.Value)
		}
	}
	return nil
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		dup := false
		for _, d := range dst {
			if types.SameValue(d, v) {
				dup = true
				break
			}
		}
		if !dup && strings.TrimSpace(v) != "" {
			dst = append(dst, v)
		}
	}
	return dst
}

// IsDegradable reports whether err should be answered with a safe default rather than surfaced.
func IsDegradable(err error) bool {
	return errors.Is(err, rendering.ErrUnrepairable) || errors.Is(err, ErrRendererUnavailable)
}
