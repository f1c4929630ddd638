package attention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/attentive-assistant/core/internal/clockid"
	"github.com/attentive-assistant/core/internal/domain"
	"github.com/attentive-assistant/core/internal/metrics"
	"github.com/attentive-assistant/core/internal/notify"
	"github.com/attentive-assistant/core/internal/store"
)

// Router is the single outbound-notification gate (spec §4.5): every
// notification, regardless of origin, passes through Route. Grounded on
// original_source's AttentionRouter.route_signal, generalized from the
// usecase/service constructor-injection shape.
type Router struct {
	db            store.Beginner
	contexts      store.AttentionContexts
	preferences   store.AttentionPreferences
	history       store.NotificationHistory
	failClosed    store.FailClosedQueue
	deferred      store.DeferredSignals
	escalationLog store.EscalationLog
	audit         store.AuditLogs
	transports    map[string]notify.Transport
	policies      []Policy
	clock         clockid.Clock
	ids           clockid.IDGenerator
	logger        *slog.Logger
}

// RouterDeps bundles Router's collaborators.
type RouterDeps struct {
	DB            store.Beginner
	Contexts      store.AttentionContexts
	Preferences   store.AttentionPreferences
	History       store.NotificationHistory
	FailClosed    store.FailClosedQueue
	Deferred      store.DeferredSignals
	EscalationLog store.EscalationLog
	Audit         store.AuditLogs
	Transports    map[string]notify.Transport // channel -> transport
	Clock         clockid.Clock
	IDs           clockid.IDGenerator
	Logger        *slog.Logger
}

func NewRouter(d RouterDeps) *Router {
	return &Router{
		db:            d.DB,
		contexts:      d.Contexts,
		preferences:   d.Preferences,
		history:       d.History,
		failClosed:    d.FailClosed,
		deferred:      d.Deferred,
		escalationLog: d.EscalationLog,
		audit:         d.Audit,
		transports:    d.Transports,
		policies:      DefaultPolicies(),
		clock:         d.Clock,
		ids:           d.IDs,
		logger:        d.Logger,
	}
}

// RouteResult is the pipeline's outcome for one envelope.
type RouteResult struct {
	FinalDecision  string
	Channel        string
	MatchedPolicy  string
	BaseAssessment string
}

// Route runs one envelope through the pipeline: base assessment, policy
// evaluation, preference application, rate limiting, channel selection,
// then delivery or queueing. Route does not evaluate escalation. When the
// attention contexts, preferences or notification history cannot be read,
// the signal fails closed (queued, LOG_ONLY) rather than being dropped;
// errors recording or delivering the decision are returned to the caller
// (spec §4.5, testable property: fail-closed queueing).
func (r *Router) Route(ctx context.Context, env domain.RoutingEnvelope) (RouteResult, error) {
	if env.Notification == nil || len(env.Notification.Provenance) == 0 {
		return r.logOnly(ctx, env, "missing_provenance")
	}

	attnCtx, err := r.contexts.Get(ctx, nil, env.Owner)
	if err != nil {
		return r.queueFailClosed(ctx, env, "router_unavailable", err)
	}
	prefs, err := r.preferences.Get(ctx, nil, env.Owner)
	if err != nil {
		return r.queueFailClosed(ctx, env, "policy_unavailable", err)
	}

	base := urgencyLevel(env.Urgency)
	pctx := PolicyContext{
		Envelope:     env,
		Urgency:      env.Urgency,
		UrgencyLevel: base,
		AlwaysNotify: alwaysNotify(prefs, env.SignalType),
		QuietHours:   inAnyWindow(attnCtx, quietHours, r.clock.Now()),
		DoNotDisturb: inAnyWindow(attnCtx, doNotDisturb, r.clock.Now()),
	}
	outcome, matchedPolicy := Evaluate(r.policies, pctx)

	decision := string(outcome.Kind)
	if outcome.Channel != "" {
		decision = decision + ":" + outcome.Channel
	}

	if outcome.Kind == OutcomeNotify || outcome.Kind == OutcomeEscalate {
		rl, err := EvaluateRateLimit(ctx, r.history, env.Owner, env.ChannelCost, r.clock.Now(), RateLimitConfig{
			Channel:       outcome.Channel,
			MaxPerWindow:  rateLimitMax(prefs, env.SignalType),
			WindowSeconds: 3600,
		})
		if err != nil {
			return r.queueFailClosed(ctx, env, "router_unavailable", err)
		}
		if !rl.Allowed {
			metrics.RateLimitDemotionsTotal.WithLabelValues(rl.Decision).Inc()
			decision = rl.Decision
		}
	}

	sel := SelectChannel(ChannelSelectionInput{
		Decision:     decision,
		SignalType:   env.SignalType,
		UrgencyScore: env.Urgency,
		ChannelCost:  env.ChannelCost,
		ContentType:  env.ContentType,
	})

	result := RouteResult{
		FinalDecision:  sel.FinalDecision,
		Channel:        sel.PrimaryChannel,
		MatchedPolicy:  matchedPolicy,
		BaseAssessment: base,
	}

	if err := r.dispatch(ctx, env, result); err != nil {
		return result, err
	}
	return result, nil
}

// dispatch records the decision, updates history, and delivers or queues
// per the final decision kind.
func (r *Router) dispatch(ctx context.Context, env domain.RoutingEnvelope, result RouteResult) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin routing tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := r.audit.RecordRoutingDecision(ctx, tx, &domain.RoutingDecisionAuditLog{
		SignalReference: env.SignalReference,
		ActorType:       env.Actor,
		TraceID:         env.SignalReference,
		BaseAssessment:  result.BaseAssessment,
		FinalDecision:   result.FinalDecision,
		Channel:         result.Channel,
		Reason:          result.MatchedPolicy,
		DecidedAt:       r.clock.Now(),
	}); err != nil {
		return fmt.Errorf("record routing decision: %w", err)
	}

	metrics.RoutingDecisionsTotal.WithLabelValues(result.FinalDecision, result.Channel).Inc()

	switch {
	case result.FinalDecision == "DEFER" || result.FinalDecision == "BATCH":
		if err := r.deferred.Enqueue(ctx, tx, &domain.DeferredSignal{
			Owner:    env.Owner,
			Topic:    env.SignalType,
			Category: env.ContentType,
			Envelope: env,
			QueuedAt: r.clock.Now(),
		}); err != nil {
			return fmt.Errorf("enqueue deferred signal: %w", err)
		}
	case result.Channel != "":
		if err := r.history.Record(ctx, tx, &domain.NotificationHistoryEntry{
			Owner:           env.Owner,
			SignalReference: env.SignalReference,
			Channel:         result.Channel,
			Outcome:         result.FinalDecision,
			CreatedAt:       r.clock.Now(),
		}); err != nil {
			return fmt.Errorf("record notification history: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit routing tx: %w", err)
	}

	if result.Channel == "" {
		return nil
	}
	transport, ok := r.transports[result.Channel]
	if !ok {
		r.logger.WarnContext(ctx, "no transport registered for channel", "channel", result.Channel)
		return nil
	}
	sendCtx := notify.WithRouterActive(ctx)
	return transport.Send(sendCtx, notify.Delivery{
		Owner:   env.Owner,
		Channel: result.Channel,
		Subject: env.SignalType,
		Body:    env.SignalReference,
	})
}

func (r *Router) logOnly(ctx context.Context, env domain.RoutingEnvelope, reason string) (RouteResult, error) {
	result := RouteResult{FinalDecision: "LOG_ONLY", BaseAssessment: reason}
	if err := r.dispatch(ctx, env, result); err != nil {
		return result, err
	}
	return result, nil
}

func (r *Router) queueFailClosed(ctx context.Context, env domain.RoutingEnvelope, reason string, cause error) (RouteResult, error) {
	r.logger.WarnContext(ctx, "routing dependency unavailable, failing closed", "reason", reason, "error", cause)
	if err := Enqueue(ctx, r.failClosed, env, reason, r.clock.Now()); err != nil {
		return RouteResult{}, err
	}
	return RouteResult{FinalDecision: "LOG_ONLY", BaseAssessment: reason}, nil
}

// Reprocess drains the fail-closed queue, routing each entry through the
// normal pipeline.
func (r *Router) Reprocess(ctx context.Context, limit int) (int, error) {
	return ReprocessQueue(ctx, r.failClosed, r.clock.Now(), limit, func(ctx context.Context, env domain.RoutingEnvelope) error {
		_, err := r.Route(ctx, env)
		return err
	})
}

type windowKind int

const (
	quietHours windowKind = iota
	doNotDisturb
)

func inAnyWindow(c *domain.AttentionContext, kind windowKind, now time.Time) bool {
	if c == nil {
		return false
	}
	minuteOfDay := now.Hour()*60 + now.Minute()
	windows := c.QuietHours
	if kind == doNotDisturb {
		windows = c.DoNotDisturb
	}
	for _, w := range windows {
		if w.Contains(minuteOfDay) {
			return true
		}
	}
	return false
}

func alwaysNotify(p *domain.AttentionPreferences, signalType string) bool {
	if p == nil || p.AlwaysNotify == nil {
		return false
	}
	return p.AlwaysNotify[signalType]
}

func rateLimitMax(p *domain.AttentionPreferences, signalType string) int {
	if p == nil || p.EscalationThresholds == nil {
		return 5
	}
	if v, ok := p.EscalationThresholds[signalType]; ok {
		return v
	}
	return 5
}
