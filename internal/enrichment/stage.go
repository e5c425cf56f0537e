// Package enrichment implements the fourth pipeline stage (spec.md §4.4):
// three independent enrichers — fraud, network, subscriber — each wrapped
// in its own circuit breaker so a failing enricher degrades to an absent
// sidecar instead of blocking or dropping the record. Ground:
// orion-enrichment/src/service/enricher.rs for the sidecar-absent-on-
// failure semantics.
package enrichment

import (
	"context"
	"time"

	json "github.com/goccy/go-json"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/orion-telecom/cdr-pipeline/internal/broker"
	"github.com/orion-telecom/cdr-pipeline/internal/config"
	"github.com/orion-telecom/cdr-pipeline/internal/fraud"
	"github.com/orion-telecom/cdr-pipeline/internal/schema"
	"github.com/orion-telecom/cdr-pipeline/internal/telemetry"
)

const enrichmentVersion = "enrichment_v1"

// Flags gates each enricher independently, read from
// ENABLE_FRAUD/ENABLE_NETWORK/ENABLE_SUBSCRIBER at startup.
type Flags struct {
	Fraud      bool
	Network    bool
	Subscriber bool
}

// FlagsFromEnv builds Flags from the environment, defaulting all three on.
func FlagsFromEnv() Flags {
	return Flags{
		Fraud:      config.GetEnvBool("ENABLE_FRAUD", true),
		Network:    config.GetEnvBool("ENABLE_NETWORK", true),
		Subscriber: config.GetEnvBool("ENABLE_SUBSCRIBER", true),
	}
}

// Stage wires a broker client to the three enrichers.
type Stage struct {
	bk      *broker.Client
	metrics *telemetry.Metrics
	log     *zap.Logger
	scorer  fraud.Scorer
	flags   Flags

	fraudBreaker      *gobreaker.CircuitBreaker
	networkBreaker    *gobreaker.CircuitBreaker
	subscriberBreaker *gobreaker.CircuitBreaker
}

// New constructs an enrichment Stage with an independent circuit breaker
// per enricher, each tripping once at least 10 requests in its 30s counting
// interval have been made and at least half of them failed.
func New(bk *broker.Client, metrics *telemetry.Metrics, log *zap.Logger, scorer fraud.Scorer, flags Flags) *Stage {
	breakerSettings := func(name string) gobreaker.Settings {
		return gobreaker.Settings{
			Name:        name,
			MaxRequests: 5,
			Interval:    30 * time.Second,
			Timeout:     10 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.Requests >= 10 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
			},
		}
	}

	return &Stage{
		bk:                bk,
		metrics:           metrics,
		log:               log,
		scorer:            scorer,
		flags:             flags,
		fraudBreaker:      gobreaker.NewCircuitBreaker(breakerSettings("fraud_enricher")),
		networkBreaker:    gobreaker.NewCircuitBreaker(breakerSettings("network_enricher")),
		subscriberBreaker: gobreaker.NewCircuitBreaker(breakerSettings("subscriber_enricher")),
	}
}

// Run subscribes to cdr.normalized and publishes to cdr.enriched.
func (s *Stage) Run(ctx context.Context, durable string) error {
	return s.bk.Consume(ctx, broker.ConsumeOpts{
		Subject:    broker.TopicNormalized,
		Durable:    durable,
		BindStream: broker.StreamCDR,
	}, s.handle)
}

func (s *Stage) handle(ctx context.Context, subject string, data []byte) error {
	start := time.Now()
	s.metrics.MessagesConsumed.WithLabelValues(subject).Inc()

	var u schema.UnifiedRecord
	if err := json.Unmarshal(data, &u); err != nil {
		return &broker.PoisonPillError{Msg: "malformed UnifiedRecord envelope: " + err.Error()}
	}

	enriched := s.Enrich(&u)

	out, err := json.Marshal(enriched)
	if err != nil {
		return err
	}
	if err := s.bk.PublishWithRetry(broker.TopicEnriched, out); err != nil {
		s.metrics.ProcessingErrors.WithLabelValues("publish_enriched").Inc()
		return err
	}

	s.metrics.MessagesProduced.WithLabelValues(broker.TopicEnriched).Inc()
	s.metrics.ProcessingTime.WithLabelValues("enrich").Observe(time.Since(start).Seconds())
	return nil
}

// Enrich runs the three enrichers independently. Each failure (breaker
// open, enricher error) leaves its sidecar absent and is recorded in
// EnrichmentErrors; the record is always returned, even if every
// enricher fails (spec.md §4.4).
func (s *Stage) Enrich(u *schema.UnifiedRecord) *schema.EnrichedRecord {
	out := &schema.EnrichedRecord{
		UnifiedRecord:     *u,
		EnrichedAt:        time.Now().UTC(),
		EnrichmentVersion: enrichmentVersion,
	}

	if s.flags.Fraud {
		if info, err := s.runFraud(u); err != nil {
			out.EnrichmentErrors = append(out.EnrichmentErrors, "fraud: "+err.Error())
			s.metrics.ProcessingErrors.WithLabelValues("enrich_fraud").Inc()
		} else {
			out.Fraud = info
		}
	}

	if s.flags.Network {
		if info, err := s.runNetwork(u); err != nil {
			out.EnrichmentErrors = append(out.EnrichmentErrors, "network: "+err.Error())
			s.metrics.ProcessingErrors.WithLabelValues("enrich_network").Inc()
		} else {
			out.Network = info
		}
	}

	if s.flags.Subscriber {
		if info, err := s.runSubscriber(u); err != nil {
			out.EnrichmentErrors = append(out.EnrichmentErrors, "subscriber: "+err.Error())
			s.metrics.ProcessingErrors.WithLabelValues("enrich_subscriber").Inc()
		} else {
			out.Client = info
		}
	}

	return out
}

func (s *Stage) runFraud(u *schema.UnifiedRecord) (*schema.FraudInfo, error) {
	result, err := s.fraudBreaker.Execute(func() (interface{}, error) {
		features := buildFeatures(u)
		score, reasons, err := s.scorer.Score(features.Vector())
		if err != nil {
			return nil, err
		}
		return &schema.FraudInfo{
			Score:      score,
			Band:       schema.BandForScore(score),
			Reasons:    reasons,
			Model:      s.scorer.Name(),
			DetectedAt: time.Now().UTC(),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*schema.FraudInfo), nil
}

func (s *Stage) runNetwork(u *schema.UnifiedRecord) (*schema.NetworkInfo, error) {
	result, err := s.networkBreaker.Execute(func() (interface{}, error) {
		return LookupNetwork(u.Network), nil
	})
	if err != nil {
		return nil, err
	}
	info, _ := result.(*schema.NetworkInfo)
	return info, nil
}

func (s *Stage) runSubscriber(u *schema.UnifiedRecord) (*schema.ClientInfo, error) {
	result, err := s.subscriberBreaker.Execute(func() (interface{}, error) {
		return LookupSubscriber(u.IMSI), nil
	})
	if err != nil {
		return nil, err
	}
	info, _ := result.(*schema.ClientInfo)
	return info, nil
}
