package billing

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

// Sink receives pipeline outcomes. Implementations must not block event
// processing and must not report their own failures back to the caller.
type Sink interface {
	Record(ctx context.Context, outcome Outcome)
}

// LogSink writes one structured line per outcome.
type LogSink struct{}

func (LogSink) Record(_ context.Context, o Outcome) {
	line := formatOutcome(o)
	switch o.Status {
	case OutcomeFailure:
		log.Errorf("[Billing] %s", line)
	case OutcomePartial, OutcomeWarning:
		log.Warnf("[Billing] %s", line)
	default:
		log.Infof("[Billing] %s", line)
	}
}

func formatOutcome(o Outcome) string {
	var b strings.Builder
	b.WriteString("status=" + o.Status)
	if o.EventID != "" {
		b.WriteString(" event=" + o.EventID)
	}
	if o.EventType != "" {
		b.WriteString(" type=" + o.EventType)
	}
	if o.SessionID != "" {
		b.WriteString(" session=" + o.SessionID)
	}
	if o.DealerGroupID != "" {
		b.WriteString(" group=" + o.DealerGroupID)
	}
	if len(o.Selections) > 0 {
		ok := 0
		for _, s := range o.Selections {
			if s.OK() {
				ok++
			}
		}
		b.WriteString(" selections_ok=")
		b.WriteString(strconv.Itoa(ok))
		b.WriteString(" selections_failed=")
		b.WriteString(strconv.Itoa(len(o.Selections) - ok))
	}
	for _, f := range o.FailedSelection {
		b.WriteString(" failed_selection=" + strconv.Quote(f))
	}
	if o.Error != "" {
		b.WriteString(" error=" + strconv.Quote(o.Error))
	}
	return b.String()
}

const (
	// RedisOutcomesKey holds the most recent outcomes, newest first.
	RedisOutcomesKey = "billing:activation:outcomes"
	// RedisCountersKey is a hash of outcome status to count.
	RedisCountersKey    = "billing:activation:counters"
	redisOutcomesMaxLen = 1000
	redisRecordTimeout  = 2 * time.Second
)

// RedisSink pushes outcomes onto a capped Redis list and bumps a per-status
// counter, in the background, so dashboards and alerting can follow
// activations without reading logs.
type RedisSink struct {
	client *redis.Client
	key    string
	maxLen int64
	wg     sync.WaitGroup
}

func NewRedisSink(client *redis.Client) *RedisSink {
	return &RedisSink{client: client, key: RedisOutcomesKey, maxLen: redisOutcomesMaxLen}
}

func (s *RedisSink) Record(_ context.Context, o Outcome) {
	if s == nil || s.client == nil {
		return
	}
	data, err := json.Marshal(o)
	if err != nil {
		log.Errorf("[Billing] Could not encode outcome for event %s: %v", o.EventID, err)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), redisRecordTimeout)
		defer cancel()

		pipe := s.client.TxPipeline()
		pipe.LPush(ctx, s.key, data)
		pipe.LTrim(ctx, s.key, 0, s.maxLen-1)
		pipe.HIncrBy(ctx, RedisCountersKey, o.Status, 1)
		if _, err := pipe.Exec(ctx); err != nil {
			log.Warnf("[Billing] Could not push outcome for event %s to redis: %v", o.EventID, err)
		}
	}()
}

// Close waits for in-flight pushes.
func (s *RedisSink) Close() {
	if s == nil {
		return
	}
	s.wg.Wait()
}

// MultiSink fans an outcome out to several sinks.
type MultiSink []Sink

func (m MultiSink) Record(ctx context.Context, o Outcome) {
	for _, s := range m {
		if s != nil {
			s.Record(ctx, o)
		}
	}
}
