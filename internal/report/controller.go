// Package report drives the oracle until it produces a report that passes the
// contract, then attaches the computed values.
package report

import (
	"context"
	"errors"
	"fmt"

	"hr-analytics/internal/common/logger"
	"hr-analytics/internal/common/metrics"
	"hr-analytics/internal/oracle"
	"hr-analytics/internal/query"
)

// DefaultMaxRetries is used when neither the request nor the controller sets one.
const DefaultMaxRetries = 2

// Request is one analytics question.
type Request struct {
	Question   string
	MaxRetries *int
}

// Attempt records one oracle round.
type Attempt struct {
	Number int    `json:"attempt"`
	Raw    string `json:"raw"`
	Error  string `json:"error,omitempty"`
}

// Outcome is the terminal result of a request.
type Outcome struct {
	State             State
	Document          map[string]interface{}
	Raw               string
	ValidationSuccess bool
	ImpossibleQuery   bool
	Reason            string
	Attempts          []Attempt
}

// Errors lists the validation errors in attempt order.
func (o *Outcome) Errors() []string {
	out := make([]string, 0, len(o.Attempts))
	for _, a := range o.Attempts {
		if a.Error != "" {
			out = append(out, a.Error)
		}
	}
	return out
}

// Report is the document returned to callers. An exhausted request whose last
// candidate was not JSON returns the raw text.
func (o *Outcome) Report() map[string]interface{} {
	if o.Document == nil {
		return map[string]interface{}{
			"raw_response":       o.Raw,
			"validation_success": false,
			"validation_errors":  o.Errors(),
		}
	}
	out := make(map[string]interface{}, len(o.Document)+2)
	for k, v := range o.Document {
		out[k] = v
	}
	out["validation_success"] = o.ValidationSuccess
	if o.State == StateExhausted {
		out["validation_errors"] = o.Errors()
	}
	return out
}

// Controller validates oracle candidates with bounded retries.
type Controller struct {
	oracle     oracle.Oracle
	engine     *query.Engine
	contract   contract
	system     string
	maxRetries int
	logger     logger.Logger
}

// NewController creates a controller. maxRetries < 0 selects DefaultMaxRetries.
func NewController(o oracle.Oracle, engine *query.Engine, maxRetries int, log logger.Logger) *Controller {
	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Controller{
		oracle:     o,
		engine:     engine,
		contract:   contract{catalog: engine.Catalog()},
		system:     SystemPrompt(engine.Catalog()),
		maxRetries: maxRetries,
		logger:     log,
	}
}

// Run answers one question. Oracle transport failures and recorded data
// access faults are returned as errors; contract failures never are.
func (c *Controller) Run(ctx context.Context, req Request) (*Outcome, error) {
	maxRetries := c.maxRetries
	if req.MaxRetries != nil && *req.MaxRetries >= 0 {
		maxRetries = *req.MaxRetries
	}

	fsm := newMachine()
	messages := []oracle.Message{{Role: oracle.RoleUser, Content: req.Question}}
	outcome := &Outcome{}

	for attempt := 1; ; attempt++ {
		raw, err := c.oracle.Generate(ctx, c.system, messages)
		if err != nil {
			c.logger.Error("Oracle call failed", map[string]interface{}{
				"attempt": attempt,
				"error":   err.Error(),
			})
			return nil, err
		}
		fsm.to(StateValidating)
		outcome.Raw = raw

		parsed, perr := extractJSON(raw)
		var result *checked
		var v *Violation
		if perr != nil {
			v = &Violation{Reason: perr.Error()}
		} else {
			result, v = c.contract.check(parsed)
		}

		if v == nil && !result.impossible {
			if err := c.enrich(ctx, result.doc); err != nil {
				var verr *query.ValidationError
				if !errors.As(err, &verr) {
					return nil, err
				}
				v = &Violation{Reason: err.Error()}
			}
		}

		if v == nil {
			outcome.Attempts = append(outcome.Attempts, Attempt{Number: attempt, Raw: raw})
			if result.impossible {
				fsm.to(StateOutOfDomain)
				outcome.State = fsm.state
				outcome.Document = result.doc
				outcome.ImpossibleQuery = true
				outcome.Reason = result.reason
				outcome.ValidationSuccess = true
				return c.finish(ctx, outcome)
			}

			fsm.to(StateValid)
			outcome.State = fsm.state
			outcome.Document = result.doc
			outcome.ValidationSuccess = true
			return c.finish(ctx, outcome)
		}

		fsm.to(StateInvalid)
		outcome.Attempts = append(outcome.Attempts, Attempt{Number: attempt, Raw: raw, Error: v.Reason})
		c.logger.Info("Report candidate rejected", map[string]interface{}{
			"attempt": attempt,
			"reason":  v.Reason,
		})

		if attempt > maxRetries {
			fsm.to(StateExhausted)
			outcome.State = fsm.state
			if doc, ok := parsed.(map[string]interface{}); ok {
				outcome.Document = doc
			}
			return c.finish(ctx, outcome)
		}

		messages = append(messages,
			oracle.Message{Role: oracle.RoleAssistant, Content: raw},
			oracle.Message{Role: oracle.RoleUser, Content: feedback(v.Reason)},
		)
		fsm.to(StateAwaitingCandidate)
	}
}

// finish applies the data-access policy: faults recorded by the session
// during the request abort it.
func (c *Controller) finish(_ context.Context, outcome *Outcome) (*Outcome, error) {
	metrics.ReportOutcomes.WithLabelValues(string(outcome.State)).Inc()
	metrics.ReportOracleCalls.Observe(float64(len(outcome.Attempts)))

	if err := c.engine.Session().Err(); err != nil {
		c.logger.Error("Report aborted by data access fault", map[string]interface{}{
			"state": string(outcome.State),
			"error": err.Error(),
		})
		return nil, fmt.Errorf("data access failed: %w", err)
	}

	c.logger.Info("Report completed", map[string]interface{}{
		"state":    string(outcome.State),
		"attempts": len(outcome.Attempts),
	})
	return outcome, nil
}
