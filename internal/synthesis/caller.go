package synthesis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tidybox/internal/history"
	"tidybox/internal/logging"
	"tidybox/internal/services/llm"
)

// Completer sends one chat completion. *llm.Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (llm.Completion, error)
}

// CallRecorder stores per-call usage. *history.Store satisfies it.
type CallRecorder interface {
	RecordCall(ctx context.Context, call history.Call) error
}

// caller makes one priced, budgeted, recorded model call.
type caller struct {
	llm      Completer
	budget   *Budget
	pricing  Pricing
	recorder CallRecorder
	runID    string
	logger   *slog.Logger
}

// estimateTokens approximates tokens as four characters each.
func estimateTokens(text string) int {
	return len(text) / 4
}

func (c *caller) call(ctx context.Context, pass, model, prompt string, maxTokens int) (string, error) {
	if c.budget.Exhausted() {
		return "", fmt.Errorf("%w: $%.2f spent of $%.2f", ErrBudgetExceeded, c.budget.Spent(), c.budget.Limit())
	}
	completion, err := c.llm.Complete(ctx, llm.Request{
		Model:     model,
		Prompt:    prompt,
		MaxTokens: maxTokens,
		JSON:      true,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrExternalCall, pass, err)
	}

	inputTokens, outputTokens := completion.InputTokens, completion.OutputTokens
	if !completion.UsageReported {
		inputTokens = estimateTokens(prompt)
		outputTokens = estimateTokens(completion.Content)
	}
	cost := c.pricing.Cost(model, inputTokens, outputTokens)
	if !c.pricing.Known(model) {
		c.logger.Debug("no price for model; call counted as free", logging.String("model", model))
	}

	if c.recorder != nil {
		recordErr := c.recorder.RecordCall(ctx, history.Call{
			RunID:        c.runID,
			Pass:         pass,
			Model:        model,
			InputTokens:  inputTokens,
			OutputTokens: outputTokens,
			Cost:         cost,
			Estimated:    !completion.UsageReported,
			CreatedAt:    time.Now(),
		})
		if recordErr != nil {
			logging.WarnWithContext(c.logger, "llm call not recorded", "cost_record_failed",
				logging.Error(recordErr),
				logging.String(logging.FieldErrorHint, "check paths.history_db is writable"),
				logging.String(logging.FieldImpact, "'tidybox playbook costs' will under-report spend"),
			)
		}
	}

	alerted, budgetErr := c.budget.Charge(model, cost)
	c.logger.Debug("llm call complete",
		logging.String("pass", pass),
		logging.String("model", model),
		logging.Int("input_tokens", inputTokens),
		logging.Int("output_tokens", outputTokens),
		logging.Float64("cost", cost),
		logging.Float64("spent", c.budget.Spent()),
	)
	if alerted {
		logging.WarnWithContext(c.logger, "cost alert threshold reached", "cost_alert",
			logging.Float64("spent", c.budget.Spent()),
			logging.Float64("limit", c.budget.Limit()),
			logging.String(logging.FieldErrorHint, "lower pipeline.max_frameworks or discovery_limit to spend less"),
			logging.String(logging.FieldImpact, "the run continues until budget_limit"),
		)
	}
	if budgetErr != nil {
		return "", budgetErr
	}
	return completion.Content, nil
}
