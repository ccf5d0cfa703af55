package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/ledgerline/ledgerline/internal/ledger"
	"github.com/ledgerline/ledgerline/internal/platform/httpx"
)

var tbBuildGroup singleflight.Group

func singleflightBuild(ctx context.Context, key string, fn func(context.Context) (interface{}, error)) (interface{}, error, bool) {
	resultChan := tbBuildGroup.DoChan(key, func() (interface{}, error) {
		return fn(ctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err(), false
	case res := <-resultChan:
		return res.Val, res.Err, res.Shared
	}
}

func trialBalanceCacheKey(entityID uuid.UUID) string {
	return "ledgerline:tb:" + entityID.String()
}

// handleTrialBalance serves the grouped trial balance. Responses are cached
// in Redis for a short TTL and concurrent rebuilds collapse into one.
func (h *Handler) handleTrialBalance(w http.ResponseWriter, r *http.Request) {
	entityID, ok := h.pathID(w, r, "entityID")
	if !ok {
		return
	}
	ctx := r.Context()
	key := trialBalanceCacheKey(entityID)

	if h.cache != nil {
		payload, err := h.cache.Get(ctx, key).Bytes()
		if err == nil {
			var cached trialBalanceResponse
			if err := json.Unmarshal(payload, &cached); err == nil {
				httpx.JSON(w, http.StatusOK, cached)
				return
			}
			h.logger.Warn("discarding corrupt cached trial balance", slog.String("key", key))
		}
	}

	built, err, _ := singleflightBuild(ctx, key, func(ctx context.Context) (interface{}, error) {
		var resp trialBalanceResponse
		err := h.registry.WithLedger(entityID, func(l *ledger.Ledger) error {
			tb := l.TrialBalance()
			resp = newTrialBalanceResponse(entityID, tb)
			h.metrics.TrialBalanceImbalance(entityID.String(), tb.TotalDebit.Sub(tb.TotalCredit).Float64())
			return nil
		})
		return resp, err
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	resp := built.(trialBalanceResponse)

	if h.cache != nil {
		if payload, err := json.Marshal(resp); err == nil {
			if err := h.cache.Set(ctx, key, payload, h.cacheTTL).Err(); err != nil {
				h.logger.Warn("trial balance cache write failed", slog.Any("error", err))
			}
		}
	}
	httpx.JSON(w, http.StatusOK, resp)
}

// bustReportCache drops the cached trial balance after any posting.
func (h *Handler) bustReportCache(r *http.Request, entityID uuid.UUID) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Del(r.Context(), trialBalanceCacheKey(entityID)).Err(); err != nil {
		h.logger.Warn("trial balance cache bust failed", slog.Any("error", err))
	}
}
