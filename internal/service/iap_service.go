package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"scribblescan/internal/dto"
	"scribblescan/pkg/config"
)

// IAPService is a thin pass-through to the on-device billing bridge,
// which in turn wraps the platform billing SDK. No billing logic lives
// here: requests are forwarded as-is and purchase updates pushed by the
// bridge are fanned out to subscribers.
type IAPService struct {
	bridgeURL  string
	httpClient *http.Client
	logger     *zap.Logger

	subMu   sync.Mutex
	subs    map[int]chan dto.PurchasesUpdatedEvent
	nextSub int
}

func NewIAPService(cfg *config.IAPConfig, logger *zap.Logger) *IAPService {
	return &IAPService{
		bridgeURL:  cfg.BridgeURL,
		httpClient: &http.Client{},
		logger:     logger,
		subs:       make(map[int]chan dto.PurchasesUpdatedEvent),
	}
}

func (s *IAPService) GetProductDetails(ctx context.Context, productID string) (*dto.ProductDetailsResponse, error) {
	var resp dto.ProductDetailsResponse
	err := s.call(ctx, "get_product_details", map[string]string{"productId": productID}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *IAPService) LaunchPurchaseFlow(ctx context.Context, productID, offerToken string) (*dto.LaunchPurchaseFlowResponse, error) {
	var resp dto.LaunchPurchaseFlowResponse
	err := s.call(ctx, "launch_purchase_flow", map[string]string{
		"productId":  productID,
		"offerToken": offerToken,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *IAPService) QueryPurchases(ctx context.Context) (*dto.QueryPurchasesResponse, error) {
	var resp dto.QueryPurchasesResponse
	err := s.call(ctx, "query_purchases", map[string]string{}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// PublishPurchasesUpdated fans a bridge-pushed event out to every
// subscriber. Slow subscribers drop events rather than block the
// bridge.
func (s *IAPService) PublishPurchasesUpdated(event dto.PurchasesUpdatedEvent) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for id, ch := range s.subs {
		select {
		case ch <- event:
		default:
			s.logger.Warn("Dropping purchase update for slow subscriber", zap.Int("subscriber", id))
		}
	}
}

// SubscribePurchases returns a channel of purchase updates and an
// unsubscribe function.
func (s *IAPService) SubscribePurchases() (<-chan dto.PurchasesUpdatedEvent, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan dto.PurchasesUpdatedEvent, 8)
	s.subs[id] = ch
	return ch, func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if _, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
	}
}

func (s *IAPService) call(ctx context.Context, method string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.bridgeURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("billing bridge request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("billing bridge returned status %d: %s", resp.StatusCode, msg)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode bridge response: %w", err)
	}
	return nil
}
