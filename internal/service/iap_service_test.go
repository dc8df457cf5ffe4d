package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"scribblescan/internal/dto"
	"scribblescan/pkg/config"
)

func TestGetProductDetails(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(dto.ProductDetailsResponse{
			ProductDetails: []dto.ProductDetails{{
				SubscriptionOffers: []dto.SubscriptionOffer{{
					BasePlanID:     "monthly",
					FormattedPrice: "$1.99",
					OfferToken:     "tok-123",
				}},
			}},
		})
	}))
	t.Cleanup(srv.Close)

	svc := NewIAPService(&config.IAPConfig{BridgeURL: srv.URL}, zap.NewNop())

	resp, err := svc.GetProductDetails(context.Background(), "pro_subscription")
	require.NoError(t, err)

	assert.Equal(t, "/get_product_details", gotPath)
	assert.Equal(t, map[string]string{"productId": "pro_subscription"}, gotBody)
	require.Len(t, resp.ProductDetails, 1)
	require.Len(t, resp.ProductDetails[0].SubscriptionOffers, 1)
	assert.Equal(t, "tok-123", resp.ProductDetails[0].SubscriptionOffers[0].OfferToken)
}

func TestLaunchPurchaseFlow(t *testing.T) {
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/launch_purchase_flow", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(dto.LaunchPurchaseFlowResponse{ResponseCode: 0})
	}))
	t.Cleanup(srv.Close)

	svc := NewIAPService(&config.IAPConfig{BridgeURL: srv.URL}, zap.NewNop())

	resp, err := svc.LaunchPurchaseFlow(context.Background(), "pro_subscription", "tok-123")
	require.NoError(t, err)
	assert.Equal(t, 0, resp.ResponseCode)
	assert.Equal(t, map[string]string{
		"productId":  "pro_subscription",
		"offerToken": "tok-123",
	}, gotBody)
}

func TestBridgeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "billing unavailable", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	svc := NewIAPService(&config.IAPConfig{BridgeURL: srv.URL}, zap.NewNop())

	_, err := svc.QueryPurchases(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestPurchaseUpdateFanOut(t *testing.T) {
	svc := NewIAPService(&config.IAPConfig{BridgeURL: "http://unused"}, zap.NewNop())

	first, unsubFirst := svc.SubscribePurchases()
	second, unsubSecond := svc.SubscribePurchases()
	t.Cleanup(unsubSecond)

	event := dto.PurchasesUpdatedEvent{
		BillingResult: dto.BillingResult{ResponseCode: 0},
		Purchases:     []dto.Purchase{{OrderID: "order-1"}},
	}
	svc.PublishPurchasesUpdated(event)

	for _, ch := range []<-chan dto.PurchasesUpdatedEvent{first, second} {
		select {
		case got := <-ch:
			assert.Equal(t, "order-1", got.Purchases[0].OrderID)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive the event")
		}
	}

	// After unsubscribing, the channel closes and no further events
	// arrive on it.
	unsubFirst()
	svc.PublishPurchasesUpdated(event)
	_, open := <-first
	assert.False(t, open)

	select {
	case got := <-second:
		assert.Equal(t, "order-1", got.Purchases[0].OrderID)
	case <-time.After(time.Second):
		t.Fatal("remaining subscriber did not receive the event")
	}
}

func TestUnsubscribeTwice(t *testing.T) {
	svc := NewIAPService(&config.IAPConfig{BridgeURL: "http://unused"}, zap.NewNop())

	_, unsub := svc.SubscribePurchases()
	unsub()
	unsub()
}
