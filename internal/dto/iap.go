package dto

// Billing types mirror the platform billing SDK shapes. The service is a
// pure pass-through; none of these fields are interpreted here.

type SubscriptionOffer struct {
	BasePlanID     string `json:"basePlanId"`
	FormattedPrice string `json:"formattedPrice"`
	OfferToken     string `json:"offerToken"`
}

type ProductDetails struct {
	SubscriptionOffers []SubscriptionOffer `json:"subscriptionOffers"`
}

type BillingResult struct {
	ResponseCode int    `json:"responseCode"`
	DebugMessage string `json:"debugMessage"`
}

type AccountIdentifiers struct {
	ObfuscatedAccountID *string `json:"obfuscatedAccountId"`
	ObfuscatedProfileID *string `json:"obfuscatedProfileId"`
}

type Purchase struct {
	OrderID            string              `json:"orderId"`
	PackageName        string              `json:"packageName"`
	PurchaseState      int                 `json:"purchaseState"`
	PurchaseTime       int64               `json:"purchaseTime"`
	PurchaseToken      string              `json:"purchaseToken"`
	Quantity           int                 `json:"quantity"`
	Signature          string              `json:"signature"`
	Skus               []string            `json:"skus"`
	IsAcknowledged     bool                `json:"isAcknowledged"`
	IsAutoRenewing     bool                `json:"isAutoRenewing"`
	OriginalJSON       string              `json:"originalJson"`
	DeveloperPayload   *string             `json:"developerPayload"`
	AccountIdentifiers *AccountIdentifiers `json:"accountIdentifiers,omitempty"`
}

type ProductDetailsResponse struct {
	ProductDetails []ProductDetails `json:"productDetails"`
}

type LaunchPurchaseFlowRequest struct {
	ProductID  string `json:"productId"`
	OfferToken string `json:"offerToken"`
}

type LaunchPurchaseFlowResponse struct {
	ResponseCode int `json:"responseCode"`
}

type QueryPurchasesResponse struct {
	Purchases []Purchase `json:"purchases"`
}

type PurchasesUpdatedEvent struct {
	BillingResult BillingResult `json:"billingResult"`
	Purchases     []Purchase    `json:"purchases"`
}
