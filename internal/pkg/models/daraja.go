package models

import "fmt"

// DarajaTokenResponse is the OAuth client-credentials token payload
type DarajaTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

// STKPushRequest is the push-payment initiation request body
type STKPushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            string `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

// STKPushResponse is the provider's synchronous response to an initiation
type STKPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

// STKQueryRequest is the status-query request body
type STKQueryRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
}

// STKQueryResponse is the status-query response body
type STKQueryResponse struct {
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResultCode          string `json:"ResultCode"`
	ResultDesc          string `json:"ResultDesc"`
}

// InitiateResult is the gateway-level outcome of a successful push
type InitiateResult struct {
	CheckoutRequestID string
	MerchantRequestID string
}

// StatusResult is the gateway-level outcome of a status query
type StatusResult struct {
	ResultCode int
	ResultDesc string
}

// CallbackItem is one Name/Value pair in callback metadata
type CallbackItem struct {
	Name  string      `json:"Name"`
	Value interface{} `json:"Value,omitempty"`
}

// CallbackMetadata carries the settlement details on successful callbacks
type CallbackMetadata struct {
	Item []CallbackItem `json:"Item"`
}

// STKCallback is the inner callback payload pushed by the provider
type STKCallback struct {
	MerchantRequestID string            `json:"MerchantRequestID"`
	CheckoutRequestID string            `json:"CheckoutRequestID"`
	ResultCode        int               `json:"ResultCode"`
	ResultDesc        string            `json:"ResultDesc"`
	CallbackMetadata  *CallbackMetadata `json:"CallbackMetadata,omitempty"`
}

// CallbackEnvelope is the full webhook body
type CallbackEnvelope struct {
	Body struct {
		StkCallback STKCallback `json:"stkCallback"`
	} `json:"Body"`
}

// CallbackAck is the response the provider always receives
type CallbackAck struct {
	ResultCode int    `json:"ResultCode"`
	ResultDesc string `json:"ResultDesc"`
}

// Settlement holds the fields extracted from callback metadata
type Settlement struct {
	Amount       int64
	MpesaReceipt string
	PhoneNumber  string
}

// Extract pulls the settlement fields out of the metadata item list.
// Field absence is tolerated; the provider omits metadata on failures.
func (m *CallbackMetadata) Extract() Settlement {
	var s Settlement
	if m == nil {
		return s
	}
	for _, item := range m.Item {
		switch item.Name {
		case "Amount":
			if f, ok := item.Value.(float64); ok {
				s.Amount = int64(f)
			}
		case "MpesaReceiptNumber":
			if v, ok := item.Value.(string); ok {
				s.MpesaReceipt = v
			}
		case "PhoneNumber":
			switch v := item.Value.(type) {
			case string:
				s.PhoneNumber = v
			case float64:
				s.PhoneNumber = fmt.Sprintf("%.0f", v)
			}
		}
	}
	return s
}

// ProviderError is a non-success response from the provider API
type ProviderError struct {
	Code        int
	Description string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Description)
}
