package donation

import "time"

// CreateRequest is the POST body for starting a new donation.
type CreateRequest struct {
	AmountUSD  float64 `json:"amount" validate:"required,gt=0"`
	Currency   string  `json:"currency" validate:"required"`
	Network    string  `json:"network"`
	DonorName  string  `json:"donorName" validate:"omitempty,max=200"`
	DonorEmail string  `json:"donorEmail" validate:"omitempty,email"`
	Message    string  `json:"message" validate:"omitempty,max=2000"`
	Source     string  `json:"source"`
	Category   string  `json:"category"`
	CampaignID string  `json:"campaignId" validate:"omitempty,uuid4"`
}

// CreateResponse carries everything a donor needs to pay.
type CreateResponse struct {
	Success               bool      `json:"success"`
	DonationID            string    `json:"donationId"`
	WalletAddress         string    `json:"walletAddress"`
	Memo                  string    `json:"memo,omitempty"`
	CryptoAmount          string    `json:"cryptoAmount"`
	Currency              string    `json:"currency"`
	Network               string    `json:"network"`
	USDAmount             string    `json:"usdAmount"`
	PaymentURI            string    `json:"paymentUri"`
	QRCode                string    `json:"qrCode"`
	RequiredConfirmations int       `json:"requiredConfirmations"`
	ExpiresAt             time.Time `json:"expiresAt"`
	PaymentInstructions   string    `json:"paymentInstructions"`
}

// StatusResponse is the GET view of a donation intent.
type StatusResponse struct {
	DonationID            string     `json:"donationId"`
	Status                string     `json:"status"`
	Currency              string     `json:"currency"`
	Network               string     `json:"network"`
	USDAmount             string     `json:"usdAmount"`
	CryptoAmount          string     `json:"cryptoAmount"`
	Confirmations         int        `json:"confirmations"`
	RequiredConfirmations int        `json:"requiredConfirmations"`
	TxHash                string     `json:"txHash,omitempty"`
	ConfirmedAt           *time.Time `json:"confirmedAt,omitempty"`
	ExpiresAt             time.Time  `json:"expiresAt"`
}

// SubmitRequest is the PUT body reporting a sent transaction.
type SubmitRequest struct {
	DonationID string `json:"donationId" validate:"required"`
	TxHash     string `json:"txHash" validate:"required,min=8"`
}

// SubmitResponse reports the verification outcome for a submitted hash.
type SubmitResponse struct {
	Success               bool   `json:"success"`
	DonationID            string `json:"donationId"`
	Status                string `json:"status"`
	TxHash                string `json:"txHash"`
	Confirmations         int    `json:"confirmations"`
	RequiredConfirmations int    `json:"requiredConfirmations"`
	Message               string `json:"message,omitempty"`
	FailureReason         string `json:"failureReason,omitempty"`
}
