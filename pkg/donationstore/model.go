package donationstore

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"github.com/brightfund/donation-gateway/pkg/currency"
	"github.com/brightfund/donation-gateway/pkg/donation"
)

// DonationDao is a data access object that maps directly to the 'donations'
// table in PostgreSQL.
type DonationDao struct {
	bun.BaseModel `bun:"table:donations,alias:d"`

	ID            string          `bun:"id,pk,type:uuid"`
	USDAmount     decimal.Decimal `bun:"usd_amount,notnull,type:numeric(18,2)"`
	Currency      string          `bun:"currency,notnull,type:varchar(8)"`
	Network       string          `bun:"network,notnull,type:varchar(16)"`
	CryptoAmount  decimal.Decimal `bun:"crypto_amount,notnull,type:numeric(38,18)"`
	WalletAddress string          `bun:"wallet_address,notnull,type:varchar(128)"`
	Memo          *string         `bun:"memo,type:varchar(64)"`

	DonorName  *string `bun:"donor_name,type:varchar(200)"`
	DonorEmail *string `bun:"donor_email,type:varchar(320)"`
	Message    *string `bun:"message,type:varchar(2000)"`

	Source     *string `bun:"source,type:varchar(100)"`
	Category   *string `bun:"category,type:varchar(100)"`
	CampaignID *string `bun:"campaign_id,type:uuid"`

	Status        string     `bun:"status,notnull,type:varchar(32)"`
	TxHash        *string    `bun:"tx_hash,type:varchar(128)"`
	Confirmations int        `bun:"confirmations,notnull,default:0"`
	ConfirmedAt   *time.Time `bun:"confirmed_at"`
	ExpiresAt     time.Time  `bun:"expires_at,notnull"`

	VerifiedAmount *string `bun:"verified_amount,type:varchar(80)"`
	FromAddress    *string `bun:"from_address,type:varchar(128)"`
	BlockHeight    *int64  `bun:"block_height"`
	FailureReason  *string `bun:"failure_reason,type:varchar(500)"`

	CreatedAt time.Time `bun:"created_at,nullzero,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,default:current_timestamp"`
}

// toDonationDao converts a donation.Intent to DonationDao.
func toDonationDao(in *donation.Intent) *DonationDao {
	dao := &DonationDao{
		ID:            in.ID,
		USDAmount:     in.USDAmount,
		Currency:      string(in.Currency),
		Network:       string(in.Network),
		CryptoAmount:  in.CryptoAmount,
		WalletAddress: in.WalletAddress,
		Status:        string(in.Status),
		Confirmations: in.Confirmations,
		ConfirmedAt:   in.ConfirmedAt,
		ExpiresAt:     in.ExpiresAt,
		CreatedAt:     in.CreatedAt,
		UpdatedAt:     in.UpdatedAt,
	}

	setIfNotEmpty := func(dst **string, v string) {
		if v != "" {
			s := v
			*dst = &s
		}
	}
	setIfNotEmpty(&dao.Memo, in.Memo)
	setIfNotEmpty(&dao.DonorName, in.DonorName)
	setIfNotEmpty(&dao.DonorEmail, in.DonorEmail)
	setIfNotEmpty(&dao.Message, in.Message)
	setIfNotEmpty(&dao.Source, in.Source)
	setIfNotEmpty(&dao.Category, in.Category)
	setIfNotEmpty(&dao.CampaignID, in.CampaignID)
	setIfNotEmpty(&dao.TxHash, in.TxHash)
	setIfNotEmpty(&dao.VerifiedAmount, in.Notes.VerifiedAmount)
	setIfNotEmpty(&dao.FromAddress, in.Notes.FromAddress)
	if in.Notes.BlockHeight != 0 {
		h := in.Notes.BlockHeight
		dao.BlockHeight = &h
	}
	setIfNotEmpty(&dao.FailureReason, in.Notes.FailureReason)

	return dao
}

// toIntent converts a DonationDao to donation.Intent.
func toIntent(dao *DonationDao) *donation.Intent {
	in := &donation.Intent{
		ID:            dao.ID,
		USDAmount:     dao.USDAmount,
		Currency:      currency.Currency(dao.Currency),
		Network:       currency.Network(dao.Network),
		CryptoAmount:  dao.CryptoAmount,
		WalletAddress: dao.WalletAddress,
		Status:        donation.Status(dao.Status),
		Confirmations: dao.Confirmations,
		ConfirmedAt:   dao.ConfirmedAt,
		ExpiresAt:     dao.ExpiresAt,
		CreatedAt:     dao.CreatedAt,
		UpdatedAt:     dao.UpdatedAt,
	}

	deref := func(p *string) string {
		if p != nil {
			return *p
		}
		return ""
	}
	in.Memo = deref(dao.Memo)
	in.DonorName = deref(dao.DonorName)
	in.DonorEmail = deref(dao.DonorEmail)
	in.Message = deref(dao.Message)
	in.Source = deref(dao.Source)
	in.Category = deref(dao.Category)
	in.CampaignID = deref(dao.CampaignID)
	in.TxHash = deref(dao.TxHash)
	in.Notes.VerifiedAmount = deref(dao.VerifiedAmount)
	in.Notes.FromAddress = deref(dao.FromAddress)
	if dao.BlockHeight != nil {
		in.Notes.BlockHeight = *dao.BlockHeight
	}
	in.Notes.FailureReason = deref(dao.FailureReason)

	return in
}
