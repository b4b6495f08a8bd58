// internal/domain/payment/jazzcash.go
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/your-org/jewelry-backend/internal/config"
)

// jazzCashBackend talks to the JazzCash mobile-wallet API. JazzCash uses
// pp_-prefixed field names and signs every request with HMAC-SHA256 over the
// merchant's integrity salt.
type jazzCashBackend struct {
	cfg        config.JazzCashConfig
	httpClient *http.Client
}

func newJazzCashBackend(cfg config.JazzCashConfig, httpClient *http.Client) *jazzCashBackend {
	return &jazzCashBackend{cfg: cfg, httpClient: httpClient}
}

func (b *jazzCashBackend) kind() GatewayKind {
	return GatewayJazzCash
}

type jazzCashPayRequest struct {
	MerchantID    string `json:"pp_MerchantID"`
	Password      string `json:"pp_Password"`
	Amount        string `json:"pp_Amount"` // paisa, integer string
	MobileNumber  string `json:"pp_MobileNumber"`
	CNIC          string `json:"pp_CNIC"`
	BillReference string `json:"pp_BillReference"`
	Description   string `json:"pp_Description"`
	SecureHash    string `json:"pp_SecureHash"`
}

type jazzCashPayResponse struct {
	ResponseCode    string `json:"pp_ResponseCode"`
	ResponseMessage string `json:"pp_ResponseMessage"`
	TxnRefNo        string `json:"pp_TxnRefNo"`
}

type jazzCashStatusResponse struct {
	Status          string `json:"pp_Status"`
	ResponseMessage string `json:"pp_ResponseMessage"`
}

// jazzCashSuccessCode is the response code JazzCash returns for an accepted
// transaction.
const jazzCashSuccessCode = "000"

func (b *jazzCashBackend) submit(ctx context.Context, req *Request) (*submitOutcome, error) {
	payload := jazzCashPayRequest{
		MerchantID:    b.cfg.MerchantID,
		Password:      b.cfg.Password,
		Amount:        strconv.FormatInt(req.Amount, 10),
		MobileNumber:  req.MobileNumber,
		CNIC:          req.PinSuffix,
		BillReference: req.OrderID,
		Description:   fmt.Sprintf("Payment for Order %s", req.OrderID),
	}
	payload.SecureHash = b.sign(
		payload.Amount,
		payload.BillReference,
		payload.CNIC,
		payload.Description,
		payload.MerchantID,
		payload.MobileNumber,
	)

	var resp jazzCashPayResponse
	if err := postJSON(ctx, b.httpClient, b.cfg.BaseURL+"/pay", &payload, &resp); err != nil {
		return nil, err
	}

	return &submitOutcome{
		Success:       resp.ResponseCode == jazzCashSuccessCode,
		TransactionID: resp.TxnRefNo,
		Message:       resp.ResponseMessage,
	}, nil
}

func (b *jazzCashBackend) status(ctx context.Context, transactionID string) (*StatusResult, error) {
	var resp jazzCashStatusResponse
	url := fmt.Sprintf("%s/status/%s", b.cfg.BaseURL, transactionID)
	if err := getJSON(ctx, b.httpClient, url, &resp); err != nil {
		return nil, err
	}

	return &StatusResult{
		State:   normalizeWalletStatus(resp.Status),
		Message: resp.ResponseMessage,
	}, nil
}

// sign computes the HMAC-SHA256 secure hash over the integrity salt followed
// by the request fields in alphabetical field order, ampersand-joined.
func (b *jazzCashBackend) sign(fields ...string) string {
	message := strings.Join(append([]string{b.cfg.IntegritySalt}, fields...), "&")
	mac := hmac.New(sha256.New, []byte(b.cfg.IntegritySalt))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}
