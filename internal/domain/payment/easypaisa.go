// internal/domain/payment/easypaisa.go
package payment

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/http"

	"github.com/your-org/jewelry-backend/internal/config"
)

// easyPaisaBackend talks to the EasyPaisa mobile-wallet API. EasyPaisa uses
// plain camelCase field names, a "rupees.paisa" amount string and an MD5
// request hash over the store's hash key.
type easyPaisaBackend struct {
	cfg        config.EasyPaisaConfig
	httpClient *http.Client
}

func newEasyPaisaBackend(cfg config.EasyPaisaConfig, httpClient *http.Client) *easyPaisaBackend {
	return &easyPaisaBackend{cfg: cfg, httpClient: httpClient}
}

func (b *easyPaisaBackend) kind() GatewayKind {
	return GatewayEasyPaisa
}

type easyPaisaPayRequest struct {
	StoreID           string `json:"storeId"`
	Amount            string `json:"amount"`
	OrderRefNum       string `json:"orderRefNum"`
	MobileAccountNo   string `json:"mobileAccountNo"`
	AccountPinSuffix  string `json:"accountPinSuffix"`
	MerchantHashedReq string `json:"merchantHashedReq"`
}

type easyPaisaPayResponse struct {
	ResponseCode  string `json:"responseCode"`
	ResponseDesc  string `json:"responseDesc"`
	TransactionID string `json:"transactionId"`
}

type easyPaisaStatusResponse struct {
	TransactionStatus string `json:"transactionStatus"`
	ResponseDesc      string `json:"responseDesc"`
}

// easyPaisaSuccessCode is the response code EasyPaisa returns for an
// accepted transaction.
const easyPaisaSuccessCode = "0000"

func (b *easyPaisaBackend) submit(ctx context.Context, req *Request) (*submitOutcome, error) {
	amount := fmt.Sprintf("%d.%02d", req.Amount/100, req.Amount%100)
	payload := easyPaisaPayRequest{
		StoreID:          b.cfg.StoreID,
		Amount:           amount,
		OrderRefNum:      req.OrderID,
		MobileAccountNo:  req.MobileNumber,
		AccountPinSuffix: req.PinSuffix,
	}
	payload.MerchantHashedReq = b.sign(payload.StoreID + payload.Amount + payload.OrderRefNum)

	var resp easyPaisaPayResponse
	if err := postJSON(ctx, b.httpClient, b.cfg.BaseURL+"/transaction", &payload, &resp); err != nil {
		return nil, err
	}

	return &submitOutcome{
		Success:       resp.ResponseCode == easyPaisaSuccessCode,
		TransactionID: resp.TransactionID,
		Message:       resp.ResponseDesc,
	}, nil
}

func (b *easyPaisaBackend) status(ctx context.Context, transactionID string) (*StatusResult, error) {
	var resp easyPaisaStatusResponse
	url := fmt.Sprintf("%s/inquiry/%s", b.cfg.BaseURL, transactionID)
	if err := getJSON(ctx, b.httpClient, url, &resp); err != nil {
		return nil, err
	}

	return &StatusResult{
		State:   normalizeWalletStatus(resp.TransactionStatus),
		Message: resp.ResponseDesc,
	}, nil
}

// sign computes the MD5 merchant hash over the payload fields concatenated
// with the store's hash key.
func (b *easyPaisaBackend) sign(payload string) string {
	sum := md5.Sum([]byte(payload + b.cfg.HashKey))
	return hex.EncodeToString(sum[:])
}
