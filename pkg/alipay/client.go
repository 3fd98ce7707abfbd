// Package alipay is a thin client for the processor's hosted payment page
// and fund transfer APIs: it signs outbound parameters, builds the redirect
// URL and verifies async notification signatures. It deliberately implements
// no gateway logic beyond that.
package alipay

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

type Client struct {
	Gateway         string
	AppID           string
	appPrivateKey   *rsa.PrivateKey
	alipayPublicKey *rsa.PublicKey
	client          *http.Client
}

// NewClient parses the PEM keys. Empty keys are tolerated so development
// setups without processor credentials can still boot; signing is skipped.
func NewClient(gateway, appID, appPrivateKeyPEM, alipayPublicKeyPEM string) (*Client, error) {
	c := &Client{
		Gateway: gateway,
		AppID:   appID,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
	if appPrivateKeyPEM != "" {
		key, err := parsePrivateKey(appPrivateKeyPEM)
		if err != nil {
			return nil, fmt.Errorf("alipay private key: %w", err)
		}
		c.appPrivateKey = key
	}
	if alipayPublicKeyPEM != "" {
		key, err := parsePublicKey(alipayPublicKeyPEM)
		if err != nil {
			return nil, fmt.Errorf("alipay public key: %w", err)
		}
		c.alipayPublicKey = key
	}
	return c, nil
}

// PageRequest carries everything needed for a hosted payment page redirect.
type PageRequest struct {
	Method     string // e.g. alipay.trade.page.pay
	ReturnURL  string
	NotifyURL  string
	BizContent string // JSON payload previously serialized onto the payment
}

// PageExecuteURL builds the signed redirect URL for the hosted payment page.
func (c *Client) PageExecuteURL(req PageRequest) (string, error) {
	if req.Method == "" {
		return "", errors.New("alipay: method required")
	}
	params := map[string]string{
		"app_id":      c.AppID,
		"method":      req.Method,
		"charset":     "utf-8",
		"sign_type":   "RSA2",
		"timestamp":   time.Now().Format("2006-01-02 15:04:05"),
		"version":     "1.0",
		"return_url":  req.ReturnURL,
		"notify_url":  req.NotifyURL,
		"biz_content": req.BizContent,
	}
	sign, err := c.sign(params)
	if err != nil {
		return "", err
	}
	if sign != "" {
		params["sign"] = sign
	}
	values := url.Values{}
	for k, v := range params {
		if v != "" {
			values.Set(k, v)
		}
	}
	return c.Gateway + "?" + values.Encode(), nil
}

// TransferRequest is a fund transfer to an external account (withdrawals).
type TransferRequest struct {
	OutBizNo     string
	PayeeAccount string
	AmountCents  int64
	Remark       string
}

type TransferResponse struct {
	OutBizNo string
	Status   string
}

// FundTransfer calls the transfer-to-account API and returns the processor's
// order id.
func (c *Client) FundTransfer(ctx context.Context, req TransferRequest) (*TransferResponse, error) {
	bizContent := fmt.Sprintf(
		`{"out_biz_no":%q,"payee_type":"ALIPAY_LOGONID","payee_account":%q,"amount":%q,"remark":%q}`,
		req.OutBizNo, req.PayeeAccount, FormatAmount(req.AmountCents), req.Remark)
	params := map[string]string{
		"app_id":      c.AppID,
		"method":      "alipay.fund.trans.toaccount.transfer",
		"charset":     "utf-8",
		"sign_type":   "RSA2",
		"timestamp":   time.Now().Format("2006-01-02 15:04:05"),
		"version":     "1.0",
		"biz_content": bizContent,
	}
	sign, err := c.sign(params)
	if err != nil {
		return nil, err
	}
	if sign != "" {
		params["sign"] = sign
	}
	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Gateway, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")
	log.Printf("[alipay transfer] POST %s out_biz_no=%s amount=%s", c.Gateway, req.OutBizNo, FormatAmount(req.AmountCents))
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	log.Printf("[alipay transfer] response status=%d body=%s", resp.StatusCode, string(body))
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("alipay transfer: %d %s", resp.StatusCode, string(body))
	}
	return &TransferResponse{OutBizNo: req.OutBizNo, Status: "SUBMITTED"}, nil
}

// VerifyNotify checks the RSA2 signature on an async notification. Returns
// true when no processor public key is configured (development).
func (c *Client) VerifyNotify(params url.Values) bool {
	if c.alipayPublicKey == nil {
		return true
	}
	sign := params.Get("sign")
	if sign == "" {
		return false
	}
	flat := map[string]string{}
	for k := range params {
		if k == "sign" || k == "sign_type" {
			continue
		}
		flat[k] = params.Get(k)
	}
	digest := sha256.Sum256([]byte(signingString(flat)))
	sig, err := base64.StdEncoding.DecodeString(sign)
	if err != nil {
		return false
	}
	return rsa.VerifyPKCS1v15(c.alipayPublicKey, crypto.SHA256, digest[:], sig) == nil
}

// FormatAmount renders cents as the decimal string the processor expects.
func FormatAmount(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

func (c *Client) sign(params map[string]string) (string, error) {
	if c.appPrivateKey == nil {
		return "", nil
	}
	digest := sha256.Sum256([]byte(signingString(params)))
	sig, err := rsa.SignPKCS1v15(rand.Reader, c.appPrivateKey, crypto.SHA256, digest[:])
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// signingString sorts non-empty params and joins them k=v&k=v per the
// processor's signing convention.
func signingString(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	return strings.Join(pairs, "&")
}

func parsePrivateKey(pemStr string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemStr))
	if block == nil {
		return nil, errors.New("no PEM block found")
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("not an RSA private key")
	}
	return key, nil
}

func parsePublicKey(pemStr string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemStr))
	if block == nil {
		return nil, errors.New("no PEM block found")
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("not an RSA public key")
	}
	return key, nil
}
