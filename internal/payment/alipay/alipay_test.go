package alipay

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"net/url"
	"testing"
)

// newTestClient 生成一对 RSA 密钥充当商户私钥和支付宝公钥，
// 这样客户端签出来的名可以被自己验证，覆盖签名/验签闭环。
func newTestClient(t *testing.T, signType string) *Client {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key failed: %v", err)
	}
	privateDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("marshal private key failed: %v", err)
	}
	publicDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key failed: %v", err)
	}
	privatePEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privateDER})
	publicPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: publicDER})

	client, err := NewClient(Config{
		AppID:           "2026000000000001",
		PrivateKey:      string(privatePEM),
		AlipayPublicKey: string(publicPEM),
		Env:             "sandbox",
		SignType:        signType,
	})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	return client
}

func signedCallbackForm(t *testing.T, client *Client, params map[string]string) url.Values {
	t.Helper()
	sign, err := client.signContent(buildSignContent(params))
	if err != nil {
		t.Fatalf("sign content failed: %v", err)
	}
	form := url.Values{}
	for key, value := range params {
		form.Set(key, value)
	}
	form.Set("sign", sign)
	form.Set("sign_type", client.signType)
	return form
}

func TestVerifyCallbackRoundTrip(t *testing.T) {
	for _, signType := range []string{"RSA2", "RSA"} {
		t.Run(signType, func(t *testing.T) {
			client := newTestClient(t, signType)
			form := signedCallbackForm(t, client, map[string]string{
				"out_trade_no": "LQ202609010001",
				"trade_no":     "2026090122001430031234567890",
				"trade_status": "TRADE_SUCCESS",
				"total_amount": "8.00",
				"app_id":       "2026000000000001",
			})
			if err := client.VerifyCallback(form); err != nil {
				t.Fatalf("verify should succeed: %v", err)
			}
		})
	}
}

func TestVerifyCallbackRejectsTamperedForm(t *testing.T) {
	client := newTestClient(t, "RSA2")
	form := signedCallbackForm(t, client, map[string]string{
		"out_trade_no": "LQ202609010001",
		"trade_status": "TRADE_SUCCESS",
		"total_amount": "8.00",
	})
	// 篡改金额后签名必须失效
	form.Set("total_amount", "800.00")
	if err := client.VerifyCallback(form); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected signature error, got %v", err)
	}
}

func TestVerifyCallbackRejectsWrongKey(t *testing.T) {
	signer := newTestClient(t, "RSA2")
	verifier := newTestClient(t, "RSA2")
	form := signedCallbackForm(t, signer, map[string]string{
		"out_trade_no": "LQ202609010002",
		"trade_status": "TRADE_SUCCESS",
	})
	if err := verifier.VerifyCallback(form); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected signature error with mismatched key, got %v", err)
	}
}

func TestVerifyCallbackRequiresSign(t *testing.T) {
	client := newTestClient(t, "RSA2")

	if err := client.VerifyCallback(url.Values{}); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("empty form should fail, got %v", err)
	}

	form := url.Values{}
	form.Set("out_trade_no", "LQ202609010003")
	if err := client.VerifyCallback(form); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("missing sign should fail, got %v", err)
	}

	form.Set("sign", "not-base64!!")
	if err := client.VerifyCallback(form); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("malformed sign should fail, got %v", err)
	}
}

func TestBuildSignContentSkipsEmptyAndSign(t *testing.T) {
	content := buildSignContent(map[string]string{
		"b":    "2",
		"a":    "1",
		"sign": "ignored",
		"c":    "",
	})
	if content != "a=1&b=2" {
		t.Fatalf("unexpected sign content: %q", content)
	}
}

func TestNewClientConfigValidation(t *testing.T) {
	if _, err := NewClient(Config{}); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("empty config should fail, got %v", err)
	}
	if _, err := NewClient(Config{
		AppID:           "x",
		PrivateKey:      "not a key",
		AlipayPublicKey: "not a key",
	}); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("bad keys should fail, got %v", err)
	}
}

func TestParseKeysWithoutPEMHeaders(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key failed: %v", err)
	}
	privateDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("marshal private key failed: %v", err)
	}
	publicDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key failed: %v", err)
	}

	// 开放平台后台里复制出来的密钥没有 PEM 头尾，客户端要能直接吃
	if _, err := parsePrivateKey(base64.StdEncoding.EncodeToString(privateDER)); err != nil {
		t.Fatalf("bare private key should parse: %v", err)
	}
	if _, err := parsePublicKey(base64.StdEncoding.EncodeToString(publicDER)); err != nil {
		t.Fatalf("bare public key should parse: %v", err)
	}
}
