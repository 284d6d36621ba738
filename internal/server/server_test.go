package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kataras/iris/v12"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaabmedia/Vdubscards/internal/config"
)

// fakeWoo serves a one-product WooCommerce REST API.
func fakeWoo(stockStatus string, stockQuantity int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wp-json/wc/v3/products/101" {
			w.WriteHeader(404)
			fmt.Fprint(w, `{"code":"woocommerce_rest_product_invalid_id","message":"Invalid ID."}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id":101,"name":"Booster Box","price":"4.99","stock_status":%q,"stock_quantity":%d}`,
			stockStatus, stockQuantity)
	})
}

func newTestServer(t *testing.T, upstream http.Handler, mutate func(*config.Config)) *httptest.Server {
	t.Helper()
	woo := httptest.NewServer(upstream)
	t.Cleanup(woo.Close)

	cfg := config.DefaultConfig()
	cfg.Woo.URL = woo.URL
	cfg.Woo.ConsumerKey = "ck_test"
	cfg.Woo.ConsumerSecret = "cs_test"
	cfg.Newsletter.DataDir = t.TempDir()
	if mutate != nil {
		mutate(cfg)
	}

	app := iris.New()
	require.NoError(t, RegisterRoutes(app, cfg))
	require.NoError(t, app.Build())

	srv := httptest.NewServer(app)
	t.Cleanup(srv.Close)
	return srv
}

func jarClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func decodeBody(t *testing.T, res *http.Response) map[string]interface{} {
	t.Helper()
	defer res.Body.Close()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	return out
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, fakeWoo("instock", 5), nil)

	res, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	assert.Equal(t, 200, res.StatusCode)
	assert.Equal(t, map[string]interface{}{"status": "ok"}, decodeBody(t, res))
}

func TestCartLifecycle(t *testing.T) {
	srv := newTestServer(t, fakeWoo("instock", 5), nil)
	client := jarClient(t)

	// No cookie reads as an empty cart.
	res, err := client.Get(srv.URL + "/api/cart")
	require.NoError(t, err)
	body := decodeBody(t, res)
	assert.Empty(t, body["items"])

	res, err = client.Post(srv.URL+"/api/cart", "application/json",
		strings.NewReader(`{"productId":101,"quantity":2}`))
	require.NoError(t, err)
	require.Equal(t, 200, res.StatusCode)
	body = decodeBody(t, res)
	items := body["items"].([]interface{})
	require.Len(t, items, 1)
	item := items[0].(map[string]interface{})
	assert.EqualValues(t, 101, item["productId"])
	assert.EqualValues(t, 2, item["quantity"])

	// The cookie carries the state to the next request.
	res, err = client.Get(srv.URL + "/api/cart")
	require.NoError(t, err)
	body = decodeBody(t, res)
	require.Len(t, body["items"], 1)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/cart?productId=101", nil)
	require.NoError(t, err)
	res, err = client.Do(req)
	require.NoError(t, err)
	body = decodeBody(t, res)
	assert.Empty(t, body["items"])
}

func TestCartStringProductID(t *testing.T) {
	srv := newTestServer(t, fakeWoo("instock", 5), nil)
	client := jarClient(t)

	res, err := client.Post(srv.URL+"/api/cart", "application/json",
		strings.NewReader(`{"productId":"101"}`))
	require.NoError(t, err)
	require.Equal(t, 200, res.StatusCode)
	body := decodeBody(t, res)
	items := body["items"].([]interface{})
	require.Len(t, items, 1)
	assert.EqualValues(t, 1, items[0].(map[string]interface{})["quantity"])
}

func TestCartInvalidPayload(t *testing.T) {
	srv := newTestServer(t, fakeWoo("instock", 5), nil)

	res, err := http.Post(srv.URL+"/api/cart", "application/json",
		strings.NewReader(`{"quantity":1}`))
	require.NoError(t, err)
	assert.Equal(t, 400, res.StatusCode)
	assert.Equal(t, "Invalid payload", decodeBody(t, res)["error"])
}

func TestCartOutOfStock(t *testing.T) {
	srv := newTestServer(t, fakeWoo("outofstock", 0), nil)

	res, err := http.Post(srv.URL+"/api/cart", "application/json",
		strings.NewReader(`{"productId":101,"quantity":1}`))
	require.NoError(t, err)
	assert.Equal(t, 409, res.StatusCode)
	assert.Equal(t, "Product is out of stock", decodeBody(t, res)["error"])
}

func TestCheckoutStartEmptyCart(t *testing.T) {
	srv := newTestServer(t, fakeWoo("instock", 5), nil)

	res, err := http.Post(srv.URL+"/api/checkout/start", "application/json",
		strings.NewReader(`{"email":"a@b.nl"}`))
	require.NoError(t, err)
	assert.Equal(t, 400, res.StatusCode)
	assert.Equal(t, "Cart is empty", decodeBody(t, res)["error"])
}

func TestRevalidateRequiresSecret(t *testing.T) {
	srv := newTestServer(t, fakeWoo("instock", 5), func(cfg *config.Config) {
		cfg.Revalidate.Secret = "s3cret"
	})

	for _, qs := range []string{"", "?secret=wrong"} {
		res, err := http.Post(srv.URL+"/api/revalidate"+qs, "application/json", nil)
		require.NoError(t, err)
		assert.Equal(t, 401, res.StatusCode)
		assert.Equal(t, "Unauthorized", decodeBody(t, res)["error"])
	}

	res, err := http.Post(srv.URL+"/api/revalidate?secret=s3cret&tag=products", "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, 200, res.StatusCode)
	body := decodeBody(t, res)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "products", body["tag"])
	assert.EqualValues(t, 0, body["cleared"])
}

func TestRevalidateDisabledWithoutSecret(t *testing.T) {
	srv := newTestServer(t, fakeWoo("instock", 5), nil)

	res, err := http.Post(srv.URL+"/api/revalidate?secret=anything", "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, 401, res.StatusCode)
}

func TestAuthDisabled(t *testing.T) {
	srv := newTestServer(t, fakeWoo("instock", 5), nil)

	for _, path := range []string{"/api/auth/login", "/api/auth/register"} {
		res, err := http.Post(srv.URL+path, "application/json",
			strings.NewReader(`{"email":"a@b.nl","password":"x"}`))
		require.NoError(t, err)
		assert.Equal(t, 503, res.StatusCode)
		assert.Equal(t, "Authentication is disabled", decodeBody(t, res)["error"])
	}

	res, err := http.Get(srv.URL + "/api/auth/me")
	require.NoError(t, err)
	assert.Equal(t, 200, res.StatusCode)
	body := decodeBody(t, res)
	assert.Equal(t, false, body["authenticated"])
	assert.Equal(t, "no_cookie", body["reason"])
}

func TestNewsletterSubscribe(t *testing.T) {
	srv := newTestServer(t, fakeWoo("instock", 5), nil)

	res, err := http.Post(srv.URL+"/api/newsletter/subscribe", "application/json",
		strings.NewReader(`{"email":"fan@vdubscards.nl","topic":"drops"}`))
	require.NoError(t, err)
	assert.Equal(t, 200, res.StatusCode)
	assert.Equal(t, true, decodeBody(t, res)["ok"])

	res, err = http.Post(srv.URL+"/api/newsletter/subscribe", "application/json",
		strings.NewReader(`{"email":"not-an-email"}`))
	require.NoError(t, err)
	assert.Equal(t, 400, res.StatusCode)
}
