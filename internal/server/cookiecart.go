package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/kataras/iris/v12"

	"github.com/kaabmedia/Vdubscards/internal/datamodels/cart"
)

const (
	cartCookieName   = "vdubscards_cart"
	cartCookieMaxAge = 30 * 24 * time.Hour
)

// cookieCartStore keeps the cart in an HTTP-only cookie on the calling
// browser; the server holds no cart state. Malformed or absent cookies
// read as an empty cart.
type cookieCartStore struct {
	ctx iris.Context
}

func cartStore(ctx iris.Context) cart.Store {
	return &cookieCartStore{ctx: ctx}
}

func (s *cookieCartStore) Load() cart.Cart {
	raw := s.ctx.GetCookie(cartCookieName)
	if raw == "" {
		return cart.Empty()
	}
	if dec, err := url.QueryUnescape(raw); err == nil {
		raw = dec
	}
	var c cart.Cart
	if err := json.Unmarshal([]byte(raw), &c); err != nil || c.Items == nil {
		return cart.Empty()
	}
	return c
}

func (s *cookieCartStore) Save(c cart.Cart) {
	body, err := json.Marshal(c)
	if err != nil {
		return
	}
	s.ctx.SetCookie(&http.Cookie{
		Name:     cartCookieName,
		Value:    url.QueryEscape(string(body)),
		Path:     "/",
		MaxAge:   int(cartCookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
