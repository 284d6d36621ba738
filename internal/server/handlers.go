package server

import (
	"strconv"

	"github.com/kataras/iris/v12"

	"github.com/kaabmedia/Vdubscards/internal/auth"
	"github.com/kaabmedia/Vdubscards/internal/infra/redis"
	"github.com/kaabmedia/Vdubscards/internal/middleware"
	"github.com/kaabmedia/Vdubscards/internal/service"
)

func registerCartRoutes(api iris.Party, cartSvc *service.CartService) {
	api.Get("/cart", func(ctx iris.Context) {
		_ = ctx.JSON(cartSvc.Get(cartStore(ctx)))
	})

	api.Post("/cart", func(ctx iris.Context) {
		var body struct {
			ProductID interface{} `json:"productId"`
			Quantity  interface{} `json:"quantity"`
		}
		_ = ctx.ReadJSON(&body)
		productID := coerceID(body.ProductID)
		quantity := 1
		if body.Quantity != nil {
			quantity = int(coerceID(body.Quantity))
		}
		if productID <= 0 || quantity == 0 {
			ctx.StopWithJSON(400, iris.Map{"error": "Invalid payload"})
			return
		}
		c, err := cartSvc.Add(ctx.Request().Context(), cartStore(ctx), productID, quantity)
		if err != nil {
			fail(ctx, err, "Failed to update cart")
			return
		}
		_ = ctx.JSON(c)
	})

	api.Delete("/cart", func(ctx iris.Context) {
		productID := coerceID(ctx.URLParam("productId"))
		if productID == 0 {
			var body struct {
				ProductID interface{} `json:"productId"`
			}
			if err := ctx.ReadJSON(&body); err == nil {
				productID = coerceID(body.ProductID)
			}
		}
		_ = ctx.JSON(cartSvc.Remove(cartStore(ctx), productID))
	})
}

func registerCheckoutRoutes(api iris.Party, checkoutSvc *service.CheckoutService, cache *redis.Cache) {
	limited := api.Party("/checkout", middleware.CheckoutRateLimit())

	limited.Post("/start", func(ctx iris.Context) {
		var in service.StartInput
		_ = ctx.ReadJSON(&in)
		in.Origin = requestOrigin(ctx)
		res, err := checkoutSvc.Start(ctx.Request().Context(), cartStore(ctx), in)
		if err != nil {
			fail(ctx, err, "Checkout failed")
			return
		}
		_ = ctx.JSON(res)
	})

	limited.Post("/complete", func(ctx iris.Context) {
		var body struct {
			SessionID    string `json:"session_id"`
			SessionIDAlt string `json:"sessionId"`
		}
		_ = ctx.ReadJSON(&body)
		sessionID := body.SessionID
		if sessionID == "" {
			sessionID = body.SessionIDAlt
		}
		created, err := checkoutSvc.Complete(ctx.Request().Context(), cartStore(ctx), sessionID)
		if err != nil {
			fail(ctx, err, "Checkout completion failed")
			return
		}
		_ = ctx.JSON(iris.Map{"order": created})
	})

	api.Get("/payments/methods", func(ctx iris.Context) {
		cached(cache, ctx, "payments", ttlPayments, func() (interface{}, error) {
			return checkoutSvc.Methods(), nil
		}, "Failed to fetch payment methods")
	})
}

func registerAuthRoutes(api iris.Party, validator *auth.Validator) {
	disabled := func(ctx iris.Context) {
		ctx.StopWithJSON(503, iris.Map{"error": "Authentication is disabled"})
	}
	api.Post("/auth/login", disabled)
	api.Post("/auth/register", disabled)

	api.Get("/auth/me", func(ctx iris.Context) {
		token := ctx.GetCookie(auth.CookieName)
		if token == "" {
			_ = ctx.JSON(iris.Map{"authenticated": false, "reason": "no_cookie"})
			return
		}
		ok, attempts := validator.Validate(ctx.Request().Context(), token)
		res := iris.Map{"authenticated": ok}
		if ctx.URLParam("debug") != "" {
			res["attempts"] = attempts
		}
		_ = ctx.JSON(res)
	})
}

func requestOrigin(ctx iris.Context) string {
	scheme := "http"
	if ctx.Request().TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + ctx.Request().Host
}

// coerceID reads a numeric id that clients send as number or string.
func coerceID(v interface{}) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case string:
		id, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0
		}
		return id
	default:
		return 0
	}
}
