package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/kataras/iris/v12"

	"github.com/kaabmedia/Vdubscards/internal/auth"
	"github.com/kaabmedia/Vdubscards/internal/config"
	"github.com/kaabmedia/Vdubscards/internal/datamodels/product"
	"github.com/kaabmedia/Vdubscards/internal/infra/mq"
	"github.com/kaabmedia/Vdubscards/internal/infra/redis"
	"github.com/kaabmedia/Vdubscards/internal/payment"
	"github.com/kaabmedia/Vdubscards/internal/repository/woo"
	"github.com/kaabmedia/Vdubscards/internal/repository/wp"
	"github.com/kaabmedia/Vdubscards/internal/service"
)

// Revalidation windows carried over from the storefront's route config.
const (
	ttlProducts    = 300 * time.Second
	ttlCategories  = 300 * time.Second
	ttlFilters     = 300 * time.Second
	ttlCollections = 600 * time.Second
	ttlPayments    = 3600 * time.Second
)

// RegisterRoutes wires infrastructure, repositories and services, then
// registers every JSON route under /api.
func RegisterRoutes(app *iris.Application, cfg *config.Config) error {
	httpClient := &http.Client{Timeout: 30 * time.Second}

	wooClient, err := woo.New(cfg.Woo, httpClient)
	if err != nil {
		return err
	}
	catalog := woo.NewCatalog(wooClient)

	gqlURL, err := cfg.WP.GraphQLURL(cfg.Woo)
	if err != nil {
		return err
	}
	content := wp.NewContent(wp.New(gqlURL, httpClient), cfg.Woo.Base())

	cache := redis.New(cfg.Redis.Addr)
	publisher := mq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
	provider := payment.New(cfg.Stripe)
	validator := auth.NewValidator(cfg.Woo.Base(), cfg.WP.SimpleJWTValidate, httpClient)

	catalogSvc := service.NewCatalogService(catalog)
	collectionSvc := service.NewCollectionService(catalog, content)
	filterSvc := service.NewFilterService(catalog, content)
	cartSvc := service.NewCartService(catalog)
	checkoutSvc := service.NewCheckoutService(catalog, catalog, provider, cfg.Checkout.Provider)
	contentSvc := service.NewContentService(content)
	newsletterSvc := service.NewNewsletterService(cfg.Newsletter, publisher)

	api := app.Party("/api")

	api.Get("/health", func(ctx iris.Context) {
		_ = ctx.JSON(iris.Map{"status": "ok"})
	})

	// Products listing. Never cached so sale and stock data stay fresh.
	api.Get("/products", func(ctx iris.Context) {
		p := listParamsFrom(ctx)
		list, info, err := catalogSvc.List(ctx.Request().Context(), p)
		if err != nil {
			fail500Debug(ctx, err, cfg.Woo)
			return
		}
		pageHeaders(ctx, info)
		ctx.Header("Cache-Control", "no-store")
		_ = ctx.JSON(list)
	})

	api.Get("/products/random", func(ctx iris.Context) {
		p := service.ListParams{
			Query: product.ListQuery{
				PerPage:  intParam(ctx, "per_page", 4),
				OrderBy:  ctx.URLParam("orderby"),
				Category: ctx.URLParam("category"),
			},
			Random: true,
			Unique: ctx.URLParam("unique") != "",
		}
		list, _, err := catalogSvc.List(ctx.Request().Context(), p)
		if err != nil {
			fail(ctx, err, "Failed to fetch random products")
			return
		}
		ctx.Header("Cache-Control", "no-store")
		_ = ctx.JSON(list)
	})

	api.Get("/products/bulk", func(ctx iris.Context) {
		ids := parseIDs(ctx.URLParam("ids"))
		list, err := catalogSvc.Bulk(ctx.Request().Context(), ids)
		if err != nil {
			fail(ctx, err, "Failed to fetch products")
			return
		}
		_ = ctx.JSON(list)
	})

	api.Get("/products/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		cached(cache, ctx, "products", ttlProducts, func() (interface{}, error) {
			return catalogSvc.Get(ctx.Request().Context(), id)
		}, "Failed to fetch product")
	})

	api.Get("/categories", func(ctx iris.Context) {
		q := product.CategoryQuery{
			PerPage:   intParam(ctx, "per_page", 100),
			Parent:    ctx.URLParam("parent"),
			HideEmpty: ctx.URLParam("hide_empty"),
		}
		cached(cache, ctx, "categories", ttlCategories, func() (interface{}, error) {
			return catalogSvc.Categories(ctx.Request().Context(), q)
		}, "Failed to fetch categories")
	})

	api.Get("/upsell", func(ctx iris.Context) {
		p := service.UpsellParams{
			IDs:    parseIDs(ctx.URLParam("ids")),
			Limit:  clamp(intParam(ctx, "limit", 4), 1, 12),
			PerCat: clamp(intParam(ctx, "per", 6), 1, 12),
			CatCap: clamp(intParam(ctx, "cats", 3), 1, 6),
		}
		list, err := catalogSvc.Upsell(ctx.Request().Context(), p)
		if err != nil {
			fail(ctx, err, "Failed to fetch upsell products")
			return
		}
		_ = ctx.JSON(list)
	})

	api.Get("/collections", func(ctx iris.Context) {
		cached(cache, ctx, "collections", ttlCollections, func() (interface{}, error) {
			return contentSvc.Collections(ctx.Request().Context())
		}, "Failed to fetch collections")
	})

	// Pagination headers vary per page, so this route skips the cache.
	api.Get("/collections/{slug}/products", func(ctx iris.Context) {
		p := service.CollectionParams{
			Slug:        ctx.Params().Get("slug"),
			Page:        intParam(ctx, "page", 1),
			PerPage:     intParam(ctx, "per_page", 24),
			MinPrice:    ctx.URLParam("min_price"),
			MaxPrice:    ctx.URLParam("max_price"),
			PriceRanges: service.ParsePriceRanges(ctx.URLParam("price_ranges")),
			Attributes:  attrFiltersFrom(ctx),
		}
		list, info, err := collectionSvc.Products(ctx.Request().Context(), p)
		if err != nil {
			fail(ctx, err, "Failed to fetch collection products")
			return
		}
		pageHeaders(ctx, info)
		_ = ctx.JSON(list)
	})

	api.Get("/collections/{slug}/filters", func(ctx iris.Context) {
		slug := ctx.Params().Get("slug")
		cached(cache, ctx, "filters", ttlFilters, func() (interface{}, error) {
			return filterSvc.ForCollection(ctx.Request().Context(), slug)
		}, "Failed to fetch collection filters")
	})

	api.Get("/filters", func(ctx iris.Context) {
		cached(cache, ctx, "filters", ttlFilters, func() (interface{}, error) {
			return filterSvc.Global(ctx.Request().Context())
		}, "Failed to fetch filters")
	})

	api.Get("/events", func(ctx iris.Context) {
		cached(cache, ctx, "collections", ttlCollections, func() (interface{}, error) {
			return contentSvc.Events(ctx.Request().Context())
		}, "Failed to fetch events")
	})

	api.Get("/menu/primary", func(ctx iris.Context) {
		cached(cache, ctx, "collections", ttlCollections, func() (interface{}, error) {
			items, err := contentSvc.Menu(ctx.Request().Context())
			if err != nil {
				return nil, err
			}
			return iris.Map{"items": items}, nil
		}, "Failed to fetch menu")
	})

	api.Get("/homepage", func(ctx iris.Context) {
		cached(cache, ctx, "collections", ttlCollections, func() (interface{}, error) {
			return contentSvc.Homepage(ctx.Request().Context())
		}, "Failed to fetch homepage config")
	})

	registerCartRoutes(api, cartSvc)
	registerCheckoutRoutes(api, checkoutSvc, cache)
	registerAuthRoutes(api, validator)

	api.Post("/newsletter/subscribe", func(ctx iris.Context) {
		var req struct {
			Email string `json:"email"`
			Topic string `json:"topic"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"error": "Invalid payload"})
			return
		}
		if err := newsletterSvc.Signup(ctx.Request().Context(), req.Email, req.Topic); err != nil {
			fail(ctx, err, "Subscription failed")
			return
		}
		_ = ctx.JSON(iris.Map{"ok": true})
	})

	registerRevalidate(api, cache, cfg.Revalidate.Secret)
	return nil
}

// fail500Debug is the products-route error shape: generic message plus
// non-sensitive connectivity context.
func fail500Debug(ctx iris.Context, err error, woo config.WooConfig) {
	var se *service.StatusError
	if errors.As(err, &se) {
		ctx.StopWithJSON(se.Code, iris.Map{"error": se.Message})
		return
	}
	authMode := "query"
	if woo.UseBasic() {
		authMode = "basic"
	}
	ctx.StopWithJSON(500, iris.Map{
		"error":  "Failed to fetch products",
		"detail": err.Error(),
		"debug":  iris.Map{"base": woo.Host(), "auth": authMode},
	})
}

func listParamsFrom(ctx iris.Context) service.ListParams {
	q := product.ListQuery{
		Page:     intParam(ctx, "page", 0),
		PerPage:  intParam(ctx, "per_page", 12),
		Search:   ctx.URLParam("search"),
		Category: ctx.URLParam("category"),
		Slug:     ctx.URLParam("slug"),
		OrderBy:  ctx.URLParam("orderby"),
		Order:    ctx.URLParam("order"),
		Featured: ctx.URLParam("featured"),
		MinPrice: ctx.URLParam("min_price"),
		MaxPrice: ctx.URLParam("max_price"),
	}
	if q.PerPage < 1 {
		q.PerPage = 12
	}

	saleOnly := false
	switch strings.ToLower(ctx.URLParam("on_sale")) {
	case "1", "true", "yes":
		q.OnSale = "true"
		saleOnly = true
	}

	q.Attributes = attrFiltersFrom(ctx)

	return service.ListParams{
		Query:       q,
		SaleOnly:    saleOnly,
		Random:      ctx.URLParam("random") != "",
		Unique:      ctx.URLParam("unique") != "",
		PriceRanges: service.ParsePriceRanges(ctx.URLParam("price_ranges")),
	}
}

// attrFiltersFrom collects attr_<slug>=termIds parameters, prefixing
// the taxonomy with pa_ when the caller left it off.
func attrFiltersFrom(ctx iris.Context) []product.AttributeFilter {
	var out []product.AttributeFilter
	for key, vals := range ctx.Request().URL.Query() {
		if !strings.HasPrefix(key, "attr_") || len(vals) == 0 || vals[0] == "" {
			continue
		}
		tax := strings.TrimPrefix(key, "attr_")
		if !strings.HasPrefix(tax, "pa_") {
			tax = "pa_" + tax
		}
		out = append(out, product.AttributeFilter{Taxonomy: tax, Terms: vals[0]})
	}
	return out
}

func registerRevalidate(api iris.Party, cache *redis.Cache, secret string) {
	handle := func(ctx iris.Context) {
		provided := ctx.URLParam("secret")
		if secret == "" || provided == "" || provided != secret {
			ctx.StopWithJSON(401, iris.Map{"ok": false, "error": "Unauthorized"})
			return
		}
		tag := ctx.URLParam("tag")
		path := ctx.URLParam("path")
		if ctx.Method() == http.MethodPost {
			var body struct {
				Tag  string `json:"tag"`
				Path string `json:"path"`
			}
			if err := ctx.ReadJSON(&body); err == nil {
				if body.Tag != "" {
					tag = body.Tag
				}
				if body.Path != "" {
					path = body.Path
				}
			}
		}
		cleared := 0
		if tag != "" {
			cleared += cache.InvalidateTag(tag)
		}
		if path != "" {
			cleared += cache.InvalidatePath(path)
		}
		_ = ctx.JSON(iris.Map{"ok": true, "tag": orNil(tag), "path": orNil(path), "cleared": cleared})
	}
	api.Get("/revalidate", handle)
	api.Post("/revalidate", handle)
}

func orNil(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
