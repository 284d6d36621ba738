package server

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/kataras/iris/v12"

	"github.com/kaabmedia/Vdubscards/internal/datamodels/product"
	"github.com/kaabmedia/Vdubscards/internal/infra/redis"
	"github.com/kaabmedia/Vdubscards/internal/service"
)

// fail maps a service error onto the response. StatusError carries its
// own HTTP status; anything else is a 500 with the fallback message and
// the error text as detail.
func fail(ctx iris.Context, err error, fallback string) {
	var se *service.StatusError
	if errors.As(err, &se) {
		ctx.StopWithJSON(se.Code, iris.Map{"error": se.Message})
		return
	}
	ctx.StopWithJSON(500, iris.Map{"error": fallback, "detail": err.Error()})
}

// pageHeaders writes the pagination totals the storefront reads, under
// both the custom and the upstream header names.
func pageHeaders(ctx iris.Context, info product.PageInfo) {
	total := strconv.Itoa(info.Total)
	pages := strconv.Itoa(info.TotalPages)
	ctx.Header("x-total", total)
	ctx.Header("x-total-pages", pages)
	ctx.Header("X-WP-Total", total)
	ctx.Header("X-WP-TotalPages", pages)
}

func intParam(ctx iris.Context, name string, def int) int {
	raw := ctx.URLParam(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// parseIDs splits a comma-separated id list, dropping invalid tokens.
func parseIDs(raw string) []int64 {
	var out []int64
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		if id, err := strconv.ParseInt(tok, 10, 64); err == nil {
			out = append(out, id)
		}
	}
	return out
}

// cached wraps a GET handler body with the tagged response cache. The
// fill function produces the payload; headers are not cached, so only
// header-free routes go through here.
func cached(cache *redis.Cache, ctx iris.Context, tag string, ttl time.Duration, fill func() (interface{}, error), fallback string) {
	key := ctx.Request().URL.RequestURI()
	if body, ok := cache.Get(key); ok {
		ctx.ContentType("application/json")
		_, _ = ctx.Write(body)
		return
	}
	payload, err := fill()
	if err != nil {
		fail(ctx, err, fallback)
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		fail(ctx, err, fallback)
		return
	}
	cache.Set(tag, key, body, ttl)
	ctx.ContentType("application/json")
	_, _ = ctx.Write(body)
}
