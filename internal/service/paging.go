package service

import (
	"strconv"

	"github.com/kaabmedia/Vdubscards/internal/datamodels/product"
)

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// paginate slices an in-memory result set and reports totals for it.
func paginate(all []product.Product, page, perPage int) ([]product.Product, product.PageInfo, error) {
	info := product.PageInfo{
		Total:      len(all),
		TotalPages: (len(all) + perPage - 1) / perPage,
	}
	start := (page - 1) * perPage
	if start >= len(all) {
		return []product.Product{}, info, nil
	}
	end := start + perPage
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], info, nil
}

// localInfo describes a single locally assembled page.
func localInfo(count, perPage int) product.PageInfo {
	pages := 1
	if perPage > 0 && count > perPage {
		pages = (count + perPage - 1) / perPage
	}
	return product.PageInfo{Total: count, TotalPages: pages}
}
