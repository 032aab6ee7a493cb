// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package pagination provides the offset/amount window used by list endpoints.
//
// # Overview
//
// Clients page with `offset` (items to skip) and `amount` (items to return).
// List responses carry the total number of matching items next to the page.
package pagination

import (
	"net/http"

	"github.com/taibuivan/vehicles/pkg/convert"
)

const (
	// MaxAmount bounds a single page. It also applies when no amount is given.
	MaxAmount = 1000

	QueryOffset = "offset"
	QueryAmount = "amount"
)

// Params holds the parsed window from a request's query string.
type Params struct {
	Offset int
	Amount int
}

// Take returns the number of items to read. An amount of zero or less means
// "no limit" and is capped at [MaxAmount] like any other amount.
func (p Params) Take() int {
	if p.Amount <= 0 || p.Amount > MaxAmount {
		return MaxAmount
	}
	return p.Amount
}

// Skip returns the number of items to skip, never negative.
func (p Params) Skip() int {
	return max(p.Offset, 0)
}

// FromRequest parses "offset" and "amount" query parameters. Missing or
// malformed values read as zero.
func FromRequest(r *http.Request) Params {
	query := r.URL.Query()
	return Params{
		Offset: convert.ToIntD(query.Get(QueryOffset), 0),
		Amount: convert.ToIntD(query.Get(QueryAmount), 0),
	}
}
