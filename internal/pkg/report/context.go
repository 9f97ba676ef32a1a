package report

import (
	"errors"
	"strings"
	"time"
)

// Context names one of the three report views.
type Context string

const (
	Purchases Context = "purchases"
	Products  Context = "products"
	Customers Context = "customers"
)

var ErrUnknownContext = errors.New("report: unknown context")

// Contexts lists the views in tab order.
func Contexts() []Context {
	return []Context{Purchases, Products, Customers}
}

func ParseContext(name string) (Context, error) {
	switch c := Context(strings.ToLower(strings.TrimSpace(name))); c {
	case Purchases, Products, Customers:
		return c, nil
	}
	return "", ErrUnknownContext
}

func (c Context) Label() string {
	switch c {
	case Purchases:
		return "Purchases"
	case Products:
		return "Products"
	case Customers:
		return "Customers"
	}
	return string(c)
}

// evalCtx carries what value extraction needs besides the row itself.
type evalCtx struct {
	loc *time.Location
	now time.Time
}

func (ec *evalCtx) date(ts int64) string {
	if ts <= 0 {
		return ""
	}
	return time.Unix(ts, 0).In(ec.loc).Format("2006-01-02")
}

func (ec *evalCtx) dateTime(ts int64) string {
	if ts <= 0 {
		return ""
	}
	return time.Unix(ts, 0).In(ec.loc).Format("2006-01-02 15:04")
}
