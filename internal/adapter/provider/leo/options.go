package leo

import (
	"net/url"
	"strconv"

	"github.com/heartmarshall/leocli/internal/config"
	"github.com/heartmarshall/leocli/internal/domain"
)

// RequestOptions are the LEO query parameters that do not depend on the
// search itself. A value is built once per provider and never mutated.
type RequestOptions struct {
	ToleranceMode       string
	WordRemoval         string
	SearchRemoval       string
	SearchLocation      int
	ResultOrdering      string
	MultiwordShowSingle string
	UILanguage          string
}

// DefaultRequestOptions returns the options the LEO web client sends.
func DefaultRequestOptions() RequestOptions {
	return RequestOptions{
		ToleranceMode:       "nof",
		WordRemoval:         "off",
		SearchRemoval:       "on",
		SearchLocation:      0,
		ResultOrdering:      "basic",
		MultiwordShowSingle: "on",
		UILanguage:          "de",
	}
}

// OptionsFromConfig maps configured request settings to options.
func OptionsFromConfig(cfg config.RequestConfig) RequestOptions {
	return RequestOptions{
		ToleranceMode:       cfg.ToleranceMode,
		WordRemoval:         cfg.WordRemoval,
		SearchRemoval:       cfg.SearchRemoval,
		SearchLocation:      cfg.SearchLocation,
		ResultOrdering:      cfg.ResultOrder,
		MultiwordShowSingle: cfg.MultiwordShowSingle,
		UILanguage:          cfg.UILanguage,
	}
}

// Values renders the full query string parameters for q.
func (o RequestOptions) Values(q domain.Query) url.Values {
	v := url.Values{}
	v.Set("search", q.Search())
	v.Set("lp", q.Pair())
	v.Set("tolerMode", o.ToleranceMode)
	v.Set("rmWords", o.WordRemoval)
	v.Set("rmSearch", o.SearchRemoval)
	v.Set("searchLoc", strconv.Itoa(o.SearchLocation))
	v.Set("resultOrder", o.ResultOrdering)
	v.Set("multiwordShowSingle", o.MultiwordShowSingle)
	v.Set("lang", o.UILanguage)
	return v
}
