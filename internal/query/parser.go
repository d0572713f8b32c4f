package query

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/nlstn/go-odata-sql/internal/edm"
	"github.com/nlstn/go-odata-sql/internal/odataerr"
)

// Options holds the parsed system query options of a read request.
type Options struct {
	Filter  Expr
	OrderBy []OrderByItem
	// Select is nil when every property is selected.
	Select []*edm.Property
	Expand []ExpandPath
	Top    *int
	Skip   *int
	// SkipToken is the raw $skiptoken; it is validated when the query is built.
	SkipToken   string
	InlineCount bool
}

// HasExpand reports whether an $expand path visits t.
func (o *Options) HasExpand(t *edm.EntityType) bool {
	for _, path := range o.Expand {
		if path.Expands(t) {
			return true
		}
	}
	return false
}

// ParseOptions parses the system query options in queryParams against target.
func ParseOptions(queryParams url.Values, target *edm.EntityType) (*Options, error) {
	options := &Options{}

	if err := parseFilterOption(queryParams, target, options); err != nil {
		return nil, err
	}
	if err := parseExpandOption(queryParams, target, options); err != nil {
		return nil, err
	}
	if err := parseSelectOption(queryParams, target, options); err != nil {
		return nil, err
	}
	if err := parseOrderByOption(queryParams, target, options); err != nil {
		return nil, err
	}
	if err := parseTopOption(queryParams, options); err != nil {
		return nil, err
	}
	if err := parseSkipOption(queryParams, options); err != nil {
		return nil, err
	}
	if err := parseInlineCountOption(queryParams, options); err != nil {
		return nil, err
	}
	options.SkipToken = strings.TrimSpace(queryParams.Get("$skiptoken"))

	return options, nil
}

func parseFilterOption(queryParams url.Values, target *edm.EntityType, options *Options) error {
	if filterStr := strings.TrimSpace(queryParams.Get("$filter")); filterStr != "" {
		filter, err := ResolveFilter(filterStr, target)
		if err != nil {
			return err
		}
		options.Filter = filter
	}
	return nil
}

func parseSelectOption(queryParams url.Values, target *edm.EntityType, options *Options) error {
	if selectStr := strings.TrimSpace(queryParams.Get("$select")); selectStr != "" {
		selected, err := ParseSelect(selectStr, target)
		if err != nil {
			return err
		}
		options.Select = selected
	}
	return nil
}

func parseExpandOption(queryParams url.Values, target *edm.EntityType, options *Options) error {
	if expandStr := strings.TrimSpace(queryParams.Get("$expand")); expandStr != "" {
		expand, err := ParseExpand(expandStr, target)
		if err != nil {
			return err
		}
		options.Expand = expand
	}
	return nil
}

func parseOrderByOption(queryParams url.Values, target *edm.EntityType, options *Options) error {
	if orderByStr := strings.TrimSpace(queryParams.Get("$orderby")); orderByStr != "" {
		orderBy, err := ParseOrderBy(orderByStr, target)
		if err != nil {
			return err
		}
		options.OrderBy = orderBy
	}
	return nil
}

// parseTopOption parses the $top query parameter
func parseTopOption(queryParams url.Values, options *Options) error {
	if topStr := queryParams.Get("$top"); topStr != "" {
		top, err := parseNonNegativeInt(topStr, "$top")
		if err != nil {
			return err
		}
		options.Top = &top
	}
	return nil
}

// parseSkipOption parses the $skip query parameter
func parseSkipOption(queryParams url.Values, options *Options) error {
	if skipStr := queryParams.Get("$skip"); skipStr != "" {
		skip, err := parseNonNegativeInt(skipStr, "$skip")
		if err != nil {
			return err
		}
		options.Skip = &skip
	}
	return nil
}

// parseInlineCountOption parses $inlinecount, which is allpages or none
func parseInlineCountOption(queryParams url.Values, options *Options) error {
	if countStr := queryParams.Get("$inlinecount"); countStr != "" {
		switch strings.ToLower(countStr) {
		case "allpages":
			options.InlineCount = true
		case "none":
		default:
			return odataerr.BadRequest("invalid $inlinecount: must be 'allpages' or 'none'")
		}
	}
	return nil
}

// parseNonNegativeInt parses a string as a non-negative integer
func parseNonNegativeInt(str, paramName string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(str))
	if err != nil || value < 0 {
		return 0, odataerr.BadRequest("invalid %s: must be a non-negative integer", paramName)
	}
	return value, nil
}
