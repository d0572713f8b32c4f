// Package skiptoken handles the numeric $skiptoken of server-side paging: a
// row offset the server hands out in next links and adds to $skip when the
// client follows them.
package skiptoken

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/nlstn/go-odata-sql/internal/odataerr"
)

// Parse reads a $skiptoken value. An empty token yields ok == false. Tokens
// that are not a non-negative integer fail with 416 Requested Range Not
// Satisfiable.
func Parse(raw string) (token int, ok bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, odataerr.RangeNotSatisfiable("$skipToken must be a number").Wrap(err)
	}
	if n < 0 {
		return 0, false, odataerr.RangeNotSatisfiable("$skipToken must be a positive number equal or greater than zero")
	}
	return n, true, nil
}

// EffectiveSkip adds the $skiptoken to $skip. The result is nil when neither
// is present.
func EffectiveSkip(skip *int, raw string) (*int, error) {
	token, ok, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	switch {
	case ok && skip != nil:
		if *skip > math.MaxInt-token {
			return nil, odataerr.RangeNotSatisfiable("$skip and $skipToken exceed the largest supported offset")
		}
		sum := *skip + token
		return &sum, nil
	case ok:
		return &token, nil
	case skip != nil:
		s := *skip
		return &s, nil
	}
	return nil, nil
}

// Next returns the offset of the page after the one at offset with limit
// rows. ok is false when that offset is not representable.
func Next(offset, limit int) (next int, ok bool) {
	if offset < 0 || limit < 0 || offset > math.MaxInt-limit {
		return 0, false
	}
	return offset + limit, true
}

// NextLink returns requestURI with $skip and $skiptoken removed and
// $skiptoken=next appended. The remaining query options keep their order and
// encoding.
func NextLink(requestURI string, next int) string {
	path, rawQuery, _ := strings.Cut(requestURI, "?")

	var kept []string
	for _, part := range strings.Split(rawQuery, "&") {
		if part == "" {
			continue
		}
		name, _, _ := strings.Cut(part, "=")
		if unescaped, err := url.QueryUnescape(name); err == nil {
			name = unescaped
		}
		if name == "$skip" || name == "$skiptoken" {
			continue
		}
		kept = append(kept, part)
	}
	kept = append(kept, "$skiptoken="+strconv.Itoa(next))
	return path + "?" + strings.Join(kept, "&")
}
