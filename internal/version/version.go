// Package version negotiates the OData v2 protocol version of a response
// from the DataServiceVersion headers of the request.
package version

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Header names of the OData v2 version negotiation.
const (
	HeaderDataServiceVersion    = "DataServiceVersion"
	HeaderMaxDataServiceVersion = "MaxDataServiceVersion"
)

// Version represents an OData protocol version
type Version struct {
	Major int
	Minor int
}

// Protocol versions the service answers with.
var (
	V1 = Version{Major: 1, Minor: 0}
	V2 = Version{Major: 2, Minor: 0}
)

// String returns the version in "Major.Minor" format.
func (v Version) String() string {
	return strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor)
}

// LessThanOrEqual compares two versions.
func (v Version) LessThanOrEqual(other Version) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	return v.Minor <= other.Minor
}

// Parse parses a header value such as "2.0" or "2.0;NetFx". The client
// suffix after the semicolon is ignored.
func Parse(value string) (Version, error) {
	value, _, _ = strings.Cut(value, ";")
	value = strings.TrimSpace(value)
	if value == "" {
		return Version{}, fmt.Errorf("empty version string")
	}

	majorText, minorText, _ := strings.Cut(value, ".")
	major, err := strconv.Atoi(majorText)
	if err != nil {
		return Version{}, fmt.Errorf("invalid major version in %s: %w", value, err)
	}
	minor := 0
	if minorText != "" {
		minor, err = strconv.Atoi(minorText)
		if err != nil {
			return Version{}, fmt.Errorf("invalid minor version in %s: %w", value, err)
		}
	}
	return Version{Major: major, Minor: minor}, nil
}

// Negotiate returns the highest supported version that does not exceed the
// MaxDataServiceVersion header value. An empty header selects V2.
func Negotiate(maxVersion string) (Version, error) {
	if strings.TrimSpace(maxVersion) == "" {
		return V2, nil
	}
	clientMax, err := Parse(maxVersion)
	if err != nil {
		return Version{}, err
	}
	for _, supported := range []Version{V2, V1} {
		if supported.LessThanOrEqual(clientMax) {
			return supported, nil
		}
	}
	return Version{}, fmt.Errorf("%s %s is lower than the lowest supported version %s", HeaderMaxDataServiceVersion, clientMax, V1)
}

// Required returns the lowest version able to express a request. $select,
// $inlinecount, $skiptoken and the /$count segment were introduced in 2.0.
func Required(path string, values url.Values) Version {
	if strings.HasSuffix(strings.TrimSuffix(path, "/"), "/$count") {
		return V2
	}
	for _, option := range []string{"$select", "$inlinecount", "$skiptoken"} {
		if values.Has(option) {
			return V2
		}
	}
	return V1
}
