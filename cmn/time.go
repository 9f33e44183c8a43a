// Package cmn provides common low-level types and utilities shared by the
// droplet dispatch layer, transports, and backends.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package cmn

import (
	"strconv"
	"time"
)

const (
	// httpDateFormat is RFC 1123 with an explicit GMT zone, the only date
	// form S3-style servers sign and compare.
	httpDateFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

	iso8601Format = "2006-01-02T15:04:05Z"
)

// FormatHTTPDate renders t for Date/If-Modified-Since headers.
func FormatHTTPDate(t time.Time) string {
	return t.UTC().Format(httpDateFormat)
}

// ParseHTTPDate accepts the common HTTP date renderings plus raw epoch
// seconds (sproxyd timestamps).
func ParseHTTPDate(s string) (time.Time, error) {
	for _, layout := range []string{httpDateFormat, time.RFC1123, time.RFC1123Z, time.RFC850, time.ANSIC} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Time{}, Errf(EInval, "bad date %q", s)
}

// FormatISO8601 renders t the way CDMI carries times.
func FormatISO8601(t time.Time) string {
	return t.UTC().Format(iso8601Format)
}

// ParseISO8601 parses CDMI times, tolerating fractional seconds.
func ParseISO8601(s string) (time.Time, error) {
	for _, layout := range []string{iso8601Format, time.RFC3339, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, Errf(EInval, "bad iso8601 date %q", s)
}
