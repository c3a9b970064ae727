/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package hdr

import "strings"

// TokenEqual reports whether value, trimmed of surrounding OWS, case-
// insensitively equals token. Ported from badu-http's utils_transfer.go
// tokenEqual.
func TokenEqual(value, token string) bool {
	return strings.EqualFold(TrimString(value), token)
}

// TokenContains reports whether the comma-separated header value v
// contains token as one of its comma-separated elements, case-
// insensitively. Ported from badu-http's utils_transfer.go
// headerValueContainsToken.
func TokenContains(v, token string) bool {
	for len(v) > 0 {
		var part string
		if i := strings.IndexByte(v, ','); i >= 0 {
			part, v = v[:i], v[i+1:]
		} else {
			part, v = v, ""
		}
		if TokenEqual(part, token) {
			return true
		}
	}
	return false
}
