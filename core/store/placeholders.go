package store

import (
	"strconv"
	"strings"
)

// rebind rewrites ? placeholders into the $1..$n form pgx expects. sqlite
// takes ? natively, so anything but postgres passes through untouched.
func rebind(driver, query string) string {
	if driver != "postgres" {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
