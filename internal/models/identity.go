package models

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// Identity derives the stable content identity of an asset from its natural
// key. Symbol and name are upper-cased before hashing so that the same
// logical asset always yields the same identity regardless of source
// formatting. The digest is used as primary key of description rows and as
// the join key against quote rows; it is a dedup key, not a security measure.
func Identity(symbol, name string, kind Kind) string {
	sum := md5.Sum([]byte(strings.ToUpper(symbol) + strings.ToUpper(name) + kind.QuoteTable()))
	return hex.EncodeToString(sum[:])
}
