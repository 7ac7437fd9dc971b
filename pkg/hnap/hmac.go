package hnap

import (
	"crypto/hmac"
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// HexHMACMD5 computes the HMAC-MD5 digest of message under key and renders it
// as uppercase hex. Every credential and signature in the protocol goes
// through this one primitive; the firmware compares digests as uppercase
// strings, so lowercase output fails authentication without any error hint.
func HexHMACMD5(key, message []byte) string {
	mac := hmac.New(md5.New, key)
	mac.Write(message)
	return strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))
}
