package middleware

import (
	"crypto/rand"
	"encoding/hex"

	"zoorl.local/gee"
)

const RequestIDHeader = "X-Request-ID"

// ReqID reuses an acceptable inbound X-Request-ID or mints one, then echoes
// it on the response. The id is also written back to the request header so
// later middlewares and error bodies see the same value.
func ReqID() gee.HandlerFunc {
	return func(ctx *gee.Context) {
		id := ctx.Req.Header.Get(RequestIDHeader)
		if !validInboundID(id) {
			id = GenerateReqID()
			ctx.Req.Header.Set(RequestIDHeader, id)
		}
		ctx.SetHeader(RequestIDHeader, id)
		ctx.Next()
	}
}

// validInboundID: 1..128 个可打印 ASCII，防止日志注入和超长 header。
func validInboundID(id string) bool {
	if id == "" || len(id) > 128 {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}

// GenerateReqID returns 32 hex characters.
func GenerateReqID() string {
	var b [16]byte
	// crypto/rand.Read 在 Go 1.24 起不会返回错误
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
