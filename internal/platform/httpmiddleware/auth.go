package httpmiddleware

import (
	"net/http"
	"strings"

	"zoorl.local/gee"
	"zoorl.local/internal/platform/auth"
)

// RequireToken 校验 Authorization: Bearer <jwt>，并要求 token 带齐 scopes。
// 通过后 claims 挂在 request context 上（auth.FromContext 取）。
// 401 / 403 都带 WWW-Authenticate（RFC 6750）。
func RequireToken(ts auth.TokenService, scopes ...string) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		scheme, token, _ := strings.Cut(strings.TrimSpace(ctx.Req.Header.Get("Authorization")), " ")
		token = strings.TrimSpace(token)
		if !strings.EqualFold(scheme, "Bearer") || token == "" {
			ctx.SetHeader("WWW-Authenticate", `Bearer realm="zoorl"`)
			ctx.AbortWithError(http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := ts.Verify(token)
		if err != nil {
			ctx.SetHeader("WWW-Authenticate", `Bearer error="invalid_token"`)
			ctx.AbortWithError(http.StatusUnauthorized, "invalid token")
			return
		}
		for _, s := range scopes {
			if !claims.HasScope(s) {
				ctx.SetHeader("WWW-Authenticate", `Bearer error="insufficient_scope", scope="`+strings.Join(scopes, " ")+`"`)
				ctx.AbortWithError(http.StatusForbidden, "insufficient scope")
				return
			}
		}
		ctx.Req = ctx.Req.WithContext(auth.NewContext(ctx.Req.Context(), claims))
		ctx.Next()
	}
}
