package alias

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

// 边界层（HTTP）使用的输入校验；工作流本身假定输入已经合法。
var (
	ErrInvalidURL   = errors.New("invalid url")
	ErrInvalidAlias = errors.New("invalid alias")
	ErrInvalidTTL   = errors.New("invalid ttl")
)

// ValidateURL accepts absolute http/https URLs with a host.
func ValidateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return ErrInvalidURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ErrInvalidURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrInvalidURL
	}
	if strings.TrimSpace(u.Host) == "" {
		return ErrInvalidURL
	}
	return nil
}

var aliasRe = regexp.MustCompile(`^[0-9a-zA-Z]{1,7}$`)

// ValidateAlias reports whether s could have been produced by ComputeAlias.
func ValidateAlias(s string) error {
	if !aliasRe.MatchString(s) {
		return ErrInvalidAlias
	}
	return nil
}

// ValidateTTL bounds a requested TTL in hours; 0 means "use the default".
func ValidateTTL(hours int) error {
	if hours < 0 || hours > MaxTTLHours {
		return ErrInvalidTTL
	}
	return nil
}
